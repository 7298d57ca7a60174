package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentroll/internal/core"
)

// Rent roll column headers, matched case-insensitively.
const (
	colID             = "ID"
	colTenant         = "Tenant"
	colUnit           = "Unit"
	colLeaseStart     = "Lease Start"
	colLeaseEnd       = "Lease End"
	colBaseRent       = "Base Rent"
	colAdditionalRent = "Additional Rent"
	colSquareFeet     = "SF"
	colNextPayment    = "Next Payment"
)

var tenantNamespace = uuid.MustParse("9c1d7a52-3e0b-4f6a-8d2e-61b4c05f9a37")

// sheetDateLayouts are the date renderings Sheets produces for common locales.
var sheetDateLayouts = []string{core.DateLayout, "1/2/2006", "01/02/2006", "Jan 2, 2006", "2 Jan 2006"}

// parseRentRoll converts a values matrix (as returned by Sheets API) into
// tenants. Cells that fail to parse become zero or empty; rows without a
// tenant name are skipped. Rows without an ID get one derived from the name
// so re-imports update instead of duplicating.
func parseRentRoll(values [][]any) ([]core.Tenant, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	col := map[string]int{}
	for _, name := range []string{colID, colTenant, colUnit, colLeaseStart, colLeaseEnd, colBaseRent, colAdditionalRent, colSquareFeet, colNextPayment} {
		col[name] = indexOf(headers, name)
	}
	if col[colTenant] == -1 {
		return nil, fmt.Errorf("unexpected rent roll header: missing %s; got headers=%v", colTenant, headers)
	}

	var out []core.Tenant
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		name := safeGet(row, col[colTenant])
		if name == "" {
			continue
		}
		id := safeGet(row, col[colID])
		if id == "" {
			id = uuid.NewSHA1(tenantNamespace, []byte(strings.ToLower(name))).String()
		}
		out = append(out, core.Tenant{
			ID:              id,
			Name:            name,
			UnitID:          safeGet(row, col[colUnit]),
			LeaseStart:      parseSheetDate(safeGet(row, col[colLeaseStart])),
			LeaseEnd:        parseSheetDate(safeGet(row, col[colLeaseEnd])),
			BaseRent:        parseMoney(safeGet(row, col[colBaseRent])),
			AdditionalRent:  parseMoney(safeGet(row, col[colAdditionalRent])),
			SquareFeet:      parseNumber(safeGet(row, col[colSquareFeet])),
			NextPaymentDate: parseSheetDate(safeGet(row, col[colNextPayment])),
		})
	}
	return out, nil
}

func parseSheetDate(s string) core.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}
	}
	for _, layout := range sheetDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t)
		}
	}
	return core.Date{}
}

func parseMoney(s string) core.Money {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}
	}
	return core.Money{Cents: cents}
}

func parseNumber(s string) core.Number {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return core.Number(f)
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

func safeGet(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
