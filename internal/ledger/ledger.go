// Package ledger derives tenant balances from recorded payments.
package ledger

import (
	"sort"

	"rentroll/internal/core"
)

type TenantBalance struct {
	TenantID string     `json:"tenantId"`
	Name     string     `json:"name"`
	BaseRent core.Money `json:"baseRent"`
	Paid     core.Money `json:"paid"`
	Balance  core.Money `json:"balance"`
}

// Paid sums every payment recorded for tenantID.
func Paid(tenantID string, payments []core.Payment) core.Money {
	var sum core.Money
	for _, p := range payments {
		if p.TenantID == tenantID {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}

// Balance is the tenant's base rent minus everything paid. A negative
// balance is a credit.
func Balance(t core.Tenant, payments []core.Payment) core.Money {
	return t.BaseRent.Sub(Paid(t.ID, payments))
}

// Balances reports a balance per tenant, in tenant order.
func Balances(tenants []core.Tenant, payments []core.Payment) []TenantBalance {
	out := make([]TenantBalance, 0, len(tenants))
	for _, t := range tenants {
		paid := Paid(t.ID, payments)
		out = append(out, TenantBalance{
			TenantID: t.ID,
			Name:     t.Name,
			BaseRent: t.BaseRent,
			Paid:     paid,
			Balance:  t.BaseRent.Sub(paid),
		})
	}
	return out
}

// Recent returns up to n payments, newest first. Payments sharing a date
// keep their recorded order.
func Recent(payments []core.Payment, n int) []core.Payment {
	out := append([]core.Payment(nil), payments...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
