package projection

import (
	"sort"
	"time"

	"rentroll/internal/core"
)

// EffectiveRent applies every escalation dated on or before at to the base
// rent, in chronological order. Fixed escalations add their amount,
// percentage escalations compound on the running rent.
func EffectiveRent(t core.Tenant, at core.Date) core.Money {
	steps := make([]core.Escalation, 0, len(t.Escalations))
	for _, e := range t.Escalations {
		if e.Date.IsEmpty() || e.Date.After(at.Time) {
			continue
		}
		steps = append(steps, e)
	}
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Date.Before(steps[j].Date.Time)
	})

	rent := t.BaseRent
	for _, e := range steps {
		switch e.Type {
		case core.EscalationFixed:
			rent = rent.Add(core.MoneyFromFloat(e.Amount.Float()))
		case core.EscalationPercentage:
			rent = core.MoneyFromFloat(rent.Dollars() * (1 + e.Amount.Float()/100))
		}
	}
	return rent
}

type LeaseExpiration struct {
	TenantID string    `json:"tenantId"`
	Name     string    `json:"name"`
	LeaseEnd core.Date `json:"leaseEnd"`
	Upcoming bool      `json:"upcoming"`
	Expired  bool      `json:"expired"`
}

// LeaseSchedule lists tenants by lease end, earliest first. Upcoming marks
// leases ending between asOf and withinMonths later; tenants without a lease
// end are left out.
func LeaseSchedule(tenants []core.Tenant, asOf time.Time, withinMonths int) []LeaseExpiration {
	today := core.DateOf(asOf)
	limit := today.AddDate(0, withinMonths, 0)

	out := make([]LeaseExpiration, 0, len(tenants))
	for _, t := range tenants {
		if t.LeaseEnd.IsEmpty() {
			continue
		}
		expired := t.LeaseEnd.Before(today.Time)
		out = append(out, LeaseExpiration{
			TenantID: t.ID,
			Name:     t.Name,
			LeaseEnd: t.LeaseEnd,
			Expired:  expired,
			Upcoming: !expired && !t.LeaseEnd.After(limit),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LeaseEnd.Before(out[j].LeaseEnd.Time)
	})
	return out
}

// CountUpcoming returns how many entries are flagged upcoming.
func CountUpcoming(schedule []LeaseExpiration) int {
	n := 0
	for _, e := range schedule {
		if e.Upcoming {
			n++
		}
	}
	return n
}

type MixEntry struct {
	TenantID   string     `json:"tenantId"`
	Name       string     `json:"name"`
	SquareFeet float64    `json:"squareFeet"`
	BaseRent   core.Money `json:"baseRent"`
	AnnualPSF  float64    `json:"annualPSF"`
}

// TenantMix reports each tenant's footprint and annualized rent per square foot.
func TenantMix(tenants []core.Tenant) []MixEntry {
	out := make([]MixEntry, 0, len(tenants))
	for _, t := range tenants {
		sf := t.SquareFeet.Float()
		e := MixEntry{TenantID: t.ID, Name: t.Name, SquareFeet: sf, BaseRent: t.BaseRent}
		if sf > 0 {
			e.AnnualPSF = t.BaseRent.Dollars() * 12 / sf
		}
		out = append(out, e)
	}
	return out
}
