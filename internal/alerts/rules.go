package alerts

import (
	"fmt"
	"strconv"

	"rentroll/internal/core"
)

// Rule is the strategy interface for one alert source.
type Rule interface {
	// Collect returns the source's alerts inside w, in input order.
	Collect(in Input, w Window) []Alert
}

// LeaseRule alerts on leases ending inside the window.
type LeaseRule struct{}

func (LeaseRule) Collect(in Input, w Window) []Alert {
	var out []Alert
	for _, t := range in.Tenants {
		if !w.Contains(t.LeaseEnd) {
			continue
		}
		priority := PriorityMedium
		if w.Overdue(t.LeaseEnd) {
			priority = PriorityHigh
		}
		out = append(out, newAlert(KindLease, priority, t.ID, t.LeaseEnd,
			"Lease Expiring Soon",
			fmt.Sprintf("Lease for %s expires on %s", displayName(t.Name, t.ID), t.LeaseEnd)))
	}
	return out
}

// RentIncreaseRule alerts once per scheduled escalation inside the window.
// Escalations are informational, so they never escalate past medium.
type RentIncreaseRule struct{}

func (RentIncreaseRule) Collect(in Input, w Window) []Alert {
	var out []Alert
	for _, t := range in.Tenants {
		for i, e := range t.Escalations {
			if !w.Contains(e.Date) {
				continue
			}
			out = append(out, newAlert(KindRent, PriorityMedium, t.ID, e.Date,
				"Rent Increase Scheduled",
				fmt.Sprintf("Rent for %s increases by %s on %s", displayName(t.Name, t.ID), describeEscalation(e), e.Date),
				strconv.Itoa(i), string(e.Type), strconv.FormatFloat(e.Amount.Float(), 'f', -1, 64)))
		}
	}
	return out
}

// MaintenanceRule alerts once per schedule entry inside the window.
type MaintenanceRule struct{}

func (MaintenanceRule) Collect(in Input, w Window) []Alert {
	var out []Alert
	for _, u := range in.Units {
		for i, m := range u.MaintenanceSchedule {
			if !w.Contains(m.DueDate) {
				continue
			}
			priority := PriorityMedium
			if w.Overdue(m.DueDate) {
				priority = PriorityHigh
			}
			out = append(out, newAlert(KindMaintenance, priority, u.ID, m.DueDate,
				"Maintenance Due",
				fmt.Sprintf("%s due for unit %s on %s", m.Type, displayName(u.Number, u.ID), m.DueDate),
				strconv.Itoa(i), m.Type))
		}
	}
	return out
}

// PaymentRule alerts on tenants whose next payment falls inside the window.
type PaymentRule struct{}

func (PaymentRule) Collect(in Input, w Window) []Alert {
	var out []Alert
	for _, t := range in.Tenants {
		if !w.Contains(t.NextPaymentDate) {
			continue
		}
		priority := PriorityLow
		if w.Overdue(t.NextPaymentDate) {
			priority = PriorityHigh
		}
		out = append(out, newAlert(KindPayment, priority, t.ID, t.NextPaymentDate,
			"Rent Payment Due",
			fmt.Sprintf("Payment of $%.2f from %s due on %s", t.BaseRent.Dollars(), displayName(t.Name, t.ID), t.NextPaymentDate)))
	}
	return out
}

// DocumentRule alerts on documents expiring inside the window. Documents
// without an expiration date never alert.
type DocumentRule struct{}

func (DocumentRule) Collect(in Input, w Window) []Alert {
	var out []Alert
	for _, d := range in.Documents {
		if !w.Contains(d.ExpirationDate) {
			continue
		}
		priority := PriorityLow
		if w.Overdue(d.ExpirationDate) {
			priority = PriorityHigh
		}
		out = append(out, newAlert(KindDocument, priority, d.ID, d.ExpirationDate,
			"Document Expiring",
			fmt.Sprintf("%s expires on %s", displayName(d.Name, d.ID), d.ExpirationDate)))
	}
	return out
}

// scanOrder fixes the tie-break order between sources.
var scanOrder = []Kind{KindLease, KindRent, KindMaintenance, KindPayment, KindDocument}

// rules maps each alert kind to its strategy.
var rules = map[Kind]Rule{
	KindLease:       LeaseRule{},
	KindRent:        RentIncreaseRule{},
	KindMaintenance: MaintenanceRule{},
	KindPayment:     PaymentRule{},
	KindDocument:    DocumentRule{},
}

// RuleFor returns the strategy registered for kind.
func RuleFor(kind Kind) (Rule, error) {
	rule, ok := rules[kind]
	if !ok {
		return nil, fmt.Errorf("unknown alert kind: %s", kind)
	}
	return rule, nil
}

// Kinds returns every alert kind in scan order.
func Kinds() []Kind {
	return append([]Kind(nil), scanOrder...)
}

func describeEscalation(e core.Escalation) string {
	amount := strconv.FormatFloat(e.Amount.Float(), 'f', -1, 64)
	if e.Type == core.EscalationPercentage {
		return amount + "%"
	}
	return "$" + amount
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
