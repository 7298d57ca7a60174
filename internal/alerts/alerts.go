// Package alerts scans lease records for upcoming or overdue events and
// classifies them by priority.
//
// Scan is pure: it reads the supplied collections, never mutates them, and
// returns the same alerts for the same inputs and asOf instant.
package alerts

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentroll/internal/core"
)

const (
	KindLease       Kind = "lease"
	KindRent        Kind = "rent"
	KindMaintenance Kind = "maintenance"
	KindPayment     Kind = "payment"
	KindDocument    Kind = "document"
)

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type (
	Kind     string
	Priority string

	Alert struct {
		ID        string    `json:"id"`
		Kind      Kind      `json:"type"`
		Priority  Priority  `json:"priority"`
		SubjectID string    `json:"subjectId"`
		Title     string    `json:"title"`
		Message   string    `json:"message"`
		DueDate   core.Date `json:"dueDate"`
	}
)

// idNamespace scopes alert IDs so they never collide with other UUIDv5 users.
var idNamespace = uuid.MustParse("5b0f4c3e-8d7a-4e59-9a43-2f1c6d0b7e18")

// AlertID derives a stable identifier from the alert's kind, subject and due
// date. Sources that raise several alerts per subject pass the entry's
// discriminators (schedule index, type, amount) so same-day entries differ.
func AlertID(kind Kind, subjectID string, due core.Date, entry ...string) string {
	parts := append([]string{string(kind), subjectID, due.String()}, entry...)
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(parts, "|"))).String()
}

// Window is the look-ahead range of one scan.
type Window struct {
	AsOf    time.Time
	Horizon time.Time
}

// NewWindow extends asOf by days. Negative values collapse the window to asOf.
func NewWindow(asOf time.Time, days int) Window {
	if days < 0 {
		days = 0
	}
	return Window{AsOf: asOf, Horizon: asOf.AddDate(0, 0, days)}
}

// Contains reports whether due falls on or before the horizon.
func (w Window) Contains(due core.Date) bool {
	return !due.IsEmpty() && !due.After(w.Horizon)
}

// Overdue reports whether due is on or before asOf.
func (w Window) Overdue(due core.Date) bool {
	return !due.After(w.AsOf)
}

// Input bundles the record collections a scan reads.
type Input struct {
	Tenants   []core.Tenant
	Units     []core.Unit
	Documents []core.Document
}

// Scan runs every enabled rule in a fixed source order (lease, rent,
// maintenance, payment, document) and returns the alerts sorted by due date.
// Alerts with equal due dates keep their scan order.
func Scan(tenants []core.Tenant, units []core.Unit, documents []core.Document, settings Settings, asOf time.Time) []Alert {
	in := Input{Tenants: tenants, Units: units, Documents: documents}
	w := NewWindow(asOf, settings.AdvanceNoticeDays)

	out := make([]Alert, 0)
	for _, kind := range scanOrder {
		if !settings.Enabled(kind) {
			continue
		}
		rule, err := RuleFor(kind)
		if err != nil {
			continue
		}
		out = append(out, rule.Collect(in, w)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate.Time)
	})
	return out
}

func newAlert(kind Kind, priority Priority, subjectID string, due core.Date, title, message string, entry ...string) Alert {
	return Alert{
		ID:        AlertID(kind, subjectID, due, entry...),
		Kind:      kind,
		Priority:  priority,
		SubjectID: subjectID,
		Title:     title,
		Message:   message,
		DueDate:   due,
	}
}

// CountByPriority tallies alerts per priority.
func CountByPriority(list []Alert) map[Priority]int {
	counts := map[Priority]int{PriorityHigh: 0, PriorityMedium: 0, PriorityLow: 0}
	for _, a := range list {
		counts[a.Priority]++
	}
	return counts
}
