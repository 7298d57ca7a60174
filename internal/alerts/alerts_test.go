package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentroll/internal/core"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func only(kind Kind, days int) Settings {
	s := Settings{AdvanceNoticeDays: days}
	switch kind {
	case KindLease:
		s.LeaseExpirations = true
	case KindRent:
		s.RentIncreases = true
	case KindMaintenance:
		s.Maintenance = true
	case KindPayment:
		s.Payments = true
	case KindDocument:
		s.Documents = true
	}
	return s
}

func TestScanLeaseExpirationPriority(t *testing.T) {
	tenants := []core.Tenant{{ID: "t1", Name: "Acme", LeaseEnd: core.NewDate(2024, 2, 15)}}
	settings := only(KindLease, 30)

	tests := []struct {
		name string
		asOf time.Time
		want Priority
	}{
		{"future but within horizon", day(2024, 2, 1), PriorityMedium},
		{"past due", day(2024, 2, 20), PriorityHigh},
		{"due today", day(2024, 2, 15), PriorityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scan(tenants, nil, nil, settings, tt.asOf)
			require.Len(t, got, 1)
			assert.Equal(t, KindLease, got[0].Kind)
			assert.Equal(t, tt.want, got[0].Priority)
			assert.Equal(t, "t1", got[0].SubjectID)
			assert.Equal(t, core.NewDate(2024, 2, 15), got[0].DueDate)
		})
	}
}

func TestScanPriorityRules(t *testing.T) {
	asOf := day(2024, 6, 1)
	past := core.NewDate(2024, 5, 20)
	future := core.NewDate(2024, 6, 10)

	tests := []struct {
		name     string
		kind     Kind
		tenants  []core.Tenant
		units    []core.Unit
		docs     []core.Document
		wantPast Priority
		wantNext Priority
	}{
		{
			name: "maintenance",
			kind: KindMaintenance,
			units: []core.Unit{{ID: "u1", Number: "101", MaintenanceSchedule: []core.MaintenanceEntry{
				{Type: "HVAC", DueDate: past}, {Type: "Roof", DueDate: future},
			}}},
			wantPast: PriorityHigh,
			wantNext: PriorityMedium,
		},
		{
			name: "rent increase is always medium",
			kind: KindRent,
			tenants: []core.Tenant{{ID: "t1", Escalations: []core.Escalation{
				{Date: past, Amount: 3, Type: core.EscalationPercentage},
				{Date: future, Amount: 100, Type: core.EscalationFixed},
			}}},
			wantPast: PriorityMedium,
			wantNext: PriorityMedium,
		},
		{
			name:     "payment",
			kind:     KindPayment,
			tenants:  []core.Tenant{{ID: "a", NextPaymentDate: past}, {ID: "b", NextPaymentDate: future}},
			wantPast: PriorityHigh,
			wantNext: PriorityLow,
		},
		{
			name:     "document",
			kind:     KindDocument,
			docs:     []core.Document{{ID: "d1", ExpirationDate: past}, {ID: "d2", ExpirationDate: future}},
			wantPast: PriorityHigh,
			wantNext: PriorityLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scan(tt.tenants, tt.units, tt.docs, only(tt.kind, 30), asOf)
			require.Len(t, got, 2)
			assert.Equal(t, past, got[0].DueDate)
			assert.Equal(t, tt.wantPast, got[0].Priority)
			assert.Equal(t, future, got[1].DueDate)
			assert.Equal(t, tt.wantNext, got[1].Priority)
			for _, a := range got {
				assert.Equal(t, tt.kind, a.Kind)
			}
		})
	}
}

func TestScanSkipsBeyondHorizon(t *testing.T) {
	tenants := []core.Tenant{{ID: "t1", LeaseEnd: core.NewDate(2024, 3, 5)}}
	assert.Empty(t, Scan(tenants, nil, nil, only(KindLease, 30), day(2024, 2, 1)))
	assert.Len(t, Scan(tenants, nil, nil, only(KindLease, 33), day(2024, 2, 1)), 1)
}

func TestScanDocumentWithoutExpirationNeverAlerts(t *testing.T) {
	docs := []core.Document{{ID: "d1", Name: "Insurance certificate"}}
	for _, days := range []int{0, 30, MaxAdvanceNoticeDays, 100000} {
		got := Scan(nil, nil, docs, only(KindDocument, days), day(2024, 1, 1))
		assert.Empty(t, got, "days=%d", days)
	}
}

func TestScanSkipsMissingDates(t *testing.T) {
	tenants := []core.Tenant{{ID: "t1", Escalations: []core.Escalation{{Amount: 5, Type: core.EscalationFixed}}}}
	units := []core.Unit{{ID: "u1", MaintenanceSchedule: []core.MaintenanceEntry{{Type: "HVAC"}}}}
	got := Scan(tenants, units, nil, DefaultSettings(), day(2024, 1, 1))
	assert.Empty(t, got)
}

func TestScanDisabledSourcesProduceNothing(t *testing.T) {
	asOf := day(2024, 1, 1)
	due := core.NewDate(2024, 1, 2)
	tenants := []core.Tenant{{
		ID: "t1", LeaseEnd: due, NextPaymentDate: due,
		Escalations: []core.Escalation{{Date: due, Amount: 1, Type: core.EscalationFixed}},
	}}
	units := []core.Unit{{ID: "u1", MaintenanceSchedule: []core.MaintenanceEntry{{Type: "HVAC", DueDate: due}}}}
	docs := []core.Document{{ID: "d1", ExpirationDate: due}}

	assert.Empty(t, Scan(tenants, units, docs, Settings{AdvanceNoticeDays: 30}, asOf))
	assert.Len(t, Scan(tenants, units, docs, DefaultSettings(), asOf), 5)
}

func TestScanOneAlertPerEscalationAndEntry(t *testing.T) {
	asOf := day(2024, 1, 1)
	tenants := []core.Tenant{{ID: "t1", Escalations: []core.Escalation{
		{Date: core.NewDate(2024, 1, 10), Amount: 1, Type: core.EscalationFixed},
		{Date: core.NewDate(2024, 1, 20), Amount: 2, Type: core.EscalationFixed},
		{Date: core.NewDate(2025, 1, 20), Amount: 3, Type: core.EscalationFixed},
	}}}
	units := []core.Unit{{ID: "u1", MaintenanceSchedule: []core.MaintenanceEntry{
		{Type: "HVAC", DueDate: core.NewDate(2024, 1, 5)},
		{Type: "Fire", DueDate: core.NewDate(2024, 1, 6)},
	}}}

	got := Scan(tenants, units, nil, DefaultSettings(), asOf)
	assert.Equal(t, map[Priority]int{PriorityHigh: 0, PriorityMedium: 4, PriorityLow: 0}, CountByPriority(got))
}

func TestScanOrderingIsStable(t *testing.T) {
	asOf := day(2024, 1, 1)
	due := core.NewDate(2024, 1, 15)
	tenants := []core.Tenant{
		{ID: "t1", LeaseEnd: due, NextPaymentDate: due},
		{ID: "t2", LeaseEnd: core.NewDate(2024, 1, 3), NextPaymentDate: due},
	}
	units := []core.Unit{{ID: "u1", MaintenanceSchedule: []core.MaintenanceEntry{{Type: "HVAC", DueDate: due}}}}
	docs := []core.Document{{ID: "d1", ExpirationDate: due}}

	first := Scan(tenants, units, docs, DefaultSettings(), asOf)
	require.Len(t, first, 6)

	assert.Equal(t, "t2", first[0].SubjectID)
	var order []string
	for _, a := range first[1:] {
		order = append(order, string(a.Kind)+":"+a.SubjectID)
	}
	assert.Equal(t, []string{"lease:t1", "maintenance:u1", "payment:t1", "payment:t2", "document:d1"}, order)

	for i := 1; i < len(first); i++ {
		assert.False(t, first[i].DueDate.Before(first[i-1].DueDate.Time))
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Scan(tenants, units, docs, DefaultSettings(), asOf))
	}
}

func TestScanMonotonicInHorizon(t *testing.T) {
	asOf := day(2024, 3, 1)
	tenants := []core.Tenant{
		{ID: "t1", LeaseEnd: core.NewDate(2024, 3, 20), NextPaymentDate: core.NewDate(2024, 2, 1)},
		{ID: "t2", LeaseEnd: core.NewDate(2024, 6, 1), Escalations: []core.Escalation{
			{Date: core.NewDate(2024, 4, 15), Amount: 2, Type: core.EscalationPercentage},
		}},
	}
	docs := []core.Document{{ID: "d1", ExpirationDate: core.NewDate(2024, 9, 1)}}

	prev := map[string]bool{}
	for _, days := range []int{0, 10, 30, 60, 90, 120, 365} {
		s := DefaultSettings()
		s.AdvanceNoticeDays = days
		got := map[string]bool{}
		for _, a := range Scan(tenants, nil, docs, s, asOf) {
			got[a.ID] = true
		}
		for id := range prev {
			assert.True(t, got[id], "alert %s dropped at %d days", id, days)
		}
		prev = got
	}
	assert.Len(t, prev, 5)
}

func TestScanDoesNotMutateInputs(t *testing.T) {
	tenants := []core.Tenant{{ID: "t1", Escalations: []core.Escalation{
		{Date: core.NewDate(2024, 1, 20), Amount: 1, Type: core.EscalationFixed},
		{Date: core.NewDate(2024, 1, 10), Amount: 2, Type: core.EscalationFixed},
	}}}
	Scan(tenants, nil, nil, DefaultSettings(), day(2024, 1, 1))
	assert.Equal(t, core.NewDate(2024, 1, 20), tenants[0].Escalations[0].Date)
}

func TestScanNegativeNoticeTreatedAsZero(t *testing.T) {
	tenants := []core.Tenant{{ID: "t1", LeaseEnd: core.NewDate(2024, 1, 1)}}
	s := only(KindLease, -10)
	got := Scan(tenants, nil, nil, s, day(2024, 1, 1))
	require.Len(t, got, 1)
	assert.Equal(t, PriorityHigh, got[0].Priority)
}

func TestScanEmptyInputsReturnsEmptyList(t *testing.T) {
	got := Scan(nil, nil, nil, DefaultSettings(), time.Now())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAlertIDIsDeterministic(t *testing.T) {
	due := core.NewDate(2024, 2, 15)
	a := AlertID(KindLease, "t1", due)
	assert.Equal(t, a, AlertID(KindLease, "t1", due))
	assert.NotEqual(t, a, AlertID(KindPayment, "t1", due))
	assert.NotEqual(t, a, AlertID(KindLease, "t2", due))
	assert.NotEqual(t, a, AlertID(KindLease, "t1", due.AddDays(1)))
}

func TestScanSameDayEntriesGetDistinctIDs(t *testing.T) {
	asOf := day(2024, 3, 1)
	due := core.NewDate(2024, 3, 10)
	tenants := []core.Tenant{{ID: "t1", Escalations: []core.Escalation{
		{Date: due, Amount: 50, Type: core.EscalationFixed},
		{Date: due, Amount: 3, Type: core.EscalationPercentage},
	}}}
	units := []core.Unit{{ID: "u1", MaintenanceSchedule: []core.MaintenanceEntry{
		{Type: "HVAC service", DueDate: due},
		{Type: "Fire inspection", DueDate: due},
	}}}

	tests := []struct {
		name string
		kind Kind
	}{
		{"maintenance", KindMaintenance},
		{"rent increase", KindRent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := only(tt.kind, 30)
			first := Scan(tenants, units, nil, settings, asOf)
			require.Len(t, first, 2)
			assert.NotEqual(t, first[0].ID, first[1].ID)

			second := Scan(tenants, units, nil, settings, asOf)
			require.Len(t, second, 2)
			assert.ElementsMatch(t, []string{first[0].ID, first[1].ID}, []string{second[0].ID, second[1].ID})
		})
	}
}

func TestAlertIDEntryDiscriminators(t *testing.T) {
	due := core.NewDate(2024, 3, 10)
	a := AlertID(KindMaintenance, "u1", due, "0", "HVAC service")
	assert.Equal(t, a, AlertID(KindMaintenance, "u1", due, "0", "HVAC service"))
	assert.NotEqual(t, a, AlertID(KindMaintenance, "u1", due, "1", "Fire inspection"))
	assert.NotEqual(t, a, AlertID(KindMaintenance, "u1", due))
}

func TestRuleFor(t *testing.T) {
	for _, k := range Kinds() {
		_, err := RuleFor(k)
		assert.NoError(t, err, k)
	}
	_, err := RuleFor("insurance")
	assert.Error(t, err)
}
