// Package projection computes rolling monthly income series and portfolio
// metrics from lease records.
//
// Every function here is pure: inputs are never mutated, results are freshly
// allocated and no clock is read. Malformed numbers are coerced to zero and
// ratios with a zero denominator report zero.
package projection

import (
	"time"

	"gonum.org/v1/gonum/floats"

	"rentroll/internal/core"
)

// LabelLayout formats bucket labels, e.g. "Jan 24".
const LabelLayout = "Jan 06"

type MonthBucket struct {
	Label    string     `json:"month"`
	Month    core.Date  `json:"start"`
	Income   core.Money `json:"income"`
	Expenses core.Money `json:"expenses"`
}

type Metrics struct {
	TotalIncome        core.Money `json:"totalIncome"`
	AvgPSF             float64    `json:"avgPSF"`
	OccupancyRate      float64    `json:"occupancyRate"`
	TotalSquareFeet    float64    `json:"totalSquareFeet"`
	OccupiedSquareFeet float64    `json:"occupiedSquareFeet"`
}

type Result struct {
	Series  []MonthBucket `json:"series"`
	Metrics Metrics       `json:"metrics"`
}

// Options tune a projection. The zero value reproduces Project.
type Options struct {
	// ApplyEscalations uses the rent in force at each month instead of the
	// tenant's base rent.
	ApplyEscalations bool
}

// Project builds horizonMonths buckets ending with the month of asOf, oldest
// first, and the metrics of the current snapshot.
func Project(tenants []core.Tenant, units []core.Unit, horizonMonths int, asOf time.Time) Result {
	return ProjectWithOptions(tenants, units, horizonMonths, asOf, Options{})
}

func ProjectWithOptions(tenants []core.Tenant, units []core.Unit, horizonMonths int, asOf time.Time, opts Options) Result {
	anchors := MonthAnchors(horizonMonths, asOf)
	series := make([]MonthBucket, len(anchors))
	for i, anchor := range anchors {
		bucket := MonthBucket{Label: anchor.Format(LabelLayout), Month: anchor}
		for _, t := range tenants {
			if !ActiveAt(t, anchor) {
				continue
			}
			rent := t.BaseRent
			if opts.ApplyEscalations {
				rent = EffectiveRent(t, anchor)
			}
			bucket.Income = bucket.Income.Add(rent)
			bucket.Expenses = bucket.Expenses.Add(t.AdditionalRent)
		}
		series[i] = bucket
	}

	return Result{Series: series, Metrics: ComputeMetrics(tenants, units)}
}

// MonthAnchors returns the first day of each of the n months ending with the
// month of asOf, oldest first.
func MonthAnchors(n int, asOf time.Time) []core.Date {
	if n <= 0 {
		return []core.Date{}
	}
	anchors := make([]core.Date, n)
	for i := 0; i < n; i++ {
		back := n - 1 - i
		// time.Date normalizes a month below January into the previous year.
		anchors[i] = core.Date{Time: time.Date(asOf.Year(), asOf.Month()-time.Month(back), 1, 0, 0, 0, 0, time.UTC)}
	}
	return anchors
}

// ActiveAt reports whether the lease covers anchor, both ends inclusive.
// Tenants missing either lease date never qualify.
func ActiveAt(t core.Tenant, anchor core.Date) bool {
	if t.LeaseStart.IsEmpty() || t.LeaseEnd.IsEmpty() {
		return false
	}
	return !anchor.Before(t.LeaseStart.Time) && !anchor.After(t.LeaseEnd.Time)
}

// ComputeMetrics summarizes the current portfolio snapshot.
func ComputeMetrics(tenants []core.Tenant, units []core.Unit) Metrics {
	var income core.Money
	for _, t := range tenants {
		income = income.Add(t.BaseRent)
	}

	all := make([]float64, 0, len(units))
	occupied := make([]float64, 0, len(units))
	for _, u := range units {
		sf := u.SquareFeet.Float()
		all = append(all, sf)
		if u.Status == core.UnitOccupied {
			occupied = append(occupied, sf)
		}
	}
	totalSF := floats.Sum(all)
	occupiedSF := floats.Sum(occupied)

	m := Metrics{
		TotalIncome:        income,
		TotalSquareFeet:    totalSF,
		OccupiedSquareFeet: occupiedSF,
	}
	if totalSF > 0 {
		m.AvgPSF = income.Dollars() * 12 / totalSF
		m.OccupancyRate = occupiedSF / totalSF * 100
	}
	return m
}
