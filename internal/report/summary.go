// Package report derives read-only statistics from a snapshot of bookings
// and clients. Every function accepts empty input and returns a zero or
// empty result instead of an error.
package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/rules"
)

// purchaseDate reads a booking's purchase date as a calendar day in loc, the
// same way the automation pass does. Bookings whose date cannot be read are
// left out of every date-filtered report.
func purchaseDate(b domain.Booking, loc *time.Location) (time.Time, bool) {
	t, err := rules.ParseDate(b.PurchaseDate, loc)
	return t, err == nil
}

// MonthlySummary aggregates the bookings purchased in the given month of
// the calendar in loc.
func MonthlySummary(bookings []domain.Booking, month, year int, loc *time.Location) domain.Summary {
	s := summarize(bookings, loc, func(t time.Time) bool {
		return t.Year() == year && int(t.Month()) == month
	})
	s.Month, s.Year = month, year
	return s
}

// AnnualSummary aggregates the bookings purchased in the given year.
// The returned Month is 0.
func AnnualSummary(bookings []domain.Booking, year int, loc *time.Location) domain.Summary {
	s := summarize(bookings, loc, func(t time.Time) bool { return t.Year() == year })
	s.Year = year
	return s
}

func summarize(bookings []domain.Booking, loc *time.Location, in func(time.Time) bool) domain.Summary {
	var (
		s          domain.Summary
		value      rules.Total
		commission rules.Total
	)
	payers := make(map[string]struct{})
	for _, b := range bookings {
		t, ok := purchaseDate(b, loc)
		if !ok || !in(t) {
			continue
		}
		s.NumSales++
		value.Add(b.SaleValue)
		commission.Add(rules.EffectiveCommission(b))
		payers[b.ClientID] = struct{}{}
	}
	s.ValueSold = value.Value()
	s.TotalCommission = commission.Value()
	s.AverageTicket = rules.AverageTicket(s.ValueSold, len(payers))
	return s
}

// MonthlyTrend buckets sales by purchase month, oldest first.
func MonthlyTrend(bookings []domain.Booking, loc *time.Location) []domain.MonthlyTrend {
	type bucket struct {
		sales             int
		value, commission rules.Total
	}
	buckets := make(map[string]*bucket)
	for _, b := range bookings {
		t, ok := purchaseDate(b, loc)
		if !ok {
			continue
		}
		key := t.Format("2006-01")
		bk := buckets[key]
		if bk == nil {
			bk = &bucket{}
			buckets[key] = bk
		}
		bk.sales++
		bk.value.Add(b.SaleValue)
		bk.commission.Add(rules.EffectiveCommission(b))
	}

	out := make([]domain.MonthlyTrend, 0, len(buckets))
	for month, bk := range buckets {
		out = append(out, domain.MonthlyTrend{
			Month:      month,
			Sales:      bk.sales,
			Revenue:    bk.value.Value(),
			Commission: bk.commission.Value(),
		})
	}
	slices.SortFunc(out, func(a, b domain.MonthlyTrend) int { return cmp.Compare(a.Month, b.Month) })
	return out
}

// GoalProgress compares the month's sales with the configured targets.
func GoalProgress(bookings []domain.Booking, cfg domain.AgencyConfig, month, year int, loc *time.Location) domain.GoalProgress {
	s := MonthlySummary(bookings, month, year, loc)
	g := domain.GoalProgress{
		Month:            month,
		Year:             year,
		ValueActual:      s.ValueSold,
		CommissionActual: s.TotalCommission,
	}
	if cfg.MonthlyValueTarget != nil && *cfg.MonthlyValueTarget > 0 {
		g.ValueTarget = *cfg.MonthlyValueTarget
		g.ValuePercent = rules.Round2(g.ValueActual / g.ValueTarget * 100)
	}
	if cfg.MonthlyCommissionTarget != nil && *cfg.MonthlyCommissionTarget > 0 {
		g.CommissionTarget = *cfg.MonthlyCommissionTarget
		g.CommissionPercent = rules.Round2(g.CommissionActual / g.CommissionTarget * 100)
	}
	return g
}
