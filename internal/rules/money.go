// Package rules holds the agency's business rules: commission, loyalty tier,
// check-in urgency and inactivity. Every function is pure and total.
package rules

import (
	"math"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Round2 rounds v half away from zero to 2 decimal places.
// Non-finite values are returned unchanged.
func Round2(v float64) float64 {
	if !finite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Commission returns round(saleValue * percent / 100, 2).
// Out-of-range percentages are not rejected; the caller validates them.
func Commission(saleValue, percent float64) float64 {
	if !finite(saleValue) || !finite(percent) {
		return 0
	}
	return decimal.NewFromFloat(saleValue).
		Mul(decimal.NewFromFloat(percent)).
		Div(hundred).
		Round(2).
		InexactFloat64()
}

// EffectiveCommission is the manual override when present and non-zero,
// otherwise the commission calculated from sale value and percentage.
//
// An override of exactly 0 counts as "no override". That conflates an
// explicit zero commission with a missing one; kept for compatibility with
// existing data.
func EffectiveCommission(b domain.Booking) float64 {
	if b.ManualCommission != nil && *b.ManualCommission != 0 {
		return *b.ManualCommission
	}
	return Commission(b.SaleValue, b.CommissionPercent)
}

// AverageTicket divides total by the number of distinct clients, 0 when there are none.
func AverageTicket(total float64, clients int) float64 {
	if clients <= 0 {
		return 0
	}
	return Round2(total / float64(clients))
}

// Percent returns round(part/total*100) as an integer, 0 when total is 0.
func Percent(part, total float64) int {
	if total == 0 || !finite(part) || !finite(total) {
		return 0
	}
	return int(math.Round(part / total * 100))
}

// Total accumulates currency amounts without binary floating point drift.
// The zero value is ready to use.
type Total struct {
	sum decimal.Decimal
}

// Add adds v to the running total. Non-finite values are ignored.
func (t *Total) Add(v float64) {
	if !finite(v) {
		return
	}
	t.sum = t.sum.Add(decimal.NewFromFloat(v))
}

// Value returns the total rounded to cents.
func (t Total) Value() float64 {
	return t.sum.Round(2).InexactFloat64()
}
