package report

import (
	"cmp"
	"slices"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/rules"
)

type share struct {
	count int
	value rules.Total
}

// OriginBreakdown groups sales by the acquisition channel of the paying
// client. Bookings whose client is unknown are skipped. Rows are ordered by
// total value, then origin name.
func OriginBreakdown(bookings []domain.Booking, clients []domain.Client) []domain.OriginShare {
	origins := make(map[string]string, len(clients))
	for _, c := range clients {
		origins[c.ID] = c.Origin
	}

	groups := make(map[string]*share)
	var grand rules.Total
	for _, b := range bookings {
		origin, ok := origins[b.ClientID]
		if !ok {
			continue
		}
		g := groups[origin]
		if g == nil {
			g = &share{}
			groups[origin] = g
		}
		g.count++
		g.value.Add(b.SaleValue)
		grand.Add(b.SaleValue)
	}

	total := grand.Value()
	out := make([]domain.OriginShare, 0, len(groups))
	for origin, g := range groups {
		v := g.value.Value()
		out = append(out, domain.OriginShare{
			Origin:     origin,
			Count:      g.count,
			TotalValue: v,
			Percent:    rules.Percent(v, total),
		})
	}
	slices.SortFunc(out, func(a, b domain.OriginShare) int {
		return cmp.Or(cmp.Compare(b.TotalValue, a.TotalValue), cmp.Compare(a.Origin, b.Origin))
	})
	return out
}

// PaymentBreakdown groups sales by payment method. An empty method is
// reported as "unspecified".
func PaymentBreakdown(bookings []domain.Booking) []domain.PaymentShare {
	groups := make(map[string]*share)
	var grand rules.Total
	for _, b := range bookings {
		method := b.PaymentMethod
		if method == "" {
			method = "unspecified"
		}
		g := groups[method]
		if g == nil {
			g = &share{}
			groups[method] = g
		}
		g.count++
		g.value.Add(b.SaleValue)
		grand.Add(b.SaleValue)
	}

	total := grand.Value()
	out := make([]domain.PaymentShare, 0, len(groups))
	for method, g := range groups {
		v := g.value.Value()
		out = append(out, domain.PaymentShare{
			PaymentMethod: method,
			Count:         g.count,
			TotalValue:    v,
			Percent:       rules.Percent(v, total),
		})
	}
	slices.SortFunc(out, func(a, b domain.PaymentShare) int {
		return cmp.Or(cmp.Compare(b.TotalValue, a.TotalValue), cmp.Compare(a.PaymentMethod, b.PaymentMethod))
	})
	return out
}

// SupplierROI reports revenue, effective commission and
// round(commission/revenue*100) per supplier. Zero revenue gives ROI 0.
// Rows are ordered by revenue, then supplier name.
func SupplierROI(bookings []domain.Booking) []domain.SupplierROI {
	type acc struct{ revenue, commission rules.Total }
	groups := make(map[string]*acc)
	for _, b := range bookings {
		g := groups[b.Supplier]
		if g == nil {
			g = &acc{}
			groups[b.Supplier] = g
		}
		g.revenue.Add(b.SaleValue)
		g.commission.Add(rules.EffectiveCommission(b))
	}

	out := make([]domain.SupplierROI, 0, len(groups))
	for supplier, g := range groups {
		rev, com := g.revenue.Value(), g.commission.Value()
		out = append(out, domain.SupplierROI{
			Supplier:   supplier,
			Revenue:    rev,
			Commission: com,
			ROIPercent: rules.Percent(com, rev),
		})
	}
	slices.SortFunc(out, func(a, b domain.SupplierROI) int {
		return cmp.Or(cmp.Compare(b.Revenue, a.Revenue), cmp.Compare(a.Supplier, b.Supplier))
	})
	return out
}
