package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/rules"
)

const (
	dashboardTopRanks   = 5
	dashboardTopClients = 10
	unknownClient       = "Unknown client"
)

// Dashboard computes the home screen KPIs for the periodDays preceding today.
//
// ActiveClients counts clients whose latest purchase falls inside the window
// and is the divisor of AverageTicket. InactiveClients counts clients whose
// stored active flag is false.
func Dashboard(bookings []domain.Booking, clients []domain.Client, today time.Time, periodDays int) domain.Dashboard {
	loc := today.Location()
	d := domain.Dashboard{PeriodDays: periodDays}

	var (
		window            []domain.Booking
		value, commission rules.Total
	)
	latest := make(map[string]time.Time)
	for _, b := range bookings {
		if st, ok := checkinStatus(b, today); ok {
			switch days := st.DaysRemaining; {
			case days == 0:
				d.CheckinsToday++
			case days == 1:
				d.CheckinsTomorrow++
			}
			if st.DaysRemaining >= 0 && st.DaysRemaining <= 7 {
				d.CheckinsNextWeek++
			}
		}

		p, err := rules.ParseDate(b.PurchaseDate, loc)
		if err != nil {
			continue
		}
		if prev, ok := latest[b.ClientID]; !ok || p.After(prev) {
			latest[b.ClientID] = p
		}
		if rules.DaysBetween(p, today) > periodDays {
			continue
		}
		window = append(window, b)
		value.Add(b.SaleValue)
		commission.Add(rules.EffectiveCommission(b))
	}

	for _, c := range clients {
		if !c.Active {
			d.InactiveClients++
		}
		if p, ok := latest[c.ID]; ok && rules.DaysBetween(p, today) <= periodDays {
			d.ActiveClients++
		}
	}

	d.NumSales = len(window)
	d.ValueSold = value.Value()
	d.TotalCommission = commission.Value()
	d.AverageTicket = rules.AverageTicket(d.ValueSold, d.ActiveClients)
	d.TopDestinations = rank(window, func(b domain.Booking) string { return b.Destination }, dashboardTopRanks)
	d.TopSuppliers = rank(window, func(b domain.Booking) string { return b.Supplier }, dashboardTopRanks)
	d.TopClients = TopClients(bookings, clients, dashboardTopClients)
	return d
}

// UpcomingTravelers lists bookings checking in between today and today+days,
// soonest first.
func UpcomingTravelers(bookings []domain.Booking, clients []domain.Client, today time.Time, days int) []domain.Traveler {
	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.PayerName
	}

	type row struct {
		days int
		t    domain.Traveler
	}
	var rows []row
	for _, b := range bookings {
		st, ok := checkinStatus(b, today)
		if !ok || st.DaysRemaining < 0 || st.DaysRemaining > days {
			continue
		}
		name, found := names[b.ClientID]
		if !found {
			name = unknownClient
		}
		rows = append(rows, row{st.DaysRemaining, domain.Traveler{
			BookingID:    b.ID,
			ClientID:     b.ClientID,
			ClientName:   name,
			Companions:   len(b.Companions),
			Destination:  b.Destination,
			Service:      b.Service,
			Supplier:     b.Supplier,
			CheckinDate:  b.CheckinDate,
			Alert:        st.Label,
			HasDocuments: len(b.Attachments) > 0,
		}})
	}
	slices.SortStableFunc(rows, func(a, b row) int {
		return cmp.Or(cmp.Compare(a.days, b.days), cmp.Compare(a.t.BookingID, b.t.BookingID))
	})

	out := make([]domain.Traveler, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.t)
	}
	return out
}

func checkinStatus(b domain.Booking, today time.Time) (rules.CheckinStatus, bool) {
	t, err := rules.ParseDate(b.CheckinDate, today.Location())
	if err != nil {
		return rules.CheckinStatus{}, false
	}
	return rules.CheckinAlert(t, today), true
}
