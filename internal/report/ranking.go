package report

import (
	"cmp"
	"slices"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/rules"
)

// TopClients ranks known clients by total effective commission, descending,
// ties broken by client id. Clients without bookings rank with zero. n <= 0
// returns every client.
func TopClients(bookings []domain.Booking, clients []domain.Client, n int) []domain.ClientProfit {
	type acc struct {
		count             int
		revenue, earnings rules.Total
	}
	byClient := make(map[string]*acc, len(clients))
	for _, c := range clients {
		byClient[c.ID] = &acc{}
	}
	for _, b := range bookings {
		a, ok := byClient[b.ClientID]
		if !ok {
			continue
		}
		a.count++
		a.revenue.Add(b.SaleValue)
		a.earnings.Add(rules.EffectiveCommission(b))
	}

	out := make([]domain.ClientProfit, 0, len(clients))
	seen := make(map[string]bool, len(clients))
	for _, c := range clients {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		a := byClient[c.ID]
		out = append(out, domain.ClientProfit{
			ClientID:   c.ID,
			ClientName: c.PayerName,
			Tier:       c.LoyaltyTier,
			Bookings:   a.count,
			Revenue:    a.revenue.Value(),
			Commission: a.earnings.Value(),
		})
	}
	slices.SortFunc(out, func(a, b domain.ClientProfit) int {
		return cmp.Or(cmp.Compare(b.Commission, a.Commission), cmp.Compare(a.ClientID, b.ClientID))
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// rank counts occurrences of key over bookings and returns the n most
// frequent, ties by name. Empty keys are ignored.
func rank(bookings []domain.Booking, key func(domain.Booking) string, n int) []domain.RankEntry {
	counts := make(map[string]int)
	for _, b := range bookings {
		if k := key(b); k != "" {
			counts[k]++
		}
	}
	out := make([]domain.RankEntry, 0, len(counts))
	for name, c := range counts {
		out = append(out, domain.RankEntry{Name: name, Count: c})
	}
	slices.SortFunc(out, func(a, b domain.RankEntry) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Name, b.Name))
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
