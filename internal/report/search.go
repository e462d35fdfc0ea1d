package report

import (
	"strings"
	"time"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/rules"
)

func contains(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}

// FilterBookings applies every non-empty field of f. Text fields other than
// Term must match exactly, ignoring case; Destination matches by substring.
// From and To bound the purchase date inclusively and are ignored when they
// cannot be parsed. Purchase dates and bounds are read as calendar days in loc.
func FilterBookings(bookings []domain.Booking, clients []domain.Client, f domain.BookingFilter, loc *time.Location) []domain.Booking {
	byID := make(map[string]domain.Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}

	term := strings.ToLower(strings.TrimSpace(f.Term))
	dest := strings.ToLower(strings.TrimSpace(f.Destination))
	from, hasFrom := bound(f.From, loc)
	to, hasTo := bound(f.To, loc)

	out := make([]domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		c, known := byID[b.ClientID]

		if term != "" {
			hit := contains(b.ReservationCode, term) ||
				contains(b.FlightCode, term) ||
				contains(b.Destination, term) ||
				(known && (contains(c.PayerName, term) || strings.Contains(c.TaxID, term)))
			if !hit {
				continue
			}
		}
		if !same(f.Supplier, b.Supplier) || !same(f.Service, b.Service) ||
			!same(f.PaymentMethod, b.PaymentMethod) || !same(string(f.Status), string(b.Status)) {
			continue
		}
		if dest != "" && !contains(b.Destination, dest) {
			continue
		}
		if f.Origin != "" && (!known || !strings.EqualFold(f.Origin, c.Origin)) {
			continue
		}
		if hasFrom || hasTo {
			p, ok := purchaseDate(b, loc)
			if !ok || (hasFrom && rules.DaysBetween(from, p) < 0) || (hasTo && rules.DaysBetween(p, to) < 0) {
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

// FilterClients applies every non-empty field of f. Term matches payer name,
// e-mail, phone or tax id.
func FilterClients(clients []domain.Client, f domain.ClientFilter) []domain.Client {
	term := strings.ToLower(strings.TrimSpace(f.Term))
	out := make([]domain.Client, 0, len(clients))
	for _, c := range clients {
		if term != "" && !(contains(c.PayerName, term) || contains(c.Email, term) ||
			strings.Contains(c.Phone, term) || strings.Contains(c.TaxID, term)) {
			continue
		}
		if !same(f.Origin, c.Origin) {
			continue
		}
		if f.Active != nil && c.Active != *f.Active {
			continue
		}
		out = append(out, c)
	}
	return out
}

// same reports whether want is empty or equals got, ignoring case.
func same(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}

func bound(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := rules.ParseDate(s, loc)
	return t, err == nil
}
