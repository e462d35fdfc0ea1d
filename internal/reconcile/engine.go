// Package reconcile implements the daily automation pass.
//
// Reconcile takes a snapshot of clients, bookings and alerts and returns the
// snapshot with every derived field recomputed and any missing alerts added.
// It performs no I/O and keeps no state, so running it twice on its own
// output changes nothing.
package reconcile

import (
	"fmt"
	"time"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/rules"

	"github.com/google/uuid"
)

// alertNamespace seeds the UUID v5 ids of generated alerts.
var alertNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("travel-agency/alerts"))

// Input is one snapshot of the agency state.
type Input struct {
	Clients  []domain.Client
	Bookings []domain.Booking
	Alerts   []domain.Alert
	Config   domain.AgencyConfig
	// Today fixes "now" for the pass. Its location is used to read stored dates.
	Today time.Time
}

// Result is the reconciled snapshot.
type Result struct {
	Clients   []domain.Client
	Bookings  []domain.Booking
	Alerts    []domain.Alert // kept alerts followed by NewAlerts
	NewAlerts []domain.Alert
	Issues    []domain.RecordError

	// ExpiredAlerts counts alerts dropped because their expiry day was
	// reached; DuplicateAlerts counts stored alerts dropped because an
	// earlier alert had the same (type, subject).
	ExpiredAlerts   int
	DuplicateAlerts int

	BookingsChanged bool
	ClientsChanged  bool
	AlertsChanged   bool
}

// bookingState is what the pass learned about one booking.
type bookingState struct {
	checkin    rules.CheckinStatus
	checkinOK  bool
	purchase   time.Time
	purchaseOK bool
}

// Reconcile runs one automation pass over in.
func Reconcile(in Input) Result {
	loc := in.Today.Location()
	today := rules.Midnight(in.Today)

	res := Result{
		Clients:  make([]domain.Client, 0, len(in.Clients)),
		Bookings: make([]domain.Booking, 0, len(in.Bookings)),
		Alerts:   make([]domain.Alert, 0, len(in.Alerts)),
	}

	// Bookings
	states := make([]bookingState, len(in.Bookings))
	for i, b := range in.Bookings {
		st := &states[i]

		if t, err := rules.ParseDate(b.PurchaseDate, loc); err != nil {
			res.Issues = append(res.Issues, recordError("bookings", b.ID, "purchase_date", b.PurchaseDate, err))
		} else {
			st.purchase, st.purchaseOK = t, true
		}

		t, err := rules.ParseDate(b.CheckinDate, loc)
		if err != nil {
			res.Issues = append(res.Issues, recordError("bookings", b.ID, "checkin_date", b.CheckinDate, err))
			res.Bookings = append(res.Bookings, b)
			continue
		}
		st.checkin, st.checkinOK = rules.CheckinAlert(t, today), true

		nb := b
		nb.CheckinAlert = st.checkin.Label
		nb.CalculatedCommission = rules.Commission(b.SaleValue, b.CommissionPercent)
		if nb.CheckinAlert != b.CheckinAlert || nb.CalculatedCommission != b.CalculatedCommission {
			res.BookingsChanged = true
		}
		res.Bookings = append(res.Bookings, nb)
	}

	// Clients
	byClient := make(map[string][]int, len(in.Clients))
	for i, b := range in.Bookings {
		byClient[b.ClientID] = append(byClient[b.ClientID], i)
	}

	clientsByID := make(map[string]domain.Client, len(in.Clients))
	var newlyInactive []domain.Client
	for _, c := range in.Clients {
		nc := derive(c, byClient[c.ID], in.Bookings, states, in.Config.InactivityDays, today)
		if clientChanged(c, nc) {
			res.ClientsChanged = true
		}
		if c.Active && !nc.Active {
			newlyInactive = append(newlyInactive, nc)
		}
		clientsByID[nc.ID] = nc
		res.Clients = append(res.Clients, nc)
	}

	// Alerts
	seen := make(map[string]bool, len(in.Alerts))
	for _, a := range in.Alerts {
		key := a.DedupKey()
		switch {
		case seen[key]:
			res.DuplicateAlerts++
			continue
		case expired(a, today, loc):
			res.ExpiredAlerts++
			continue
		}
		seen[key] = true
		res.Alerts = append(res.Alerts, a)
	}
	add := func(a domain.Alert) {
		key := a.DedupKey()
		if seen[key] {
			return
		}
		seen[key] = true
		a.ID = alertID(key, today)
		a.CreatedAt = today.Format(time.RFC3339)
		res.NewAlerts = append(res.NewAlerts, a)
	}

	for i, b := range in.Bookings {
		if !states[i].checkinOK {
			continue
		}
		if a, ok := checkinAlert(b, states[i].checkin, clientsByID, today); ok {
			add(a)
		}
	}
	for _, c := range newlyInactive {
		add(inactiveAlert(c, in.Config.InactivityDays, today))
	}
	for _, a := range goalAlerts(res.Bookings, states, in.Config, today) {
		add(a)
	}

	res.Alerts = append(res.Alerts, res.NewAlerts...)
	res.AlertsChanged = len(res.NewAlerts) > 0 || res.ExpiredAlerts > 0 || res.DuplicateAlerts > 0
	return res
}

// expired reports whether today is on or after a's expiry day. Alerts without
// a readable expiry never expire.
func expired(a domain.Alert, today time.Time, loc *time.Location) bool {
	if a.ExpiresAt == "" {
		return false
	}
	exp, err := rules.ParseDate(a.ExpiresAt, loc)
	return err == nil && rules.DaysBetween(exp, today) >= 0
}

// derive recomputes the fields of c that depend on its bookings.
func derive(c domain.Client, idx []int, bookings []domain.Booking, states []bookingState, inactivityDays int, today time.Time) domain.Client {
	var (
		count  int
		total  rules.Total
		latest *time.Time
		raw    string
	)
	for _, i := range idx {
		b := bookings[i]
		if rules.CountsTowardHistory(b) {
			count++
			total.Add(b.SaleValue)
		}
		if !states[i].purchaseOK {
			continue
		}
		// ties keep the first booking in input order
		if t := states[i].purchase; latest == nil || t.After(*latest) {
			latest, raw = &t, b.PurchaseDate
		}
	}

	nc := c
	nc.PurchaseHistory = domain.PurchaseHistory{Count: count, TotalValue: total.Value()}
	nc.LoyaltyTier = rules.LoyaltyTier(count)
	nc.Active = !rules.IsInactive(latest, inactivityDays, today)
	nc.LastPurchaseDate = raw
	return nc
}

func clientChanged(a, b domain.Client) bool {
	return a.Active != b.Active ||
		a.LoyaltyTier != b.LoyaltyTier ||
		a.PurchaseHistory != b.PurchaseHistory ||
		a.LastPurchaseDate != b.LastPurchaseDate
}

func checkinAlert(b domain.Booking, st rules.CheckinStatus, clients map[string]domain.Client, today time.Time) (domain.Alert, bool) {
	typ, prio, ok := rules.AlertFor(st)
	if !ok {
		return domain.Alert{}, false
	}

	var title string
	switch typ {
	case domain.AlertCheckinToday:
		title = "Check-in today"
	case domain.AlertCheckinTomorrow:
		title = "Check-in tomorrow"
	default:
		title = fmt.Sprintf("Check-in in %d days", st.DaysRemaining)
	}

	name := "Unknown client"
	if c, found := clients[b.ClientID]; found && c.PayerName != "" {
		name = c.PayerName
	}

	return domain.Alert{
		Type:        typ,
		Title:       title,
		Description: name + " - " + b.Destination,
		Priority:    prio,
		ExpiresAt:   rules.FormatDate(today.AddDate(0, 0, st.DaysRemaining+1)),
		BookingID:   b.ID,
		ClientID:    b.ClientID,
	}, true
}

// inactiveAlert is keyed by the day the client went inactive so a client that
// comes back and lapses again is reported again.
func inactiveAlert(c domain.Client, days int, today time.Time) domain.Alert {
	return domain.Alert{
		Type:        domain.AlertClientInactive,
		Title:       "Client inactive",
		Description: fmt.Sprintf("%s has not purchased in %d days", c.PayerName, days),
		Priority:    domain.PriorityLow,
		ClientID:    c.ID,
		Period:      rules.FormatDate(today),
	}
}

// goalAlerts checks the month containing today against the configured targets.
func goalAlerts(bookings []domain.Booking, states []bookingState, cfg domain.AgencyConfig, today time.Time) []domain.Alert {
	if cfg.MonthlyValueTarget == nil && cfg.MonthlyCommissionTarget == nil {
		return nil
	}

	var value, commission rules.Total
	for i, b := range bookings {
		if !states[i].purchaseOK {
			continue
		}
		p := states[i].purchase
		if p.Year() != today.Year() || p.Month() != today.Month() {
			continue
		}
		value.Add(b.SaleValue)
		commission.Add(rules.EffectiveCommission(b))
	}

	period := today.Format("2006-01")
	var out []domain.Alert
	check := func(metric, label string, target *float64, actual float64) {
		if target == nil || *target <= 0 || actual < *target {
			return
		}
		out = append(out, domain.Alert{
			Type:        domain.AlertGoalReached,
			Title:       "Monthly " + label + " goal reached",
			Description: fmt.Sprintf("%s %.2f of %.2f", period, actual, *target),
			Priority:    domain.PriorityMedium,
			Period:      period,
			Metric:      metric,
		})
	}
	check("value", "sales", cfg.MonthlyValueTarget, value.Value())
	check("commission", "commission", cfg.MonthlyCommissionTarget, commission.Value())
	return out
}

func alertID(key string, day time.Time) string {
	return uuid.NewSHA1(alertNamespace, []byte(key+"@"+rules.FormatDate(day))).String()
}

func recordError(collection, id, field, value string, err error) domain.RecordError {
	return domain.RecordError{
		Collection: collection,
		ID:         id,
		Field:      field,
		Value:      value,
		Reason:     "unrecognised date",
		Err:        err,
	}
}
