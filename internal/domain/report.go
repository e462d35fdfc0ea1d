package domain

import "strconv"

// ============================================================
// Report records
//
// Every list-shaped report has a fixed record type. Header and Values
// let the export package render any of them as CSV.
// ============================================================

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
func itoa(v int) string      { return strconv.Itoa(v) }

// Summary aggregates sales for a month (Month > 0) or a whole year (Month == 0).
type Summary struct {
	Month           int     `json:"month"`
	Year            int     `json:"year"`
	NumSales        int     `json:"num_sales"`
	ValueSold       float64 `json:"value_sold"`
	TotalCommission float64 `json:"total_commission"`
	AverageTicket   float64 `json:"average_ticket"`
}

func (Summary) Header() []string {
	return []string{"month", "year", "num_sales", "value_sold", "total_commission", "average_ticket"}
}

func (s Summary) Values() []string {
	return []string{itoa(s.Month), itoa(s.Year), itoa(s.NumSales), money(s.ValueSold), money(s.TotalCommission), money(s.AverageTicket)}
}

// OriginShare is one row of the origin-of-sale breakdown.
type OriginShare struct {
	Origin     string  `json:"origin"`
	Count      int     `json:"count"`
	TotalValue float64 `json:"total_value"`
	Percent    int     `json:"percent"`
}

func (OriginShare) Header() []string {
	return []string{"origin", "count", "total_value", "percent"}
}

func (o OriginShare) Values() []string {
	return []string{o.Origin, itoa(o.Count), money(o.TotalValue), itoa(o.Percent)}
}

// SupplierROI is one row of the per-supplier return table.
type SupplierROI struct {
	Supplier   string  `json:"supplier"`
	Revenue    float64 `json:"revenue"`
	Commission float64 `json:"commission"`
	ROIPercent int     `json:"roi_percent"`
}

func (SupplierROI) Header() []string {
	return []string{"supplier", "revenue", "commission", "roi_percent"}
}

func (s SupplierROI) Values() []string {
	return []string{s.Supplier, money(s.Revenue), money(s.Commission), itoa(s.ROIPercent)}
}

// ClientProfit ranks a client by the commission their bookings produced.
type ClientProfit struct {
	ClientID   string      `json:"client_id"`
	ClientName string      `json:"client_name"`
	Tier       LoyaltyTier `json:"loyalty_tier"`
	Bookings   int         `json:"bookings"`
	Revenue    float64     `json:"revenue"`
	Commission float64     `json:"commission"`
}

func (ClientProfit) Header() []string {
	return []string{"client_id", "client_name", "loyalty_tier", "bookings", "revenue", "commission"}
}

func (c ClientProfit) Values() []string {
	return []string{c.ClientID, c.ClientName, string(c.Tier), itoa(c.Bookings), money(c.Revenue), money(c.Commission)}
}

// PaymentShare is one row of the payment method distribution.
type PaymentShare struct {
	PaymentMethod string  `json:"payment_method"`
	Count         int     `json:"count"`
	TotalValue    float64 `json:"total_value"`
	Percent       int     `json:"percent"`
}

func (PaymentShare) Header() []string {
	return []string{"payment_method", "count", "total_value", "percent"}
}

func (p PaymentShare) Values() []string {
	return []string{p.PaymentMethod, itoa(p.Count), money(p.TotalValue), itoa(p.Percent)}
}

// MonthlyTrend is revenue and commission for one YYYY-MM bucket.
type MonthlyTrend struct {
	Month      string  `json:"month"`
	Sales      int     `json:"sales"`
	Revenue    float64 `json:"revenue"`
	Commission float64 `json:"commission"`
}

func (MonthlyTrend) Header() []string {
	return []string{"month", "sales", "revenue", "commission"}
}

func (m MonthlyTrend) Values() []string {
	return []string{m.Month, itoa(m.Sales), money(m.Revenue), money(m.Commission)}
}

// GoalProgress compares a month's sales against the configured targets.
// Percentages are zero when the target is not set.
type GoalProgress struct {
	Month             int     `json:"month"`
	Year              int     `json:"year"`
	ValueTarget       float64 `json:"value_target"`
	ValueActual       float64 `json:"value_actual"`
	ValuePercent      float64 `json:"value_percent"`
	CommissionTarget  float64 `json:"commission_target"`
	CommissionActual  float64 `json:"commission_actual"`
	CommissionPercent float64 `json:"commission_percent"`
}

func (GoalProgress) Header() []string {
	return []string{"month", "year", "value_target", "value_actual", "value_percent", "commission_target", "commission_actual", "commission_percent"}
}

func (g GoalProgress) Values() []string {
	return []string{
		itoa(g.Month), itoa(g.Year),
		money(g.ValueTarget), money(g.ValueActual), money(g.ValuePercent),
		money(g.CommissionTarget), money(g.CommissionActual), money(g.CommissionPercent),
	}
}

// Traveler is a booking checking in soon, shaped for the "clients traveling" screen.
type Traveler struct {
	BookingID    string `json:"booking_id"`
	ClientID     string `json:"client_id"`
	ClientName   string `json:"client_name"`
	Companions   int    `json:"companions"`
	Destination  string `json:"destination"`
	Service      string `json:"service"`
	Supplier     string `json:"supplier"`
	CheckinDate  string `json:"checkin_date"`
	Alert        string `json:"alert"`
	HasDocuments bool   `json:"has_documents"`
}

func (Traveler) Header() []string {
	return []string{"booking_id", "client_id", "client_name", "companions", "destination", "service", "supplier", "checkin_date", "alert", "has_documents"}
}

func (t Traveler) Values() []string {
	return []string{
		t.BookingID, t.ClientID, t.ClientName, itoa(t.Companions), t.Destination,
		t.Service, t.Supplier, t.CheckinDate, t.Alert, strconv.FormatBool(t.HasDocuments),
	}
}

// RankEntry is a name with an occurrence count (top destinations, top suppliers).
type RankEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Dashboard holds the KPIs of the home screen over a trailing window.
type Dashboard struct {
	PeriodDays       int            `json:"period_days"`
	NumSales         int            `json:"num_sales"`
	ValueSold        float64        `json:"value_sold"`
	TotalCommission  float64        `json:"total_commission"`
	AverageTicket    float64        `json:"average_ticket"`
	ActiveClients    int            `json:"active_clients"`
	InactiveClients  int            `json:"inactive_clients"`
	CheckinsToday    int            `json:"checkins_today"`
	CheckinsTomorrow int            `json:"checkins_tomorrow"`
	CheckinsNextWeek int            `json:"checkins_next_week"`
	TopDestinations  []RankEntry    `json:"top_destinations"`
	TopSuppliers     []RankEntry    `json:"top_suppliers"`
	TopClients       []ClientProfit `json:"top_clients"`
}

// AutomationReport describes one reconciliation pass run by the service.
type AutomationReport struct {
	RanAt           string        `json:"ran_at"`
	BookingsChanged bool          `json:"bookings_changed"`
	ClientsChanged  bool          `json:"clients_changed"`
	NewAlerts       int           `json:"new_alerts"`
	ExpiredAlerts   int           `json:"expired_alerts"`
	Issues          []RecordError `json:"issues"`
	DurationMs      int64         `json:"duration_ms"`
}
