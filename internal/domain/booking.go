package domain

// ============================================================
// Bookings
// ============================================================

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "Confirmed"
	StatusCancelled BookingStatus = "Cancelled"
	StatusPending   BookingStatus = "Pending"
	StatusCompleted BookingStatus = "Completed"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusPending, StatusCompleted:
		return true
	}
	return false
}

// Booking is a sold travel service tied to a paying client.
// Dates are kept as the caller sent them (YYYY-MM-DD or RFC 3339) so that a
// malformed value can be reported per record instead of being rewritten.
type Booking struct {
	ID                   string        `json:"id"`
	ClientID             string        `json:"client_id"`
	Companions           []string      `json:"companions"`
	PurchaseDate         string        `json:"purchase_date"`
	Supplier             string        `json:"supplier"`
	ReservationCode      string        `json:"reservation_code"`
	Service              string        `json:"service"`
	CheckinDate          string        `json:"checkin_date"`
	CheckoutDate         string        `json:"checkout_date,omitempty"`
	Airline              string        `json:"airline,omitempty"`
	FlightCode           string        `json:"flight_code,omitempty"`
	Destination          string        `json:"destination"`
	Hotel                string        `json:"hotel,omitempty"`
	PaymentMethod        string        `json:"payment_method"`
	SaleValue            float64       `json:"sale_value"`
	CommissionPercent    float64       `json:"commission_percent"`
	CalculatedCommission float64       `json:"calculated_commission"`
	ManualCommission     *float64      `json:"manual_commission,omitempty"`
	Notes                string        `json:"notes"`
	Status               BookingStatus `json:"status"`
	CheckinAlert         string        `json:"checkin_alert"`
	Attachments          []string      `json:"attachments,omitempty"`
	ExternalRef          string        `json:"external_ref,omitempty"`
	CreatedAt            string        `json:"created_at"`
	UpdatedAt            string        `json:"updated_at"`
}

// BookingInput is the writable subset of a Booking accepted from callers.
// A nil CommissionPercent falls back to the agency default.
type BookingInput struct {
	ClientID          string        `json:"client_id"`
	Companions        []string      `json:"companions"`
	PurchaseDate      string        `json:"purchase_date"`
	Supplier          string        `json:"supplier"`
	ReservationCode   string        `json:"reservation_code"`
	Service           string        `json:"service"`
	CheckinDate       string        `json:"checkin_date"`
	CheckoutDate      string        `json:"checkout_date"`
	Airline           string        `json:"airline"`
	FlightCode        string        `json:"flight_code"`
	Destination       string        `json:"destination"`
	Hotel             string        `json:"hotel"`
	PaymentMethod     string        `json:"payment_method"`
	SaleValue         float64       `json:"sale_value"`
	CommissionPercent *float64      `json:"commission_percent"`
	ManualCommission  *float64      `json:"manual_commission"`
	Notes             string        `json:"notes"`
	Status            BookingStatus `json:"status"`
	Attachments       []string      `json:"attachments"`
	ExternalRef       string        `json:"external_ref"`
}

// BookingFilter narrows booking listings. Empty fields match everything.
// From and To bound the purchase date (inclusive, YYYY-MM-DD).
type BookingFilter struct {
	Term          string
	Supplier      string
	Service       string
	Destination   string
	PaymentMethod string
	Origin        string
	Status        BookingStatus
	From          string
	To            string
}
