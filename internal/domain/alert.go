package domain

// ============================================================
// Alerts
// ============================================================

// AlertType identifies what raised an alert.
type AlertType string

const (
	AlertCheckinToday    AlertType = "checkin-today"
	AlertCheckinTomorrow AlertType = "checkin-tomorrow"
	AlertCheckinSoon     AlertType = "checkin-soon"
	AlertClientInactive  AlertType = "client-inactive"
	AlertGoalReached     AlertType = "goal-reached"
)

// Priority of an alert.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Alert is a pending notification shown to the agency.
type Alert struct {
	ID          string    `json:"id"`
	Type        AlertType `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	Read        bool      `json:"read"`
	CreatedAt   string    `json:"created_at"`
	ExpiresAt   string    `json:"expires_at,omitempty"`
	BookingID   string    `json:"booking_id,omitempty"`
	ClientID    string    `json:"client_id,omitempty"`
	Period      string    `json:"period,omitempty"` // YYYY-MM for goal alerts, YYYY-MM-DD for inactivity alerts
	Metric      string    `json:"metric,omitempty"` // value or commission, goal alerts only
}

// Subject returns the entity an alert is about: the booking for check-in
// alerts, the client and the day it went inactive for inactivity alerts and
// the period and metric for goal alerts.
func (a Alert) Subject() string {
	switch a.Type {
	case AlertCheckinToday, AlertCheckinTomorrow, AlertCheckinSoon:
		return a.BookingID
	case AlertClientInactive:
		if a.Period == "" {
			return a.ClientID
		}
		return a.ClientID + "/" + a.Period
	case AlertGoalReached:
		return a.Period + "/" + a.Metric
	}
	return a.ID
}

// DedupKey is the composite key used to keep one alert per (type, subject).
func (a Alert) DedupKey() string {
	return string(a.Type) + ":" + a.Subject()
}
