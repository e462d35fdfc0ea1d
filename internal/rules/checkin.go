package rules

import (
	"fmt"
	"time"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
)

// Severity is the urgency class of a check-in.
type Severity int

const (
	SeverityNone          Severity = iota // more than 30 days away
	SeverityPast                          // check-in date already passed
	SeverityInformational                 // 8 to 30 days
	SeverityUrgent                        // 2 to 7 days
	SeverityTomorrow
	SeverityToday
)

func (s Severity) String() string {
	switch s {
	case SeverityToday:
		return "today"
	case SeverityTomorrow:
		return "tomorrow"
	case SeverityUrgent:
		return "urgent"
	case SeverityInformational:
		return "informational"
	case SeverityPast:
		return "past"
	default:
		return "none"
	}
}

const (
	LabelToday    = "Today"
	LabelTomorrow = "Tomorrow"
	LabelOverdue  = "Overdue"
)

// CheckinStatus is the classification of one check-in date.
type CheckinStatus struct {
	Label         string   `json:"label"`
	DaysRemaining int      `json:"days_remaining"`
	Severity      Severity `json:"severity"`
}

// CheckinAlert classifies a check-in date relative to today.
// The result depends only on the number of calendar days between the two.
func CheckinAlert(checkin, today time.Time) CheckinStatus {
	return ClassifyDays(DaysBetween(today, checkin))
}

// ClassifyDays maps days remaining until check-in to label and severity.
// Day 7 is the last urgent day and day 8 the first informational one.
func ClassifyDays(d int) CheckinStatus {
	st := CheckinStatus{DaysRemaining: d}
	switch {
	case d == 0:
		st.Label, st.Severity = LabelToday, SeverityToday
	case d == 1:
		st.Label, st.Severity = LabelTomorrow, SeverityTomorrow
	case d >= 2 && d <= 7:
		st.Label, st.Severity = fmt.Sprintf("%d days", d), SeverityUrgent
	case d >= 8 && d <= 30:
		st.Label, st.Severity = fmt.Sprintf("%d days", d), SeverityInformational
	case d < 0:
		st.Label, st.Severity = LabelOverdue, SeverityPast
	default:
		st.Label, st.Severity = fmt.Sprintf("%d days", d), SeverityNone
	}
	return st
}

// AlertFor maps a check-in status to the alert it should raise.
// ok is false outside the 0..7 day window.
func AlertFor(st CheckinStatus) (typ domain.AlertType, prio domain.Priority, ok bool) {
	switch st.Severity {
	case SeverityToday:
		return domain.AlertCheckinToday, domain.PriorityHigh, true
	case SeverityTomorrow:
		return domain.AlertCheckinTomorrow, domain.PriorityMedium, true
	case SeverityUrgent:
		return domain.AlertCheckinSoon, domain.PriorityLow, true
	}
	return "", "", false
}
