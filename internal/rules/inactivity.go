package rules

import "time"

// IsInactive reports whether a client whose last purchase was lastPurchase
// should be considered inactive today. A client with no purchase is inactive.
func IsInactive(lastPurchase *time.Time, thresholdDays int, today time.Time) bool {
	if lastPurchase == nil {
		return true
	}
	return DaysBetween(*lastPurchase, today) >= thresholdDays
}
