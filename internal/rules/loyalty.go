package rules

import "github.com/boddenberg/travel-agency-bfa-go/internal/domain"

// LoyaltyTier classifies a client by completed booking count:
// 8+ Diamond, 4+ Gold, 2+ Silver, otherwise Bronze.
func LoyaltyTier(completedBookings int) domain.LoyaltyTier {
	switch {
	case completedBookings >= 8:
		return domain.TierDiamond
	case completedBookings >= 4:
		return domain.TierGold
	case completedBookings >= 2:
		return domain.TierSilver
	default:
		return domain.TierBronze
	}
}

// CountsTowardHistory reports whether a booking counts for loyalty and
// purchase history. Cancelled sales do not.
func CountsTowardHistory(b domain.Booking) bool {
	return b.Status != domain.StatusCancelled
}
