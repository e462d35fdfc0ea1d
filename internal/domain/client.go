// Package domain defines the core business entities of the agency back office.
// These models are independent of storage and transport and represent the
// canonical data structures used throughout the BFA.
package domain

// ============================================================
// Clients
// ============================================================

// LoyaltyTier classifies a client by completed booking count.
type LoyaltyTier string

const (
	TierBronze  LoyaltyTier = "Bronze"
	TierSilver  LoyaltyTier = "Silver"
	TierGold    LoyaltyTier = "Gold"
	TierDiamond LoyaltyTier = "Diamond"
)

// Valid reports whether t is one of the known tiers.
func (t LoyaltyTier) Valid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold, TierDiamond:
		return true
	}
	return false
}

// PurchaseHistory summarizes a client's bookings.
type PurchaseHistory struct {
	Count      int     `json:"count"`
	TotalValue float64 `json:"total_value"`
}

// Client is a paying customer of the agency.
// LoyaltyTier, PurchaseHistory, Active and LastPurchaseDate are derived
// fields owned by the reconciliation engine.
type Client struct {
	ID               string          `json:"id"`
	PayerName        string          `json:"payer_name"`
	TaxID            string          `json:"tax_id"` // CPF
	BirthDate        string          `json:"birth_date,omitempty"`
	Phone            string          `json:"phone,omitempty"`
	Email            string          `json:"email,omitempty"`
	Origin           string          `json:"origin"`
	LoyaltyTier      LoyaltyTier     `json:"loyalty_tier"`
	PurchaseHistory  PurchaseHistory `json:"purchase_history"`
	Active           bool            `json:"active"`
	LastPurchaseDate string          `json:"last_purchase_date,omitempty"`
	CreatedAt        string          `json:"created_at"`
	UpdatedAt        string          `json:"updated_at"`
}

// ClientInput is the writable subset of a Client accepted from callers.
type ClientInput struct {
	PayerName string `json:"payer_name"`
	TaxID     string `json:"tax_id"`
	BirthDate string `json:"birth_date"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Origin    string `json:"origin"`
}

// ClientFilter narrows client listings.
type ClientFilter struct {
	Term   string
	Origin string
	Active *bool
}
