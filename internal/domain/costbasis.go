package domain

import "github.com/shopspring/decimal"

// CostBasis is the result of folding a (user, asset) transaction history
// from zero. It is produced fresh on every call and never cached.
//
// Nil pointer fields mean "unknown" and must never be rendered as zero:
// a negative running basis after a full fold indicates malformed upstream
// data and is reported as an absent basis, not an error.
type CostBasis struct {
	// AvgPurchasePriceCents is CostBasisCents / Balance, present only when
	// the balance is positive and the basis is non-negative.
	AvgPurchasePriceCents *decimal.Decimal `json:"avg_purchase_price_cents,omitempty"`
	// CostBasisCents is the net capital currently deployed, in cents.
	CostBasisCents *decimal.Decimal `json:"cost_basis_cents,omitempty"`
	// Balance is the ledger balance in asset-native units.
	Balance       *decimal.Decimal `json:"balance,omitempty"`
	IsStableAsset bool             `json:"is_stable_asset"`
	HasDeposits   bool             `json:"has_deposits"`
}

// HasBasis reports whether a usable cost basis was computed.
func (c CostBasis) HasBasis() bool {
	return c.CostBasisCents != nil
}
