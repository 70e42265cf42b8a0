package domain

import "github.com/shopspring/decimal"

// Position is a live, currently-held balance and its current fiat value,
// supplied by an external price/chain collaborator.
type Position struct {
	Asset          Asset           `json:"asset"`
	Amount         decimal.Decimal `json:"amount"`
	FiatValueCents decimal.Decimal `json:"fiat_value_cents"`
}

// PnL combines a live position with the cost-basis fold into a
// total-return summary for the presentation layer.
type PnL struct {
	Position        Position  `json:"position"`
	HasPendingSwaps bool      `json:"has_pending_swaps"`
	CostBasis       CostBasis `json:"cost_basis"`
	// SuppressBasisDisplay tells the consuming layer not to render a cost
	// basis for this asset (stable assets, fee-float reference assets,
	// or an unavailable basis).
	SuppressBasisDisplay bool             `json:"suppress_basis_display"`
	TotalReturnCents     *decimal.Decimal `json:"total_return_cents,omitempty"`
	TotalReturnPercent   *decimal.Decimal `json:"total_return_percent,omitempty"`
}
