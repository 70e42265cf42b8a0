package costbasis

import (
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/chainfolio/internal/domain"
)

// stablePegCentsPerUnit values a stable-asset leg at $1.00 per unit.
var stablePegCentsPerUnit = decimal.NewFromInt(100)

// BalanceTransaction reconciles a transaction's relevant transfers into a
// set where every leg carries an attributable fiat value.
//
// Deposits and withdrawals pass through unchanged: each leg's own resolved
// fiat value is trusted as-is. For trades, one side of the swap is chosen
// as the valuation anchor and the other side is rewritten pro-rata:
//
//  1. a side holding a registered stable asset (sent side checked first),
//  2. else a side holding a registered high-liquidity reference asset,
//  3. else the received side.
//
// A leg contributes to the anchor sum at amount x 100 cents when its asset
// is stable, at its resolved fiat value when resolved, and zero otherwise —
// partially-unresolved price data under-states value rather than failing.
func BalanceTransaction(tx domain.Transaction, stable, highLiquidity *domain.Registry) []domain.Transfer {
	relevant := RelevantTransfers(tx.Transfers)
	if tx.Kind != domain.TxTrade {
		return relevant
	}

	var sent, received []domain.Transfer
	for _, tr := range relevant {
		if tr.Direction == domain.DirectionSent {
			sent = append(sent, tr)
		} else {
			received = append(received, tr)
		}
	}
	// one-sided trades have nothing to balance against
	if len(sent) == 0 || len(received) == 0 {
		return relevant
	}

	anchorIsSent := true
	switch {
	case sideContains(sent, stable):
	case sideContains(received, stable):
		anchorIsSent = false
	case sideContains(sent, highLiquidity):
	case sideContains(received, highLiquidity):
		anchorIsSent = false
	default:
		// the received side's fiat value is assumed already resolved
		anchorIsSent = false
	}

	anchor, other := received, sent
	if anchorIsSent {
		anchor, other = sent, received
	}

	anchorSum := decimal.Zero
	for _, tr := range anchor {
		anchorSum = anchorSum.Add(anchorLegValue(tr, stable))
	}

	otherAmount := decimal.Zero
	for _, tr := range other {
		otherAmount = otherAmount.Add(tr.Amount)
	}

	valuePerUnit := decimal.Zero
	if otherAmount.IsPositive() {
		valuePerUnit = anchorSum.Div(otherAmount)
	}

	balanced := make([]domain.Transfer, 0, len(relevant))
	for _, tr := range relevant {
		if (tr.Direction == domain.DirectionSent) == anchorIsSent {
			balanced = append(balanced, tr)
			continue
		}
		balanced = append(balanced, tr.WithFiatAmountCents(tr.Amount.Mul(valuePerUnit)))
	}
	return balanced
}

// anchorLegValue returns the fiat cents a leg contributes to the anchor sum.
func anchorLegValue(tr domain.Transfer, stable *domain.Registry) decimal.Decimal {
	if stable.Contains(tr.Asset) {
		return tr.Amount.Mul(stablePegCentsPerUnit)
	}
	return tr.FiatOrZero()
}

func sideContains(side []domain.Transfer, registry *domain.Registry) bool {
	for _, tr := range side {
		if registry.Contains(tr.Asset) {
			return true
		}
	}
	return false
}
