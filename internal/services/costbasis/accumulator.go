package costbasis

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/chainfolio/internal/domain"
)

// DustThreshold is the balance, in asset-native units, below which a
// position is treated as fully exited: the carried cost basis is reset to
// zero so the next accumulation cycle starts clean.
var DustThreshold = decimal.RequireFromString("0.001")

// LedgerTotals is the outcome of folding a full transaction history.
type LedgerTotals struct {
	Balance        decimal.Decimal
	CostBasisCents decimal.Decimal
	HasDeposits    bool
}

// Accumulate folds the transactions, restricted to the target asset, into
// running balance and cost-basis totals. Transactions are processed in
// ascending timestamp order; each one is classified and balanced first.
//
// The policy is net capital deployed, not FIFO or weighted-average cost:
// a sale decrements the basis by its actual realized fiat value, so a sale
// above or below the running average shifts the computed average price of
// the remainder. That behavior is intentional and load-bearing for the
// user-visible figures; do not replace it with lot-based accounting.
func Accumulate(txs []domain.Transaction, target domain.Asset, stable, highLiquidity *domain.Registry) LedgerTotals {
	ordered := make([]domain.Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var state LedgerTotals
	state.Balance = decimal.Zero
	state.CostBasisCents = decimal.Zero

	for _, tx := range ordered {
		if tx.Kind == domain.TxDeposit {
			state.HasDeposits = true
		}

		for _, tr := range BalanceTransaction(tx, stable, highLiquidity) {
			if tr.Asset != target {
				continue
			}

			switch tr.Direction {
			case domain.DirectionReceived:
				state.Balance = state.Balance.Add(tr.Amount)
				state.CostBasisCents = state.CostBasisCents.Add(tr.FiatOrZero())
			case domain.DirectionSent:
				state.Balance = state.Balance.Sub(tr.Amount)
				state.CostBasisCents = state.CostBasisCents.Sub(tr.FiatOrZero())
			}

			// dust reset: a fully-exited (or dust-remainder) position
			// carries no cost into the next cycle
			if state.Balance.LessThanOrEqual(DustThreshold) {
				state.CostBasisCents = decimal.Zero
			}
		}
	}

	return state
}
