// Package costbasis implements the cost-basis engine: a pure fold over a
// (user, asset) transaction history producing the net capital currently
// deployed, an average acquisition price and the ledger balance.
package costbasis

import (
	"fmt"

	"github.com/vadiminshakov/chainfolio/internal/domain"
)

// RelevantTransfers filters a transaction's transfer legs down to the set
// that affects the ledger. Legs are grouped by (asset, amount); a group of
// exactly two legs with opposite directions is a self-cancelling pair
// (wrap/unwrap or pass-through) and both legs are dropped so they never
// double-count. Every other group is kept unchanged, in original order.
func RelevantTransfers(transfers []domain.Transfer) []domain.Transfer {
	type groupStats struct {
		total    int
		sent     int
		received int
	}

	groups := make(map[string]*groupStats, len(transfers))
	for _, tr := range transfers {
		key := groupKey(tr)
		g, ok := groups[key]
		if !ok {
			g = &groupStats{}
			groups[key] = g
		}
		g.total++
		if tr.Direction == domain.DirectionSent {
			g.sent++
		} else {
			g.received++
		}
	}

	kept := make([]domain.Transfer, 0, len(transfers))
	for _, tr := range transfers {
		g := groups[groupKey(tr)]
		if g.total == 2 && g.sent == 1 && g.received == 1 {
			continue
		}
		kept = append(kept, tr)
	}
	return kept
}

// groupKey identifies legs that could cancel each other out.
// Amount is normalized through String so 1.50 and 1.5 land in one group.
func groupKey(tr domain.Transfer) string {
	return fmt.Sprintf("%s|%s", tr.Asset.String(), tr.Amount.String())
}
