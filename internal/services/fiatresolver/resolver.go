// Package fiatresolver provides best-effort historical fiat valuation for
// transfer legs that were fetched without a resolved fiat amount.
package fiatresolver

import (
	"context"

	"github.com/vadiminshakov/chainfolio/internal/domain"
)

// Resolver fills fiat values for a transaction's unresolved transfers.
// Implementations must not reorder or drop transfers; legs they cannot
// price are returned unchanged.
type Resolver interface {
	ResolveFiatAmounts(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)
}
