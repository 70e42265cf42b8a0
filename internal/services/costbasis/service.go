package costbasis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/chainfolio/internal/domain"
)

// TransactionStore fetches a user's transaction history for one asset.
// Implementations must return transactions read-only and in ascending
// timestamp order.
type TransactionStore interface {
	FindTransactions(ctx context.Context, userID string, asset domain.Asset) ([]domain.Transaction, error)
}

// FiatResolver fills historical fiat values for transfers missing them.
// Resolution is best-effort: implementations must not reorder or drop
// transfers and leave legs they cannot price unresolved.
type FiatResolver interface {
	ResolveFiatAmounts(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)
}

// Service orchestrates the cost-basis computation: fetch history, resolve
// missing fiat values, run the accumulator. Each call computes from its own
// snapshot with no shared mutable state, so concurrent calls are safe.
type Service struct {
	store         TransactionStore
	resolver      FiatResolver
	stable        *domain.Registry
	highLiquidity *domain.Registry
	timeout       time.Duration
	logger        *zap.Logger
}

// NewService creates a cost-basis service with injected collaborators.
func NewService(logger *zap.Logger, store TransactionStore, resolver FiatResolver,
	stable, highLiquidity *domain.Registry, timeout time.Duration) (*Service, error) {
	if store == nil {
		return nil, errors.New("transaction store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:         store,
		resolver:      resolver,
		stable:        stable,
		highLiquidity: highLiquidity,
		timeout:       timeout,
		logger:        logger,
	}, nil
}

// GetCostBasis recomputes the cost basis for (userID, asset) from the full
// transaction history. A store failure fails the whole call; a resolver
// failure degrades to unresolved legs and a less accurate result.
func (s *Service) GetCostBasis(ctx context.Context, userID string, asset domain.Asset) (domain.CostBasis, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	txs, err := s.store.FindTransactions(ctx, userID, asset)
	if err != nil {
		return domain.CostBasis{}, errors.Wrapf(err, "fetch transactions for user %s asset %s", userID, asset.String())
	}

	txs = s.resolveMissingFiat(ctx, txs)

	totals := Accumulate(txs, asset, s.stable, s.highLiquidity)

	result := domain.CostBasis{
		IsStableAsset: s.stable.Contains(asset),
		HasDeposits:   totals.HasDeposits,
	}

	balance := totals.Balance
	result.Balance = &balance

	if totals.CostBasisCents.IsNegative() {
		// malformed upstream data (e.g. a sale without its purchase);
		// report "basis unavailable" instead of a negative figure
		s.logger.Warn("negative cost basis after full fold",
			zap.String("user", userID),
			zap.String("asset", asset.String()),
			zap.String("cost_basis_cents", totals.CostBasisCents.String()))
		return result, nil
	}

	basis := totals.CostBasisCents
	result.CostBasisCents = &basis

	if balance.IsPositive() {
		avg := basis.Div(balance)
		result.AvgPurchasePriceCents = &avg
	}

	return result, nil
}

// resolveMissingFiat requests fiat values for transactions holding
// unresolved legs. Failures are logged and the original transaction kept.
func (s *Service) resolveMissingFiat(ctx context.Context, txs []domain.Transaction) []domain.Transaction {
	if s.resolver == nil {
		return txs
	}

	resolved := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		resolved[i] = tx
		if !hasUnresolvedTransfer(tx) {
			continue
		}

		out, err := s.resolver.ResolveFiatAmounts(ctx, tx)
		if err != nil {
			s.logger.Warn("fiat resolution failed, proceeding with unresolved transfers",
				zap.String("tx", tx.ID), zap.Error(err))
			continue
		}
		if len(out.Transfers) != len(tx.Transfers) {
			s.logger.Warn("fiat resolver changed transfer count, ignoring its output",
				zap.String("tx", tx.ID),
				zap.Int("want", len(tx.Transfers)), zap.Int("got", len(out.Transfers)))
			continue
		}
		resolved[i] = out
	}
	return resolved
}

func hasUnresolvedTransfer(tx domain.Transaction) bool {
	for _, tr := range tx.Transfers {
		if !tr.HasFiatAmount {
			return true
		}
	}
	return false
}
