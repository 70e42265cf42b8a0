// Package pnl combines a live on-chain position with the cost-basis fold
// into a total-return summary.
package pnl

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/chainfolio/internal/domain"
)

var percentMultiplier = decimal.NewFromInt(100)

// CostBasisProvider recomputes the cost basis for a (user, asset) pair.
type CostBasisProvider interface {
	GetCostBasis(ctx context.Context, userID string, asset domain.Asset) (domain.CostBasis, error)
}

// PositionProvider fetches the live holding for a wallet and asset.
type PositionProvider interface {
	GetPosition(ctx context.Context, walletAddress string, asset domain.Asset) (domain.Position, error)
}

// PendingSwapChecker reports whether the user has an unsettled swap order.
type PendingSwapChecker interface {
	HasPendingSwap(ctx context.Context, userID string) (bool, error)
}

// Calculator produces PnL summaries. Stateless; safe for concurrent use.
type Calculator struct {
	costBasis     CostBasisProvider
	positions     PositionProvider
	pendingSwaps  PendingSwapChecker
	highLiquidity *domain.Registry
	logger        *zap.Logger
}

// NewCalculator creates a PnL calculator with injected collaborators.
func NewCalculator(logger *zap.Logger, costBasis CostBasisProvider, positions PositionProvider,
	pendingSwaps PendingSwapChecker, highLiquidity *domain.Registry) (*Calculator, error) {
	if costBasis == nil {
		return nil, errors.New("cost basis provider is required")
	}
	if positions == nil {
		return nil, errors.New("position provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Calculator{
		costBasis:     costBasis,
		positions:     positions,
		pendingSwaps:  pendingSwaps,
		highLiquidity: highLiquidity,
		logger:        logger,
	}, nil
}

// GetPnL computes the total return for (userID, asset) against the live
// position held at walletAddress. Collaborator fetch failures surface
// verbatim; no partial result is substituted.
func (c *Calculator) GetPnL(ctx context.Context, userID, walletAddress string, asset domain.Asset) (domain.PnL, error) {
	position, err := c.positions.GetPosition(ctx, walletAddress, asset)
	if err != nil {
		return domain.PnL{}, errors.Wrapf(err, "fetch position for wallet %s asset %s", walletAddress, asset.String())
	}

	basis, err := c.costBasis.GetCostBasis(ctx, userID, asset)
	if err != nil {
		return domain.PnL{}, err
	}

	result := domain.PnL{
		Position:  position,
		CostBasis: basis,
		SuppressBasisDisplay: basis.IsStableAsset ||
			!basis.HasBasis() ||
			c.highLiquidity.Contains(asset),
	}

	if basis.HasBasis() {
		ret := position.FiatValueCents.Sub(*basis.CostBasisCents)
		result.TotalReturnCents = &ret

		if !basis.CostBasisCents.IsZero() {
			pct := ret.Div(*basis.CostBasisCents).Mul(percentMultiplier).Round(2)
			result.TotalReturnPercent = &pct
		}
	}

	result.HasPendingSwaps = c.hasPendingSwaps(ctx, userID, position, basis)

	return result, nil
}

// hasPendingSwaps surfaces an in-flight swap order only while the on-chain
// balance has not yet caught up with the ledger.
func (c *Calculator) hasPendingSwaps(ctx context.Context, userID string, position domain.Position, basis domain.CostBasis) bool {
	if c.pendingSwaps == nil || basis.Balance == nil {
		return false
	}

	pending, err := c.pendingSwaps.HasPendingSwap(ctx, userID)
	if err != nil {
		c.logger.Warn("pending swap check failed", zap.String("user", userID), zap.Error(err))
		return false
	}

	return pending && !position.Amount.Equal(*basis.Balance)
}
