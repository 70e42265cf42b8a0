// Package position fetches live on-chain holdings and values them in fiat.
package position

import (
	"context"

	"github.com/vadiminshakov/chainfolio/internal/domain"
)

// Provider fetches the live holding for a wallet and asset.
type Provider interface {
	GetPosition(ctx context.Context, walletAddress string, asset domain.Asset) (domain.Position, error)
}
