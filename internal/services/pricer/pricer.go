// Package pricer provides current spot prices for exchange trading symbols.
package pricer

import (
	"context"

	"github.com/shopspring/decimal"
)

// Pricer provides the current price of a trading symbol, e.g. "ETHUSDT".
type Pricer interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}
