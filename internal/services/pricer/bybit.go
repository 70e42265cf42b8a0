package pricer

import (
	"context"
	"fmt"

	"github.com/hirokisan/bybit/v2"
	"github.com/shopspring/decimal"
)

// BybitPricer fetches spot prices from the Bybit V5 market API.
type BybitPricer struct {
	client *bybit.Client
}

// NewBybitPricer creates a Bybit-backed pricer.
func NewBybitPricer(client *bybit.Client) *BybitPricer {
	return &BybitPricer{client: client}
}

// GetPrice fetches the current market price for the symbol.
func (p *BybitPricer) GetPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	sym := bybit.SymbolV5(symbol)

	result, err := p.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "spot",
		Symbol:   &sym,
	})
	if err != nil {
		return decimal.Decimal{}, err
	}

	if len(result.Result.Spot.List) == 0 {
		return decimal.Decimal{}, fmt.Errorf("bybit API returned empty prices for %s", symbol)
	}

	return decimal.NewFromString(result.Result.Spot.List[0].LastPrice)
}
