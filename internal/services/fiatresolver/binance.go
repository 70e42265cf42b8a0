package fiatresolver

import (
	"context"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/bytedance/gopkg/util/gopool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/chainfolio/internal/domain"
	"github.com/vadiminshakov/chainfolio/pkg/retrier"
)

const klineInterval = "1m"

var centsPerFiatUnit = decimal.NewFromInt(100)

// BinanceResolver values unresolved transfer legs at the close of the
// one-minute Binance kline covering the transaction timestamp.
type BinanceResolver struct {
	client *binance.Client
	// symbols maps an asset to its Binance trading symbol, e.g. "ETHUSDT".
	// Assets without a mapping stay unresolved.
	symbols map[domain.Asset]string
	retrier *retrier.Retrier
	logger  *zap.Logger
}

// NewBinanceResolver creates a kline-backed fiat resolver.
func NewBinanceResolver(logger *zap.Logger, client *binance.Client, symbols map[domain.Asset]string) (*BinanceResolver, error) {
	if client == nil {
		return nil, errors.New("binance client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BinanceResolver{
		client:  client,
		symbols: symbols,
		retrier: retrier.New(retrier.WithMaxRetries(2), retrier.WithInitialInterval(200*time.Millisecond)),
		logger:  logger,
	}, nil
}

// ResolveFiatAmounts returns a derived copy of the transaction with fiat
// values filled in where a historical price was found. Per-leg lookups run
// concurrently on the shared goroutine pool; a failed lookup leaves that
// leg unresolved rather than failing the transaction.
func (r *BinanceResolver) ResolveFiatAmounts(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	out := tx
	out.Transfers = make([]domain.Transfer, len(tx.Transfers))
	copy(out.Transfers, tx.Transfers)

	var wg sync.WaitGroup
	for i := range out.Transfers {
		if out.Transfers[i].HasFiatAmount {
			continue
		}

		i := i
		wg.Add(1)
		gopool.Go(func() {
			defer wg.Done()
			r.resolveLeg(ctx, &out.Transfers[i], tx.Timestamp)
		})
	}
	wg.Wait()

	return out, nil
}

// resolveLeg prices a single transfer leg in place.
func (r *BinanceResolver) resolveLeg(ctx context.Context, tr *domain.Transfer, at time.Time) {
	symbol, ok := r.symbols[tr.Asset]
	if !ok {
		r.logger.Debug("no trading symbol configured for asset, leaving leg unresolved",
			zap.String("asset", tr.Asset.String()))
		return
	}

	price, err := retrier.DoWithData(r.retrier, ctx, func(ctx context.Context) (decimal.Decimal, error) {
		return r.closePriceAt(ctx, symbol, at)
	})
	if err != nil {
		r.logger.Warn("historical price lookup failed, leaving leg unresolved",
			zap.String("symbol", symbol), zap.Time("at", at), zap.Error(err))
		return
	}

	*tr = tr.WithFiatAmountCents(tr.Amount.Mul(price).Mul(centsPerFiatUnit))
}

// closePriceAt fetches the close of the kline covering the timestamp.
func (r *BinanceResolver) closePriceAt(ctx context.Context, symbol string, at time.Time) (decimal.Decimal, error) {
	klines, err := r.client.NewKlinesService().
		Symbol(symbol).
		Interval(klineInterval).
		StartTime(at.Truncate(time.Minute).UnixMilli()).
		Limit(1).
		Do(ctx)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "fetch kline for %s", symbol)
	}
	if len(klines) == 0 {
		return decimal.Decimal{}, errors.Errorf("binance returned no klines for %s at %s", symbol, at)
	}

	return decimal.NewFromString(klines[0].Close)
}
