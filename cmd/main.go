// Command chainfolio runs the portfolio-tracking backend: a cost-basis and
// P&L engine over an append-only on-chain transaction log, exposed via HTTP.
// It can be configured via a YAML configuration file or command-line
// arguments.
//
// Usage:
//
//	chainfolio --config config.yaml
//	chainfolio (uses CLI arguments)
//
// Optional environment variables:
//
//	For Binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit: BYBIT_API_KEY, BYBIT_API_SECRET
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/vadiminshakov/chainfolio/config"
	"github.com/vadiminshakov/chainfolio/internal/clients"
	"github.com/vadiminshakov/chainfolio/internal/domain"
	"github.com/vadiminshakov/chainfolio/internal/services/costbasis"
	"github.com/vadiminshakov/chainfolio/internal/services/fiatresolver"
	"github.com/vadiminshakov/chainfolio/internal/services/pnl"
	"github.com/vadiminshakov/chainfolio/internal/services/position"
	"github.com/vadiminshakov/chainfolio/internal/services/pricer"
	"github.com/vadiminshakov/chainfolio/internal/storage/pendingswaps"
	"github.com/vadiminshakov/chainfolio/internal/storage/transactions"
	"github.com/vadiminshakov/chainfolio/internal/web"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	txStore, err := transactions.NewWALStore(filepath.Join(cfg.WalDir, "transactions"))
	if err != nil {
		logger.Fatal("init transaction store", zap.Error(err))
	}
	defer txStore.Close()

	swapStore, err := pendingswaps.NewWALStore(filepath.Join(cfg.WalDir, "pendingswaps"))
	if err != nil {
		logger.Fatal("init pending swap store", zap.Error(err))
	}
	defer swapStore.Close()

	binanceClient := clients.NewBinanceClient(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_API_SECRET"))

	resolver, err := fiatresolver.NewBinanceResolver(logger, binanceClient, cfg.Symbols())
	if err != nil {
		logger.Fatal("init fiat resolver", zap.Error(err))
	}

	stable := cfg.StableRegistry()
	highLiquidity := cfg.HighLiquidityRegistry()

	costBasisService, err := costbasis.NewService(logger, txStore, resolver, stable, highLiquidity, cfg.CollaboratorTimeout)
	if err != nil {
		logger.Fatal("init cost basis service", zap.Error(err))
	}

	var spotPricer pricer.Pricer
	switch cfg.Platform {
	case "bybit":
		spotPricer = pricer.NewBybitPricer(clients.NewBybitClient(os.Getenv("BYBIT_API_KEY"), os.Getenv("BYBIT_API_SECRET")))
	default:
		spotPricer = pricer.NewBinancePricer(binanceClient)
	}

	calculator := buildCalculator(cfg, logger, spotPricer, costBasisService, swapStore, highLiquidity)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var server *web.Server
	if calculator != nil {
		server = web.NewServer(cfg.ListenAddr, costBasisService, calculator, logger)
	} else {
		logger.Warn("no ethereum rpc configured, serving cost basis only")
		server = web.NewServer(cfg.ListenAddr, costBasisService, nil, logger)
	}
	logger.Info("starting server", zap.String("addr", cfg.ListenAddr))

	if cfg.TLSDomain != "" {
		err = server.StartWithAutoTLS(ctx, []string{cfg.TLSDomain}, cfg.CertCacheDir)
	} else {
		err = server.Start(ctx)
	}
	if err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// buildCalculator wires the P&L calculator when an Ethereum endpoint is
// configured; without one the service serves cost basis only.
func buildCalculator(cfg config.Config, logger *zap.Logger, spotPricer pricer.Pricer,
	costBasisService *costbasis.Service, swapStore *pendingswaps.WALStore, highLiquidity *domain.Registry) *pnl.Calculator {
	if cfg.EthereumRPC == "" {
		return nil
	}

	ethClient, err := clients.NewEthereumClient(cfg.EthereumRPC)
	if err != nil {
		logger.Fatal("dial ethereum rpc", zap.Error(err))
	}

	tokens := make(map[domain.Asset]position.TokenInfo, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		tokens[t.Asset] = position.TokenInfo{Symbol: t.Symbol, Decimals: t.Decimals}
	}

	positions, err := position.NewEthereumProvider(ethClient, spotPricer, tokens)
	if err != nil {
		logger.Fatal("init position provider", zap.Error(err))
	}

	calculator, err := pnl.NewCalculator(logger, costBasisService, positions, swapStore, highLiquidity)
	if err != nil {
		logger.Fatal("init pnl calculator", zap.Error(err))
	}
	return calculator
}
