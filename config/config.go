// Package config loads service configuration from a YAML file or CLI flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/chainfolio/internal/domain"
)

const (
	defaultListenAddr = ":8080"
	defaultWalDir     = "./wal"
	defaultTimeout    = 10 * time.Second
)

// Token couples an asset with its exchange trading symbol and on-chain decimals.
type Token struct {
	Asset    domain.Asset
	Symbol   string
	Decimals int32
}

// Config is the resolved service configuration.
type Config struct {
	ListenAddr          string
	TLSDomain           string
	CertCacheDir        string
	WalDir              string
	Platform            string
	EthereumRPC         string
	CollaboratorTimeout time.Duration
	StableAssets        []domain.Asset
	HighLiquidityAssets []domain.Asset
	Tokens              []Token
}

// StableRegistry builds the stable-asset registry.
func (c Config) StableRegistry() *domain.Registry {
	return domain.NewRegistry(c.StableAssets...)
}

// HighLiquidityRegistry builds the high-liquidity reference-asset registry.
func (c Config) HighLiquidityRegistry() *domain.Registry {
	return domain.NewRegistry(c.HighLiquidityAssets...)
}

// Symbols maps assets to their exchange trading symbols.
func (c Config) Symbols() map[domain.Asset]string {
	out := make(map[domain.Asset]string, len(c.Tokens))
	for _, t := range c.Tokens {
		out[t.Asset] = t.Symbol
	}
	return out
}

type assetTmp struct {
	ChainProvider   string `yaml:"chain_provider"`
	ContractAddress string `yaml:"contract_address"`
}

type tokenTmp struct {
	ChainProvider   string `yaml:"chain_provider"`
	ContractAddress string `yaml:"contract_address"`
	Symbol          string `yaml:"symbol"`
	Decimals        int32  `yaml:"decimals"`
}

type configTmp struct {
	ListenAddr          string        `yaml:"listen_addr"`
	TLSDomain           string        `yaml:"tls_domain,omitempty"`
	CertCacheDir        string        `yaml:"cert_cache_dir,omitempty"`
	WalDir              string        `yaml:"wal_dir"`
	Platform            string        `yaml:"platform"`
	EthereumRPC         string        `yaml:"ethereum_rpc"`
	CollaboratorTimeout time.Duration `yaml:"collaborator_timeout"`
	StableAssets        []assetTmp    `yaml:"stable_assets"`
	HighLiquidityAssets []assetTmp    `yaml:"high_liquidity_assets"`
	Tokens              []tokenTmp    `yaml:"tokens"`
}

// Get loads configuration from the --config YAML file, falling back to CLI
// flags when no file is given.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	listenAddr := flag.String("listen", defaultListenAddr, "HTTP listen address")
	walDir := flag.String("waldir", defaultWalDir, "directory for WAL storage")
	platform := flag.String("platform", "binance", "spot price platform: binance or bybit")
	ethereumRPC := flag.String("ethrpc", "", "Ethereum JSON-RPC endpoint")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	cfg := Config{
		ListenAddr:          *listenAddr,
		WalDir:              *walDir,
		Platform:            *platform,
		EthereumRPC:         *ethereumRPC,
		CollaboratorTimeout: defaultTimeout,
	}
	return cfg, cfg.validate()
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:          tmp.ListenAddr,
		TLSDomain:           tmp.TLSDomain,
		CertCacheDir:        tmp.CertCacheDir,
		WalDir:              tmp.WalDir,
		Platform:            tmp.Platform,
		EthereumRPC:         tmp.EthereumRPC,
		CollaboratorTimeout: tmp.CollaboratorTimeout,
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	if cfg.WalDir == "" {
		cfg.WalDir = defaultWalDir
	}
	if cfg.Platform == "" {
		cfg.Platform = "binance"
	}
	if cfg.CollaboratorTimeout == 0 {
		cfg.CollaboratorTimeout = defaultTimeout
	}

	for _, a := range tmp.StableAssets {
		cfg.StableAssets = append(cfg.StableAssets, domain.Asset{
			ChainProvider:   a.ChainProvider,
			ContractAddress: a.ContractAddress,
		})
	}
	for _, a := range tmp.HighLiquidityAssets {
		cfg.HighLiquidityAssets = append(cfg.HighLiquidityAssets, domain.Asset{
			ChainProvider:   a.ChainProvider,
			ContractAddress: a.ContractAddress,
		})
	}
	for _, t := range tmp.Tokens {
		if t.Symbol == "" {
			return Config{}, fmt.Errorf("incorrect 'tokens' entry in yaml config: symbol is required for %s:%s", t.ChainProvider, t.ContractAddress)
		}
		cfg.Tokens = append(cfg.Tokens, Token{
			Asset: domain.Asset{
				ChainProvider:   t.ChainProvider,
				ContractAddress: t.ContractAddress,
			},
			Symbol:   t.Symbol,
			Decimals: t.Decimals,
		})
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Platform {
	case "binance", "bybit":
	default:
		return fmt.Errorf("unsupported platform %q, expected binance or bybit", c.Platform)
	}
	if c.CollaboratorTimeout < 0 {
		return fmt.Errorf("collaborator_timeout must not be negative")
	}
	return nil
}
