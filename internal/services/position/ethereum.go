package position

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/chainfolio/internal/domain"
	"github.com/vadiminshakov/chainfolio/internal/services/pricer"
)

const nativeTokenDecimals = 18

var (
	balanceOfSelector = crypto.Keccak256([]byte("balanceOf(address)"))[:4]
	centsPerFiatUnit  = decimal.NewFromInt(100)
)

// TokenInfo carries per-asset valuation parameters: the exchange symbol
// used to price the holding and the token's on-chain decimals.
type TokenInfo struct {
	Symbol   string
	Decimals int32
}

// EthereumProvider reads wallet balances from an Ethereum node and values
// them through a Pricer.
type EthereumProvider struct {
	client *ethclient.Client
	pricer pricer.Pricer
	tokens map[domain.Asset]TokenInfo
}

// NewEthereumProvider creates an on-chain position provider.
func NewEthereumProvider(client *ethclient.Client, p pricer.Pricer, tokens map[domain.Asset]TokenInfo) (*EthereumProvider, error) {
	if client == nil {
		return nil, errors.New("ethereum client is required")
	}
	if p == nil {
		return nil, errors.New("pricer is required")
	}

	return &EthereumProvider{client: client, pricer: p, tokens: tokens}, nil
}

// GetPosition fetches the wallet's balance of the asset and its current
// fiat value in cents.
func (p *EthereumProvider) GetPosition(ctx context.Context, walletAddress string, asset domain.Asset) (domain.Position, error) {
	info, ok := p.tokens[asset]
	if !ok {
		return domain.Position{}, errors.Errorf("no token info configured for asset %s", asset.String())
	}

	wallet := common.HexToAddress(walletAddress)

	var raw *big.Int
	var err error
	if asset.IsNative() {
		raw, err = p.client.BalanceAt(ctx, wallet, nil)
	} else {
		raw, err = p.erc20Balance(ctx, common.HexToAddress(asset.ContractAddress), wallet)
	}
	if err != nil {
		return domain.Position{}, errors.Wrapf(err, "fetch on-chain balance for wallet %s asset %s", walletAddress, asset.String())
	}

	decimals := info.Decimals
	if asset.IsNative() {
		decimals = nativeTokenDecimals
	}
	amount := decimal.NewFromBigInt(raw, -decimals)

	price, err := p.pricer.GetPrice(ctx, info.Symbol)
	if err != nil {
		return domain.Position{}, errors.Wrapf(err, "fetch price for %s", info.Symbol)
	}

	return domain.Position{
		Asset:          asset,
		Amount:         amount,
		FiatValueCents: amount.Mul(price).Mul(centsPerFiatUnit),
	}, nil
}

// erc20Balance calls balanceOf(wallet) on the token contract.
func (p *EthereumProvider) erc20Balance(ctx context.Context, token, wallet common.Address) (*big.Int, error) {
	data := make([]byte, 0, 36)
	data = append(data, balanceOfSelector...)
	data = append(data, common.LeftPadBytes(wallet.Bytes(), 32)...)

	out, err := p.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}

	return new(big.Int).SetBytes(out), nil
}
