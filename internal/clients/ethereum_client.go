package clients

import (
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// NewEthereumClient dials an Ethereum JSON-RPC endpoint.
func NewEthereumClient(rpcURL string) (*ethclient.Client, error) {
	if rpcURL == "" {
		return nil, errors.New("ethereum rpc url is required")
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, errors.Wrapf(err, "dial ethereum rpc %s", rpcURL)
	}
	return client, nil
}
