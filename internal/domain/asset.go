// Package domain defines core data structures used throughout the portfolio backend.
package domain

import "fmt"

// Asset identifies a token by chain provider and contract address.
// It is the join key between transactions, registries and live positions.
type Asset struct {
	// ChainProvider names the chain the token lives on, e.g. "ethereum".
	ChainProvider string `json:"chain_provider"`
	// ContractAddress is the token contract address; empty for the chain's native token.
	ContractAddress string `json:"contract_address"`
}

// String returns the string representation.
func (a Asset) String() string {
	return fmt.Sprintf("%s:%s", a.ChainProvider, a.ContractAddress)
}

// IsNative reports whether the asset is the chain's native token.
func (a Asset) IsNative() bool {
	return a.ContractAddress == ""
}

// Registry is a configured set of assets, used for the stable-asset
// and high-liquidity reference-asset sets.
type Registry struct {
	assets map[Asset]struct{}
}

// NewRegistry creates a registry holding the given assets.
func NewRegistry(assets ...Asset) *Registry {
	r := &Registry{assets: make(map[Asset]struct{}, len(assets))}
	for _, a := range assets {
		r.assets[a] = struct{}{}
	}
	return r
}

// Contains reports whether the asset is registered. Nil-safe.
func (r *Registry) Contains(a Asset) bool {
	if r == nil {
		return false
	}
	_, ok := r.assets[a]
	return ok
}

// Assets returns the registered assets in unspecified order.
func (r *Registry) Assets() []Asset {
	if r == nil {
		return nil
	}
	out := make([]Asset, 0, len(r.assets))
	for a := range r.assets {
		out = append(out, a)
	}
	return out
}
