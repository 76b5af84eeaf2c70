package explorer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Chain describes a well-known network and its block explorer
type Chain struct {
	ChainID     uint64
	Name        string
	ExplorerURL string
}

// KnownChains lists the networks with a default block explorer
var KnownChains = []Chain{
	{ChainID: 1, Name: "mainnet", ExplorerURL: "https://etherscan.io"},
	{ChainID: 11155111, Name: "sepolia", ExplorerURL: "https://sepolia.etherscan.io"},
	{ChainID: 10, Name: "optimism", ExplorerURL: "https://optimistic.etherscan.io"},
	{ChainID: 42161, Name: "arbitrum", ExplorerURL: "https://arbiscan.io"},
	{ChainID: 137, Name: "polygon", ExplorerURL: "https://polygonscan.com"},
	{ChainID: 8453, Name: "base", ExplorerURL: "https://basescan.org"},
	{ChainID: 84532, Name: "base-sepolia", ExplorerURL: "https://sepolia.basescan.org"},
	{ChainID: 43114, Name: "avalanche", ExplorerURL: "https://snowtrace.io"},
	{ChainID: 250, Name: "fantom", ExplorerURL: "https://ftmscan.com"},
	{ChainID: 56, Name: "bsc", ExplorerURL: "https://bscscan.com"},
	{ChainID: 42220, Name: "celo", ExplorerURL: "https://celoscan.io"},
	{ChainID: 44787, Name: "celo-alfajores", ExplorerURL: "https://alfajores.celoscan.io"},
}

// BaseURLForChain returns the default explorer base URL for a chain ID, or
// an empty string for chains without a public explorer (e.g. anvil).
func BaseURLForChain(chainID uint64) string {
	for _, chain := range KnownChains {
		if chain.ChainID == chainID {
			return chain.ExplorerURL
		}
	}
	return ""
}

// Resolver builds explorer links for named networks
type Resolver struct {
	bases map[string]string
}

// NewResolver creates a resolver from network name to explorer base URL.
// Names missing from bases fall back to the well-known chain list.
func NewResolver(bases map[string]string) *Resolver {
	r := &Resolver{bases: make(map[string]string, len(bases)+len(KnownChains))}
	for _, chain := range KnownChains {
		r.bases[chain.Name] = chain.ExplorerURL
	}
	for name, base := range bases {
		if base != "" {
			r.bases[name] = strings.TrimRight(base, "/")
		}
	}
	return r
}

// TxURL returns the explorer link for a transaction hash, or an empty string
// when the network has no explorer configured.
func (r *Resolver) TxURL(network string, hash common.Hash) string {
	base, ok := r.bases[network]
	if !ok || base == "" {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", base, hash.Hex())
}

// AddressURL returns the explorer link for an address
func (r *Resolver) AddressURL(network string, address common.Address) string {
	base, ok := r.bases[network]
	if !ok || base == "" {
		return ""
	}
	return fmt.Sprintf("%s/address/%s", base, address.Hex())
}
