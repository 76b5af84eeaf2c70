package usecase

import (
	"context"

	"github.com/trebuchet-org/txflow/internal/config"
)

// ListNetworksParams contains parameters for listing networks
type ListNetworksParams struct{}

// ListNetworksResult contains the result of listing networks
type ListNetworksResult struct {
	Networks []NetworkStatus
}

// NetworkStatus describes a configured network as a batch would see it
type NetworkStatus struct {
	Name    string
	ChainID uint64
	// ChainIDDiscovered is set when the chain id was read from the node
	// because the project file does not configure one.
	ChainIDDiscovered bool
	RPCURL            string
	ExplorerURL       string
	// SafeServiceURL is empty when Safe senders cannot be used on the network
	SafeServiceURL string
	Error          error
}

// ListNetworks is a use case for listing configured networks
type ListNetworks struct {
	resolver NetworkResolver
	cfg      *config.RuntimeConfig
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(resolver NetworkResolver, cfg *config.RuntimeConfig) *ListNetworks {
	return &ListNetworks{
		resolver: resolver,
		cfg:      cfg,
	}
}

// Run resolves every configured network. A network that fails to resolve is
// reported with its error instead of failing the listing.
func (uc *ListNetworks) Run(ctx context.Context, params ListNetworksParams) (*ListNetworksResult, error) {
	names := uc.resolver.GetNetworks(ctx)

	networks := make([]NetworkStatus, 0, len(names))
	for _, name := range names {
		status := NetworkStatus{Name: name}

		network, err := uc.resolver.ResolveNetwork(ctx, name)
		if err != nil {
			status.Error = err
			networks = append(networks, status)
			continue
		}

		status.ChainID = network.ChainID
		status.ChainIDDiscovered = uc.configuredChainID(name) == 0
		status.RPCURL = network.RPCURL
		status.ExplorerURL = network.ExplorerURL
		status.SafeServiceURL = network.SafeServiceURL
		networks = append(networks, status)
	}

	return &ListNetworksResult{
		Networks: networks,
	}, nil
}

func (uc *ListNetworks) configuredChainID(name string) uint64 {
	if uc.cfg == nil || uc.cfg.Project == nil {
		return 0
	}
	return uc.cfg.Project.Networks[name].ChainID
}
