package adapters

import (
	"log/slog"

	"github.com/google/wire"
	"github.com/trebuchet-org/txflow/internal/adapters/blockchain"
	"github.com/trebuchet-org/txflow/internal/adapters/interactive"
	"github.com/trebuchet-org/txflow/internal/adapters/simulation"
	"github.com/trebuchet-org/txflow/internal/adapters/wallet"
	"github.com/trebuchet-org/txflow/internal/config"
	"github.com/trebuchet-org/txflow/internal/domain"
	"github.com/trebuchet-org/txflow/internal/usecase"
	"github.com/trebuchet-org/txflow/pkg/explorer"
)

// ProvideSimulator picks the gas simulation backend configured for the project.
// The HTTP service is used when selected, otherwise the network's node estimates gas.
func ProvideSimulator(cfg *config.RuntimeConfig, chain *blockchain.Client, log *slog.Logger) usecase.Simulator {
	if cfg.Project != nil && cfg.Project.Simulation.Backend == domain.SimulationBackendHTTP {
		return simulation.NewHTTPService(cfg, log)
	}
	return simulation.NewNodeSimulator(chain, log)
}

// ProvideExplorerLinker builds explorer links from the configured networks
func ProvideExplorerLinker(cfg *config.RuntimeConfig) *explorer.Resolver {
	bases := make(map[string]string)
	if cfg.Project != nil {
		for name, network := range cfg.Project.Networks {
			bases[name] = network.ExplorerURL
		}
	}
	if cfg.Network != nil {
		bases[cfg.Network.Name] = cfg.Network.ExplorerURL
	}
	return explorer.NewResolver(bases)
}

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	config.ProvideNetworkResolver,
	wire.Bind(new(usecase.NetworkResolver), new(*config.NetworkResolver)),

	config.ProvideSenderResolver,
	wire.Bind(new(usecase.SenderRegistry), new(*config.SenderResolver)),
)

// BlockchainSet provides the RPC client and the gas simulator on top of it
var BlockchainSet = wire.NewSet(
	blockchain.NewClient,
	ProvideSimulator,
)

// WalletSet provides the per-attempt wallet snapshot
var WalletSet = wire.NewSet(
	wallet.NewProvider,
	wire.Bind(new(usecase.WalletProvider), new(*wallet.Provider)),
)

// ExplorerSet provides block explorer links
var ExplorerSet = wire.NewSet(
	ProvideExplorerLinker,
	wire.Bind(new(usecase.ExplorerLinker), new(*explorer.Resolver)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewPrompter,
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	ConfigSet,
	BlockchainSet,
	WalletSet,
	ExplorerSet,
	InteractiveSet,
)
