package domain

// NetworkConfig represents a configured network
type NetworkConfig struct {
	Name           string `json:"name" toml:"-"`
	ChainID        uint64 `json:"chainId" toml:"chain_id"`
	RPCURL         string `json:"rpcUrl" toml:"rpc_url"`
	ExplorerURL    string `json:"explorerUrl,omitempty" toml:"explorer_url"`
	SafeServiceURL string `json:"safeServiceUrl,omitempty" toml:"safe_service_url"`
}

// Network returns the chain identity of the configured network
func (n NetworkConfig) Network() Network {
	return Network{ChainID: n.ChainID, Name: n.Name}
}

type SenderType string

var (
	SenderTypeSafe       SenderType = "safe"
	SenderTypePrivateKey SenderType = "private_key"
)

// SenderConfig represents a sender configuration
type SenderConfig struct {
	Type       SenderType `toml:"type"`
	Address    string     `toml:"address,omitempty"`
	PrivateKey string     `toml:"private_key,omitempty"`
	Safe       string     `toml:"safe,omitempty"`
	Proposer   string     `toml:"proposer,omitempty"` // For Safe senders
}

// SimulationBackend selects how gas simulation is performed
type SimulationBackend string

const (
	SimulationBackendHTTP SimulationBackend = "http"
	SimulationBackendRPC  SimulationBackend = "rpc"
)

// SimulationConfig configures the gas simulation service
type SimulationConfig struct {
	Backend   SimulationBackend `toml:"backend"`
	URL       string            `toml:"url"`
	AccessKey string            `toml:"access_key"`
}

// ExecutionConfig configures the orchestrator
type ExecutionConfig struct {
	SettleDelay string `toml:"settle_delay"`
	TestMode    bool   `toml:"test_mode"`
}
