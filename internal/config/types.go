package config

import (
	"time"

	"github.com/trebuchet-org/txflow/internal/domain"
)

// ProjectFileName is the project configuration file looked up from the working directory
const ProjectFileName = "txflow.toml"

// DefaultSettleDelay is the minimum time spent building a transaction batch
const DefaultSettleDelay = 600 * time.Millisecond

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	ConfigPath  string

	// Context settings
	Network    *domain.NetworkConfig // nil if not specified
	SenderName string                // empty selects the default sender

	// Execution settings
	Debug          bool
	NonInteractive bool
	AutoConfirm    bool // Skip per-transaction signature prompts
	TestMode       bool // Skip gas simulation and buffering
	Timeout        time.Duration
	SettleDelay    time.Duration

	// Resolved configurations
	Project *ProjectConfig
}

// ProjectConfig represents the txflow.toml file
type ProjectConfig struct {
	Networks   map[string]domain.NetworkConfig `toml:"networks"`
	Senders    map[string]domain.SenderConfig  `toml:"senders"`
	Simulation domain.SimulationConfig         `toml:"simulation"`
	Execution  domain.ExecutionConfig          `toml:"execution"`
}
