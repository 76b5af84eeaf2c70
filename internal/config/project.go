package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/txflow/internal/domain"
)

// loadProjectConfig loads and parses txflow.toml. An empty configPath
// resolves to txflow.toml in the project root.
func loadProjectConfig(projectRoot, configPath string) (*ProjectConfig, error) {
	// Load .env files first for variable expansion
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				// Log warning but don't fail
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}

	if configPath == "" {
		configPath = filepath.Join(projectRoot, ProjectFileName)
	}

	cfg := &ProjectConfig{}
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(configPath), err)
	}

	networks := make(map[string]domain.NetworkConfig, len(cfg.Networks))
	for name, network := range cfg.Networks {
		network.Name = name
		network.RPCURL = expandRPCURL(name, network.RPCURL)
		network.ExplorerURL = os.ExpandEnv(network.ExplorerURL)
		network.SafeServiceURL = os.ExpandEnv(network.SafeServiceURL)
		networks[name] = network
	}
	cfg.Networks = networks

	senders := make(map[string]domain.SenderConfig, len(cfg.Senders))
	for name, sender := range cfg.Senders {
		sender.PrivateKey = os.ExpandEnv(sender.PrivateKey)
		sender.Address = os.ExpandEnv(sender.Address)
		sender.Safe = os.ExpandEnv(sender.Safe)
		senders[name] = sender
	}
	cfg.Senders = senders

	cfg.Simulation.URL = os.ExpandEnv(cfg.Simulation.URL)
	cfg.Simulation.AccessKey = os.ExpandEnv(cfg.Simulation.AccessKey)
	if cfg.Simulation.Backend == "" {
		cfg.Simulation.Backend = domain.SimulationBackendRPC
		if cfg.Simulation.URL != "" {
			cfg.Simulation.Backend = domain.SimulationBackendHTTP
		}
	}
	switch cfg.Simulation.Backend {
	case domain.SimulationBackendRPC:
	case domain.SimulationBackendHTTP:
		if cfg.Simulation.URL == "" {
			return nil, fmt.Errorf("simulation backend %q requires a url", cfg.Simulation.Backend)
		}
	default:
		return nil, fmt.Errorf("unknown simulation backend %q", cfg.Simulation.Backend)
	}

	if cfg.Execution.SettleDelay != "" {
		if _, err := time.ParseDuration(cfg.Execution.SettleDelay); err != nil {
			return nil, fmt.Errorf("invalid execution.settle_delay %q: %w", cfg.Execution.SettleDelay, err)
		}
	}

	return cfg, nil
}
