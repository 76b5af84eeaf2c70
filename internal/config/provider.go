package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*RuntimeConfig, error) {
	// Get project root from viper
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		// Try to find project root
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	cfg := &RuntimeConfig{
		ProjectRoot:    projectRoot,
		ConfigPath:     v.GetString("config"),
		SenderName:     v.GetString("sender"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		AutoConfirm:    v.GetBool("yes"),
		TestMode:       v.GetBool("test_mode"),
		Timeout:        v.GetDuration("timeout"),
	}

	// Load project config
	project, err := loadProjectConfig(projectRoot, cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}
	cfg.Project = project
	cfg.TestMode = cfg.TestMode || project.Execution.TestMode

	cfg.SettleDelay, err = resolveSettleDelay(v.GetString("settle_delay"), project.Execution.SettleDelay)
	if err != nil {
		return nil, err
	}

	// Resolve network if specified
	if networkName := v.GetString("network"); networkName != "" {
		networkResolver := NewNetworkResolver(cfg)
		network, err := networkResolver.ResolveNetwork(context.Background(), networkName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve network %s: %w", networkName, err)
		}
		cfg.Network = network
	}

	return cfg, nil
}

// resolveSettleDelay prefers the flag or environment value over the project file
func resolveSettleDelay(override, configured string) (time.Duration, error) {
	for _, raw := range []string{override, configured} {
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid settle delay %q: %w", raw, err)
		}
		if d < 0 {
			return 0, fmt.Errorf("settle delay must not be negative, got %s", d)
		}
		return d, nil
	}
	return DefaultSettleDelay, nil
}

// FindProjectRoot walks up from current directory to find txflow.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		projectFile := filepath.Join(dir, ProjectFileName)
		if _, err := os.Stat(projectFile); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root without finding txflow.toml
			return "", fmt.Errorf("not in a txflow project (%s not found)", ProjectFileName)
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	// Set up environment variables
	v.SetEnvPrefix("TXFLOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("timeout", "30m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("yes", false)
	v.SetDefault("test_mode", false)
	v.SetDefault("project_root", projectRoot)

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
		if err != nil {
			panic(err)
		}
	})

	return v
}

// ProvideNetworkResolver creates a NetworkResolver for Wire dependency injection
func ProvideNetworkResolver(cfg *RuntimeConfig) *NetworkResolver {
	return NewNetworkResolver(cfg)
}

// ProvideSenderResolver creates a SenderResolver for Wire dependency injection
func ProvideSenderResolver(cfg *RuntimeConfig) *SenderResolver {
	return NewSenderResolver(cfg)
}
