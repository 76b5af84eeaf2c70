//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/txflow/internal/adapters"
	"github.com/trebuchet-org/txflow/internal/config"
	"github.com/trebuchet-org/txflow/internal/logging"
	"github.com/trebuchet-org/txflow/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewGasEstimator,
		usecase.NewEOAExecutor,
		usecase.NewSafeExecutor,
		usecase.NewEngine,
		usecase.NewListNetworks,
		usecase.NewListSenders,

		// App
		NewApp,
	)
	return nil, nil
}
