package app

import (
	"log/slog"

	"github.com/trebuchet-org/txflow/internal/adapters/blockchain"
	"github.com/trebuchet-org/txflow/internal/adapters/interactive"
	"github.com/trebuchet-org/txflow/internal/config"
	"github.com/trebuchet-org/txflow/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared dependencies
	Senders  usecase.SenderRegistry
	Prompter *interactive.Prompter
	Chain    *blockchain.Client

	// Use cases
	Engine       *usecase.Engine
	ListNetworks *usecase.ListNetworks
	ListSenders  *usecase.ListSenders
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	senders usecase.SenderRegistry,
	prompter *interactive.Prompter,
	chain *blockchain.Client,
	engine *usecase.Engine,
	listNetworks *usecase.ListNetworks,
	listSenders *usecase.ListSenders,
) (*App, error) {
	return &App{
		Config:       cfg,
		Log:          log,
		Senders:      senders,
		Prompter:     prompter,
		Chain:        chain,
		Engine:       engine,
		ListNetworks: listNetworks,
		ListSenders:  listSenders,
	}, nil
}

// Close releases connections opened while running a command
func (a *App) Close() {
	if a.Chain != nil {
		a.Chain.Close()
	}
}
