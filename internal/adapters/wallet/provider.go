package wallet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/txflow/internal/adapters/blockchain"
	safeadapter "github.com/trebuchet-org/txflow/internal/adapters/safe"
	"github.com/trebuchet-org/txflow/internal/adapters/signer"
	"github.com/trebuchet-org/txflow/internal/config"
	"github.com/trebuchet-org/txflow/internal/domain"
	"github.com/trebuchet-org/txflow/internal/usecase"
	"github.com/trebuchet-org/txflow/pkg/safe"
)

// Provider builds the per-attempt execution context from the selected
// network and sender
type Provider struct {
	cfg     *config.RuntimeConfig
	senders *config.SenderResolver
	connect func(ctx context.Context) (signer.Backend, error)
	confirm signer.ConfirmFunc
	log     *slog.Logger
}

// NewProvider creates a wallet provider
func NewProvider(cfg *config.RuntimeConfig, senders *config.SenderResolver, chain *blockchain.Client, log *slog.Logger) *Provider {
	return &Provider{
		cfg:     cfg,
		senders: senders,
		connect: func(ctx context.Context) (signer.Backend, error) {
			client, err := chain.Connect(ctx)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		confirm: signer.PromptConfirm,
		log:     log,
	}
}

// Snapshot resolves the sender and returns a signer or Safe backend for it
func (p *Provider) Snapshot(ctx context.Context) (usecase.ExecutionContext, error) {
	if p.cfg.Network == nil {
		return usecase.ExecutionContext{}, fmt.Errorf("no network selected (use --network)")
	}
	network := p.cfg.Network.Network()

	sender, err := p.senders.ResolveSender(ctx, p.cfg.SenderName)
	if err != nil {
		return usecase.ExecutionContext{}, err
	}

	switch sender.Type {
	case domain.SenderTypePrivateKey:
		return p.eoaContext(ctx, network, sender)
	case domain.SenderTypeSafe:
		return p.safeContext(ctx, network, sender)
	default:
		return usecase.ExecutionContext{}, fmt.Errorf("unknown sender type: %s", sender.Type)
	}
}

func (p *Provider) eoaContext(ctx context.Context, network domain.Network, sender *domain.SenderConfig) (usecase.ExecutionContext, error) {
	backend, err := p.connect(ctx)
	if err != nil {
		return usecase.ExecutionContext{}, err
	}

	keyed, err := signer.NewKeyedSigner(backend, sender.PrivateKey, network.ChainID, p.log)
	if err != nil {
		return usecase.ExecutionContext{}, err
	}

	var s usecase.Signer = keyed
	if !p.cfg.AutoConfirm && !p.cfg.NonInteractive {
		s = signer.NewConfirmingSigner(keyed, p.confirm)
	}

	return usecase.ExecutionContext{
		Signer:  s,
		Address: keyed.Address(),
		Network: network,
	}, nil
}

func (p *Provider) safeContext(ctx context.Context, network domain.Network, sender *domain.SenderConfig) (usecase.ExecutionContext, error) {
	proposer, err := p.senders.ResolveProposer(ctx, sender)
	if err != nil {
		return usecase.ExecutionContext{}, err
	}

	var client *safe.SafeClient
	if url := p.cfg.Network.SafeServiceURL; url != "" {
		client = safe.NewSafeClientWithURL(url)
	} else {
		client, err = safe.NewSafeClient(network.ChainID)
		if err != nil {
			return usecase.ExecutionContext{}, fmt.Errorf("no safe_service_url for network %s: %w", network.Name, err)
		}
	}

	safeAddress := common.HexToAddress(sender.Safe)
	backend, err := safeadapter.NewBackend(client, safeAddress, network.ChainID, proposer.PrivateKey, p.log)
	if err != nil {
		return usecase.ExecutionContext{}, err
	}

	return usecase.ExecutionContext{
		Safe:        backend,
		Address:     safeAddress,
		Network:     network,
		SafeSession: true,
	}, nil
}

var _ usecase.WalletProvider = (*Provider)(nil)
