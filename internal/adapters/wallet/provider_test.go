package wallet

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	safeadapter "github.com/trebuchet-org/txflow/internal/adapters/safe"
	"github.com/trebuchet-org/txflow/internal/adapters/signer"
	"github.com/trebuchet-org/txflow/internal/config"
	"github.com/trebuchet-org/txflow/internal/domain"
)

const deployerKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var treasury = "0x3D33783D1fd1B6D849d299aD2E711f844fC16d2F"

func newTestProvider(senderName string, mutate func(*config.RuntimeConfig)) *Provider {
	cfg := &config.RuntimeConfig{
		SenderName: senderName,
		Network: &domain.NetworkConfig{
			Name:           "sepolia",
			ChainID:        11155111,
			RPCURL:         "http://localhost:8545",
			SafeServiceURL: "https://safe.internal",
		},
		Project: &config.ProjectConfig{Senders: map[string]domain.SenderConfig{
			"deployer": {Type: domain.SenderTypePrivateKey, PrivateKey: deployerKey},
			"treasury": {Type: domain.SenderTypeSafe, Safe: treasury, Proposer: "deployer"},
		}},
	}
	if mutate != nil {
		mutate(cfg)
	}
	return &Provider{
		cfg:     cfg,
		senders: config.NewSenderResolver(cfg),
		connect: func(ctx context.Context) (signer.Backend, error) { return nil, nil },
		confirm: func(string) error { return nil },
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSnapshot_EOA(t *testing.T) {
	ec, err := newTestProvider("deployer", nil).Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, ec.SafeSession)
	assert.Nil(t, ec.Safe)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), ec.Address)
	assert.Equal(t, domain.Network{ChainID: 11155111, Name: "sepolia"}, ec.Network)
	assert.IsType(t, &signer.ConfirmingSigner{}, ec.Signer)

	ec, err = newTestProvider("deployer", func(cfg *config.RuntimeConfig) { cfg.AutoConfirm = true }).Snapshot(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &signer.KeyedSigner{}, ec.Signer)
}

func TestSnapshot_Safe(t *testing.T) {
	ec, err := newTestProvider("treasury", nil).Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, ec.SafeSession)
	assert.Nil(t, ec.Signer)
	assert.IsType(t, &safeadapter.Backend{}, ec.Safe)
	assert.Equal(t, common.HexToAddress(treasury), ec.Address)
}

func TestSnapshot_Errors(t *testing.T) {
	t.Run("no network", func(t *testing.T) {
		_, err := newTestProvider("deployer", func(cfg *config.RuntimeConfig) { cfg.Network = nil }).Snapshot(context.Background())
		assert.ErrorContains(t, err, "no network selected")
	})

	t.Run("unknown sender", func(t *testing.T) {
		_, err := newTestProvider("nobody", nil).Snapshot(context.Background())
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("rpc unavailable", func(t *testing.T) {
		p := newTestProvider("deployer", nil)
		p.connect = func(ctx context.Context) (signer.Backend, error) { return nil, errors.New("dial refused") }
		_, err := p.Snapshot(context.Background())
		assert.ErrorContains(t, err, "dial refused")
	})

	t.Run("safe without service", func(t *testing.T) {
		p := newTestProvider("treasury", func(cfg *config.RuntimeConfig) {
			cfg.Network.SafeServiceURL = ""
			cfg.Network.ChainID = 31337
		})
		_, err := p.Snapshot(context.Background())
		assert.ErrorContains(t, err, "no safe_service_url")
	})
}
