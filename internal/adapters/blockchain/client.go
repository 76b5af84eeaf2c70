package blockchain

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/txflow/internal/config"
	"github.com/trebuchet-org/txflow/internal/domain"
)

// Client lazily connects to the selected network's RPC endpoint
type Client struct {
	network *domain.NetworkConfig

	mu     sync.Mutex
	client *ethclient.Client
}

// NewClient creates a client for the network selected in the runtime config
func NewClient(cfg *config.RuntimeConfig) *Client {
	return &Client{network: cfg.Network}
}

// Connect dials the RPC endpoint on first use and verifies the chain ID.
// Only a successful connection is kept; a failed dial is retried on the next call.
func (c *Client) Connect(ctx context.Context) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	client, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

func (c *Client) dial(ctx context.Context) (*ethclient.Client, error) {
	if c.network == nil {
		return nil, fmt.Errorf("no network selected (use --network)")
	}

	client, err := ethclient.DialContext(ctx, c.network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	// Verify chain ID matches
	networkChainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if c.network.ChainID != 0 && networkChainID.Uint64() != c.network.ChainID {
		client.Close()
		return nil, fmt.Errorf("chain ID mismatch: expected %d, got %d", c.network.ChainID, networkChainID.Uint64())
	}

	return client, nil
}

// EstimateGas runs eth_estimateGas against the connected node
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	client, err := c.Connect(ctx)
	if err != nil {
		return 0, err
	}
	return client.EstimateGas(ctx, msg)
}

// Close releases the RPC connection if one was opened
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
}
