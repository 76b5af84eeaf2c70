package config

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-resty/resty/v2"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/txflow/internal/domain"
	"github.com/trebuchet-org/txflow/pkg/explorer"
	"github.com/trebuchet-org/txflow/pkg/safe"
)

var chainIDRetryDelay = 500 * time.Millisecond

// NetworkResolver resolves network names to configurations with caching
type NetworkResolver struct {
	networks map[string]domain.NetworkConfig
	cache    map[string]uint64 // rpcURL -> chainID
	client   *resty.Client
	mu       sync.RWMutex
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(cfg *RuntimeConfig) *NetworkResolver {
	networks := map[string]domain.NetworkConfig{}
	if cfg.Project != nil && cfg.Project.Networks != nil {
		networks = cfg.Project.Networks
	}
	return &NetworkResolver{
		networks: networks,
		cache:    make(map[string]uint64),
		client:   resty.New().SetTimeout(10 * time.Second),
	}
}

// GetNetworks returns the configured network names in sorted order
func (r *NetworkResolver) GetNetworks(ctx context.Context) []string {
	names := lo.Keys(r.networks)
	sort.Strings(names)
	return names
}

// ResolveNetwork resolves a network name to its configuration
func (r *NetworkResolver) ResolveNetwork(ctx context.Context, networkName string) (*domain.NetworkConfig, error) {
	network, exists := r.networks[networkName]
	if !exists {
		return nil, fmt.Errorf("network '%s' not found in %s [networks]%s",
			networkName, ProjectFileName, suggest(networkName, r.GetNetworks(ctx)))
	}
	network.Name = networkName

	if network.RPCURL == "" {
		return nil, fmt.Errorf("network '%s' has no rpc_url (set it in %s or export %s)",
			networkName, ProjectFileName, GenerateEnvVarName(networkName))
	}

	if network.ChainID == 0 {
		chainID, err := r.fetchChainIDWithRetry(ctx, network.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chain ID for network %s: %w", networkName, err)
		}
		network.ChainID = chainID
	}

	if network.ExplorerURL == "" {
		network.ExplorerURL = explorer.BaseURLForChain(network.ChainID)
	}
	if network.SafeServiceURL == "" {
		network.SafeServiceURL = safe.TransactionServiceURLs[network.ChainID]
	}

	return &network, nil
}

func (r *NetworkResolver) fetchChainIDWithRetry(ctx context.Context, rpcURL string) (uint64, error) {
	r.mu.RLock()
	if chainID, exists := r.cache[rpcURL]; exists {
		r.mu.RUnlock()
		return chainID, nil
	}
	r.mu.RUnlock()

	chainID, err := retry.DoWithData(
		func() (uint64, error) { return r.fetchChainID(ctx, rpcURL) },
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(chainIDRetryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.cache[rpcURL] = chainID
	r.mu.Unlock()
	return chainID, nil
}

// fetchChainID fetches the chain ID from an RPC endpoint
func (r *NetworkResolver) fetchChainID(ctx context.Context, rpcURL string) (uint64, error) {
	payload := map[string]any{
		"jsonrpc": "2.0",
		"method":  "eth_chainId",
		"params":  []any{},
		"id":      1,
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(rpcURL)
	if err != nil {
		return 0, fmt.Errorf("failed to make RPC request: %w", err)
	}

	// Parse JSON-RPC response
	var rpcResponse struct {
		Result string `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp.Body(), &rpcResponse); err != nil {
		return 0, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if rpcResponse.Error != nil {
		return 0, fmt.Errorf("RPC error: %s", rpcResponse.Error.Message)
	}

	if rpcResponse.Result == "" {
		return 0, fmt.Errorf("empty chain ID response")
	}

	// Parse hex chain ID
	chainIDStr := strings.TrimPrefix(rpcResponse.Result, "0x")
	chainID, err := strconv.ParseUint(chainIDStr, 16, 64)
	if err != nil {
		return 0, retry.Unrecoverable(fmt.Errorf("failed to parse chain ID: %w", err))
	}

	return chainID, nil
}

// suggest returns a "did you mean" hint for the closest configured names
func suggest(name string, candidates []string) string {
	matches := fuzzy.Find(name, candidates)
	if len(matches) == 0 {
		return ""
	}
	names := lo.Map(lo.Slice(matches, 0, 3), func(m fuzzy.Match, _ int) string { return m.Str })
	return fmt.Sprintf(" (did you mean: %s?)", strings.Join(names, ", "))
}
