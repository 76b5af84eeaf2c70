package blockchain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/txflow/internal/config"
	"github.com/trebuchet-org/txflow/internal/domain"
)

// newNode serves eth_chainId as chainID, failing the first `failures` requests with 503
func newNode(t *testing.T, chainID string, failures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if n <= failures {
			http.Error(w, "node unavailable", http.StatusServiceUnavailable)
			return
		}
		var req struct {
			ID json.RawMessage `json:"id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  chainID,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestClient_ConnectRecoversAfterFailedDial(t *testing.T) {
	srv, hits := newNode(t, "0x1", 1)
	client := NewClient(&config.RuntimeConfig{Network: &domain.NetworkConfig{Name: "mainnet", ChainID: 1, RPCURL: srv.URL}})
	defer client.Close()

	ctx := context.Background()
	_, err := client.Connect(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get chain ID")

	first, err := client.Connect(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, int32(2), hits.Load())

	second, err := client.Connect(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(2), hits.Load(), "a connected client is reused")
}

func TestClient_ConnectChainIDMismatch(t *testing.T) {
	srv, _ := newNode(t, "0xaa36a7", 0)
	client := NewClient(&config.RuntimeConfig{Network: &domain.NetworkConfig{Name: "mainnet", ChainID: 1, RPCURL: srv.URL}})

	_, err := client.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain ID mismatch: expected 1, got 11155111")
}

func TestClient_ConnectWithoutNetwork(t *testing.T) {
	client := NewClient(&config.RuntimeConfig{})

	_, err := client.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no network selected")
}
