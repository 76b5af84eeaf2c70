package config

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/txflow/internal/domain"
)

func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte(content), 0644))
	return dir
}

func TestProvider(t *testing.T) {
	t.Run("loads project file with env expansion", func(t *testing.T) {
		dir := writeProject(t, `
[networks.sepolia]
chain_id = 11155111
rpc_url = "${TXFLOW_TEST_SEPOLIA_RPC}"
safe_service_url = "https://safe-transaction-sepolia.safe.global"

[senders.deployer]
type = "private_key"
private_key = "${TXFLOW_TEST_KEY}"

[simulation]
url = "https://api.tenderly.co/api/v1/account/acme/project/ops/simulate-bundle"
access_key = "${TXFLOW_TEST_TENDERLY}"

[execution]
settle_delay = "250ms"
`)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TXFLOW_TEST_TENDERLY=tk\n"), 0644))
		t.Setenv("TXFLOW_TEST_SEPOLIA_RPC", "https://sepolia.example")
		t.Setenv("TXFLOW_TEST_KEY", anvilKey0)
		t.Cleanup(func() { os.Unsetenv("TXFLOW_TEST_TENDERLY") })

		v := viper.New()
		v.Set("project_root", dir)
		v.Set("network", "sepolia")
		v.Set("sender", "deployer")

		cfg, err := Provider(v)
		require.NoError(t, err)

		require.NotNil(t, cfg.Network)
		assert.Equal(t, "sepolia", cfg.Network.Name)
		assert.Equal(t, uint64(11155111), cfg.Network.ChainID)
		assert.Equal(t, "https://sepolia.example", cfg.Network.RPCURL)
		assert.Equal(t, "https://sepolia.etherscan.io", cfg.Network.ExplorerURL)
		assert.Equal(t, "deployer", cfg.SenderName)
		assert.Equal(t, anvilKey0, cfg.Project.Senders["deployer"].PrivateKey)
		assert.Equal(t, domain.SimulationBackendHTTP, cfg.Project.Simulation.Backend)
		assert.Equal(t, "tk", cfg.Project.Simulation.AccessKey)
		assert.Equal(t, 250*time.Millisecond, cfg.SettleDelay)
		assert.False(t, cfg.TestMode)
	})

	t.Run("defaults", func(t *testing.T) {
		dir := writeProject(t, `
[networks.anvil]
chain_id = 31337
rpc_url = "http://localhost:8545"
`)
		v := viper.New()
		v.Set("project_root", dir)

		cfg, err := Provider(v)
		require.NoError(t, err)
		assert.Nil(t, cfg.Network)
		assert.Equal(t, DefaultSettleDelay, cfg.SettleDelay)
		assert.Equal(t, domain.SimulationBackendRPC, cfg.Project.Simulation.Backend)
	})

	t.Run("flags override the project file", func(t *testing.T) {
		dir := writeProject(t, `
[execution]
settle_delay = "2s"
test_mode = false
`)
		v := viper.New()
		v.Set("project_root", dir)
		v.Set("settle_delay", "0s")
		v.Set("test_mode", true)

		cfg, err := Provider(v)
		require.NoError(t, err)
		assert.Equal(t, time.Duration(0), cfg.SettleDelay)
		assert.True(t, cfg.TestMode)
	})

	t.Run("unknown network suggests close names", func(t *testing.T) {
		dir := writeProject(t, `
[networks.sepolia]
chain_id = 11155111
rpc_url = "https://sepolia.example"
`)
		v := viper.New()
		v.Set("project_root", dir)
		v.Set("network", "sepola")

		_, err := Provider(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "did you mean: sepolia")
	})

	t.Run("invalid settle delay", func(t *testing.T) {
		dir := writeProject(t, `
[execution]
settle_delay = "soon"
`)
		v := viper.New()
		v.Set("project_root", dir)
		_, err := Provider(v)
		assert.ErrorContains(t, err, "settle_delay")
	})

	t.Run("http simulation requires url", func(t *testing.T) {
		dir := writeProject(t, `
[simulation]
backend = "http"
`)
		v := viper.New()
		v.Set("project_root", dir)
		_, err := Provider(v)
		assert.ErrorContains(t, err, "requires a url")
	})

	t.Run("missing project file", func(t *testing.T) {
		v := viper.New()
		v.Set("project_root", t.TempDir())
		_, err := Provider(v)
		assert.Error(t, err)
	})
}

func TestNetworkResolver_FetchesChainID(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	chainIDRetryDelay = time.Millisecond
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":"0x2105"}`)
	}))
	defer server.Close()

	r := NewNetworkResolver(&RuntimeConfig{Project: &ProjectConfig{Networks: map[string]domain.NetworkConfig{
		"base":  {RPCURL: server.URL},
		"other": {RPCURL: server.URL},
		"empty": {},
	}}})

	assert.Equal(t, []string{"base", "empty", "other"}, r.GetNetworks(ctx))

	network, err := r.ResolveNetwork(ctx, "base")
	require.NoError(t, err)
	assert.Equal(t, uint64(8453), network.ChainID)
	assert.Equal(t, "https://basescan.org", network.ExplorerURL)
	assert.Equal(t, "https://safe-transaction-base.safe.global", network.SafeServiceURL)
	assert.Equal(t, 2, calls, "first attempt is retried")

	network, err = r.ResolveNetwork(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, uint64(8453), network.ChainID)
	assert.Equal(t, 2, calls, "chain id is cached per rpc url")

	_, err = r.ResolveNetwork(ctx, "empty")
	assert.ErrorContains(t, err, "EMPTY_RPC_URL")
}

func TestFindProjectRoot(t *testing.T) {
	dir := writeProject(t, "")
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	chdir(t, nested)

	root, err := FindProjectRoot()
	require.NoError(t, err)
	resolved, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, resolved, got)
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
