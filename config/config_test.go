package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.VaultPool = "0x4444444444444444444444444444444444444444"
	cfg.Assets = []AssetConfig{{
		Symbol:    "DAI",
		Address:   "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		PriceFeed: "0x773616E4d11A78F511299002da57A0a94577F1f4",
	}}
	return cfg
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)

	assert.Contains(t, err.Error(), "chain_id")
	assert.Contains(t, err.Error(), "rpc_endpoint")
	assert.Contains(t, err.Error(), "vault_pool")
	assert.Contains(t, err.Error(), "at least one asset")
	assert.Contains(t, err.Error(), "event_log_size")
}

func TestValidateRejectsBadAssetAddress(t *testing.T) {
	cfg := validConfig()
	cfg.Assets[0].Address = "not-an-address"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asset 0 (DAI)")
}

func TestLoadConfig(t *testing.T) {
	raw := `
chain_id: 1
rpc_endpoint: http://localhost:8545
vault_pool: "0x4444444444444444444444444444444444444444"
assets:
  - symbol: DAI
    address: "0x6B175474E89094C44Da98b954EedeAC495271d0F"
    price_feed: "0x773616E4d11A78F511299002da57A0a94577F1f4"
oracle_rate_limit:
  requests_per_second: 5
  burst_size: 10
metrics_listen_addr: ":9191"
event_log_size: 64
`
	path := filepath.Join(t.TempDir(), "lendvault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), cfg.ChainID)
	assert.Equal(t, float64(5), cfg.OracleRateLimit.RequestsPerSecond)
	assert.Equal(t, time.Second, cfg.OracleRateLimit.WaitTimeout, "unset fields keep defaults")
	assert.Equal(t, ":9191", cfg.MetricsListenAddr)
	assert.Equal(t, 64, cfg.EventLogSize)
	assert.Len(t, cfg.Assets, 1)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGetEnvWithDefault(t *testing.T) {
	t.Setenv("LENDVAULT_TEST_KEY", "")
	assert.Equal(t, "fallback", GetEnvWithDefault("LENDVAULT_TEST_KEY", "fallback"))

	t.Setenv("LENDVAULT_TEST_KEY", "set")
	assert.Equal(t, "set", GetEnvWithDefault("LENDVAULT_TEST_KEY", "fallback"))
}
