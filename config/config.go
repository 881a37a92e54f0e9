package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	yaml "gopkg.in/yaml.v2"
)

// Config describes a lendvault deployment: the chain connection, the
// listed collateral assets with their price feeds, and the service
// surfaces.
type Config struct {
	// Chain and network settings
	ChainID     uint64 `yaml:"chain_id"`
	RPCEndpoint string `yaml:"rpc_endpoint"`

	// VaultPool is the address custodying pooled asset balances.
	VaultPool string `yaml:"vault_pool"`

	// Assets lists the collateral/debt assets accepted at boot.
	Assets []AssetConfig `yaml:"assets"`

	// OracleRateLimit bounds price feed reads against the RPC endpoint.
	OracleRateLimit RateLimitConfig `yaml:"oracle_rate_limit"`

	// Service surfaces
	MetricsEnabled    bool   `yaml:"metrics_enabled"`
	MetricsListenAddr string `yaml:"metrics_listen_addr"`
	EventLogSize      int    `yaml:"event_log_size"`

	Debug bool `yaml:"debug"`
}

// AssetConfig binds an ERC-20 token to its Chainlink feed quoting the
// token in the reference currency.
type AssetConfig struct {
	Symbol    string `yaml:"symbol"`
	Address   string `yaml:"address"`
	PriceFeed string `yaml:"price_feed"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	BurstSize         int           `yaml:"burst_size"`
	WaitTimeout       time.Duration `yaml:"wait_timeout"`
}

func (c *Config) Validate() error {
	var errors []string

	if c.ChainID == 0 {
		errors = append(errors, "chain_id must be specified")
	}
	if c.RPCEndpoint == "" {
		errors = append(errors, "rpc_endpoint must be specified")
	}
	if !common.IsHexAddress(c.VaultPool) {
		errors = append(errors, "vault_pool must be a hex address")
	}
	if len(c.Assets) == 0 {
		errors = append(errors, "at least one asset must be listed")
	}
	for i, asset := range c.Assets {
		if err := asset.Validate(); err != nil {
			errors = append(errors, fmt.Sprintf("asset %d (%s): %v", i, asset.Symbol, err))
		}
	}
	if err := c.OracleRateLimit.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("oracle rate limit error: %v", err))
	}
	if c.EventLogSize <= 0 {
		errors = append(errors, "event_log_size must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (a *AssetConfig) Validate() error {
	if a.Symbol == "" {
		return fmt.Errorf("symbol must be specified")
	}
	if !common.IsHexAddress(a.Address) {
		return fmt.Errorf("address must be a hex address")
	}
	if !common.IsHexAddress(a.PriceFeed) {
		return fmt.Errorf("price_feed must be a hex address")
	}
	return nil
}

func (r *RateLimitConfig) Validate() error {
	if r.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}
	if r.BurstSize <= 0 {
		return fmt.Errorf("burst size must be positive")
	}
	if r.WaitTimeout <= 0 {
		return fmt.Errorf("wait timeout must be positive")
	}
	return nil
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(cfgFile string) (*Config, error) {
	data, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func DefaultConfig() *Config {
	return &Config{
		ChainID:     1,
		RPCEndpoint: "http://localhost:8545",
		OracleRateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			BurstSize:         20,
			WaitTimeout:       time.Second,
		},
		MetricsEnabled:    true,
		MetricsListenAddr: ":9090",
		EventLogSize:      256,
	}
}
