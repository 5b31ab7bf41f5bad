package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full keeper configuration.
type Config struct {
	Chain   ChainConfig   `yaml:"chain"`
	Keeper  KeeperConfig  `yaml:"keeper"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ChainConfig covers the RPC endpoint and transaction parameters.
type ChainConfig struct {
	RPCURL                string `yaml:"rpc_url"`
	DriverAddress         string `yaml:"driver_address"`
	FromBlock             uint64 `yaml:"from_block"`
	GasPriceWei           int64  `yaml:"gas_price_wei"`           // fixed gas price for trigger txs
	GasLimit              uint64 `yaml:"gas_limit"`               // fixed gas limit for trigger txs
	ConfirmTimeoutSeconds int    `yaml:"confirm_timeout_seconds"` // bound on any confirmation wait
}

// KeeperConfig controls both keeper pipelines.
type KeeperConfig struct {
	LiquidationIntervalSeconds int    `yaml:"liquidation_interval_seconds"`
	TriggerIntervalSeconds     int    `yaml:"trigger_interval_seconds"`
	MaxTriggerAttempts         int    `yaml:"max_trigger_attempts"`
	AlwaysTrigger              bool   `yaml:"always_trigger"` // bypass price/deadline checks, trust the contract
	HealthWorkers              int    `yaml:"health_workers"`
	Piles                      []Pile `yaml:"piles"` // static pile list; empty = enumerate from the driver
}

// Pile is one statically configured market.
type Pile struct {
	Address string `yaml:"address"`
	Name    string `yaml:"name"`
	Symbol  string `yaml:"symbol"`
}

// StorageConfig controls where attempt counts and pass history persist.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls the logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file, then applies .env / environment overrides and
// defaults. PRIVATE_KEYS is deliberately not part of this struct; main reads
// it straight from the environment.
func Load(path string) (*Config, error) {
	// Load .env if present (no error if the file is missing).
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if cfg.Chain.RPCURL == "" {
		return nil, fmt.Errorf("config.Load: chain.rpc_url (or RPC_URL) is required")
	}
	if cfg.Chain.DriverAddress == "" && len(cfg.Keeper.Piles) == 0 {
		return nil, fmt.Errorf("config.Load: either chain.driver_address or keeper.piles is required")
	}

	return &cfg, nil
}

// LiquidationInterval returns the liquidation schedule as a time.Duration.
func (c *Config) LiquidationInterval() time.Duration {
	return time.Duration(c.Keeper.LiquidationIntervalSeconds) * time.Second
}

// TriggerInterval returns the limit-order schedule as a time.Duration.
func (c *Config) TriggerInterval() time.Duration {
	return time.Duration(c.Keeper.TriggerIntervalSeconds) * time.Second
}

// ConfirmTimeout returns the confirmation wait bound as a time.Duration.
func (c *Config) ConfirmTimeout() time.Duration {
	return time.Duration(c.Chain.ConfirmTimeoutSeconds) * time.Second
}

// applyEnvOverrides lets the environment win over the YAML for the keys that
// usually differ per deployment.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("DRIVER_ADDRESS"); v != "" {
		cfg.Chain.DriverAddress = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults ensures required values have sensible defaults.
func setDefaults(cfg *Config) {
	if cfg.Keeper.LiquidationIntervalSeconds <= 0 {
		cfg.Keeper.LiquidationIntervalSeconds = 300
	}
	if cfg.Keeper.TriggerIntervalSeconds <= 0 {
		cfg.Keeper.TriggerIntervalSeconds = 300
	}
	if cfg.Keeper.MaxTriggerAttempts <= 0 {
		cfg.Keeper.MaxTriggerAttempts = 1
	}
	if cfg.Chain.GasPriceWei <= 0 {
		cfg.Chain.GasPriceWei = 10_000_000_000 // 10 gwei
	}
	if cfg.Chain.GasLimit == 0 {
		cfg.Chain.GasLimit = 9_900_000
	}
	if cfg.Chain.ConfirmTimeoutSeconds <= 0 {
		cfg.Chain.ConfirmTimeoutSeconds = 120
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "pilekeeper.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
