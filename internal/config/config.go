// Package config loads the ledger node's configuration: a YAML file
// overridden by environment variables, validated before use.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the ledger node's full runtime configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Circuits  CircuitsConfig  `yaml:"circuits"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds the TCP listener and the metrics HTTP endpoint.
type ServerConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`
	MetricsAddr    string        `yaml:"metrics_addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
	MaxRequestSize int           `yaml:"max_request_size"`
}

// LedgerConfig holds the Merkle Sum Tree sizing and block cadence.
type LedgerConfig struct {
	MaxLevels     int           `yaml:"max_levels"`
	BlockInterval time.Duration `yaml:"block_interval"`
}

// CircuitsConfig points at the compiled circuit artifacts' root directory
// and the external prover binary that derives parameters and folds proofs
// over them.
type CircuitsConfig struct {
	Dir       string `yaml:"dir"`
	EngineBin string `yaml:"engine_bin"`
}

// LoggingConfig controls zerolog's level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RateLimitConfig bounds admission to the TCP server, per connection.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Default returns the configuration the node runs with when no config file
// is given (port 8888, 10-second block tick).
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:     ":8888",
			MetricsAddr:    ":9090",
			ReadTimeout:    30 * time.Second,
			ShutdownGrace:  5 * time.Second,
			MaxRequestSize: 512,
		},
		Ledger: LedgerConfig{
			MaxLevels:     3,
			BlockInterval: 10 * time.Second,
		},
		Circuits: CircuitsConfig{
			Dir:       "circuits/compile",
			EngineBin: "ledger-prover",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
	}
}

// Load reads configPath (if non-empty and present) over the defaults, then
// applies environment variable overrides, then validates the result.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", configPath, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LEDGER_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("LEDGER_METRICS_ADDR"); v != "" {
		cfg.Server.MetricsAddr = v
	}
	if v := os.Getenv("LEDGER_CIRCUITS_DIR"); v != "" {
		cfg.Circuits.Dir = v
	}
	if v := os.Getenv("LEDGER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LEDGER_MAX_LEVELS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ledger.MaxLevels = n
		}
	}
}

// Validate rejects configurations the node cannot safely start with.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if c.Ledger.MaxLevels < 1 {
		return fmt.Errorf("ledger.max_levels must be >= 1, got %d", c.Ledger.MaxLevels)
	}
	if c.Circuits.Dir == "" {
		return fmt.Errorf("circuits.dir is required")
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit.requests_per_second must be > 0")
	}
	return nil
}
