// Package config loads the YAML configuration file and applies environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for marketsync.
type Config struct {
	Storage Storage `yaml:"storage"`
	Alpaca  Alpaca  `yaml:"alpaca"`
	Logging Logging `yaml:"logging"`
	Collect Collect `yaml:"collect"`
}

// Storage holds paths for data persistence.
type Storage struct {
	SQLitePath  string `yaml:"sqlite_path"`
	DataDir     string `yaml:"data_dir"`     // parquet archive root
	SymbolsPath string `yaml:"symbols_path"` // symbol universe file
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"` // trading API, used for the calendar
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Collect holds parameters for a collection run. RateLimitPerMin is the
// global API budget; each worker gets RateLimitPerMin / NumWorkers, since
// workers limit independently.
type Collect struct {
	StartDate       string `yaml:"start_date"` // YYYY-MM-DD
	EndDate         string `yaml:"end_date"`   // empty = latest finished trading day
	NumWorkers      int    `yaml:"num_workers"`
	RetryAttempts   int    `yaml:"retry_attempts"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
	Schedule        string `yaml:"schedule"` // cron spec for the server daemon
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, fills in
// defaults, and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Collect.NumWorkers == 0 {
		cfg.Collect.NumWorkers = 5
	}
	if cfg.Collect.RetryAttempts == 0 {
		cfg.Collect.RetryAttempts = 3
	}
	if cfg.Collect.RateLimitPerMin == 0 {
		cfg.Collect.RateLimitPerMin = 120
	}
	if cfg.Collect.Schedule == "" {
		// Weekdays at 21:00 ET-equivalent server local time.
		cfg.Collect.Schedule = "0 21 * * 1-5"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("SYMBOLS_PATH"); v != "" {
		cfg.Storage.SymbolsPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("COLLECT_NUM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Collect.NumWorkers = n
		}
	}
	if v := os.Getenv("COLLECT_RATE_LIMIT_PER_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Collect.RateLimitPerMin = n
		}
	}

	// Standard Alpaca env vars (canonical names used by the SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("APCA_API_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("APCA_API_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}
}
