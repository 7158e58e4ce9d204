package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultDeadAddress is the canonical burn sink used when none is configured.
const DefaultDeadAddress = "0x000000000000000000000000000000000000dEaD"

// Config holds all application settings. Loaded from YAML, then overridden
// by environment variables (secrets belong in the environment, not the
// file), then validated.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Moralis struct {
		APIKey          string  `yaml:"api_key"`
		SecretFile      string  `yaml:"secret_file"`
		BaseURL         string  `yaml:"base_url"`
		Chain           string  `yaml:"chain"`
		TimeoutSec      int     `yaml:"timeout_sec"`
		PageLimit       int     `yaml:"page_limit"`
		MaxPages        int     `yaml:"max_pages"`
		RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
		RateLimitBurst  int     `yaml:"rate_limit_burst"`
	} `yaml:"moralis"`

	Token struct {
		Address          string `yaml:"address"`
		DeadAddress      string `yaml:"dead_address"`
		DecimalsFallback int    `yaml:"decimals_fallback"`
		MaxSupplyTokens  string `yaml:"max_supply_tokens"`
	} `yaml:"token"`

	Cache struct {
		DBPath               string `yaml:"db_path"`
		TTLSeconds           int    `yaml:"ttl_seconds"`
		SeriesTTLSeconds     int    `yaml:"series_ttl_seconds"`
		AllowHistoricalFetch bool   `yaml:"allow_historical_fetch"`
	} `yaml:"cache"`

	Server struct {
		Addr           string   `yaml:"addr"`
		CORSOrigins    []string `yaml:"cors_origins"`
		MaxWindowDays  int      `yaml:"max_window_days"`
		MaxHorizonDays int      `yaml:"max_horizon_days"`
	} `yaml:"server"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the config file, applies environment
// overrides and defaults, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// A separate secrets file feeds the API key when the main file omits it.
	// Environment variables still win over both.
	if cfg.Moralis.APIKey == "" && cfg.Moralis.SecretFile != "" {
		secret, err := LoadSecretConfig(cfg.Moralis.SecretFile)
		if err != nil {
			return nil, err
		}
		cfg.Moralis.APIKey = secret.Moralis.APIKey
	}

	overrideWithEnv(&cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = AppName
	}
	if c.Moralis.BaseURL == "" {
		c.Moralis.BaseURL = "https://deep-index.moralis.io/api/v2.2"
	}
	if c.Moralis.Chain == "" {
		c.Moralis.Chain = "bsc"
	}
	if c.Moralis.TimeoutSec <= 0 {
		c.Moralis.TimeoutSec = 30
	}
	if c.Moralis.PageLimit <= 0 {
		c.Moralis.PageLimit = 100
	}
	if c.Moralis.MaxPages <= 0 {
		c.Moralis.MaxPages = 200
	}
	if c.Moralis.RateLimitPerSec <= 0 {
		c.Moralis.RateLimitPerSec = 5
	}
	if c.Moralis.RateLimitBurst <= 0 {
		c.Moralis.RateLimitBurst = 3
	}
	if c.Token.DeadAddress == "" {
		c.Token.DeadAddress = DefaultDeadAddress
	}
	if c.Token.DecimalsFallback <= 0 {
		c.Token.DecimalsFallback = 18
	}
	if c.Cache.DBPath == "" {
		c.Cache.DBPath = "cache.sqlite3"
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = 300
	}
	if c.Cache.SeriesTTLSeconds <= 0 {
		c.Cache.SeriesTTLSeconds = c.Cache.TTLSeconds
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if c.Server.MaxWindowDays <= 0 {
		c.Server.MaxWindowDays = 3650
	}
	if c.Server.MaxHorizonDays <= 0 {
		c.Server.MaxHorizonDays = 3650
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks configuration validity. Max supply is checked here, at
// startup, so a misconfigured deployment fails before serving traffic.
func (c *Config) Validate() error {
	if c.Moralis.APIKey == "" {
		return fmt.Errorf("moralis api_key is required (set BURNWATCH_MORALIS_API_KEY)")
	}
	if !strings.HasPrefix(c.Moralis.BaseURL, "http://") && !strings.HasPrefix(c.Moralis.BaseURL, "https://") {
		return fmt.Errorf("invalid moralis base_url: %s", c.Moralis.BaseURL)
	}
	if c.Token.Address == "" {
		return fmt.Errorf("token address is required")
	}
	maxSupply, err := decimal.NewFromString(c.Token.MaxSupplyTokens)
	if err != nil {
		return fmt.Errorf("token max_supply_tokens must be a decimal number, got %q", c.Token.MaxSupplyTokens)
	}
	if maxSupply.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("token max_supply_tokens must be positive, got %q", c.Token.MaxSupplyTokens)
	}
	return nil
}

// MaxSupply returns the configured max supply as an exact decimal. Only
// meaningful after Validate has passed.
func (c *Config) MaxSupply() decimal.Decimal {
	d, err := decimal.NewFromString(c.Token.MaxSupplyTokens)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// overrideWithEnv applies environment variables over file values.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("BURNWATCH_MORALIS_API_KEY"); v != "" {
		cfg.Moralis.APIKey = v
	}
	if v := os.Getenv("BURNWATCH_TOKEN_ADDRESS"); v != "" {
		cfg.Token.Address = v
	}
	if v := os.Getenv("BURNWATCH_DEAD_ADDRESS"); v != "" {
		cfg.Token.DeadAddress = v
	}
	if v := os.Getenv("BURNWATCH_MAX_SUPPLY_TOKENS"); v != "" {
		cfg.Token.MaxSupplyTokens = v
	}
	if v := os.Getenv("BURNWATCH_DB_PATH"); v != "" {
		cfg.Cache.DBPath = v
	}
	if v := os.Getenv("BURNWATCH_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BURNWATCH_CORS_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, o := range parts {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.CORSOrigins = origins
	}
	if v := os.Getenv("BURNWATCH_ALLOW_HISTORICAL_FETCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.AllowHistoricalFetch = b
		}
	}
}
