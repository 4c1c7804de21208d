// Package config loads and validates the engine configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level engine configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Data    DataConfig    `yaml:"data"`
	Rates   RatesConfig   `yaml:"rates"`
	Rules   RulesConfig   `yaml:"rules"`
	Pricing PricingConfig `yaml:"pricing"`
	Deals   DealsConfig   `yaml:"deals"`
	Routing RoutingConfig `yaml:"routing"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DataConfig points at the reference-data directory.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// RatesConfig configures the rate source and cache.
type RatesConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	StaleFor     time.Duration `yaml:"stale_for"`
	RefreshRPS   float64       `yaml:"refresh_rps"`
	RedisAddr    string        `yaml:"redis_addr"`
}

// RulesConfig points at the per-type rule files and fixes the zone for
// temporal operators.
type RulesConfig struct {
	ProviderRulesFile string `yaml:"provider_rules_file"`
	MarginRulesFile   string `yaml:"margin_rules_file"`
	Timezone          string `yaml:"timezone"`
}

// PricingConfig configures quote issuance.
type PricingConfig struct {
	QuoteValidity time.Duration `yaml:"quote_validity"`
}

// DealsConfig configures the durable deal store.
type DealsConfig struct {
	File        string `yaml:"file"`
	PostgresDSN string `yaml:"postgres_dsn"`
	MaxValidity time.Duration `yaml:"max_validity"`
}

// RoutingConfig configures advisory thresholds.
type RoutingConfig struct {
	TriangulationMinSavingsBps float64 `yaml:"triangulation_min_savings_bps"`
	ExposureWarnRatio          float64 `yaml:"exposure_warn_ratio"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8090,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Data: DataConfig{Dir: "data"},
		Rates: RatesConfig{
			FetchTimeout: 2 * time.Second,
			CacheTTL:     5 * time.Second,
			StaleFor:     30 * time.Second,
			RefreshRPS:   10,
		},
		Rules: RulesConfig{
			ProviderRulesFile: "data/provider_rules.json",
			MarginRulesFile:   "data/margin_rules.json",
			Timezone:          "UTC",
		},
		Pricing: PricingConfig{QuoteValidity: 60 * time.Second},
		Deals: DealsConfig{
			File:        "data/deals.json",
			MaxValidity: 7 * 24 * time.Hour,
		},
		Routing: RoutingConfig{
			TriangulationMinSavingsBps: 10,
			ExposureWarnRatio:          0.7,
		},
	}
}

// Load reads path into a Config layered over Default and validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks internal consistency.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Rates.FetchTimeout <= 0 {
		return fmt.Errorf("rates.fetch_timeout must be positive")
	}
	if c.Rates.CacheTTL <= 0 {
		return fmt.Errorf("rates.cache_ttl must be positive")
	}
	if c.Rates.StaleFor < c.Rates.CacheTTL {
		return fmt.Errorf("rates.stale_for must be >= rates.cache_ttl")
	}
	if c.Pricing.QuoteValidity <= 0 {
		return fmt.Errorf("pricing.quote_validity must be positive")
	}
	if c.Deals.MaxValidity <= 0 {
		return fmt.Errorf("deals.max_validity must be positive")
	}
	if c.Routing.ExposureWarnRatio <= 0 || c.Routing.ExposureWarnRatio >= 1 {
		return fmt.Errorf("routing.exposure_warn_ratio must be in (0,1)")
	}
	if _, err := time.LoadLocation(c.Rules.Timezone); err != nil {
		return fmt.Errorf("rules.timezone: %w", err)
	}
	return nil
}

// Location resolves the configured rules timezone. Validate has already
// checked it parses.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Rules.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
