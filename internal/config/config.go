// Package config loads and validates the StockRun deployment
// configuration from YAML, with environment overrides for secrets and
// the listen port.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration.
type Config struct {
	Finnhub FinnhubConfig `yaml:"finnhub"`
	Warmup  WarmupConfig  `yaml:"warmup"`
	Server  ServerConfig  `yaml:"server"`
}

// FinnhubConfig configures the outbound provider client.
type FinnhubConfig struct {
	APIKey             string `yaml:"api_key"`
	BaseURL            string `yaml:"base_url"`
	Exchange           string `yaml:"exchange"`
	MIC                string `yaml:"mic"`
	RequestTimeoutSecs int    `yaml:"request_timeout_secs"` // outbound HTTP timeout
}

// RequestTimeout returns the outbound HTTP timeout as a duration.
func (c FinnhubConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// WarmupConfig configures the enrichment pipeline.
type WarmupConfig struct {
	RateLimit          float64 `yaml:"rate_limit"`           // permits per second
	Burst              int     `yaml:"burst"`                // token bucket burst
	MaxParallelFetches int     `yaml:"max_parallel_fetches"` // concurrent profile fetches
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	AskTimeoutSecs int    `yaml:"ask_timeout_secs"` // per-call cell ask timeout
}

// AskTimeout returns the per-call ask timeout as a duration.
func (c ServerConfig) AskTimeout() time.Duration {
	return time.Duration(c.AskTimeoutSecs) * time.Second
}

// Default returns the deployment defaults.
func Default() Config {
	return Config{
		Finnhub: FinnhubConfig{
			BaseURL:            "https://finnhub.io",
			Exchange:           "US",
			MIC:                "XNYS",
			RequestTimeoutSecs: 30,
		},
		Warmup: WarmupConfig{
			RateLimit:          1.0,
			Burst:              1,
			MaxParallelFetches: 8,
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			AskTimeoutSecs: 5,
		},
	}
}

// Load reads configuration from the YAML file at path, layered over
// the defaults. An empty path skips the file and uses defaults plus
// environment overrides (FINNHUB_API_KEY, HTTP_PORT).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		cfg.Finnhub.APIKey = key
	}
	if portStr := os.Getenv("HTTP_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HTTP_PORT %q: %w", portStr, err)
		}
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate ensures the configuration is usable before wiring starts.
func (c *Config) Validate() error {
	if c.Finnhub.APIKey == "" {
		return fmt.Errorf("finnhub api_key is required (set FINNHUB_API_KEY or finnhub.api_key)")
	}
	if c.Finnhub.RequestTimeoutSecs <= 0 {
		return fmt.Errorf("finnhub request_timeout_secs must be positive, got %d", c.Finnhub.RequestTimeoutSecs)
	}
	if c.Warmup.RateLimit <= 0 {
		return fmt.Errorf("warmup rate_limit must be positive, got %f", c.Warmup.RateLimit)
	}
	if c.Warmup.Burst <= 0 {
		return fmt.Errorf("warmup burst must be positive, got %d", c.Warmup.Burst)
	}
	if c.Warmup.MaxParallelFetches <= 0 {
		return fmt.Errorf("warmup max_parallel_fetches must be positive, got %d", c.Warmup.MaxParallelFetches)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.AskTimeoutSecs <= 0 {
		return fmt.Errorf("server ask_timeout_secs must be positive, got %d", c.Server.AskTimeoutSecs)
	}
	return nil
}
