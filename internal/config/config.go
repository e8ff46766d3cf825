// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Durations are configured in milliseconds and exposed as time.Duration.
// - New(ctx) returns the defaults; Load(ctx) layers file and env on top.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// DataDir holds the metrics store. Empty keeps it in memory.
	DataDir string `koanf:"data_dir"`

	// WorkerCount sets the number of library sync workers.
	WorkerCount int `koanf:"worker_count" validate:"gte=1,lte=64"`

	// QueueSize bounds the in-memory sync job queue.
	QueueSize int `koanf:"queue_size" validate:"gte=1"`

	// BatchSize is the default number of games aggregated concurrently.
	BatchSize int `koanf:"batch_size" validate:"gte=1,lte=50"`

	// BatchDelayMS is the default pause between two chunks.
	BatchDelayMS int `koanf:"batch_delay_ms" validate:"gte=0"`

	// FetchTimeoutMS bounds one provider call.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms" validate:"gte=1"`

	// SignalTimeoutMS bounds everything spent on one signal of one game.
	SignalTimeoutMS int `koanf:"signal_timeout_ms" validate:"gtefield=FetchTimeoutMS"`

	// ResolverDelayMS is the pause between name candidates.
	ResolverDelayMS int `koanf:"resolver_delay_ms" validate:"gte=0"`

	// IncludeDegraded keeps failed games in batch results with fallback values.
	IncludeDegraded bool `koanf:"include_degraded"`

	// Steam web API key used for the owned games listing.
	SteamAPIKey string `koanf:"steam_api_key"`

	// Source base URLs.
	SteamAPIURL   string `koanf:"steam_api_url" validate:"required,url"`
	SteamStoreURL string `koanf:"steam_store_url" validate:"required,url"`
	MetacriticURL string `koanf:"metacritic_url" validate:"required,url"`
	HLTBURL       string `koanf:"hltb_url" validate:"required,url"`

	// Per-source request pacing.
	SourceRatePerSec float64 `koanf:"source_rate_per_sec" validate:"gt=0"`
	SourceBurst      int     `koanf:"source_burst" validate:"gte=1"`

	// Per-source circuit breaker.
	BreakerMinRequests   int     `koanf:"breaker_min_requests" validate:"gte=1"`
	BreakerFailureRatio  float64 `koanf:"breaker_failure_ratio" validate:"gt=0,lte=1"`
	BreakerOpenTimeoutMS int     `koanf:"breaker_open_timeout_ms" validate:"gte=1"`

	// RefreshIntervalMS re-syncs RefreshUsers periodically. Zero disables it.
	RefreshIntervalMS int `koanf:"refresh_interval_ms" validate:"gte=0"`

	// RefreshUsers maps a user id to the Steam account to re-sync.
	RefreshUsers map[string]string `koanf:"refresh_users"`
}

// New returns the default configuration.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		WorkerCount:          2,
		QueueSize:            64,
		BatchSize:            5,
		BatchDelayMS:         2000,
		FetchTimeoutMS:       8000,
		SignalTimeoutMS:      20000,
		ResolverDelayMS:      500,
		SteamAPIURL:          "https://api.steampowered.com",
		SteamStoreURL:        "https://store.steampowered.com",
		MetacriticURL:        "https://www.metacritic.com",
		HLTBURL:              "https://howlongtobeat.com",
		SourceRatePerSec:     2,
		SourceBurst:          2,
		BreakerMinRequests:   5,
		BreakerFailureRatio:  0.6,
		BreakerOpenTimeoutMS: 30000,
		RefreshUsers:         map[string]string{},
	}
}

// BatchDelay is the default pause between chunks.
func (c *Config) BatchDelay() time.Duration { return ms(c.BatchDelayMS) }

// FetchTimeout bounds one provider call.
func (c *Config) FetchTimeout() time.Duration { return ms(c.FetchTimeoutMS) }

// SignalTimeout bounds one signal.
func (c *Config) SignalTimeout() time.Duration { return ms(c.SignalTimeoutMS) }

// ResolverDelay is the pause between name candidates.
func (c *Config) ResolverDelay() time.Duration { return ms(c.ResolverDelayMS) }

// BreakerOpenTimeout is how long an open breaker rejects calls.
func (c *Config) BreakerOpenTimeout() time.Duration { return ms(c.BreakerOpenTimeoutMS) }

// RefreshInterval is the period of the background re-sync.
func (c *Config) RefreshInterval() time.Duration { return ms(c.RefreshIntervalMS) }

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
