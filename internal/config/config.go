// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New(ctx) builds a Config holding every default.
// - Load(ctx) layers a YAML file and PADDOCK_ env vars on top of New.
// - Validation failures wrap ErrInvalidConfig; source failures wrap ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// DefaultSystemPrompt instructs the completion model to act as an F1 expert.
const DefaultSystemPrompt = "You are an expert on Formula 1 (F1) history. " +
	"Answer the user's questions about F1 seasons, race winners, driver championships, " +
	"constructor scores, and other related trivia. Be concise and accurate. " +
	"When an answer contains tabular data, return it as an HTML <table> element " +
	"and never wrap it in markdown code fences."

const maxTemperature = 2.0

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// PredictionAPIURL is the base URL of the prediction API.
	PredictionAPIURL string `koanf:"prediction_api_url"`

	// ChatAPIURL is the full URL of the OpenAI-compatible completion endpoint.
	ChatAPIURL string `koanf:"chat_api_url"`

	// ChatModel is the model identifier sent with each completion request.
	ChatModel string `koanf:"chat_model"`

	// ChatTemperature is the sampling temperature sent upstream.
	ChatTemperature float64 `koanf:"chat_temperature"`

	// ChatSystemPrompt is prepended to every relayed message.
	ChatSystemPrompt string `koanf:"chat_system_prompt"`

	// RefreshIntervalSec is the period of the background dashboard refresh.
	RefreshIntervalSec int `koanf:"refresh_interval_sec"`

	// AutoRefresh sets whether the refresh timer starts enabled.
	AutoRefresh bool `koanf:"auto_refresh"`

	// FetchQueueSize bounds the in-memory fetch job queue.
	FetchQueueSize int `koanf:"fetch_queue_size"`

	// FetchWorkers sets the number of fetch workers.
	FetchWorkers int `koanf:"fetch_workers"`

	// MaxSessions bounds the dashboards held at once, one per browser session.
	MaxSessions int `koanf:"max_sessions"`

	// SessionIdleSec is how long an untouched session keeps its dashboard.
	SessionIdleSec int `koanf:"session_idle_sec"`

	// ChampionshipYear is the year shown when none is requested.
	ChampionshipYear int `koanf:"championship_year"`

	// ChampionshipYears lists the selectable championship years.
	ChampionshipYears []int `koanf:"championship_years"`

	// CORSAllowedOrigins lists origins allowed to call the API. "*" allows any.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// HTTPClientTimeoutSec bounds upstream calls. Zero disables the timeout.
	HTTPClientTimeoutSec int `koanf:"http_client_timeout_sec"`
}

// New creates a Config holding defaults. Context is accepted first to
// follow the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		PredictionAPIURL:     "http://localhost:8000",
		ChatAPIURL:           "http://localhost:1234/v1/chat/completions",
		ChatModel:            "gemma-2-9b-it",
		ChatTemperature:      0.7,
		ChatSystemPrompt:     DefaultSystemPrompt,
		RefreshIntervalSec:   300,
		AutoRefresh:          true,
		FetchQueueSize:       64,
		FetchWorkers:         4,
		MaxSessions:          1024,
		SessionIdleSec:       1800,
		ChampionshipYear:     2030,
		ChampionshipYears:    []int{2025, 2026, 2027, 2028, 2029, 2030},
		CORSAllowedOrigins:   []string{"*"},
		HTTPClientTimeoutSec: 0,
	}
}

// RefreshInterval returns the background refresh period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSec) * time.Second
}

// SessionIdle returns how long an idle session is kept.
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleSec) * time.Second
}

// HTTPClientTimeout returns the upstream call timeout; zero means none.
func (c *Config) HTTPClientTimeout() time.Duration {
	return time.Duration(c.HTTPClientTimeoutSec) * time.Second
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.PredictionAPIURL == "":
		return fmt.Errorf("%w: prediction_api_url must not be empty", ErrInvalidConfig)
	case c.ChatAPIURL == "":
		return fmt.Errorf("%w: chat_api_url must not be empty", ErrInvalidConfig)
	case c.RefreshIntervalSec <= 0:
		return fmt.Errorf("%w: refresh_interval_sec must be positive", ErrInvalidConfig)
	case c.ChatTemperature < 0 || c.ChatTemperature > maxTemperature:
		return fmt.Errorf("%w: chat_temperature must be within [0, %g]", ErrInvalidConfig, maxTemperature)
	case c.FetchQueueSize <= 0:
		return fmt.Errorf("%w: fetch_queue_size must be positive", ErrInvalidConfig)
	case c.FetchWorkers <= 0:
		return fmt.Errorf("%w: fetch_workers must be positive", ErrInvalidConfig)
	case c.MaxSessions <= 0:
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	case c.SessionIdleSec <= 0:
		return fmt.Errorf("%w: session_idle_sec must be positive", ErrInvalidConfig)
	case c.HTTPClientTimeoutSec < 0:
		return fmt.Errorf("%w: http_client_timeout_sec must not be negative", ErrInvalidConfig)
	case len(c.ChampionshipYears) > 0 && !slices.Contains(c.ChampionshipYears, c.ChampionshipYear):
		return fmt.Errorf("%w: championship_year %d is not in championship_years", ErrInvalidConfig, c.ChampionshipYear)
	}
	return nil
}
