// Package config loads the application configuration from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Backend names a store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendBigQuery Backend = "bigquery"
)

// Config holds everything the binaries read from the environment.
type Config struct {
	// Port is the HTTP listen port. Environment variable: PORT
	Port string `koanf:"PORT"`

	// GeminiModel is the model used for extraction.
	// Environment variable: GEMINI_MODEL
	GeminiModel string `koanf:"GEMINI_MODEL"`

	// Currency is the ISO code assumed for every amount.
	// Environment variable: CURRENCY
	Currency string `koanf:"CURRENCY"`

	// ExtractTimeout bounds a single model call, e.g. "10s".
	// Environment variable: EXTRACT_TIMEOUT
	ExtractTimeout string `koanf:"EXTRACT_TIMEOUT"`

	// SessionTTL is the conversation inactivity window, e.g. "15m".
	// Environment variable: SESSION_TTL
	SessionTTL string `koanf:"SESSION_TTL"`

	// SimilarityFloor tunes fuzzy category matching; 0 keeps the default.
	// Environment variable: SIMILARITY_FLOOR
	SimilarityFloor float64 `koanf:"SIMILARITY_FLOOR"`

	// StoreBackend selects the persistence backend: "memory" or "bigquery".
	// Environment variable: STORE_BACKEND
	StoreBackend string `koanf:"STORE_BACKEND"`

	// BigQuery connection, required when StoreBackend is "bigquery".
	// Environment variables: BIGQUERY_PROJECT, BIGQUERY_DATASET
	BigQueryProject string `koanf:"BIGQUERY_PROJECT"`
	BigQueryDataset string `koanf:"BIGQUERY_DATASET"`
}

// Load reads the environment and applies defaults.
func Load() (Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-2.0-flash"
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.ExtractTimeout == "" {
		cfg.ExtractTimeout = "10s"
	}
	if cfg.SessionTTL == "" {
		cfg.SessionTTL = "15m"
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = string(BackendMemory)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := time.ParseDuration(c.ExtractTimeout); err != nil {
		return fmt.Errorf("EXTRACT_TIMEOUT: %w", err)
	}
	if _, err := time.ParseDuration(c.SessionTTL); err != nil {
		return fmt.Errorf("SESSION_TTL: %w", err)
	}
	switch Backend(c.StoreBackend) {
	case BackendMemory:
	case BackendBigQuery:
		if c.BigQueryProject == "" || c.BigQueryDataset == "" {
			return fmt.Errorf("BIGQUERY_PROJECT and BIGQUERY_DATASET are required with STORE_BACKEND=bigquery")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// ExtractTimeoutDuration returns the parsed extraction timeout. Load has
// already validated the string.
func (c Config) ExtractTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ExtractTimeout)
	return d
}

// SessionTTLDuration returns the parsed session inactivity window.
func (c Config) SessionTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.SessionTTL)
	return d
}
