package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", cfg.Currency)
	}
	if cfg.StoreBackend != string(BackendMemory) {
		t.Errorf("StoreBackend = %q, want memory", cfg.StoreBackend)
	}
	if got := cfg.ExtractTimeoutDuration(); got != 10*time.Second {
		t.Errorf("ExtractTimeoutDuration() = %v, want 10s", got)
	}
	if got := cfg.SessionTTLDuration(); got != 15*time.Minute {
		t.Errorf("SessionTTLDuration() = %v, want 15m", got)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CURRENCY", "EUR")
	t.Setenv("SESSION_TTL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", cfg.Currency)
	}
	if got := cfg.SessionTTLDuration(); got != 5*time.Minute {
		t.Errorf("SessionTTLDuration() = %v, want 5m", got)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad timeout", "EXTRACT_TIMEOUT", "soon"},
		{"bad ttl", "SESSION_TTL", "whenever"},
		{"unknown backend", "STORE_BACKEND", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatal("Load() expected error, got nil")
			}
		})
	}
}

func TestLoadBigQueryBackendNeedsProject(t *testing.T) {
	t.Setenv("STORE_BACKEND", "bigquery")
	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error without BIGQUERY_PROJECT, got nil")
	}

	t.Setenv("BIGQUERY_PROJECT", "p")
	t.Setenv("BIGQUERY_DATASET", "d")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoreBackend != string(BackendBigQuery) {
		t.Errorf("StoreBackend = %q, want bigquery", cfg.StoreBackend)
	}
}
