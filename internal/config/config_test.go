package config

import (
	"log/slog"
	"testing"
	"time"
)

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("lotquery-gateway", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
	if cfg.Engine.PollInterval != 500*time.Millisecond {
		t.Fatalf("Engine.PollInterval = %v", cfg.Engine.PollInterval)
	}
	if cfg.Engine.MaxPollAttempts != 15 {
		t.Fatalf("Engine.MaxPollAttempts = %d", cfg.Engine.MaxPollAttempts)
	}
	if cfg.Secrets.SecretName != "LLM_API" {
		t.Fatalf("Secrets.SecretName = %q", cfg.Secrets.SecretName)
	}
	if cfg.Model.Model != "gpt-5" {
		t.Fatalf("Model.Model = %q", cfg.Model.Model)
	}
	if cfg.Sweeper.MaxAge != 24*time.Hour {
		t.Fatalf("Sweeper.MaxAge = %v", cfg.Sweeper.MaxAge)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"LOTQUERY_PROFILE": "prod"})
	cfg, err := Load("lotquery-gateway", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"LOTQUERY_HTTP_ADDR":                ":9999",
		"LOTQUERY_ENGINE_DATABASE":          "warehouse",
		"LOTQUERY_ENGINE_TABLE":             "events_gold",
		"LOTQUERY_ENGINE_POLL_INTERVAL":     "250ms",
		"LOTQUERY_ENGINE_MAX_POLL_ATTEMPTS": "30",
		"LOTQUERY_MODEL_TEMPERATURE":        "0.7",
		"LOTQUERY_SECRETS_CACHE_TTL":        "1h",
	})
	cfg, err := Load("lotquery-gateway", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Engine.Database != "warehouse" {
		t.Fatalf("Engine.Database = %q", cfg.Engine.Database)
	}
	if cfg.Engine.Table != "events_gold" {
		t.Fatalf("Engine.Table = %q", cfg.Engine.Table)
	}
	if cfg.Engine.PollInterval != 250*time.Millisecond {
		t.Fatalf("Engine.PollInterval = %v", cfg.Engine.PollInterval)
	}
	if cfg.Engine.MaxPollAttempts != 30 {
		t.Fatalf("Engine.MaxPollAttempts = %d", cfg.Engine.MaxPollAttempts)
	}
	if cfg.Model.Temperature != 0.7 {
		t.Fatalf("Model.Temperature = %v", cfg.Model.Temperature)
	}
	if cfg.Secrets.CacheTTL != time.Hour {
		t.Fatalf("Secrets.CacheTTL = %v", cfg.Secrets.CacheTTL)
	}
}

func TestLoadRejectsInvalidProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{"LOTQUERY_PROFILE": "staging"})
	if _, err := Load("lotquery-gateway", lookup); err == nil {
		t.Fatal("Load() should reject unknown profile")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad duration":      {"LOTQUERY_ENGINE_POLL_INTERVAL": "soon"},
		"bad int":           {"LOTQUERY_ENGINE_MAX_POLL_ATTEMPTS": "lots"},
		"bad float":         {"LOTQUERY_MODEL_TEMPERATURE": "warm"},
		"bad bool":          {"LOTQUERY_AUTH_REQUIRED": "yep!"},
		"bad log level":     {"LOTQUERY_LOG_LEVEL": "loud"},
		"zero attempts":     {"LOTQUERY_ENGINE_MAX_POLL_ATTEMPTS": "0"},
		"zero poll":         {"LOTQUERY_ENGINE_POLL_INTERVAL": "0s"},
		"negative attempts": {"LOTQUERY_ENGINE_MAX_POLL_ATTEMPTS": "-1"},
	}
	for name, env := range cases {
		if _, err := Load("lotquery-gateway", mapLookup(env)); err == nil {
			t.Fatalf("%s: Load() should fail", name)
		}
	}
}
