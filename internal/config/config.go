package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Engine        EngineConfig
	Secrets       SecretsConfig
	Model         ModelConfig
	Sweeper       SweeperConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// EngineConfig points the execution client at the analytic store.
// Database and Table name the Athena catalog objects; OutputLocation is the
// s3:// URI where the engine writes result artifacts.
type EngineConfig struct {
	Region          string
	Database        string
	Table           string
	OutputLocation  string
	PollInterval    time.Duration
	MaxPollAttempts int
}

type SecretsConfig struct {
	Region     string
	SecretName string
	CacheTTL   time.Duration
}

type ModelConfig struct {
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type SweeperConfig struct {
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("LOTQUERY_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid LOTQUERY_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "LOTQUERY_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "LOTQUERY_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "LOTQUERY_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "LOTQUERY_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "LOTQUERY_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "LOTQUERY_ENGINE_REGION", &cfg.Engine.Region); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "LOTQUERY_ENGINE_DATABASE", &cfg.Engine.Database); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "LOTQUERY_ENGINE_TABLE", &cfg.Engine.Table); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "LOTQUERY_ENGINE_OUTPUT_LOCATION", &cfg.Engine.OutputLocation); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "LOTQUERY_ENGINE_POLL_INTERVAL", &cfg.Engine.PollInterval); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "LOTQUERY_ENGINE_MAX_POLL_ATTEMPTS", &cfg.Engine.MaxPollAttempts); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "LOTQUERY_SECRETS_REGION", &cfg.Secrets.Region); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "LOTQUERY_SECRETS_NAME", &cfg.Secrets.SecretName); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "LOTQUERY_SECRETS_CACHE_TTL", &cfg.Secrets.CacheTTL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "LOTQUERY_MODEL_BASE_URL", &cfg.Model.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "LOTQUERY_MODEL_NAME", &cfg.Model.Model); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "LOTQUERY_MODEL_TEMPERATURE", &cfg.Model.Temperature); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "LOTQUERY_MODEL_TIMEOUT", &cfg.Model.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "LOTQUERY_SWEEPER_INTERVAL", &cfg.Sweeper.Interval); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "LOTQUERY_SWEEPER_MAX_AGE", &cfg.Sweeper.MaxAge); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "LOTQUERY_SWEEPER_BATCH_SIZE", &cfg.Sweeper.BatchSize); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "LOTQUERY_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "LOTQUERY_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "LOTQUERY_AUTH_REQUIRED", &cfg.Auth.Required); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "LOTQUERY_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.Engine.PollInterval <= 0 {
		return Config{}, fmt.Errorf("engine poll interval must be positive")
	}
	if cfg.Engine.MaxPollAttempts <= 0 {
		return Config{}, fmt.Errorf("engine max poll attempts must be positive")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "lotquery-gateway"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Engine: EngineConfig{
			Region:          "us-east-1",
			Database:        "iot_data",
			Table:           "parking_events",
			OutputLocation:  "s3://lotquery-results/athena-results/",
			PollInterval:    500 * time.Millisecond,
			MaxPollAttempts: 15,
		},
		Secrets: SecretsConfig{
			Region:     "us-east-1",
			SecretName: "LLM_API",
			CacheTTL:   10 * time.Minute,
		},
		Model: ModelConfig{
			BaseURL:     "https://api.openai.com",
			Model:       "gpt-5",
			Temperature: 0.1,
			Timeout:     15 * time.Second,
		},
		Sweeper: SweeperConfig{
			Interval:  10 * time.Minute,
			MaxAge:    24 * time.Hour,
			BatchSize: 500,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.Auth.Required = false
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
