package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"ibhelm.app/agent/core/db"
)

type Config struct {
	OTel    OTelConfig
	LLM     LLMConfig
	Missive MissiveConfig
	Agent   AgentConfig
	Env     string
	DB      db.Config
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string

	// Environment is stamped on exported telemetry as
	// deployment.environment so agent traces can be filtered per stage.
	Environment string
}

type LLMConfig struct {
	Provider  string // "anthropic" or "openai"
	APIKey    string
	BaseURL   string // Optional: for custom endpoints
	Model     string
	MaxTokens int

	// Timeout bounds the full reasoning call. The model may run long
	// research loops server-side, so this is far longer than an ordinary
	// HTTP timeout.
	Timeout time.Duration
}

type MissiveConfig struct {
	APIToken  string
	BaseURL   string
	Username  string
	AvatarURL string
}

type AgentConfig struct {
	// PollInterval is how long the worker idles when the queue is empty.
	PollInterval time.Duration

	// ErrorBackoff is how long the worker idles after a failed cycle,
	// so a broken dependency doesn't turn into a hot loop.
	ErrorBackoff time.Duration
}

// Load loads configuration from environment variables.
// In development it first loads .env from the working directory.
func Load() (Config, error) {
	if getEnv("AGENT_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	cfg := Config{
		Env: getEnv("AGENT_ENV", "development"),
		DB: db.Config{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 4),
			MinConns: getEnvInt32("DB_MIN_CONNS", 1),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "agent"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:    getEnv("AGENT_ENV", "development"),
		},
		LLM: LLMConfig{
			Provider:  getEnv("LLM_PROVIDER", "anthropic"),
			APIKey:    getEnv("LLM_API_KEY", getEnv("ANTHROPIC_API_KEY", "")),
			BaseURL:   getEnv("LLM_BASE_URL", ""),
			Model:     getEnv("LLM_MODEL", "claude-sonnet-4-5-20250514"),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 4096),
			Timeout:   getEnvDuration("LLM_TIMEOUT", 300*time.Second),
		},
		Missive: MissiveConfig{
			APIToken:  getEnv("MISSIVE_API_TOKEN", ""),
			BaseURL:   getEnv("MISSIVE_BASE_URL", "https://public.missiveapp.com/v1"),
			Username:  getEnv("MISSIVE_USERNAME", "IBHelm AI"),
			AvatarURL: getEnv("MISSIVE_AVATAR_URL", "https://api.ibhelm.de/ai-avatar.png"),
		},
		Agent: AgentConfig{
			PollInterval: getEnvDuration("POLL_INTERVAL", time.Second),
			ErrorBackoff: getEnvDuration("ERROR_BACKOFF", 5*time.Second),
		},
	}

	if cfg.DB.DSN == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}

	if !cfg.LLM.Enabled() {
		return Config{}, fmt.Errorf("LLM_API_KEY is required and LLM_PROVIDER must be anthropic or openai")
	}

	if cfg.Missive.APIToken == "" {
		return Config{}, fmt.Errorf("MISSIVE_API_TOKEN is required")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c LLMConfig) Enabled() bool {
	return c.APIKey != "" && (c.Provider == "anthropic" || c.Provider == "openai")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
