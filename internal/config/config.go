package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the chat service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	DatabaseURL string

	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	RetrievalTopK    int

	EmbeddingsBaseURL string
	EmbeddingsModel   string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	GPT35Model    string
	GPT4oModel    string

	GroqAPIKey  string
	GroqBaseURL string
	GroqModel   string

	UpstreamTimeout time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:                 envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:         envOrDefault("APP_METRICS_NAMESPACE", "finchat"),
		AllowAnyOrigin:           false,
		DatabaseURL:              trimmedEnv("DATABASE_URL"),
		QdrantURL:                trimmedEnv("QDRANT_URL"),
		QdrantAPIKey:             trimmedEnv("QDRANT_API_KEY"),
		QdrantCollection:         envOrDefault("QDRANT_COLLECTION", "capstone"),
		RetrievalTopK:            3,
		EmbeddingsBaseURL:        envOrDefault("EMBEDDINGS_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingsModel:          envOrDefault("EMBEDDINGS_MODEL", "text-embedding-3-small"),
		OpenAIAPIKey:             trimmedEnv("OPENAI_API_KEY"),
		OpenAIBaseURL:            envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GPT35Model:               envOrDefault("OPENAI_GPT35_MODEL", "gpt-3.5-turbo"),
		GPT4oModel:               envOrDefault("OPENAI_GPT4O_MODEL", "gpt-4o"),
		GroqAPIKey:               trimmedEnv("GROQ_API_KEY"),
		GroqBaseURL:              envOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:                envOrDefault("GROQ_MODEL", "llama-3.3-70b-versatile"),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 30 * time.Minute,
		UpstreamTimeout:          60 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.UpstreamTimeout, err = durationFromEnv("APP_UPSTREAM_TIMEOUT", cfg.UpstreamTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.RetrievalTopK, err = intFromEnv("RETRIEVAL_TOP_K", cfg.RetrievalTopK)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.RetrievalTopK < 1 {
		return Config{}, fmt.Errorf("RETRIEVAL_TOP_K must be at least 1")
	}
	if cfg.UpstreamTimeout <= 0 {
		return Config{}, fmt.Errorf("APP_UPSTREAM_TIMEOUT must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
