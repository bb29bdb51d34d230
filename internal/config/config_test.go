package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.RetrievalTopK != 3 {
		t.Fatalf("RetrievalTopK = %d, want 3", cfg.RetrievalTopK)
	}
	if cfg.QdrantCollection != "capstone" {
		t.Fatalf("QdrantCollection = %q, want %q", cfg.QdrantCollection, "capstone")
	}
	if cfg.GroqModel != "llama-3.3-70b-versatile" {
		t.Fatalf("GroqModel = %q", cfg.GroqModel)
	}
	if cfg.SessionInactivityTimeout != 30*time.Minute {
		t.Fatalf("SessionInactivityTimeout = %v, want 30m", cfg.SessionInactivityTimeout)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("RETRIEVAL_TOP_K", "5")
	t.Setenv("QDRANT_URL", "http://localhost:6333")
	t.Setenv("APP_SESSION_INACTIVITY_TIMEOUT", "10m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.RetrievalTopK != 5 {
		t.Fatalf("RetrievalTopK = %d, want 5", cfg.RetrievalTopK)
	}
	if cfg.QdrantURL != "http://localhost:6333" {
		t.Fatalf("QdrantURL = %q", cfg.QdrantURL)
	}
	if cfg.SessionInactivityTimeout != 10*time.Minute {
		t.Fatalf("SessionInactivityTimeout = %v", cfg.SessionInactivityTimeout)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("RETRIEVAL_TOP_K", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error for RETRIEVAL_TOP_K=0")
	}

	setCoreEnvEmpty(t)
	t.Setenv("APP_SESSION_INACTIVITY_TIMEOUT", "1s")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error for sub-5s inactivity timeout")
	}

	setCoreEnvEmpty(t)
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "maybe")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error for non-bool APP_ALLOW_ANY_ORIGIN")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_UPSTREAM_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"DATABASE_URL",
		"QDRANT_URL",
		"QDRANT_API_KEY",
		"QDRANT_COLLECTION",
		"RETRIEVAL_TOP_K",
		"EMBEDDINGS_BASE_URL",
		"EMBEDDINGS_MODEL",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"OPENAI_GPT35_MODEL",
		"OPENAI_GPT4O_MODEL",
		"GROQ_API_KEY",
		"GROQ_BASE_URL",
		"GROQ_MODEL",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}
