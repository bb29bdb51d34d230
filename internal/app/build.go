// Package app wires configuration into a runnable service.
package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ent0n29/finchat/internal/auth"
	"github.com/ent0n29/finchat/internal/config"
	"github.com/ent0n29/finchat/internal/history"
	"github.com/ent0n29/finchat/internal/httpapi"
	"github.com/ent0n29/finchat/internal/llm"
	"github.com/ent0n29/finchat/internal/observability"
	"github.com/ent0n29/finchat/internal/pipeline"
	"github.com/ent0n29/finchat/internal/retrieval"
	"github.com/ent0n29/finchat/internal/session"
)

type BuildResult struct {
	Config       config.Config
	API          *httpapi.Server
	Sessions     *session.Manager
	Orchestrator *pipeline.Orchestrator
	Metrics      *observability.Metrics

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

// Build constructs every component from config. External clients are built
// once here and injected; nothing below this layer reads the environment.
func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	users, err := auth.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("user store init failed: %w", err)
	}

	turns, err := history.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = users.Close()
		return nil, fmt.Errorf("history store init failed: %w", err)
	}

	retriever, err := resolveRetriever(cfg)
	if err != nil {
		_ = users.Close()
		_ = turns.Close()
		return nil, err
	}

	generators, err := resolveGenerators(cfg)
	if err != nil {
		_ = users.Close()
		_ = turns.Close()
		return nil, err
	}

	orchestrator := pipeline.New(turns, retriever, generators, metrics, cfg.RetrievalTopK)

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	api := httpapi.New(cfg, users, sessions, orchestrator, metrics)

	cleanup := func() error {
		var errs []string
		if err := turns.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if err := users.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:       cfg,
		API:          api,
		Sessions:     sessions,
		Orchestrator: orchestrator,
		Metrics:      metrics,
		Cleanup:      cleanup,
	}, nil
}

// resolveRetriever prefers the configured Qdrant index and degrades to a
// mock so the service still boots for local development without keys.
func resolveRetriever(cfg config.Config) (retrieval.Retriever, error) {
	if strings.TrimSpace(cfg.QdrantURL) == "" || strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		log.Printf("retriever: mock (QDRANT_URL or OPENAI_API_KEY not set)")
		return retrieval.NewMockRetriever(), nil
	}

	embedder, err := retrieval.NewEmbeddingsClient(retrieval.EmbeddingsConfig{
		BaseURL: cfg.EmbeddingsBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.EmbeddingsModel,
		Timeout: cfg.UpstreamTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings client init failed: %w", err)
	}

	retriever, err := retrieval.NewQdrantRetriever(retrieval.QdrantConfig{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
		Timeout:    cfg.UpstreamTimeout,
	}, embedder)
	if err != nil {
		return nil, fmt.Errorf("qdrant retriever init failed: %w", err)
	}
	log.Printf("retriever: qdrant collection %q", cfg.QdrantCollection)
	return retriever, nil
}

// resolveGenerators registers a real client for every backend whose key is
// configured and a mock for the rest, so backend selection always resolves.
func resolveGenerators(cfg config.Config) (*llm.Registry, error) {
	registry := llm.NewRegistry()

	register := func(backend llm.Backend, baseURL, apiKey, model string) error {
		if strings.TrimSpace(apiKey) == "" {
			log.Printf("backend %s: mock (no API key configured)", backend)
			registry.Register(backend, llm.NewMockGenerator())
			return nil
		}
		client, err := llm.NewChatClient(llm.ChatConfig{
			Backend: backend,
			BaseURL: baseURL,
			APIKey:  apiKey,
			Model:   model,
			Timeout: cfg.UpstreamTimeout,
		})
		if err != nil {
			return fmt.Errorf("chat client for %s init failed: %w", backend, err)
		}
		log.Printf("backend %s: %s", backend, model)
		registry.Register(backend, client)
		return nil
	}

	if err := register(llm.BackendGroq, cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel); err != nil {
		return nil, err
	}
	if err := register(llm.BackendGPT35, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.GPT35Model); err != nil {
		return nil, err
	}
	if err := register(llm.BackendGPT4o, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.GPT4oModel); err != nil {
		return nil, err
	}

	return registry, nil
}
