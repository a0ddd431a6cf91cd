// Package embeddingutils builds embedders from configuration.
package embeddingutils

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/elvenok1/servidor-api-rag/pkg/embeddings"
	"github.com/elvenok1/servidor-api-rag/pkg/embeddings/cache"
	"github.com/elvenok1/servidor-api-rag/pkg/embeddings/ollama"
	"github.com/elvenok1/servidor-api-rag/pkg/embeddings/openai"
)

// Supported provider names.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
	Timeout      time.Duration

	// CacheTarget is a Redis address. Empty disables the cache.
	CacheTarget  string
	CacheTTL     time.Duration
	CacheLookups *prometheus.CounterVec

	Logger *slog.Logger
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	var (
		e   embeddings.Embedder
		err error
	)

	switch o.ProviderType {
	case ProviderOllama:
		e, err = ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
			Timeout: o.Timeout,
		})
	case ProviderOpenAI:
		e, err = openai.NewEmbedder(openai.EmbedderConfig{
			BaseURL: o.TargetURL,
			APIKey:  o.APIKey,
			Model:   o.Model,
			Timeout: o.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
	if err != nil {
		return nil, err
	}

	if o.CacheTarget == "" {
		return e, nil
	}

	cached, err := cache.Dial(e, o.CacheTarget, cache.Options{
		TTL:     o.CacheTTL,
		Lookups: o.CacheLookups,
		Logger:  o.Logger,
	})
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	return cached, nil
}
