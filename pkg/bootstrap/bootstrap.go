// Package bootstrap turns a resolved Config into the search pipeline's
// collaborators: the readiness gate and the event publisher.
package bootstrap

import (
	"context"
	"log/slog"

	"github.com/elvenok1/servidor-api-rag/pkg/config"
	"github.com/elvenok1/servidor-api-rag/pkg/embeddings"
	embeddingutils "github.com/elvenok1/servidor-api-rag/pkg/embeddings/utils"
	"github.com/elvenok1/servidor-api-rag/pkg/eventstream"
	eventstreamutils "github.com/elvenok1/servidor-api-rag/pkg/eventstream/utils"
	"github.com/elvenok1/servidor-api-rag/pkg/metrics"
	"github.com/elvenok1/servidor-api-rag/pkg/readiness"
	"github.com/elvenok1/servidor-api-rag/pkg/vector"
	vectorutils "github.com/elvenok1/servidor-api-rag/pkg/vector/utils"
)

// NewGate builds an unverified gate whose factories dial the configured
// embedding provider and vector store. Nothing is dialed until Verify.
func NewGate(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) *readiness.Gate {
	identity := cfg.Identity()

	return readiness.NewGate(readiness.Config{
		Identity: identity,
		NewEmbedder: func() (embeddings.Embedder, error) {
			return embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
				ProviderType: cfg.Embedding.Provider,
				TargetURL:    cfg.Embedding.Target,
				Model:        identity.EmbeddingModel,
				APIKey:       cfg.Embedding.APIKey,
				Timeout:      cfg.Embedding.Timeout.Duration,
				CacheTarget:  cfg.Embedding.CacheTarget,
				CacheTTL:     cfg.Embedding.CacheTTL.Duration,
				CacheLookups: m.CacheLookups(),
				Logger:       logger,
			})
		},
		NewDriver: func(ctx context.Context) (vector.Driver, error) {
			return vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
				ProviderType:  cfg.VectorStore.Provider,
				Target:        cfg.VectorStore.Target,
				APIKey:        cfg.VectorStore.APIKey,
				TLS:           cfg.VectorStore.TLS,
				TLSSkipVerify: cfg.VectorStore.TLSSkipVerify,
				HostOverride:  cfg.VectorStore.HostOverride,
				Logger:        logger,
			})
		},
		EmbeddingTimeout: cfg.Embedding.Timeout.Duration,
		VectorTimeout:    cfg.VectorStore.Timeout.Duration,
		ScoreThreshold:   float32(cfg.Search.ScoreThreshold),
		Metrics:          m,
		Logger:           logger,
	})
}

// NewPublisher builds the configured search event publisher.
func NewPublisher(cfg *config.Config) (eventstream.Publisher, error) {
	return eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.Events.Provider,
		Brokers:      cfg.Events.Brokers,
		Topic:        cfg.Events.Topic,
	})
}
