package config

import (
	"time"

	"github.com/elvenok1/servidor-api-rag/pkg/eventstream"
)

const (
	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultCollectionName = "openpyxl_final_v2"
	defaultEmbeddingModel = "all-minilm"
	defaultDimensions     = 384

	defaultEmbeddingProvider = "ollama"
	defaultEmbeddingTarget   = "http://localhost:11434"
	defaultEmbeddingTimeout  = 30 * time.Second
	defaultCacheTTL          = 24 * time.Hour

	defaultVectorProvider = "qdrant"
	defaultVectorTarget   = "localhost:6334"
	defaultVectorTimeout  = 20 * time.Second

	defaultTopK           = 5
	defaultMaxTopK        = 100
	defaultMaxQueryLength = 2048
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Collection: CollectionConfig{
			Name:           defaultCollectionName,
			EmbeddingModel: defaultEmbeddingModel,
			Dimensions:     defaultDimensions,
		},
		Embedding: EmbeddingConfig{
			Provider: defaultEmbeddingProvider,
			Target:   defaultEmbeddingTarget,
			Timeout:  Duration{defaultEmbeddingTimeout},
			CacheTTL: Duration{defaultCacheTTL},
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
			Target:   defaultVectorTarget,
			Timeout:  Duration{defaultVectorTimeout},
		},
		Search: SearchConfig{
			DefaultTopK:    defaultTopK,
			MaxTopK:        defaultMaxTopK,
			MaxQueryLength: defaultMaxQueryLength,
		},
		Events: EventsConfig{
			Topic: eventstream.EventTypeSearchPerformed,
		},
	}
}
