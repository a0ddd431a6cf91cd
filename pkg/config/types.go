package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/elvenok1/servidor-api-rag/pkg/collection"
)

// Config represents the persistent ragsearch configuration stored as config.toml
// in the .ragsearch/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	Collection  CollectionConfig  `toml:"collection"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Search      SearchConfig      `toml:"search"`
	Events      EventsConfig      `toml:"events"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// API server (e.g. ragsearch search). Values are full URLs.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// CollectionConfig is the collection identity. It must match how the
// collection was indexed and is fixed for the lifetime of a server.
type CollectionConfig struct {
	Name            string `toml:"name,omitempty"`
	EmbeddingModel  string `toml:"embedding_model,omitempty"`
	ContextTemplate string `toml:"context_template,omitempty"`
	Dimensions      uint   `toml:"dimensions,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider    string   `toml:"provider,omitempty"`
	Target      string   `toml:"target,omitempty"`
	APIKey      string   `toml:"api_key,omitempty"`
	Timeout     Duration `toml:"timeout"`
	CacheTarget string   `toml:"cache_target,omitempty"`
	CacheTTL    Duration `toml:"cache_ttl"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider      string   `toml:"provider,omitempty"`
	Target        string   `toml:"target,omitempty"`
	APIKey        string   `toml:"api_key,omitempty"`
	TLS           bool     `toml:"tls,omitempty"`
	TLSSkipVerify bool     `toml:"tls_skip_verify,omitempty"`
	HostOverride  string   `toml:"host_override,omitempty"`
	Timeout       Duration `toml:"timeout"`
}

// SearchConfig bounds search requests.
type SearchConfig struct {
	DefaultTopK    int     `toml:"default_top_k,omitempty"`
	MaxTopK        int     `toml:"max_top_k,omitempty"`
	MaxQueryLength int     `toml:"max_query_length,omitempty"`
	ScoreThreshold float64 `toml:"score_threshold,omitempty"`
}

// EventsConfig holds search event publishing settings.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// Identity returns the collection identity described by the config.
func (c *Config) Identity() collection.Identity {
	return collection.Identity{
		Name:            c.Collection.Name,
		EmbeddingModel:  c.Collection.EmbeddingModel,
		ContextTemplate: c.Collection.ContextTemplate,
		Dimensions:      c.Collection.Dimensions,
	}
}

// Duration is a time.Duration stored as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.Itoa(*field(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = n
			return nil
		},
	}
}

func durationKey(name string, field func(c *Config) *Duration) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if field(c).Duration == 0 {
				return ""
			}
			return field(c).String()
		},
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			field(c).Duration = d
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.listen":        stringKey(func(c *Config) *string { return &c.API.Listen }),
	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),

	"collection.name":             stringKey(func(c *Config) *string { return &c.Collection.Name }),
	"collection.embedding_model":  stringKey(func(c *Config) *string { return &c.Collection.EmbeddingModel }),
	"collection.context_template": stringKey(func(c *Config) *string { return &c.Collection.ContextTemplate }),
	"collection.dimensions": {
		get: func(c *Config) string {
			if c.Collection.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Collection.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for collection.dimensions: %w", err)
			}
			c.Collection.Dimensions = uint(n)
			return nil
		},
	},

	"embedding.provider":     stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":       stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.api_key":      stringKey(func(c *Config) *string { return &c.Embedding.APIKey }),
	"embedding.timeout":      durationKey("embedding.timeout", func(c *Config) *Duration { return &c.Embedding.Timeout }),
	"embedding.cache_target": stringKey(func(c *Config) *string { return &c.Embedding.CacheTarget }),
	"embedding.cache_ttl":    durationKey("embedding.cache_ttl", func(c *Config) *Duration { return &c.Embedding.CacheTTL }),

	"vector_store.provider":        stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":          stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.api_key":         stringKey(func(c *Config) *string { return &c.VectorStore.APIKey }),
	"vector_store.tls":             boolKey("vector_store.tls", func(c *Config) *bool { return &c.VectorStore.TLS }),
	"vector_store.tls_skip_verify": boolKey("vector_store.tls_skip_verify", func(c *Config) *bool { return &c.VectorStore.TLSSkipVerify }),
	"vector_store.host_override":   stringKey(func(c *Config) *string { return &c.VectorStore.HostOverride }),
	"vector_store.timeout":         durationKey("vector_store.timeout", func(c *Config) *Duration { return &c.VectorStore.Timeout }),

	"search.default_top_k":    intKey("search.default_top_k", func(c *Config) *int { return &c.Search.DefaultTopK }),
	"search.max_top_k":        intKey("search.max_top_k", func(c *Config) *int { return &c.Search.MaxTopK }),
	"search.max_query_length": intKey("search.max_query_length", func(c *Config) *int { return &c.Search.MaxQueryLength }),
	"search.score_threshold": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Search.ScoreThreshold, 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for search.score_threshold: %w", err)
			}
			if f < 0 || f > 1 {
				return fmt.Errorf("invalid value for search.score_threshold: %v is outside [0, 1]", f)
			}
			c.Search.ScoreThreshold = f
			return nil
		},
	},

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
}
