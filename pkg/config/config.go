package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/elvenok1/servidor-api-rag/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// If no .ragsearch/ directory was resolved, targetPath stays empty;
	// LoadConfig will return defaults and SaveConfig will error clearly.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetPath = path

	return cfger, nil
}

// orderedKeys is the display order of config keys, matching the TOML section layout.
var orderedKeys = []string{
	"api.listen",
	"client.api_target",
	"collection.name",
	"collection.embedding_model",
	"collection.context_template",
	"collection.dimensions",
	"embedding.provider",
	"embedding.target",
	"embedding.api_key",
	"embedding.timeout",
	"embedding.cache_target",
	"embedding.cache_ttl",
	"vector_store.provider",
	"vector_store.target",
	"vector_store.api_key",
	"vector_store.tls",
	"vector_store.tls_skip_verify",
	"vector_store.host_override",
	"vector_store.timeout",
	"search.default_top_k",
	"search.max_top_k",
	"search.max_query_length",
	"search.score_threshold",
	"events.provider",
	"events.brokers",
	"events.topic",
}

// ValidConfigKeys returns the list of all supported configuration key names
// in a stable order.
func ValidConfigKeys() []string {
	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range orderedKeys {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}

	for k := range configKeys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

// IsSecretKey reports whether a key holds a credential that should be masked on display.
func IsSecretKey(key string) bool {
	return strings.HasSuffix(key, ".api_key")
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml in the target .ragsearch/ directory.
// If the file does not exist, returns NewDefaultConfig() so callers always receive
// a fully-populated Config. Fields explicitly set in the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
// Booleans, the context template and the score threshold have zero defaults
// and are left alone.
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}
	if cfg.Client.APITarget == "" {
		cfg.Client.APITarget = defaults.Client.APITarget
	}

	if cfg.Collection.Name == "" {
		cfg.Collection.Name = defaults.Collection.Name
	}
	if cfg.Collection.EmbeddingModel == "" {
		cfg.Collection.EmbeddingModel = defaults.Collection.EmbeddingModel
	}
	if cfg.Collection.Dimensions == 0 {
		cfg.Collection.Dimensions = defaults.Collection.Dimensions
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = defaults.Embedding.Provider
	}
	if cfg.Embedding.Target == "" {
		cfg.Embedding.Target = defaults.Embedding.Target
	}
	defaultDuration(&cfg.Embedding.Timeout, defaults.Embedding.Timeout)
	defaultDuration(&cfg.Embedding.CacheTTL, defaults.Embedding.CacheTTL)

	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = defaults.VectorStore.Provider
	}
	if cfg.VectorStore.Target == "" {
		cfg.VectorStore.Target = defaults.VectorStore.Target
	}
	defaultDuration(&cfg.VectorStore.Timeout, defaults.VectorStore.Timeout)

	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = defaults.Search.DefaultTopK
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = defaults.Search.MaxTopK
	}
	if cfg.Search.MaxQueryLength == 0 {
		cfg.Search.MaxQueryLength = defaults.Search.MaxQueryLength
	}

	if cfg.Events.Topic == "" {
		cfg.Events.Topic = defaults.Events.Topic
	}
}

func defaultDuration(d *Duration, def Duration) {
	if d.Duration == 0 {
		*d = def
	}
}

// Validate checks values that parse but cannot be served. The collection
// identity is checked by startup verification instead.
func (c *Config) Validate() error {
	var errs []error

	if c.Search.DefaultTopK < 1 {
		errs = append(errs, fmt.Errorf("search.default_top_k must be positive, got %d", c.Search.DefaultTopK))
	}
	if c.Search.MaxTopK < c.Search.DefaultTopK {
		errs = append(errs, fmt.Errorf("search.max_top_k (%d) must be at least search.default_top_k (%d)", c.Search.MaxTopK, c.Search.DefaultTopK))
	}
	if c.Search.MaxQueryLength < 1 {
		errs = append(errs, fmt.Errorf("search.max_query_length must be positive, got %d", c.Search.MaxQueryLength))
	}
	if c.Search.ScoreThreshold < 0 || c.Search.ScoreThreshold > 1 {
		errs = append(errs, fmt.Errorf("search.score_threshold must be within [0, 1], got %v", c.Search.ScoreThreshold))
	}
	if c.Embedding.Timeout.Duration <= 0 {
		errs = append(errs, errors.New("embedding.timeout must be positive"))
	}
	if c.VectorStore.Timeout.Duration <= 0 {
		errs = append(errs, errors.New("vector_store.timeout must be positive"))
	}
	if c.Embedding.CacheTarget != "" && c.Embedding.CacheTTL.Duration < time.Second {
		errs = append(errs, errors.New("embedding.cache_ttl must be at least 1s when the cache is enabled"))
	}
	return errors.Join(errs...)
}

// SaveConfig persists the configuration to config.toml in the target .ragsearch/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// PresetConfig returns a Config with sane defaults for the named provider preset.
// Supported presets: "ollama", "openai", "local".
// Returns an error if the preset name is not recognized.
func PresetConfig(name string) (*Config, error) {
	cfg := NewDefaultConfig()

	switch strings.ToLower(name) {
	case "ollama":
		return cfg, nil

	case "openai":
		cfg.Embedding.Provider = "openai"
		cfg.Embedding.Target = "https://api.openai.com/v1"
		cfg.Collection.EmbeddingModel = "text-embedding-3-small"
		cfg.Collection.Dimensions = 1536
		return cfg, nil

	case "local":
		cfg.VectorStore.Provider = "sqlite"
		cfg.VectorStore.Target = "ragsearch.db"
		return cfg, nil

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"ollama", "openai", "local"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
