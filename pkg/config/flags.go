package config

import (
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag describes one CLI flag and the config key it feeds. Commands look
// flags up by registry key so serve and verify cannot disagree on names.
type Flag struct {
	Name        string
	Shorthand   string
	ViperKey    string
	Description string
}

// FlagSet maps registry keys to flag definitions.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagAPIListen       = "api-listen"
	FlagAPITarget       = "api-target"
	FlagCollection      = "collection"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagVectorStoreProv = "vector-store-provider"
	FlagVectorStoreTgt  = "vector-store-target"
	FlagEventsProvider  = "events-provider"
	FlagEventsBrokers   = "events-brokers"
)

// ServerFlags is the registry shared by commands that build the search pipeline.
var ServerFlags = FlagSet{
	FlagAPIListen:       {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagCollection:      {Name: "collection", Shorthand: "c", ViperKey: "collection.name", Description: "Collection to search"},
	FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "collection.embedding_model", Description: "Embedding model the collection was indexed with"},
	FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "collection.dimensions", Description: "Vector dimensions of the collection"},
	FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (ollama, openai)"},
	FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	FlagVectorStoreProv: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Vector store provider (qdrant, sqlite, pgvector)"},
	FlagVectorStoreTgt:  {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Vector store address, database path or DSN"},
	FlagEventsProvider:  {Name: "events-provider", ViperKey: "events.provider", Description: "Search event publisher (none, kafka)"},
	FlagEventsBrokers:   {Name: "events-brokers", ViperKey: "events.brokers", Description: "Comma separated Kafka brokers"},
}

// ClientFlags is the registry for commands that talk to a running server.
var ClientFlags = FlagSet{
	FlagAPITarget: {Name: "api-target", Shorthand: "a", ViperKey: "client.api_target", Description: "ragsearch API server URL"},
}

// AddStringFlag registers the string flag fs[key] on cmd, defaulting to the
// config default for its key. Unknown keys are ignored.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	addFlag(cmd, fs, key, func(flags *pflag.FlagSet, def Flag) {
		flags.StringVarP(target, def.Name, def.Shorthand, flagDefaults().GetString(def.ViperKey), def.Description)
	})
}

// AddUintFlag registers the uint flag fs[key] on cmd.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, key string, target *uint) {
	addFlag(cmd, fs, key, func(flags *pflag.FlagSet, def Flag) {
		flags.UintVarP(target, def.Name, def.Shorthand, flagDefaults().GetUint(def.ViperKey), def.Description)
	})
}

func addFlag(cmd *cobra.Command, fs FlagSet, key string, register func(*pflag.FlagSet, Flag)) {
	if def, ok := fs[key]; ok {
		register(cmd.Flags(), def)
	}
}

// BindRegisteredFlags binds the listed flags that cmd registered to their
// viper keys, so a flag set on the command line outranks env, file and
// defaults. Call it after InitViper.
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, key := range registryKeys {
		def, ok := fs[key]
		if !ok {
			continue
		}
		if f := cmd.Flags().Lookup(def.Name); f != nil {
			_ = v.BindPFlag(def.ViperKey, f)
		}
	}
}

// flagDefaults holds NewDefaultConfig as viper defaults, for flag help text.
var flagDefaults = sync.OnceValue(func() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
})
