// Package servecmder provides the serve command, which runs the search API.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/elvenok1/servidor-api-rag/api"
	apisearch "github.com/elvenok1/servidor-api-rag/api/search"
	"github.com/elvenok1/servidor-api-rag/cmd/ragsearch/cmdutil"
	"github.com/elvenok1/servidor-api-rag/pkg/bootstrap"
	"github.com/elvenok1/servidor-api-rag/pkg/config"
	"github.com/elvenok1/servidor-api-rag/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

type serveCommander struct {
	listen         string
	collection     string
	embeddingModel string
	dimensions     uint
	embeddingProv  string
	embeddingTgt   string
	vectorProv     string
	vectorTgt      string
	eventsProv     string
	eventsBrokers  string

	viper  *viper.Viper
	config *config.Config
	logger *slog.Logger
}

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagCollection,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
}

const serveLongDesc string = `Run the ragsearch API server.

The server verifies the configured collection in the background: the embedding
model must produce vectors of the collection's dimensions. Until verification
succeeds every search answers 503 service_unavailable and /readyz reports the
state. A failed verification is not retried; fix the configuration and restart.

Endpoints:
  POST /v1/search   {"query": "...", "top_k": 5}
  GET  /v1/search   ?query=...&top_k=5
  POST /buscar      {"question": "...", "top_k": 5}
  GET  /readyz      verification state and collection identity
  GET  /metrics     Prometheus metrics
  /mcp              Model Context Protocol search tool

Examples:
  ragsearch serve
  ragsearch serve --collection openpyxl_final_v2 --vector-store-target qdrant.internal:6334
  RAGSEARCH_EMBEDDING_API_KEY=sk-... ragsearch serve --embedding-provider openai`

const serveShortDesc string = "Run the search API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.viper, cmder.config, err = cmdutil.LoadConfig(cmd, config.ServerFlags, serveFlagKeys)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, closeLog, err := cmdutil.NewLogger(cmd, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeLog()
			cmder.logger = log

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx)
		},
	}

	fs := config.ServerFlags
	config.AddStringFlag(cmd, fs, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, fs, config.FlagCollection, &cmder.collection)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, fs, config.FlagEmbeddingDims, &cmder.dimensions)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingProv, &cmder.embeddingProv)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingTgt, &cmder.embeddingTgt)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreTgt, &cmder.vectorTgt)
	config.AddStringFlag(cmd, fs, config.FlagEventsProvider, &cmder.eventsProv)
	config.AddStringFlag(cmd, fs, config.FlagEventsBrokers, &cmder.eventsBrokers)

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	cfg := c.config
	config.WatchConfig(c.viper, c.logger)

	m := metrics.New()

	gate := bootstrap.NewGate(cfg, m, c.logger)
	defer func() {
		if err := gate.Close(); err != nil {
			c.logger.Warn("closing search pipeline", "error", err)
		}
	}()

	publisher, err := bootstrap.NewPublisher(cfg)
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}

	searcher, err := apisearch.NewSearcher(apisearch.Config{
		Pipelines:      gate,
		DefaultTopK:    cfg.Search.DefaultTopK,
		MaxTopK:        cfg.Search.MaxTopK,
		MaxQueryLength: cfg.Search.MaxQueryLength,
		Publisher:      publisher,
		Metrics:        m,
		Logger:         c.logger,
	})
	if err != nil {
		_ = publisher.Close()
		return fmt.Errorf("creating searcher: %w", err)
	}
	defer func() {
		if err := searcher.Close(); err != nil {
			c.logger.Warn("closing event publisher", "error", err)
		}
	}()

	server, err := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
		Searcher:   searcher,
		Readiness:  gate,
		Metrics:    m,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	identity := cfg.Identity()
	c.logger.Info("verifying collection",
		"collection", identity.Name,
		"embedding_model", identity.EmbeddingModel,
		"dimensions", identity.Dimensions,
		"vector_store", cfg.VectorStore.Provider,
		"embedding_provider", cfg.Embedding.Provider,
	)
	gate.Start(ctx)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
