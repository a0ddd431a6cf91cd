package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/elvenok1/servidor-api-rag/api/mcp"
	"github.com/elvenok1/servidor-api-rag/pkg/collection"
	"github.com/elvenok1/servidor-api-rag/pkg/readiness"
	"github.com/elvenok1/servidor-api-rag/pkg/retrieval"
)

// Searcher runs one search. A nil topK selects the default.
// *search.Searcher implements it.
type Searcher interface {
	Search(ctx context.Context, query string, topK *int) (*retrieval.Response, error)
}

// Readiness exposes the startup verification state. *readiness.Gate implements it.
type Readiness interface {
	State() readiness.State
	Identity() collection.Identity
	Err() error
}

// Server is the API server for querying the collection.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
// The searcher and readiness gate are injected so the serve command can
// share them with other components.
func NewServer(config Config, logger *slog.Logger) (*Server, error) {
	if config.Searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if config.Readiness == nil {
		return nil, errors.New("readiness is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Searcher: config.Searcher,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		logger: logger,
		app:    app,
	}

	app.Use(recover.New())
	app.Use(s.requestID)
	app.Use(s.observe)

	app.Get("/", s.handleRoot)
	app.Get("/ping", s.handlePing)
	app.Get("/readyz", s.handleReady)
	app.Get("/v1/search", s.handleSearchQuery)
	app.Post("/v1/search", s.handleSearchBody)
	app.Post("/buscar", s.handleLegacySearch)
	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	if config.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(config.Metrics.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// ShutdownWithContext shuts down the server, giving up when ctx is done.
func (s *Server) ShutdownWithContext(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
