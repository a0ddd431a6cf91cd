// Package readiness verifies the search pipeline once at startup and gates
// every search on the outcome.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elvenok1/servidor-api-rag/pkg/collection"
	"github.com/elvenok1/servidor-api-rag/pkg/embeddings"
	"github.com/elvenok1/servidor-api-rag/pkg/encoder"
	"github.com/elvenok1/servidor-api-rag/pkg/metrics"
	"github.com/elvenok1/servidor-api-rag/pkg/retrieval"
	"github.com/elvenok1/servidor-api-rag/pkg/vector"
)

// StartupQuery is embedded once during verification to learn the model's output length.
const StartupQuery = "ragsearch readiness check"

// CloseTimeout bounds how long Close waits for a running verification.
const CloseTimeout = 5 * time.Second

// errClosed fails a gate that was closed before verification started.
var errClosed = errors.New("gate closed before verification")

// EmbedderFactory builds the embedding provider.
type EmbedderFactory func() (embeddings.Embedder, error)

// DriverFactory builds the vector store driver.
type DriverFactory func(ctx context.Context) (vector.Driver, error)

// Pipeline is the verified, immutable search pipeline.
type Pipeline struct {
	Encoder  *encoder.Encoder
	Client   *retrieval.Client
	Identity collection.Identity
}

// Config configures a Gate.
type Config struct {
	Identity    collection.Identity
	NewEmbedder EmbedderFactory
	NewDriver   DriverFactory

	EmbeddingTimeout time.Duration
	VectorTimeout    time.Duration
	ScoreThreshold   float32

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Gate runs verification at most once and publishes the pipeline when it succeeds.
// State moves Uninitialized -> Verifying -> Ready or Failed and never back.
// There is no retry: a Failed gate stays Failed until the process restarts.
type Gate struct {
	cfg Config

	state    atomic.Int32
	pipeline atomic.Pointer[Pipeline]
	done     chan struct{}

	mu       sync.Mutex
	err      error
	embedder embeddings.Embedder
	driver   vector.Driver
}

// NewGate creates a gate in the Uninitialized state.
func NewGate(cfg Config) *Gate {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.EmbeddingTimeout <= 0 {
		cfg.EmbeddingTimeout = encoder.DefaultTimeout
	}
	if cfg.VectorTimeout <= 0 {
		cfg.VectorTimeout = retrieval.DefaultTimeout
	}

	g := &Gate{
		cfg:  cfg,
		done: make(chan struct{}),
	}
	cfg.Metrics.SetReadiness(int(Uninitialized))
	return g
}

// State returns the current state.
func (g *Gate) State() State {
	return State(g.state.Load())
}

// Identity returns the configured collection identity.
func (g *Gate) Identity() collection.Identity {
	return g.cfg.Identity
}

// Err returns the verification failure, or nil.
func (g *Gate) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// Done is closed when verification finishes, successfully or not.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// Pipeline returns the verified pipeline, or ErrServiceUnavailable unless the gate is Ready.
func (g *Gate) Pipeline() (*Pipeline, error) {
	if p := g.pipeline.Load(); p != nil {
		return p, nil
	}

	state := g.State()
	if state == Failed {
		return nil, fmt.Errorf("%w: startup verification failed: %v", retrieval.ErrServiceUnavailable, g.Err())
	}
	return nil, fmt.Errorf("%w: search pipeline is %s", retrieval.ErrServiceUnavailable, state)
}

// Start runs Verify in the background.
func (g *Gate) Start(ctx context.Context) {
	go func() {
		_ = g.Verify(ctx)
	}()
}

// Verify builds and checks the pipeline. Only the first call does any work;
// later calls wait for it and return its result.
func (g *Gate) Verify(ctx context.Context) error {
	if !g.state.CompareAndSwap(int32(Uninitialized), int32(Verifying)) {
		select {
		case <-g.done:
			return g.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	g.cfg.Metrics.SetReadiness(int(Verifying))
	defer close(g.done)

	logger := g.cfg.Logger.With(
		"collection", g.cfg.Identity.Name,
		"embedding_model", g.cfg.Identity.EmbeddingModel,
		"fingerprint", g.cfg.Identity.Fingerprint(),
	)
	logger.Info("verifying search pipeline")

	start := time.Now()
	p, err := g.verify(ctx, logger)
	if err != nil {
		err = fmt.Errorf("%w: %w", retrieval.ErrConfiguration, err)

		g.mu.Lock()
		g.err = err
		g.mu.Unlock()
		g.closeResources()

		g.state.Store(int32(Failed))
		g.cfg.Metrics.SetReadiness(int(Failed))
		logger.Error("search pipeline verification failed; search is disabled", "error", err)
		return err
	}

	g.pipeline.Store(p)
	g.state.Store(int32(Ready))
	g.cfg.Metrics.SetReadiness(int(Ready))
	logger.Info("search pipeline ready", "duration", time.Since(start))
	return nil
}

func (g *Gate) verify(ctx context.Context, logger *slog.Logger) (*Pipeline, error) {
	id := g.cfg.Identity
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if g.cfg.NewEmbedder == nil || g.cfg.NewDriver == nil {
		return nil, errors.New("embedder and vector driver factories are required")
	}

	embedder, err := g.cfg.NewEmbedder()
	if err != nil {
		return nil, fmt.Errorf("building embedder: %w", err)
	}
	g.mu.Lock()
	g.embedder = embedder
	g.mu.Unlock()

	tmpl, err := id.Template()
	if err != nil {
		return nil, err
	}
	sampleText, err := tmpl.Render(StartupQuery)
	if err != nil {
		return nil, err
	}

	// A cached vector would hide an unreachable provider, so go to the provider itself.
	embedCtx, cancel := context.WithTimeout(ctx, g.cfg.EmbeddingTimeout)
	sample, err := embeddings.Unwrap(embedder).Embed(embedCtx, sampleText)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("embedding startup query: %w", err)
	}
	logger.Debug("embedder answered", "dimensions", len(sample))

	driver, err := g.cfg.NewDriver(ctx)
	if err != nil {
		return nil, fmt.Errorf("building vector driver: %w", err)
	}
	g.mu.Lock()
	g.driver = driver
	g.mu.Unlock()

	infoCtx, cancel := context.WithTimeout(ctx, g.cfg.VectorTimeout)
	info, err := driver.CollectionInfo(infoCtx, id.Name)
	cancel()
	if err != nil {
		if errors.Is(err, vector.ErrNotFound) {
			return nil, fmt.Errorf("collection %q does not exist: %w", id.Name, err)
		}
		return nil, fmt.Errorf("reading collection %q: %w", id.Name, err)
	}

	if uint(len(sample)) != id.Dimensions {
		return nil, fmt.Errorf("%w: model %s produces %d dimensions, configured %d",
			encoder.ErrDimensionMismatch, id.EmbeddingModel, len(sample), id.Dimensions)
	}
	if info.Dimensions != 0 && info.Dimensions != id.Dimensions {
		return nil, fmt.Errorf("%w: collection %s stores %d dimensions, configured %d",
			encoder.ErrDimensionMismatch, id.Name, info.Dimensions, id.Dimensions)
	}
	if info.Dimensions == 0 {
		logger.Warn("vector store did not report collection dimensions; skipping check")
	}

	enc, err := encoder.New(encoder.Config{
		Embedder: embedder,
		Identity: id,
		Timeout:  g.cfg.EmbeddingTimeout,
		Metrics:  g.cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}

	client, err := retrieval.NewClient(retrieval.ClientConfig{
		Driver:         driver,
		Collection:     id.Name,
		Timeout:        g.cfg.VectorTimeout,
		ScoreThreshold: g.cfg.ScoreThreshold,
		Metrics:        g.cfg.Metrics,
		Logger:         g.cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("collection verified",
		"dimensions", id.Dimensions,
		"points", info.PointCount,
	)

	return &Pipeline{
		Encoder:  enc,
		Client:   client,
		Identity: id,
	}, nil
}

// Close releases the embedder and driver built during verification.
// A gate that never started is marked Failed so a later Verify builds nothing.
// A running verification gets up to CloseTimeout to finish first.
func (g *Gate) Close() error {
	if g.state.CompareAndSwap(int32(Uninitialized), int32(Failed)) {
		g.mu.Lock()
		g.err = fmt.Errorf("%w: %w", retrieval.ErrConfiguration, errClosed)
		g.mu.Unlock()
		g.cfg.Metrics.SetReadiness(int(Failed))
		close(g.done)
		return nil
	}

	select {
	case <-g.done:
	case <-time.After(CloseTimeout):
		g.cfg.Logger.Warn("closing gate while verification is still running", "waited", CloseTimeout)
	}
	return g.closeResources()
}

func (g *Gate) closeResources() error {
	g.mu.Lock()
	embedder, driver := g.embedder, g.driver
	g.embedder, g.driver = nil, nil
	g.mu.Unlock()

	var errs []error
	if embedder != nil {
		errs = append(errs, embedder.Close())
	}
	if driver != nil {
		errs = append(errs, driver.Close())
	}
	return errors.Join(errs...)
}
