package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/elvenok1/servidor-api-rag/pkg/metrics"
	"github.com/elvenok1/servidor-api-rag/pkg/vector"
)

// DefaultTimeout bounds a single vector store call.
const DefaultTimeout = 20 * time.Second

// ClientConfig configures a Client.
type ClientConfig struct {
	Driver     vector.Driver
	Collection string

	// Timeout bounds each backend call. Defaults to DefaultTimeout.
	Timeout time.Duration

	// ScoreThreshold is forwarded to the backend. Zero disables it.
	ScoreThreshold float32

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Client searches one collection. Collection existence and shape are
// checked once at startup, not on each call.
type Client struct {
	driver         vector.Driver
	collection     string
	timeout        time.Duration
	scoreThreshold float32
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// NewClient creates a Client.
func NewClient(c ClientConfig) (*Client, error) {
	if c.Driver == nil {
		return nil, errors.New("retrieval client requires a vector driver")
	}
	if c.Collection == "" {
		return nil, errors.New("retrieval client requires a collection name")
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		driver:         c.Driver,
		collection:     c.Collection,
		timeout:        timeout,
		scoreThreshold: c.ScoreThreshold,
		metrics:        c.Metrics,
		logger:         logger,
	}, nil
}

// Collection returns the searched collection name.
func (c *Client) Collection() string {
	return c.collection
}

// Search returns at most limit hits ordered by descending score. Hits with
// equal scores keep the backend's order. A backend failure is returned as
// ErrRetrievalFailure, never as an empty result.
func (c *Client) Search(ctx context.Context, vec []float32, limit int) ([]Hit, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidArgument, limit)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	results, err := c.driver.Query(ctx, vector.QueryRequest{
		Collection:     c.collection,
		Vector:         vec,
		Limit:          limit,
		ScoreThreshold: c.scoreThreshold,
	})
	c.metrics.ObserveVectorQuery(time.Since(start))
	if err != nil {
		c.logger.Warn("vector query failed",
			"collection", c.collection,
			"error", err,
		)
		return nil, fmt.Errorf("%w: searching %s: %w", ErrRetrievalFailure, c.collection, err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, hitFromResult(r))
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	return hits, nil
}
