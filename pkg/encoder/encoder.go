// Package encoder turns query text into a vector in a collection's embedding space.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elvenok1/servidor-api-rag/pkg/collection"
	"github.com/elvenok1/servidor-api-rag/pkg/embeddings"
	"github.com/elvenok1/servidor-api-rag/pkg/metrics"
)

// ErrDimensionMismatch is returned when the embedder produces a vector whose
// length differs from the collection's dimensions.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// DefaultTimeout bounds a single embedding call.
const DefaultTimeout = 30 * time.Second

// Config configures an Encoder.
type Config struct {
	Embedder embeddings.Embedder
	Identity collection.Identity

	// Timeout bounds each embedding call. Defaults to DefaultTimeout.
	Timeout time.Duration

	Metrics *metrics.Metrics
}

// Encoder renders queries through the collection's context template and embeds them.
// For a fixed configuration, equal inputs give equal vectors.
type Encoder struct {
	embedder   embeddings.Embedder
	template   *collection.Template
	dimensions int
	timeout    time.Duration
	metrics    *metrics.Metrics
}

// New creates an Encoder for the given identity.
func New(c Config) (*Encoder, error) {
	if c.Embedder == nil {
		return nil, errors.New("encoder requires an embedder")
	}
	if err := c.Identity.Validate(); err != nil {
		return nil, err
	}

	tmpl, err := c.Identity.Template()
	if err != nil {
		return nil, err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Encoder{
		embedder:   c.Embedder,
		template:   tmpl,
		dimensions: int(c.Identity.Dimensions),
		timeout:    timeout,
		metrics:    c.Metrics,
	}, nil
}

// Dimensions is the length of every vector Encode returns.
func (e *Encoder) Dimensions() int {
	return e.dimensions
}

// Render returns the exact text passed to the embedder for query.
func (e *Encoder) Render(query string) (string, error) {
	return e.template.Render(query)
}

// Encode embeds the rendered query. Callers validate that query is non-empty.
func (e *Encoder) Encode(ctx context.Context, query string) ([]float32, error) {
	text, err := e.Render(query)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	vec, err := e.embedder.Embed(ctx, text)
	e.metrics.ObserveEmbedding(time.Since(start))
	if err != nil {
		return nil, err
	}

	if len(vec) != e.dimensions {
		return nil, fmt.Errorf("%w: model %s returned %d dimensions, collection expects %d",
			ErrDimensionMismatch, e.embedder.Model(), len(vec), e.dimensions)
	}

	return vec, nil
}
