// Package search orchestrates one search request over the verified pipeline.
// It is used by both the REST API endpoints and the MCP server tool.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/elvenok1/servidor-api-rag/pkg/eventstream"
	"github.com/elvenok1/servidor-api-rag/pkg/metrics"
	"github.com/elvenok1/servidor-api-rag/pkg/readiness"
	"github.com/elvenok1/servidor-api-rag/pkg/retrieval"
)

const (
	DefaultTopK           = 5
	DefaultMaxTopK        = 100
	DefaultMaxQueryLength = 2048

	publishTimeout = 5 * time.Second
)

// SearchInput represents the input arguments for a search request.
// A nil TopK selects the configured default; an explicit value must be in
// [1, max_top_k].
type SearchInput struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k,omitempty"`
}

// TopK returns a pointer to n, for SearchInput.TopK and Searcher.Search.
func TopK(n int) *int {
	return &n
}

// PipelineSource yields the verified pipeline or ErrServiceUnavailable.
// *readiness.Gate implements it.
type PipelineSource interface {
	Pipeline() (*readiness.Pipeline, error)
}

// Config configures a Searcher.
type Config struct {
	Pipelines PipelineSource

	// DefaultTopK is used when a caller omits top_k.
	DefaultTopK int

	// MaxTopK is the largest accepted top_k. Larger values are rejected.
	MaxTopK int

	// MaxQueryLength is the largest accepted query, in characters, after trimming.
	MaxQueryLength int

	// Publisher receives a SearchPerformedEvent after each successful search. Optional.
	Publisher eventstream.Publisher

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Searcher validates a query, encodes it and searches the collection.
type Searcher struct {
	pipelines      PipelineSource
	defaultTopK    int
	maxTopK        int
	maxQueryLength int
	publisher      eventstream.Publisher
	metrics        *metrics.Metrics
	logger         *slog.Logger

	inflight sync.WaitGroup
}

// NewSearcher creates a Searcher.
func NewSearcher(c Config) (*Searcher, error) {
	if c.Pipelines == nil {
		return nil, errors.New("pipeline source is required")
	}

	s := &Searcher{
		pipelines:      c.Pipelines,
		defaultTopK:    c.DefaultTopK,
		maxTopK:        c.MaxTopK,
		maxQueryLength: c.MaxQueryLength,
		publisher:      c.Publisher,
		metrics:        c.Metrics,
		logger:         c.Logger,
	}
	if s.defaultTopK <= 0 {
		s.defaultTopK = DefaultTopK
	}
	if s.maxTopK <= 0 {
		s.maxTopK = DefaultMaxTopK
	}
	if s.maxQueryLength <= 0 {
		s.maxQueryLength = DefaultMaxQueryLength
	}
	if s.defaultTopK > s.maxTopK {
		return nil, fmt.Errorf("default top_k %d exceeds max top_k %d", s.defaultTopK, s.maxTopK)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s, nil
}

// Search runs the full pipeline for one query. A nil topK selects the
// default; an explicit value below 1 or above the maximum is rejected.
// The result is all-or-nothing: any failure returns no hits.
//
// Errors wrap one of retrieval.ErrServiceUnavailable, retrieval.ErrInvalidArgument
// or retrieval.ErrRetrievalFailure.
func (s *Searcher) Search(ctx context.Context, query string, topK *int) (*retrieval.Response, error) {
	start := time.Now()

	resp, err := s.search(ctx, query, topK, start)

	results := -1
	if resp != nil {
		results = len(resp.Results)
	}
	s.metrics.ObserveSearch(retrieval.KindOf(err), time.Since(start), results)

	if err != nil {
		s.logger.Debug("search failed",
			"request_id", RequestID(ctx),
			"status", retrieval.KindOf(err),
			"error", err,
		)
		return nil, err
	}
	return resp, nil
}

func (s *Searcher) search(ctx context.Context, rawQuery string, rawTopK *int, start time.Time) (*retrieval.Response, error) {
	p, err := s.pipelines.Pipeline()
	if err != nil {
		return nil, err
	}

	query, topK, err := s.validate(rawQuery, rawTopK)
	if err != nil {
		return nil, err
	}

	vec, err := p.Encoder.Encode(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding query: %w", retrieval.ErrRetrievalFailure, err)
	}

	hits, err := p.Client.Search(ctx, vec, topK)
	if err != nil {
		return nil, err
	}

	resp := retrieval.NewResponse(hits)
	s.logger.Debug("search completed",
		"request_id", RequestID(ctx),
		"top_k", topK,
		"results", len(resp.Results),
		"duration", time.Since(start),
	)

	s.publish(ctx, p, query, topK, start, resp)
	return resp, nil
}

func (s *Searcher) validate(query string, topK *int) (string, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return query, 0, fmt.Errorf("%w: query must not be empty", retrieval.ErrInvalidArgument)
	}
	if n := utf8.RuneCountInString(query); n > s.maxQueryLength {
		return query, 0, fmt.Errorf("%w: query is %d characters, the maximum is %d",
			retrieval.ErrInvalidArgument, n, s.maxQueryLength)
	}

	if topK == nil {
		return query, s.defaultTopK, nil
	}
	if *topK < 1 || *topK > s.maxTopK {
		return query, 0, fmt.Errorf("%w: top_k must be between 1 and %d, got %d",
			retrieval.ErrInvalidArgument, s.maxTopK, *topK)
	}
	return query, *topK, nil
}

// publish emits the search event in the background. It never affects the response.
func (s *Searcher) publish(ctx context.Context, p *readiness.Pipeline, query string, topK int, start time.Time, resp *retrieval.Response) {
	if s.publisher == nil {
		return
	}

	now := time.Now().UTC()
	event := &eventstream.SearchPerformedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeSearchPerformed,
		EventID:       uuid.NewString(),
		EmittedAt:     now,
		Collection: eventstream.CollectionMeta{
			Name:           p.Identity.Name,
			EmbeddingModel: p.Identity.EmbeddingModel,
			Fingerprint:    p.Identity.Fingerprint(),
		},
		Request: eventstream.SearchRequestMeta{
			RequestID:   RequestID(ctx),
			Query:       query,
			TopK:        topK,
			StartedAt:   start.UTC(),
			CompletedAt: now,
			DurationMs:  now.Sub(start).Milliseconds(),
		},
		Results: make([]eventstream.ResultMeta, 0, len(resp.Results)),
	}
	for _, h := range resp.Results {
		event.Results = append(event.Results, eventstream.ResultMeta{ID: h.ID, Score: h.Score})
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()

		if err := s.publisher.PublishSearch(pubCtx, event); err != nil {
			s.logger.Warn("failed to publish search event",
				"event_id", event.EventID,
				"error", err,
			)
		}
	}()
}

// Close waits for in-flight event publishes and closes the publisher.
func (s *Searcher) Close() error {
	s.inflight.Wait()
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Close()
}

type requestIDKey struct{}

// WithRequestID returns a context carrying id for logs and events.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id carried by ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
