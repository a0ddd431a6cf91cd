// Package cache provides an Embedder decorator that memoizes vectors in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/rueidis"

	"github.com/elvenok1/servidor-api-rag/pkg/embeddings"
)

// KeyPrefix namespaces every cache entry.
const KeyPrefix = "ragsearch:emb:"

// Options configures the cache decorator.
type Options struct {
	// TTL of a cached vector. Zero stores entries without expiry.
	TTL time.Duration

	// Lookups counts cache results with a single "result" label ("hit"/"miss"). Optional.
	Lookups *prometheus.CounterVec

	Logger *slog.Logger
}

// Embedder caches the vectors of an inner embedder.
// A cache failure never fails an Embed call; it falls through to the inner embedder.
type Embedder struct {
	inner   embeddings.Embedder
	client  rueidis.Client
	ttl     time.Duration
	lookups *prometheus.CounterVec
	logger  *slog.Logger
}

// Dial connects to Redis at addr and wraps inner.
func Dial(inner embeddings.Embedder, addr string, opts Options) (*Embedder, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to embedding cache: %w", err)
	}
	return New(inner, client, opts), nil
}

// New wraps inner with an existing rueidis client.
func New(inner embeddings.Embedder, client rueidis.Client, opts Options) *Embedder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Embedder{
		inner:   inner,
		client:  client,
		ttl:     opts.TTL,
		lookups: opts.Lookups,
		logger:  logger,
	}
}

// Unwrap returns the embedder whose vectors are cached.
func (e *Embedder) Unwrap() embeddings.Embedder {
	return e.inner
}

// Key returns the cache key for a model and text pair.
func Key(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return KeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Embed returns the cached vector for text or computes and stores it.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := Key(e.inner.Model(), text)

	if vec, ok := e.get(ctx, key); ok {
		e.count("hit")
		return vec, nil
	}
	e.count("miss")

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	e.put(ctx, key, vec)
	return vec, nil
}

// Model returns the inner embedder's model.
func (e *Embedder) Model() string {
	return e.inner.Model()
}

// Close closes the Redis client and the inner embedder.
func (e *Embedder) Close() error {
	e.client.Close()
	return e.inner.Close()
}

func (e *Embedder) count(result string) {
	if e.lookups != nil {
		e.lookups.WithLabelValues(result).Inc()
	}
}

func (e *Embedder) get(ctx context.Context, key string) ([]float32, bool) {
	data, err := e.client.Do(ctx, e.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if !rueidis.IsRedisNil(err) {
			e.logger.Warn("embedding cache lookup failed", "key", key, "error", err)
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := decode(data)
	if err != nil {
		e.logger.Warn("discarding corrupt cached embedding", "key", key, "error", err)
		return nil, false
	}
	return vec, true
}

func (e *Embedder) put(ctx context.Context, key string, vec []float32) {
	var cmd rueidis.Completed
	if e.ttl > 0 {
		cmd = e.client.B().Set().Key(key).Value(string(encode(vec))).Ex(e.ttl).Build()
	} else {
		cmd = e.client.B().Set().Key(key).Value(string(encode(vec))).Build()
	}
	if err := e.client.Do(ctx, cmd).Error(); err != nil {
		e.logger.Warn("embedding cache store failed", "key", key, "error", err)
	}
}

func encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decode(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid cached embedding length %d", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
