// Package embeddings defines the text embedding contract and its providers.
package embeddings

import (
	"context"
	"errors"
)

// ErrEmbedding is returned when embedding generation fails.
var ErrEmbedding = errors.New("embedding failed")

// Embedder provides text embedding capabilities.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model returns the provider model identifier used for embeddings.
	Model() string

	// Close releases any resources held by the embedder.
	Close() error
}

// Unwrap returns the provider beneath any decorators around e. A decorator
// exposes its inner embedder with an Unwrap() Embedder method.
func Unwrap(e Embedder) Embedder {
	for {
		w, ok := e.(interface{ Unwrap() Embedder })
		if !ok {
			return e
		}
		e = w.Unwrap()
	}
}
