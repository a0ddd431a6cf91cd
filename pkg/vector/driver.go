// Package vector defines the read-only contract the search path needs from a vector store.
package vector

import "context"

// CollectionInfo describes a collection as reported by the backend.
type CollectionInfo struct {
	Name string

	// Dimensions is the vector length the collection stores.
	// Zero means the backend could not determine it (e.g. an empty table).
	Dimensions uint

	// PointCount is the number of stored points.
	PointCount uint64
}

// QueryRequest is a single similarity search.
type QueryRequest struct {
	Collection string
	Vector     []float32

	// Limit is the maximum number of results. Must be positive.
	Limit int

	// ScoreThreshold drops results scoring below it. Zero disables the filter.
	ScoreThreshold float32
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	ID string

	// Score represents the similarity score (higher = more similar).
	Score float32

	// Payload is the metadata stored alongside the vector at indexing time.
	Payload map[string]any
}

// Driver handles similarity search over an existing, pre-indexed collection.
// Implementations must be safe for concurrent use.
type Driver interface {
	// CollectionInfo reports the named collection's shape.
	// Returns ErrNotFound when the collection does not exist.
	CollectionInfo(ctx context.Context, name string) (CollectionInfo, error)

	// Query finds up to Limit points most similar to the request vector,
	// ordered by descending score.
	Query(ctx context.Context, req QueryRequest) ([]QueryResult, error)

	// Close releases any resources held by the driver.
	Close() error
}
