package vector

import "errors"

var (
	// ErrNotFound is returned when a collection does not exist in the vector store.
	ErrNotFound = errors.New("collection not found")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrQuery is returned when the vector store rejects or fails a query.
	ErrQuery = errors.New("vector query failed")
)
