// Package api provides the HTTP API server for semantic search over a verified collection.
package api

import (
	"github.com/elvenok1/servidor-api-rag/pkg/metrics"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// Searcher serves /v1/search, /buscar and the MCP search tool.
	Searcher Searcher

	// Readiness reports startup verification for /readyz.
	Readiness Readiness

	// Metrics is optional. When set, HTTP requests are recorded and /metrics is served.
	Metrics *metrics.Metrics
}
