// Package vectorutils builds vector drivers from configuration.
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/elvenok1/servidor-api-rag/pkg/vector"
	"github.com/elvenok1/servidor-api-rag/pkg/vector/pgvector"
	"github.com/elvenok1/servidor-api-rag/pkg/vector/qdrant"
	"github.com/elvenok1/servidor-api-rag/pkg/vector/sqlitevec"
)

// Supported provider names.
const (
	ProviderQdrant   = "qdrant"
	ProviderSQLite   = "sqlite"
	ProviderPgvector = "pgvector"
)

type NewVectorDriverOpts struct {
	ProviderType string

	// Target is "host:port" for qdrant, a file path for sqlite and a
	// connection string for pgvector.
	Target string

	APIKey        string
	TLS           bool
	TLSSkipVerify bool
	HostOverride  string

	Logger *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case ProviderQdrant:
		host, port, err := splitTarget(o.Target, qdrant.DefaultPort)
		if err != nil {
			return nil, err
		}
		return qdrant.NewDriver(qdrant.Config{
			Host:         host,
			Port:         port,
			APIKey:       o.APIKey,
			UseTLS:       o.TLS,
			SkipVerify:   o.TLSSkipVerify,
			HostOverride: o.HostOverride,
		}, o.Logger)
	case ProviderSQLite:
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath: o.Target,
		}, o.Logger)
	case ProviderPgvector:
		return pgvector.NewDriver(ctx, o.Target, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

// splitTarget parses "host[:port]".
func splitTarget(target string, defaultPort int) (string, int, error) {
	if target == "" {
		return "", 0, fmt.Errorf("vector store target is required")
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// no port
		return target, defaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid vector store port in %q", target)
	}
	return host, port, nil
}
