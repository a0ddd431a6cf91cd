// Package qdrant provides a vector.Driver backed by Qdrant's gRPC API.
package qdrant

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/elvenok1/servidor-api-rag/pkg/vector"
)

// DefaultPort is Qdrant's gRPC port.
const DefaultPort = 6334

// Config holds connection settings for a Qdrant deployment.
type Config struct {
	Host   string
	Port   int
	APIKey string

	// UseTLS enables transport security.
	UseTLS bool

	// SkipVerify disables certificate verification. Only meaningful with UseTLS.
	SkipVerify bool

	// HostOverride sets the gRPC authority (and TLS server name) for deployments
	// reached through a virtual-hosted reverse proxy.
	HostOverride string
}

// Driver implements vector.Driver against Qdrant.
type Driver struct {
	client *qdrant.Client
	logger *slog.Logger
}

// NewDriver opens a Qdrant client. The connection is established lazily.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.Host == "" {
		return nil, errors.New("qdrant host is required")
	}

	port := c.Port
	if port == 0 {
		port = DefaultPort
	}

	cfg := &qdrant.Config{
		Host:   c.Host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	}

	if c.UseTLS {
		tlsCfg := &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: c.SkipVerify, //nolint:gosec // opt-in for self-signed proxies
		}
		if c.HostOverride != "" {
			tlsCfg.ServerName = c.HostOverride
		}
		cfg.TLSConfig = tlsCfg
	}

	if c.HostOverride != "" {
		cfg.GrpcOptions = append(cfg.GrpcOptions, grpc.WithAuthority(c.HostOverride))
	}

	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}

	logger.Info("qdrant vector driver initialized",
		"host", c.Host,
		"port", port,
		"tls", c.UseTLS,
		"host_override", c.HostOverride,
	)

	return &Driver{
		client: client,
		logger: logger,
	}, nil
}

// CollectionInfo reports the collection's vector size and point count.
func (d *Driver) CollectionInfo(ctx context.Context, name string) (vector.CollectionInfo, error) {
	exists, err := d.client.CollectionExists(ctx, name)
	if err != nil {
		return vector.CollectionInfo{}, classify(err)
	}
	if !exists {
		return vector.CollectionInfo{}, fmt.Errorf("%w: %s", vector.ErrNotFound, name)
	}

	info, err := d.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return vector.CollectionInfo{}, classify(err)
	}

	return vector.CollectionInfo{
		Name:       name,
		Dimensions: dimensions(info),
		PointCount: info.GetPointsCount(),
	}, nil
}

// dimensions reads the vector size of an unnamed vector, or of the only named vector.
func dimensions(info *qdrant.CollectionInfo) uint {
	vectors := info.GetConfig().GetParams().GetVectorsConfig()
	if params := vectors.GetParams(); params != nil {
		return uint(params.GetSize())
	}

	named := vectors.GetParamsMap().GetMap()
	if len(named) == 1 {
		for _, params := range named {
			return uint(params.GetSize())
		}
	}
	return 0
}

// Query runs a nearest-neighbour query with payloads.
func (d *Driver) Query(ctx context.Context, req vector.QueryRequest) ([]vector.QueryResult, error) {
	if req.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", vector.ErrQuery, req.Limit)
	}

	query := &qdrant.QueryPoints{
		CollectionName: req.Collection,
		Query:          qdrant.NewQuery(req.Vector...),
		Limit:          qdrant.PtrOf(uint64(req.Limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if req.ScoreThreshold != 0 {
		query.ScoreThreshold = qdrant.PtrOf(req.ScoreThreshold)
	}

	points, err := d.client.Query(ctx, query)
	if err != nil {
		return nil, classify(err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, p := range points {
		results = append(results, vector.QueryResult{
			ID:      pointID(p.GetId()),
			Score:   p.GetScore(),
			Payload: payload(p.GetPayload()),
		})
	}

	d.logger.Debug("queried qdrant",
		"collection", req.Collection,
		"results", len(results),
	)

	return results, nil
}

// Close releases the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

func classify(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %v", vector.ErrNotFound, err)
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %v", vector.ErrConnection, err)
	default:
		return fmt.Errorf("%w: %v", vector.ErrQuery, err)
	}
}

func pointID(id *qdrant.PointId) string {
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

func payload(fields map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = value(v)
	}
	return out
}

func value(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_StructValue:
		return payload(kind.StructValue.GetFields())
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		list := make([]any, len(items))
		for i, item := range items {
			list[i] = value(item)
		}
		return list
	default:
		return nil
	}
}

var _ vector.Driver = (*Driver)(nil)
