package qdrant_test

import (
	"context"
	"net"
	"sync"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// fakeQdrant holds the state behind the subset of Qdrant's gRPC API the driver uses.
type fakeQdrant struct {
	collection string
	info       *qdrant.CollectionInfo

	mu       sync.Mutex
	points   []*qdrant.ScoredPoint
	queryErr error
	lastReq  *qdrant.QueryPoints
}

type healthService struct {
	qdrant.UnimplementedQdrantServer
}

type collectionsService struct {
	qdrant.UnimplementedCollectionsServer
	*fakeQdrant
}

type pointsService struct {
	qdrant.UnimplementedPointsServer
	*fakeQdrant
}

func (healthService) HealthCheck(context.Context, *qdrant.HealthCheckRequest) (*qdrant.HealthCheckReply, error) {
	return &qdrant.HealthCheckReply{Title: "qdrant - vector search engine", Version: "1.17.0"}, nil
}

func (f collectionsService) CollectionExists(_ context.Context, req *qdrant.CollectionExistsRequest) (*qdrant.CollectionExistsResponse, error) {
	return &qdrant.CollectionExistsResponse{
		Result: &qdrant.CollectionExists{Exists: req.GetCollectionName() == f.collection},
	}, nil
}

func (f collectionsService) Get(_ context.Context, req *qdrant.GetCollectionInfoRequest) (*qdrant.GetCollectionInfoResponse, error) {
	if req.GetCollectionName() != f.collection {
		return nil, status.Errorf(codes.NotFound, "Collection `%s` doesn't exist!", req.GetCollectionName())
	}
	return &qdrant.GetCollectionInfoResponse{Result: f.info}, nil
}

func (f pointsService) Query(_ context.Context, req *qdrant.QueryPoints) (*qdrant.QueryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastReq = req
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if req.GetCollectionName() != f.collection {
		return nil, status.Errorf(codes.NotFound, "Collection `%s` doesn't exist!", req.GetCollectionName())
	}

	points := f.points
	if limit := int(req.GetLimit()); limit > 0 && len(points) > limit {
		points = points[:limit]
	}
	return &qdrant.QueryResponse{Result: points}, nil
}

func (f *fakeQdrant) setQueryErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryErr = err
}

func (f *fakeQdrant) lastQuery() *qdrant.QueryPoints {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

// serve starts f on a loopback port and returns the port and a stop func.
func serve(f *fakeQdrant) (int, func()) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(err)
	}

	s := grpc.NewServer()
	qdrant.RegisterQdrantServer(s, healthService{})
	qdrant.RegisterCollectionsServer(s, collectionsService{fakeQdrant: f})
	qdrant.RegisterPointsServer(s, pointsService{fakeQdrant: f})

	go func() { _ = s.Serve(lis) }()

	return lis.Addr().(*net.TCPAddr).Port, s.Stop
}
