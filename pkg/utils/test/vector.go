package testutils

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/elvenok1/servidor-api-rag/pkg/vector"
)

// MockVectorDriver is a test vector driver
type MockVectorDriver struct {
	// Info is returned by CollectionInfo. InfoErr takes precedence.
	Info    vector.CollectionInfo
	InfoErr error

	// Results is the backend's answer, in backend order, before the limit is applied.
	Results []vector.QueryResult

	// Err, when set, is returned from every Query call.
	Err error

	mu       sync.Mutex
	requests []vector.QueryRequest
	queries  atomic.Int64
	closed   atomic.Bool
}

func NewMockVectorDriver(info vector.CollectionInfo) *MockVectorDriver {
	return &MockVectorDriver{Info: info}
}

func (m *MockVectorDriver) CollectionInfo(_ context.Context, name string) (vector.CollectionInfo, error) {
	if m.InfoErr != nil {
		return vector.CollectionInfo{}, m.InfoErr
	}
	if name != m.Info.Name {
		return vector.CollectionInfo{}, vector.ErrNotFound
	}
	return m.Info, nil
}

func (m *MockVectorDriver) Query(_ context.Context, req vector.QueryRequest) ([]vector.QueryResult, error) {
	m.queries.Add(1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Results) < req.Limit {
		return m.Results, nil
	}
	return m.Results[:req.Limit], nil
}

func (m *MockVectorDriver) Close() error {
	m.closed.Store(true)
	return nil
}

// Queries returns how many times Query was invoked.
func (m *MockVectorDriver) Queries() int {
	return int(m.queries.Load())
}

// Requests returns every request passed to Query, in call order.
func (m *MockVectorDriver) Requests() []vector.QueryRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]vector.QueryRequest(nil), m.requests...)
}

// Closed reports whether Close was called.
func (m *MockVectorDriver) Closed() bool {
	return m.closed.Load()
}
