package testutils

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	// Dimensions is the length of generated vectors.
	Dimensions int

	// ModelName is reported by Model. Defaults to "mock-embed".
	ModelName string

	mu         sync.Mutex
	Embeddings map[string][]float32

	// FailOn causes Embed to return an error when the input text matches
	FailOn string

	// Err, when set, is returned from every Embed call.
	Err error

	calls  atomic.Int64
	inputs []string
	closed atomic.Bool
}

func NewMockEmbedder(dimensions int) *MockEmbedder {
	return &MockEmbedder{
		Dimensions: dimensions,
		ModelName:  "mock-embed",
		Embeddings: make(map[string][]float32),
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls.Add(1)

	m.mu.Lock()
	m.inputs = append(m.inputs, text)
	emb, ok := m.Embeddings[text]
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("mock embedding failure for: %s", text)
	}
	if ok {
		return emb, nil
	}

	// Seeded by the text so equal inputs give equal vectors.
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, m.Dimensions)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(seed>>40) / float32(1<<24)
	}
	return vec, nil
}

func (m *MockEmbedder) Model() string {
	return m.ModelName
}

func (m *MockEmbedder) Close() error {
	m.closed.Store(true)
	return nil
}

// Calls returns how many times Embed was invoked.
func (m *MockEmbedder) Calls() int {
	return int(m.calls.Load())
}

// Inputs returns every text passed to Embed, in call order.
func (m *MockEmbedder) Inputs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.inputs...)
}

// Closed reports whether Close was called.
func (m *MockEmbedder) Closed() bool {
	return m.closed.Load()
}
