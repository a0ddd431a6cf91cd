// Package openai implements pkg/embeddings' Embedder against any
// OpenAI-compatible embeddings endpoint.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/elvenok1/servidor-api-rag/pkg/embeddings"
)

// DefaultBaseURL is the public OpenAI API.
const DefaultBaseURL = "https://api.openai.com/v1"

// DefaultTimeout bounds a single embedding request.
const DefaultTimeout = 30 * time.Second

// EmbedderConfig holds configuration for the OpenAI-compatible embedder.
type EmbedderConfig struct {
	// BaseURL of the API, including the version path (e.g. "http://localhost:8000/v1").
	BaseURL string

	// APIKey is sent as a bearer token. May be empty for local gateways.
	APIKey string

	// Model is the embedding model name.
	Model string

	// Dimensions requests truncated embeddings from models that support it. Zero leaves it unset.
	Dimensions int

	// Timeout is the HTTP client timeout. Defaults to DefaultTimeout if zero.
	Timeout time.Duration
}

// Embedder wraps the go-openai client.
type Embedder struct {
	client     *goopenai.Client
	model      string
	dimensions int
}

// NewEmbedder creates an OpenAI-compatible embedder.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	if cfg.Model == "" {
		return nil, errors.New("openai embedder requires a model")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = baseURL
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Embedder{
		client:     goopenai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := goopenai.EmbeddingRequest{
		Input:          []string{text},
		Model:          goopenai.EmbeddingModel(e.model),
		EncodingFormat: goopenai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, parseAPIError(err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", embeddings.ErrEmbedding)
	}

	return resp.Data[0].Embedding, nil
}

// Model returns the configured model name.
func (e *Embedder) Model() string {
	return e.model
}

// Close is a no-op; the underlying HTTP client holds no dedicated resources.
func (e *Embedder) Close() error {
	return nil
}

// parseAPIError extracts a readable message from the provider's error body.
func parseAPIError(err error) error {
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("%w: embedding API error %d: %s", embeddings.ErrEmbedding, reqErr.HTTPStatusCode, detail)
		}
		return fmt.Errorf("%w: embedding API error %d: %s", embeddings.ErrEmbedding, reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: embedding API error %d: %s", embeddings.ErrEmbedding, apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("%w: %v", embeddings.ErrEmbedding, err)
}

// extractDetail reads the "detail" field some gateways use instead of the OpenAI error envelope.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

var _ embeddings.Embedder = (*Embedder)(nil)
