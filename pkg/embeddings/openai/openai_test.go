package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/elvenok1/servidor-api-rag/pkg/embeddings"
	"github.com/elvenok1/servidor-api-rag/pkg/embeddings/openai"
)

var _ = Describe("Embedder", func() {
	var (
		server  *httptest.Server
		handler http.HandlerFunc
	)

	BeforeEach(func() {
		handler = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("requires a model", func() {
		_, err := openai.NewEmbedder(openai.EmbedderConfig{})
		Expect(err).To(HaveOccurred())
	})

	It("returns the first embedding and sends credentials", func() {
		var got map[string]any
		handler = func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/embeddings"))
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-key"))
			Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[{"object":"embedding","index":0,"embedding":[0.5,0.25,0.125]}],"usage":{"prompt_tokens":3,"total_tokens":3}}`))
		}

		e, err := openai.NewEmbedder(openai.EmbedderConfig{
			BaseURL:    server.URL,
			APIKey:     "test-key",
			Model:      "text-embedding-3-small",
			Dimensions: 3,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Model()).To(Equal("text-embedding-3-small"))

		vec, err := e.Embed(context.Background(), "autofit columns")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(Equal([]float32{0.5, 0.25, 0.125}))
		Expect(got).To(HaveKeyWithValue("model", "text-embedding-3-small"))
		Expect(got).To(HaveKeyWithValue("dimensions", BeNumerically("==", 3)))
	})

	It("wraps API errors in ErrEmbedding", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
		}

		e, err := openai.NewEmbedder(openai.EmbedderConfig{BaseURL: server.URL, Model: "m"})
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(context.Background(), "x")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(err.Error()).To(ContainSubstring("invalid api key"))
	})

	It("gives up after the configured timeout", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		}

		e, err := openai.NewEmbedder(openai.EmbedderConfig{
			BaseURL: server.URL,
			Model:   "m",
			Timeout: 50 * time.Millisecond,
		})
		Expect(err).NotTo(HaveOccurred())

		start := time.Now()
		_, err = e.Embed(context.Background(), "x")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(err.Error()).To(ContainSubstring("Client.Timeout"))
		Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
	})

	It("fails on an empty data array", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
		}

		e, err := openai.NewEmbedder(openai.EmbedderConfig{BaseURL: server.URL, Model: "m"})
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(context.Background(), "x")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})
})
