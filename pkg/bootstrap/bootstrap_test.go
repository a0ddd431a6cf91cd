package bootstrap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apisearch "github.com/elvenok1/servidor-api-rag/api/search"
	"github.com/elvenok1/servidor-api-rag/pkg/bootstrap"
	"github.com/elvenok1/servidor-api-rag/pkg/config"
	"github.com/elvenok1/servidor-api-rag/pkg/eventstream/nop"
	"github.com/elvenok1/servidor-api-rag/pkg/logger"
	"github.com/elvenok1/servidor-api-rag/pkg/metrics"
	"github.com/elvenok1/servidor-api-rag/pkg/readiness"
	"github.com/elvenok1/servidor-api-rag/pkg/vector/sqlitevec"
)

var _ = Describe("NewGate", func() {
	var (
		ctx    context.Context
		ollama *httptest.Server
		cfg    *config.Config
	)

	BeforeEach(func() {
		ctx = context.Background()

		ollama = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/embed" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"model":      "all-minilm",
				"embeddings": [][]float32{{1, 0, 0, 0}},
			})
		}))
		DeferCleanup(ollama.Close)

		dbPath := filepath.Join(GinkgoT().TempDir(), "vectors.db")
		seed, err := sqlitevec.NewDriver(sqlitevec.Config{DBPath: dbPath}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(seed.CreateCollection(ctx, "openpyxl_docs", 4)).To(Succeed())
		Expect(seed.Upsert(ctx, "openpyxl_docs", []sqlitevec.Point{
			{ID: "merge", Vector: []float32{1, 0, 0, 0}, Payload: map[string]any{"text": "ws.merge_cells('A1:D1')"}},
			{ID: "freeze", Vector: []float32{0, 1, 0, 0}, Payload: map[string]any{"text": "ws.freeze_panes = 'B2'"}},
		})).To(Succeed())
		Expect(seed.Close()).To(Succeed())

		cfg = config.NewDefaultConfig()
		cfg.Collection.Name = "openpyxl_docs"
		cfg.Collection.Dimensions = 4
		cfg.Embedding.Target = ollama.URL
		cfg.VectorStore.Provider = "sqlite"
		cfg.VectorStore.Target = dbPath
	})

	It("verifies and serves searches against real providers", func() {
		gate := bootstrap.NewGate(cfg, metrics.New(), logger.Nop())
		DeferCleanup(gate.Close)

		Expect(gate.Verify(ctx)).To(Succeed())
		Expect(gate.State()).To(Equal(readiness.Ready))

		searcher, err := apisearch.NewSearcher(apisearch.Config{
			Pipelines:      gate,
			DefaultTopK:    cfg.Search.DefaultTopK,
			MaxTopK:        cfg.Search.MaxTopK,
			MaxQueryLength: cfg.Search.MaxQueryLength,
			Publisher:      nop.NewPublisher(),
		})
		Expect(err).NotTo(HaveOccurred())

		resp, err := searcher.Search(ctx, "how do I merge cells", apisearch.TopK(2))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Results).To(HaveLen(2))
		Expect(resp.Results[0].ID).To(Equal("merge"))
		Expect(resp.Results[0].Score).To(BeNumerically("~", 1.0, 1e-4))
	})

	It("fails verification when the collection is missing", func() {
		cfg.Collection.Name = "missing_collection"

		gate := bootstrap.NewGate(cfg, nil, logger.Nop())
		DeferCleanup(gate.Close)

		err := gate.Verify(ctx)
		Expect(err).To(MatchError(ContainSubstring("does not exist")))
		Expect(gate.State()).To(Equal(readiness.Failed))
	})

	It("fails verification for an unknown provider", func() {
		cfg.VectorStore.Provider = "milvus"

		gate := bootstrap.NewGate(cfg, nil, logger.Nop())
		DeferCleanup(gate.Close)

		Expect(gate.Verify(ctx)).To(MatchError(ContainSubstring("unsupported vector store provider")))
	})
})

var _ = Describe("NewPublisher", func() {
	It("builds a no-op publisher by default", func() {
		p, err := bootstrap.NewPublisher(config.NewDefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(nop.NewPublisher()))
	})

	It("rejects unknown providers", func() {
		cfg := config.NewDefaultConfig()
		cfg.Events.Provider = "pulsar"
		_, err := bootstrap.NewPublisher(cfg)
		Expect(err).To(MatchError(ContainSubstring("unsupported events provider")))
	})
})
