package encoder_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/elvenok1/servidor-api-rag/pkg/collection"
	"github.com/elvenok1/servidor-api-rag/pkg/embeddings"
	"github.com/elvenok1/servidor-api-rag/pkg/encoder"
	testutils "github.com/elvenok1/servidor-api-rag/pkg/utils/test"
)

var _ = Describe("Encoder", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
		identity collection.Identity
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder(8)
		identity = collection.Identity{
			Name:           "openpyxl_final_v2",
			EmbeddingModel: "mock-embed",
			Dimensions:     8,
		}
	})

	It("requires an embedder", func() {
		_, err := encoder.New(encoder.Config{Identity: identity})
		Expect(err).To(HaveOccurred())
	})

	It("rejects an invalid identity", func() {
		identity.Dimensions = 0
		_, err := encoder.New(encoder.Config{Embedder: embedder, Identity: identity})
		Expect(err).To(MatchError(collection.ErrInvalidIdentity))
	})

	It("returns vectors of exactly the collection's dimensions", func() {
		enc, err := encoder.New(encoder.Config{Embedder: embedder, Identity: identity})
		Expect(err).NotTo(HaveOccurred())
		Expect(enc.Dimensions()).To(Equal(8))

		for _, q := range []string{"a", "how do I merge cells", "ñandú 日本語"} {
			vec, err := enc.Encode(ctx, q)
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).To(HaveLen(8))
		}
	})

	It("is deterministic", func() {
		enc, err := encoder.New(encoder.Config{Embedder: embedder, Identity: identity})
		Expect(err).NotTo(HaveOccurred())

		first, err := enc.Encode(ctx, "freeze panes")
		Expect(err).NotTo(HaveOccurred())
		second, err := enc.Encode(ctx, "freeze panes")
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})

	It("passes the query through unchanged without a template", func() {
		enc, err := encoder.New(encoder.Config{Embedder: embedder, Identity: identity})
		Expect(err).NotTo(HaveOccurred())

		_, err = enc.Encode(ctx, "load_workbook")
		Expect(err).NotTo(HaveOccurred())
		Expect(embedder.Inputs()).To(Equal([]string{"load_workbook"}))
	})

	It("embeds the rendered template", func() {
		identity.ContextTemplate = "Represent this openpyxl question for retrieval: {{.Query}}"
		enc, err := encoder.New(encoder.Config{Embedder: embedder, Identity: identity})
		Expect(err).NotTo(HaveOccurred())

		rendered, err := enc.Render("set column width")
		Expect(err).NotTo(HaveOccurred())
		Expect(rendered).To(Equal("Represent this openpyxl question for retrieval: set column width"))

		_, err = enc.Encode(ctx, "set column width")
		Expect(err).NotTo(HaveOccurred())
		Expect(embedder.Inputs()).To(Equal([]string{rendered}))
	})

	It("reports a dimension mismatch from the provider", func() {
		embedder.Embeddings["short"] = []float32{1, 2, 3}
		enc, err := encoder.New(encoder.Config{Embedder: embedder, Identity: identity})
		Expect(err).NotTo(HaveOccurred())

		_, err = enc.Encode(ctx, "short")
		Expect(err).To(MatchError(encoder.ErrDimensionMismatch))
		Expect(err.Error()).To(ContainSubstring("returned 3 dimensions, collection expects 8"))
	})

	It("propagates provider failures", func() {
		embedder.Err = errors.Join(embeddings.ErrEmbedding, errors.New("connection refused"))
		enc, err := encoder.New(encoder.Config{Embedder: embedder, Identity: identity})
		Expect(err).NotTo(HaveOccurred())

		_, err = enc.Encode(ctx, "x")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})
})
