package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/elvenok1/servidor-api-rag/pkg/eventstream"
	"github.com/elvenok1/servidor-api-rag/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	It("returns ErrNilSearchEvent for nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishSearch(context.Background(), nil)
		Expect(err).To(MatchError(eventstream.ErrNilSearchEvent))
	})

	It("succeeds for non-nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishSearch(context.Background(), &eventstream.SearchPerformedEvent{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("closes successfully", func() {
		Expect(nop.NewPublisher().Close()).To(Succeed())
	})
})
