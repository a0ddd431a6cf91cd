package mcp

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/elvenok1/servidor-api-rag/pkg/logger"
)

var _ = Describe("MCP Server", func() {
	Describe("NewServer", func() {
		It("returns an error when searcher is nil", func() {
			_, err := NewServer(Config{Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("searcher is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := NewServer(Config{Searcher: &fakeSearcher{}})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("creates an empty server in noop mode", func() {
			s, err := NewServer(Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Handler()).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			s, err := NewServer(Config{Searcher: &fakeSearcher{}, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Handler()).NotTo(BeNil())
		})
	})
})
