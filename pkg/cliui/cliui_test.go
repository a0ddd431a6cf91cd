package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/elvenok1/servidor-api-rag/pkg/cliui"
)

var _ = Describe("cliui", func() {
	Describe("FormatDuration", func() {
		It("formats sub-second durations as milliseconds", func() {
			Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
		})

		It("formats longer durations as seconds", func() {
			Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
		})
	})

	Describe("Mark", func() {
		It("returns the success mark for nil", func() {
			Expect(cliui.Mark(nil)).To(ContainSubstring("✓"))
		})

		It("returns the fail mark for errors", func() {
			Expect(cliui.Mark(errors.New("x"))).To(ContainSubstring("✗"))
		})
	})

	Describe("Step", func() {
		It("returns the step error and prints the outcome", func() {
			var buf bytes.Buffer
			boom := errors.New("boom")

			err := cliui.Step(&buf, "verifying collection", func() error { return boom })
			Expect(err).To(MatchError(boom))
			Expect(buf.String()).To(ContainSubstring("verifying collection"))
			Expect(buf.String()).To(ContainSubstring("✗"))
		})

		It("prints a success mark", func() {
			var buf bytes.Buffer

			Expect(cliui.Step(&buf, "checking embedder", func() error { return nil })).To(Succeed())
			Expect(buf.String()).To(ContainSubstring("✓"))
		})
	})

	It("does not treat a buffer as a terminal", func() {
		Expect(cliui.IsTerminal(&bytes.Buffer{})).To(BeFalse())
	})

	It("renders markdown", func() {
		out, err := cliui.RenderMarkdown("# Results")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Results"))
	})
})
