package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("truncate", func() {
	It("returns the string unchanged when within the limit", func() {
		Expect(Truncate("short", 10)).To(Equal("short"))
	})

	It("returns the string unchanged when exactly at the limit", func() {
		Expect(Truncate("12345", 5)).To(Equal("12345"))
	})

	It("truncates with ellipsis when over the limit", func() {
		result := Truncate("this is a long string", 10)
		Expect(result).To(Equal("this is a ..."))
	})
})

var _ = Describe("Truncate with multi-byte text", func() {
	It("does not split runes", func() {
		result := Truncate("cómo cambiar el color de relleno", 4)
		Expect(result).To(Equal("cómo..."))
	})
})

var _ = Describe("SingleLine", func() {
	It("collapses whitespace runs", func() {
		Expect(SingleLine("a\n\tb   c\n")).To(Equal("a b c"))
	})
})
