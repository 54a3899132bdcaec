package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Truncate", func() {
	It("returns the string unchanged when within the width", func() {
		Expect(Truncate("short", 10)).To(Equal("short"))
		Expect(Truncate("12345", 5)).To(Equal("12345"))
	})

	It("cuts to the width including the ellipsis", func() {
		Expect(Truncate("this is a long string", 10)).To(Equal("this is a…"))
	})

	It("counts wide runes as two cells", func() {
		Expect(Truncate("日本語のテキスト", 5)).To(Equal("日本…"))
	})
})

var _ = Describe("UserAgent", func() {
	It("names the build version", func() {
		Expect(UserAgent()).To(Equal("ledgerview/" + Version))
	})
})
