package prompts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/flowchat/pkg/prompts"
)

var _ = Describe("Catalog", func() {
	It("ships three default categories of two prompts", func() {
		c := prompts.Default()
		Expect(c.Categories()).To(HaveLen(3))
		Expect(c.Len()).To(Equal(6))
		Expect(c.Categories()[0].Name).To(Equal("Taxation"))
	})

	It("numbers entries from 1 across categories", func() {
		c := prompts.Default()
		entries := c.Entries()
		Expect(entries[0].Index).To(Equal(1))
		Expect(entries[2].Index).To(Equal(3))
		Expect(entries[2].Category).To(Equal("IPO"))
	})

	It("looks up prompts by flat index", func() {
		c := prompts.Default()
		p, err := c.Lookup(2)
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal("What is the new Indirect Tax rate"))
	})

	It("rejects out of range indexes", func() {
		c := prompts.Default()
		_, err := c.Lookup(0)
		Expect(err).To(MatchError(prompts.ErrPromptNotFound))

		_, err = c.Lookup(7)
		Expect(err).To(MatchError(prompts.ErrPromptNotFound))
	})

	It("drops empty categories", func() {
		c := prompts.NewCatalog([]prompts.Category{
			{Name: "Empty"},
			{Name: "Audit", Prompts: []string{"What does an audit cover"}},
		})
		Expect(c.Categories()).To(HaveLen(1))
		Expect(c.Entries()[0].Category).To(Equal("Audit"))
	})

	It("does not share category slices with callers", func() {
		src := []prompts.Category{{Name: "Audit", Prompts: []string{"a"}}}
		c := prompts.NewCatalog(src)
		src[0].Prompts[0] = "changed"

		p, err := c.Lookup(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal("a"))
	})
})
