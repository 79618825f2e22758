package ingest_test

import (
	"github.com/frahmantamala/filehub/internal/ingest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Message", func() {
	DescribeTable("ExtractLinks",
		func(text string, expected []string) {
			Expect(ingest.ExtractLinks(text)).To(Equal(expected))
		},
		Entry("no links", "just chatting", nil),
		Entry("one link", "see https://example.com/a?b=1 please", []string{"https://example.com/a?b=1"}),
		Entry("mixed case scheme", "HTTP://EXAMPLE.com and Https://x.io", []string{"HTTP://EXAMPLE.com", "Https://x.io"}),
		Entry("links stop at whitespace", "http://a.b/c\nhttp://d.e", []string{"http://a.b/c", "http://d.e"}),
		Entry("other schemes are ignored", "ftp://host/file", nil),
	)

	It("falls back to the text when no links were captured", func() {
		msg := ingest.Message{Content: "read https://docs.example.com"}
		Expect(msg.AllLinks()).To(Equal([]string{"https://docs.example.com"}))
		Expect(msg.Collectable()).To(BeTrue())
	})

	It("is not collectable without attachments or links", func() {
		Expect(ingest.Message{Content: "hello"}.Collectable()).To(BeFalse())
	})

	It("is collectable with an attachment alone", func() {
		msg := ingest.Message{Attachments: []ingest.Attachment{{Filename: "a.png"}}}
		Expect(msg.Collectable()).To(BeTrue())
	})
})
