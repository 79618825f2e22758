package ingest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/filehub/internal/ingest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HTTPForwarder", func() {
	var (
		status   int
		received map[string]interface{}
		apiKey   string
		server   *httptest.Server
	)

	BeforeEach(func() {
		status = http.StatusCreated
		received = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey = r.Header.Get(ingest.APIKeyHeader)
			_ = json.NewDecoder(r.Body).Decode(&received)
			w.WriteHeader(status)
		}))
		DeferCleanup(server.Close)
	})

	msg := ingest.Message{
		ID:          "42",
		AuthorID:    "7",
		AuthorName:  "bob",
		ChannelID:   "9",
		ChannelName: "general",
		Content:     "see https://example.com",
		Attachments: []ingest.Attachment{{Filename: "a.txt", URL: "https://cdn/a.txt", Size: 3}},
		Timestamp:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	It("posts the collector payload with the API key", func() {
		f := ingest.NewHTTPForwarder(server.URL+"/api/files", "secret", time.Second, quietLogger())
		Expect(f.Deliver(context.Background(), msg)).To(Succeed())

		Expect(apiKey).To(Equal("secret"))
		Expect(received).To(HaveKeyWithValue("message_id", "42"))
		Expect(received).To(HaveKeyWithValue("uploader_name", "bob"))
		Expect(received).To(HaveKeyWithValue("content_text", "see https://example.com"))
		Expect(received).To(HaveKeyWithValue("links", ConsistOf("https://example.com")))
		Expect(received).To(HaveKeyWithValue("timestamp", "2024-01-02T03:04:05Z"))
		Expect(received).NotTo(HaveKey("AuthorBot"))
	})

	It("reports backend errors", func() {
		status = http.StatusInternalServerError
		f := ingest.NewHTTPForwarder(server.URL, "", time.Second, quietLogger())
		Expect(f.Deliver(context.Background(), msg)).To(MatchError(ContainSubstring("status 500")))
	})
})
