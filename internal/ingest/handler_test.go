package ingest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/filehub/internal/ingest"
	"github.com/frahmantamala/filehub/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingIngester struct {
	messages []ingest.Message
}

func (r *recordingIngester) Ingest(ctx context.Context, msg ingest.Message) (*ingest.Result, error) {
	r.messages = append(r.messages, msg)
	return &ingest.Result{MessageID: msg.ID, Stored: []string{"a.txt"}, Skipped: []ingest.Skipped{}, Links: msg.Links}, nil
}

var _ = Describe("Ingest Handler", func() {
	var (
		ingester *recordingIngester
		handler  *ingest.Handler
	)

	const payload = `{
		"message_id": "111",
		"uploader_id": "222",
		"uploader_name": "bob",
		"channel_id": "333",
		"channel_name": "general",
		"content_text": "here",
		"attachments": [{"filename": "a.txt", "url": "https://cdn/a.txt", "content_type": "text/plain", "size": 3}],
		"links": [],
		"timestamp": "2024-05-01T09:00:00.123000+00:00"
	}`

	BeforeEach(func() {
		ingester = &recordingIngester{}
		handler = ingest.NewHandler(transport.NewBaseHandler(quietLogger()), ingester, "secret")
	})

	post := func(body, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/files", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set(ingest.APIKeyHeader, key)
		}
		rec := httptest.NewRecorder()
		handler.ReceiveMessage(rec, req)
		return rec
	}

	It("ingests the payload synchronously", func() {
		rec := post(payload, "secret")
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(ingester.messages).To(HaveLen(1))

		msg := ingester.messages[0]
		Expect(msg.AuthorName).To(Equal("bob"))
		Expect(msg.Attachments[0].URL).To(Equal("https://cdn/a.txt"))
		Expect(msg.Timestamp.Year()).To(Equal(2024))

		var result ingest.Result
		Expect(json.Unmarshal(rec.Body.Bytes(), &result)).To(Succeed())
		Expect(result.Stored).To(Equal([]string{"a.txt"}))
	})

	It("rejects a missing or wrong API key", func() {
		Expect(post(payload, "").Code).To(Equal(http.StatusUnauthorized))
		Expect(post(payload, "nope").Code).To(Equal(http.StatusUnauthorized))
		Expect(ingester.messages).To(BeEmpty())
	})

	It("is closed when no API key is configured", func() {
		handler.APIKey = ""
		Expect(post(payload, "").Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects malformed payloads", func() {
		Expect(post(`{"message_id":`, "secret").Code).To(Equal(http.StatusBadRequest))
		Expect(post(`{"uploader_name":"bob"}`, "secret").Code).To(Equal(http.StatusBadRequest))
	})
})
