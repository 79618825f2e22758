package ingest_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/filehub/internal/ingest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HTTPDownloader", func() {
	var server *httptest.Server

	BeforeEach(func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/ok.txt", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("remote bytes"))
		})
		mux.HandleFunc("/slow.txt", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		})
		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)
	})

	It("returns the body of a successful response", func() {
		d := ingest.NewHTTPDownloader(time.Second, 0, 0)
		body, err := d.Download(context.Background(), server.URL+"/ok.txt")
		Expect(err).NotTo(HaveOccurred())
		defer body.Close()

		data, err := io.ReadAll(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("remote bytes"))
	})

	It("treats non-200 responses as errors", func() {
		d := ingest.NewHTTPDownloader(time.Second, 0, 0)
		_, err := d.Download(context.Background(), server.URL+"/missing.txt")
		Expect(err).To(MatchError(ContainSubstring("status 404")))
	})

	It("gives up after the timeout", func() {
		d := ingest.NewHTTPDownloader(50*time.Millisecond, 0, 0)
		_, err := d.Download(context.Background(), server.URL+"/slow.txt")
		Expect(err).To(HaveOccurred())
	})

	It("throttles with the limiter and honours cancellation", func() {
		d := ingest.NewHTTPDownloader(time.Second, 0.001, 1)
		Expect(d.Limiter).NotTo(BeNil())

		body, err := d.Download(context.Background(), server.URL+"/ok.txt")
		Expect(err).NotTo(HaveOccurred())
		body.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = d.Download(ctx, server.URL+"/ok.txt")
		Expect(err).To(MatchError(ContainSubstring("throttled")))
	})
})
