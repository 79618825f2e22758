package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

type Downloader interface {
	// Download opens the remote body. The caller closes it.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

type HTTPDownloader struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

// NewHTTPDownloader builds a downloader with a per-request timeout. A
// non-positive perSecond disables throttling.
func NewHTTPDownloader(timeout time.Duration, perSecond float64, burst int) *HTTPDownloader {
	d := &HTTPDownloader{
		Client: &http.Client{Timeout: timeout},
	}
	if perSecond > 0 {
		if burst < 1 {
			burst = 1
		}
		d.Limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return d
}

func (d *HTTPDownloader) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	if d.Limiter != nil {
		if err := d.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("download throttled: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
