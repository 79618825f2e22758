package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const APIKeyHeader = "X-API-Key"

// HTTPForwarder posts collected messages to a remote FileHub instance.
type HTTPForwarder struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

func NewHTTPForwarder(endpoint, apiKey string, timeout time.Duration, logger *slog.Logger) *HTTPForwarder {
	return &HTTPForwarder{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (f *HTTPForwarder) Deliver(ctx context.Context, msg Message) error {
	if msg.Links == nil {
		msg.Links = msg.AllLinks()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if f.apiKey != "" {
		req.Header.Set(APIKeyHeader, f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	f.logger.Info("message forwarded",
		"message_id", msg.ID,
		"attachments", len(msg.Attachments),
		"links", len(msg.Links))
	return nil
}
