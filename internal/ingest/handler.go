package ingest

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Ingester Ingester
	APIKey   string
}

func NewHandler(baseHandler *transport.BaseHandler, ingester Ingester, apiKey string) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Ingester:    ingester,
		APIKey:      apiKey,
	}
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.APIKey == "" {
		return false
	}
	got := r.Header.Get(APIKeyHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.APIKey)) == 1
}

// ReceiveMessage handles POST /api/files
func (h *Handler) ReceiveMessage(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.HandleServiceError(w, internal.ErrInvalidAPIKey)
		return
	}

	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg.ID == "" {
		h.HandleServiceError(w, internal.NewValidationFieldError("message_id", "message_id is required", internal.ErrCodeMissingFields))
		return
	}

	// finish the batch even if the collector hangs up
	result, err := h.Ingester.Ingest(context.WithoutCancel(r.Context()), msg)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("ReceiveMessage: ingested",
		"message_id", msg.ID,
		"stored", len(result.Stored),
		"skipped", len(result.Skipped))
	h.WriteJSON(w, http.StatusCreated, result)
}
