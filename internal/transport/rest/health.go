package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/frahmantamala/filehub/internal/collector"
	"github.com/frahmantamala/filehub/internal/database"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

// CollectorStatus is implemented by *collector.Listener.
type CollectorStatus interface {
	State() collector.State
	Active() bool
}

type HealthHandler struct {
	conns     database.Conns
	collector CollectorStatus
}

// NewHealthHandler checks both SQLite files. collector may be nil when the
// web server runs without the chat listener.
func NewHealthHandler(conns database.Conns, collector CollectorStatus) *HealthHandler {
	return &HealthHandler{conns: conns, collector: collector}
}

// pingHandler → just says service is up
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "OK"}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *HealthHandler) checkDatabase(ctx context.Context, name database.Name) CheckEntry {
	start := time.Now()
	entry := CheckEntry{Status: HealthHealthy}

	err := func() error {
		db, release, err := h.conns.Conn(ctx, name)
		if err != nil {
			return err
		}
		defer release()
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}()
	if err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}

	entry.CheckedAt = time.Now()
	entry.DurationMs = time.Since(start).Milliseconds()
	return entry
}

// healthCheckHandler → checks both databases and reports the collector
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:     HealthHealthy,
		Components: make(map[string]CheckEntry, len(database.Names)+1),
	}
	for _, name := range database.Names {
		entry := h.checkDatabase(ctx, name)
		if entry.Status == HealthUnhealthy {
			resp.Status = HealthUnhealthy
		}
		resp.Components[string(name)+"_db"] = entry
	}

	// the collector is informational; a disconnected bot does not fail the check
	if h.collector != nil {
		resp.Components["collector"] = CheckEntry{
			Status:    HealthHealthy,
			CheckedAt: time.Now(),
			Details: map[string]any{
				"state":  h.collector.State().String(),
				"active": h.collector.Active(),
			},
		}
	}
	resp.CheckedAt = time.Now()

	statusCode := http.StatusOK
	if resp.Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}
