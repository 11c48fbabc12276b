package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/lis186/smart-tra-mcp-server-sub000/internal/station"
)

// Pinger tests storage connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service health: storage reachable and station
// directory loaded.
type HealthHandler struct {
	pinger    Pinger
	directory *station.Directory
}

// NewHealthHandler creates a new handler.
func NewHealthHandler(pinger Pinger, directory *station.Directory) *HealthHandler {
	return &HealthHandler{pinger: pinger, directory: directory}
}

// Get handles GET /health.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]any{
		"status":    "ok",
		"database":  "connected",
		"stations":  h.directory.Size(),
		"timestamp": time.Now().UTC(),
	}
	if err := h.pinger.Ping(ctx); err != nil {
		body["status"] = "error"
		body["database"] = "disconnected"
		body["error"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	if !h.directory.Loaded() {
		body["status"] = "degraded"
	}
	writeJSON(w, http.StatusOK, body)
}
