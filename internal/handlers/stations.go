package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/lis186/smart-tra-mcp-server-sub000/internal/models"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/station"
)

// StationRepository supplies the bulk station directory.
type StationRepository interface {
	GetAllStations(ctx context.Context) ([]station.Record, error)
}

// StationHandler exposes the place resolver and the directory rebuild
// entry point.
type StationHandler struct {
	directory *station.Directory
	stations  StationRepository
}

// NewStationHandler creates a new handler with the given repository.
func NewStationHandler(directory *station.Directory, stations StationRepository) *StationHandler {
	return &StationHandler{directory: directory, stations: stations}
}

// Resolve handles GET /api/stations/resolve?q=...&limit=...
func (h *StationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q parameter is required", nil)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}

	matches, err := h.directory.Resolve(query, limit)
	if err != nil {
		if errors.Is(err, station.ErrNotLoaded) {
			writeError(w, http.StatusServiceUnavailable, "station directory not loaded", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to resolve station", map[string]any{"internal": err.Error()})
		return
	}
	if matches == nil {
		matches = []station.Match{}
	}
	writeJSON(w, http.StatusOK, models.ResolveResponse{Query: query, Matches: matches, Count: len(matches)})
}

// Reload handles POST /api/stations/reload: re-read the directory from the
// repository, rebuild the index in one pass and swap it in atomically.
// In-flight resolutions keep the previous snapshot.
func (h *StationHandler) Reload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.stations.GetAllStations(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stations", map[string]any{"internal": err.Error()})
		return
	}
	h.directory.Load(records)
	log.Printf("Stations: directory reloaded, %d records", len(records))
	writeJSON(w, http.StatusOK, models.ReloadResponse{Stations: len(records), ReloadedAt: time.Now().UTC()})
}
