// Package handlers implements the HTTP endpoints. Repositories are
// consumed through interfaces defined here, on the consumer side.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lis186/smart-tra-mcp-server-sub000/internal/clock"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/models"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/nlu"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/repository"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/schedule"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/station"
)

// TimetableRepository supplies per-date timetable rows for a station pair.
type TimetableRepository interface {
	GetTimetable(ctx context.Context, originID, destID, date string) ([]schedule.TrainTimetable, error)
}

// DelayRepository supplies live delay data.
type DelayRepository interface {
	GetDelaysByStation(ctx context.Context, stationID string) (map[string]schedule.LiveStatus, error)
	GetTrainDelay(ctx context.Context, trainNo string) (*schedule.LiveStatus, error)
}

// QueryHandler runs the full pipeline for free-form travel requests.
type QueryHandler struct {
	extractor *nlu.Extractor
	directory *station.Directory
	timetable TimetableRepository
	delays    DelayRepository
	selector  *schedule.Selector

	maxResults int
	now        func() time.Time
}

// NewQueryHandler wires the pipeline stages together. maxResults caps the
// primary tier per request.
func NewQueryHandler(extractor *nlu.Extractor, directory *station.Directory, timetable TimetableRepository, delays DelayRepository, selector *schedule.Selector, maxResults int) *QueryHandler {
	return &QueryHandler{
		extractor:  extractor,
		directory:  directory,
		timetable:  timetable,
		delays:     delays,
		selector:   selector,
		maxResults: maxResults,
		now:        time.Now,
	}
}

// HandleQuery handles POST /api/query. Partial understanding is a normal
// 200 response carrying a clarification payload; only transport and
// precondition problems map to error statuses.
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	started := h.now()

	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required", nil)
		return
	}

	resp := models.QueryResponse{
		RequestID:   uuid.NewString(),
		GeneratedAt: started.UTC(),
	}
	now := h.now()
	intent := h.extractor.Extract(req.Text, now)
	resp.Intent = intent

	// Bare train-number intents skip the trip pipeline entirely.
	if intent.TrainNo != "" && intent.Origin == "" && intent.Destination == "" {
		resp.TrainStatus = h.lookupTrainStatus(ctx, intent.TrainNo)
		h.finish(w, resp, started)
		return
	}

	if intent.Origin == "" || intent.Destination == "" {
		resp.Clarification = &models.Clarification{Reason: models.ReasonMissingPlaces}
		h.finish(w, resp, started)
		return
	}
	if !intent.Actionable() {
		resp.Clarification = &models.Clarification{Reason: models.ReasonLowConfidence}
		h.finish(w, resp, started)
		return
	}

	originMatches, err := h.directory.Resolve(intent.Origin, 0)
	if err != nil {
		h.resolverError(w, err)
		return
	}
	destMatches, err := h.directory.Resolve(intent.Destination, 0)
	if err != nil {
		h.resolverError(w, err)
		return
	}
	if len(originMatches) == 0 || len(destMatches) == 0 {
		clar := &models.Clarification{
			OriginOptions:      originMatches,
			DestinationOptions: destMatches,
		}
		if len(originMatches) == 0 {
			clar.Reason = models.ReasonUnknownOrigin
		} else {
			clar.Reason = models.ReasonUnknownDest
		}
		resp.Clarification = clar
		h.finish(w, resp, started)
		return
	}

	origin := originMatches[0]
	dest := destMatches[0]
	resp.Origin = &origin
	resp.Destination = &dest

	date := intent.Date
	if date == "" {
		date = clock.CivilDate(now)
	}
	resp.Date = date

	trains, err := h.timetable.GetTimetable(ctx, origin.StationID, dest.StationID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to retrieve timetable", map[string]any{"internal": err.Error()})
		return
	}

	delays, err := h.delays.GetDelaysByStation(ctx, origin.StationID)
	if err != nil {
		// Live data is best-effort: degrade to status-unknown.
		log.Printf("Query %s: live delay fetch failed: %v", resp.RequestID, err)
		delays = nil
	}

	ranked := h.selector.Select(trains, origin.StationID, dest.StationID, intent, delays, now, h.maxResults)
	resp.Primary = ranked.Primary
	resp.Backup = ranked.Backup
	resp.Warnings = ranked.Warnings

	h.finish(w, resp, started)
}

func (h *QueryHandler) lookupTrainStatus(ctx context.Context, trainNo string) *models.TrainStatus {
	status := &models.TrainStatus{TrainNo: trainNo}
	ls, err := h.delays.GetTrainDelay(ctx, trainNo)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("Train status %s: %v", trainNo, err)
		}
		return status
	}
	delay := ls.DelayMinutes
	status.StatusKnown = true
	status.DelayMinutes = &delay
	status.Status = ls.Status
	return status
}

func (h *QueryHandler) resolverError(w http.ResponseWriter, err error) {
	if errors.Is(err, station.ErrNotLoaded) {
		writeError(w, http.StatusServiceUnavailable, "station directory not loaded", nil)
		return
	}
	writeError(w, http.StatusInternalServerError, "failed to resolve station", map[string]any{"internal": err.Error()})
}

func (h *QueryHandler) finish(w http.ResponseWriter, resp models.QueryResponse, started time.Time) {
	log.Printf("Query %s: %q -> confidence %.2f, %d primary, %d backup (%s)",
		resp.RequestID, truncate(resp.Intent.Rules), resp.Intent.Confidence,
		len(resp.Primary), len(resp.Backup), time.Since(started).Round(time.Millisecond))
	writeJSON(w, http.StatusOK, resp)
}

func truncate(rules []string) []string {
	if len(rules) > 6 {
		return rules[:6]
	}
	return rules
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, details map[string]any) {
	writeJSON(w, status, models.ErrorResponse{Error: msg, Details: details})
}
