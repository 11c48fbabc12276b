package handlers

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/lis186/smart-tra-mcp-server-sub000/internal/models"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/repository"
)

var reTrainNoParam = regexp.MustCompile(`^[0-9]{1,4}$`)

// TrainHandler answers live status lookups for a single train number.
type TrainHandler struct {
	delays DelayRepository
}

// NewTrainHandler creates a new handler with the given repository.
func NewTrainHandler(delays DelayRepository) *TrainHandler {
	return &TrainHandler{delays: delays}
}

// GetStatus handles GET /api/trains/{trainNo}/status. A missing live entry
// is a normal status-unknown answer, never an error.
func (h *TrainHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	trainNo := chi.URLParam(r, "trainNo")
	if !reTrainNoParam.MatchString(trainNo) {
		writeError(w, http.StatusBadRequest, "trainNo must be 1-4 digits", map[string]any{"trainNo": trainNo})
		return
	}

	status := models.TrainStatus{TrainNo: trainNo}
	ls, err := h.delays.GetTrainDelay(r.Context(), trainNo)
	switch {
	case err == nil:
		delay := ls.DelayMinutes
		status.StatusKnown = true
		status.DelayMinutes = &delay
		status.Status = ls.Status
	case errors.Is(err, repository.ErrNotFound):
		// status unknown
	default:
		writeError(w, http.StatusInternalServerError, "failed to retrieve train status", map[string]any{"internal": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, status)
}
