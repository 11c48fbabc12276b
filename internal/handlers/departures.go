package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/lis186/smart-tra-mcp-server-sub000/internal/clock"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/models"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/nlu"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/schedule"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/station"
)

// DepartureHandler serves structured departure lookups without the NLU
// stage: station names or ids in, ranked departures out.
type DepartureHandler struct {
	directory  *station.Directory
	timetable  TimetableRepository
	delays     DelayRepository
	selector   *schedule.Selector
	maxResults int
	now        func() time.Time
}

// NewDepartureHandler creates a new handler over the shared pipeline
// pieces.
func NewDepartureHandler(directory *station.Directory, timetable TimetableRepository, delays DelayRepository, selector *schedule.Selector, maxResults int) *DepartureHandler {
	return &DepartureHandler{
		directory:  directory,
		timetable:  timetable,
		delays:     delays,
		selector:   selector,
		maxResults: maxResults,
		now:        time.Now,
	}
}

// List handles GET /api/departures?from=&to=&date=&time=&window=&all=
func (h *DepartureHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to parameters are required", nil)
		return
	}

	intent := nlu.ParsedIntent{}
	if date := q.Get("date"); date != "" {
		if _, err := clock.ParseCivilDate(date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", nil)
			return
		}
		intent.Date = date
	}
	if hhmm := q.Get("time"); hhmm != "" {
		if _, err := clock.ParseClock(hhmm); err != nil {
			writeError(w, http.StatusBadRequest, "invalid time, expected HH:MM", nil)
			return
		}
		intent.Time = hhmm
	}
	if window := q.Get("window"); window != "" {
		if hours, err := strconv.Atoi(window); err == nil && hours > 0 {
			intent.Preferences.WindowHours = hours
		}
	}
	if q.Get("all") == "true" {
		intent.Preferences.AllClasses = true
	}

	origin, ok := h.resolveOne(w, from)
	if !ok {
		return
	}
	dest, ok := h.resolveOne(w, to)
	if !ok {
		return
	}

	now := h.now()
	date := intent.Date
	if date == "" {
		date = clock.CivilDate(now)
	}

	trains, err := h.timetable.GetTimetable(ctx, origin.StationID, dest.StationID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to retrieve timetable", map[string]any{"internal": err.Error()})
		return
	}
	delays, err := h.delays.GetDelaysByStation(ctx, origin.StationID)
	if err != nil {
		delays = nil
	}

	ranked := h.selector.Select(trains, origin.StationID, dest.StationID, intent, delays, now, h.maxResults)
	writeJSON(w, http.StatusOK, models.DeparturesResponse{
		Origin:      origin,
		Destination: dest,
		Date:        date,
		Primary:     ranked.Primary,
		Backup:      ranked.Backup,
		Warnings:    ranked.Warnings,
		GeneratedAt: now.UTC(),
	})
}

// resolveOne maps a name or id to its best station match, writing the
// appropriate response when it cannot.
func (h *DepartureHandler) resolveOne(w http.ResponseWriter, query string) (station.Match, bool) {
	matches, err := h.directory.Resolve(query, 1)
	if err != nil {
		if errors.Is(err, station.ErrNotLoaded) {
			writeError(w, http.StatusServiceUnavailable, "station directory not loaded", nil)
		} else {
			writeError(w, http.StatusInternalServerError, "failed to resolve station", map[string]any{"internal": err.Error()})
		}
		return station.Match{}, false
	}
	if len(matches) == 0 {
		writeError(w, http.StatusNotFound, "station not found", map[string]any{"query": query})
		return station.Match{}, false
	}
	return matches[0], true
}
