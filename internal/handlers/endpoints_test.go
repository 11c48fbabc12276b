package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lis186/smart-tra-mcp-server-sub000/internal/models"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/schedule"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/station"
)

func TestStationResolve(t *testing.T) {
	h := NewStationHandler(loadedTestDirectory(), &fakeStore{})

	t.Run("match", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stations/resolve?q=台中", nil)
		rec := httptest.NewRecorder()
		h.Resolve(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp models.ResolveResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "台中", resp.Query)
		require.NotEmpty(t, resp.Matches)
		assert.Equal(t, "3300", resp.Matches[0].StationID)
		assert.Equal(t, 1.0, resp.Matches[0].Confidence)
		assert.Equal(t, len(resp.Matches), resp.Count)
	})

	t.Run("no match is an empty list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stations/resolve?q=倫敦", nil)
		rec := httptest.NewRecorder()
		h.Resolve(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp models.ResolveResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotNil(t, resp.Matches)
		assert.Empty(t, resp.Matches)
		assert.Zero(t, resp.Count)
	})

	t.Run("missing q", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stations/resolve", nil)
		rec := httptest.NewRecorder()
		h.Resolve(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not loaded", func(t *testing.T) {
		empty := NewStationHandler(station.NewDirectory(nil), &fakeStore{})
		req := httptest.NewRequest(http.MethodGet, "/api/stations/resolve?q=台中", nil)
		rec := httptest.NewRecorder()
		empty.Resolve(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestStationReload(t *testing.T) {
	directory := station.NewDirectory(nil)
	fs := &fakeStore{stations: []station.Record{
		{ID: "1000", NameZh: "台北", NameEn: "Taipei"},
		{ID: "4400", NameZh: "高雄", NameEn: "Kaohsiung"},
	}}
	h := NewStationHandler(directory, fs)

	req := httptest.NewRequest(http.MethodPost, "/api/stations/reload", nil)
	rec := httptest.NewRecorder()
	h.Reload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.ReloadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Stations)
	assert.True(t, directory.Loaded())
	assert.Equal(t, 2, directory.Size())
}

func TestStationReload_RepositoryFailure(t *testing.T) {
	h := NewStationHandler(station.NewDirectory(nil), &fakeStore{stationsErr: errors.New("db gone")})

	req := httptest.NewRequest(http.MethodPost, "/api/stations/reload", nil)
	rec := httptest.NewRecorder()
	h.Reload(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func newTestDepartureHandler(fs *fakeStore) *DepartureHandler {
	h := NewDepartureHandler(loadedTestDirectory(), fs, fs, schedule.NewSelector(schedule.DefaultConfig(), nil), 3)
	h.now = func() time.Time { return handlerNow }
	return h
}

func TestDepartureList(t *testing.T) {
	h := newTestDepartureHandler(&fakeStore{trains: morningTrains()})

	req := httptest.NewRequest(http.MethodGet, "/api/departures?from=台北&to=台中&date=2025-03-15&time=08:00", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.DeparturesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1000", resp.Origin.StationID)
	assert.Equal(t, "3300", resp.Destination.StationID)
	assert.Equal(t, "2025-03-15", resp.Date)
	require.Len(t, resp.Primary, 3)
	assert.Equal(t, "07:50", resp.Primary[0].DepartureTime)
}

func TestDepartureList_BadRequests(t *testing.T) {
	h := newTestDepartureHandler(&fakeStore{})
	for _, target := range []string{
		"/api/departures?to=台中",
		"/api/departures?from=台北",
		"/api/departures?from=台北&to=台中&date=2025-13-01",
		"/api/departures?from=台北&to=台中&time=25:00",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		h.List(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}

func TestDepartureList_UnknownStation(t *testing.T) {
	h := newTestDepartureHandler(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/departures?from=台北&to=倫敦", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func trainStatusRouter(fs *fakeStore) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/trains/{trainNo}/status", NewTrainHandler(fs).GetStatus)
	return r
}

func TestTrainStatus(t *testing.T) {
	t.Run("known delay", func(t *testing.T) {
		r := trainStatusRouter(&fakeStore{trainDelay: &schedule.LiveStatus{DelayMinutes: 12, Status: "誤點"}})
		req := httptest.NewRequest(http.MethodGet, "/api/trains/152/status", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp models.TrainStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "152", resp.TrainNo)
		assert.True(t, resp.StatusKnown)
		require.NotNil(t, resp.DelayMinutes)
		assert.Equal(t, 12, *resp.DelayMinutes)
	})

	t.Run("no live entry", func(t *testing.T) {
		r := trainStatusRouter(&fakeStore{})
		req := httptest.NewRequest(http.MethodGet, "/api/trains/152/status", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp models.TrainStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.StatusKnown)
	})

	t.Run("invalid train number", func(t *testing.T) {
		r := trainStatusRouter(&fakeStore{})
		req := httptest.NewRequest(http.MethodGet, "/api/trains/abcd/status", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		h := NewHealthHandler(&fakeStore{}, loadedTestDirectory())
		rec := httptest.NewRecorder()
		h.Get(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, float64(3), body["stations"])
	})

	t.Run("degraded without directory", func(t *testing.T) {
		h := NewHealthHandler(&fakeStore{}, station.NewDirectory(nil))
		rec := httptest.NewRecorder()
		h.Get(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "degraded", body["status"])
	})

	t.Run("storage down", func(t *testing.T) {
		h := NewHealthHandler(&fakeStore{pingErr: errors.New("no route")}, loadedTestDirectory())
		rec := httptest.NewRecorder()
		h.Get(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
