// Package models defines the JSON envelopes of the HTTP API.
package models

import (
	"time"

	"github.com/lis186/smart-tra-mcp-server-sub000/internal/nlu"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/schedule"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/station"
)

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Text string `json:"text"`
}

// Clarification is returned instead of departures when the query could not
// be acted on automatically: the caller should ask the user, offering the
// listed station options when present.
type Clarification struct {
	Reason             string          `json:"reason"`
	OriginOptions      []station.Match `json:"originOptions,omitempty"`
	DestinationOptions []station.Match `json:"destinationOptions,omitempty"`
}

// Clarification reasons.
const (
	ReasonLowConfidence = "low_confidence"
	ReasonUnknownOrigin = "unknown_origin"
	ReasonUnknownDest   = "unknown_destination"
	ReasonMissingPlaces = "missing_places"
)

// TrainStatus answers a bare train-number query.
type TrainStatus struct {
	TrainNo      string `json:"trainNo"`
	StatusKnown  bool   `json:"statusKnown"`
	DelayMinutes *int   `json:"delayMinutes,omitempty"`
	Status       string `json:"status,omitempty"`
}

// QueryResponse is the JSON response of POST /api/query.
type QueryResponse struct {
	RequestID string           `json:"requestId"`
	Intent    nlu.ParsedIntent `json:"intent"`

	Origin      *station.Match `json:"origin,omitempty"`
	Destination *station.Match `json:"destination,omitempty"`
	Date        string         `json:"date,omitempty"`

	Primary []schedule.Candidate `json:"primary,omitempty"`
	Backup  []schedule.Candidate `json:"backup,omitempty"`

	TrainStatus   *TrainStatus   `json:"trainStatus,omitempty"`
	Clarification *Clarification `json:"clarification,omitempty"`

	Warnings    []string  `json:"warnings,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// ResolveResponse is the JSON response of GET /api/stations/resolve.
type ResolveResponse struct {
	Query   string          `json:"query"`
	Matches []station.Match `json:"matches"`
	Count   int             `json:"count"`
}

// ReloadResponse is the JSON response of POST /api/stations/reload.
type ReloadResponse struct {
	Stations   int       `json:"stations"`
	ReloadedAt time.Time `json:"reloadedAt"`
}

// DeparturesResponse is the JSON response of GET /api/departures.
type DeparturesResponse struct {
	Origin      station.Match        `json:"origin"`
	Destination station.Match        `json:"destination"`
	Date        string               `json:"date"`
	Primary     []schedule.Candidate `json:"primary"`
	Backup      []schedule.Candidate `json:"backup,omitempty"`
	Warnings    []string             `json:"warnings,omitempty"`
	GeneratedAt time.Time            `json:"generatedAt"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}
