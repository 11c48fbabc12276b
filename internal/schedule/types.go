// Package schedule selects and ranks concrete departures for a resolved
// origin/destination pair from externally fetched timetable rows, merging
// live delay data and padding a too-small eligible set with a backup tier.
package schedule

import (
	"strings"
	"time"
)

// StopTime is one published stop of a train. Supplied rows may cover only
// the two endpoints; StopSequence carries the position in the full run, so
// intermediate-stop counts come from sequence differences, never from list
// length.
type StopTime struct {
	StationID     string `json:"stationId"`
	ArrivalTime   string `json:"arrivalTime"`   // HH:MM as published
	DepartureTime string `json:"departureTime"` // HH:MM as published
	StopSequence  int    `json:"stopSequence"`
}

// TrainTimetable is one train's ordered stops for a civil date.
type TrainTimetable struct {
	TrainNo   string     `json:"trainNo"`
	TrainType string     `json:"trainType"`
	Stops     []StopTime `json:"stops"`
}

// LiveStatus is a live-delay entry for one train at a station. Absent data
// means "status unknown", never "on time".
type LiveStatus struct {
	DelayMinutes int    `json:"delayMinutes"`
	Status       string `json:"status,omitempty"`
}

// Candidate is one departure option for the requested pair, built fresh per
// request and never cached.
type Candidate struct {
	TrainNo   string `json:"trainNo"`
	TrainType string `json:"trainType"`

	DepartureTime string `json:"departureTime"` // scheduled, origin
	ArrivalTime   string `json:"arrivalTime"`   // scheduled, destination

	Duration  time.Duration `json:"-"`
	Minutes   int           `json:"durationMinutes"`
	StopCount int           `json:"stopCount"`

	PassEligible bool `json:"passEligible"`

	// Live enrichment. StatusKnown is false when no delay entry exists;
	// the Actual* fields are only set when it is true.
	StatusKnown     bool   `json:"statusKnown"`
	DelayMinutes    *int   `json:"delayMinutes,omitempty"`
	Status          string `json:"status,omitempty"`
	ActualDeparture string `json:"actualDeparture,omitempty"`
	ActualArrival   string `json:"actualArrival,omitempty"`

	BoardingSoon bool `json:"boardingSoon,omitempty"`
	Backup       bool `json:"backup,omitempty"`
}

// Ranked is the selector output: the primary tier (pass-eligible,
// in-window) and the backup tier padding it to a minimum count, plus any
// data-quality warnings raised while building it.
type Ranked struct {
	Primary  []Candidate `json:"primary"`
	Backup   []Candidate `json:"backup,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

// Total returns the combined result count.
func (r Ranked) Total() int {
	return len(r.Primary) + len(r.Backup)
}

// passEligibleTypes are the class markers usable with the TPASS commuter
// pass; everything else (自強 family, 莒光, tourist charters) needs a
// separate point-to-point ticket. Unknown classes are treated as not
// eligible so they surface as backup, never as a false pass option.
var passEligibleTypes = []string{"區間", "復興"}

// PassEligible reports whether a published train class rides on the
// commuter pass. Marker matching is by substring since feeds qualify class
// names ("自強(3000)", "區間快").
func PassEligible(trainType string) bool {
	for _, marker := range passEligibleTypes {
		if strings.Contains(trainType, marker) {
			return true
		}
	}
	return false
}
