package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/lis186/smart-tra-mcp-server-sub000/internal/clock"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/nlu"
)

// Config carries the numeric window boundaries. They are source-level
// defaults, overridable per call through intent preferences or per
// deployment through configuration.
type Config struct {
	LookbackMinutes    int // window start before the base instant
	DefaultWindowHours int // forward window when no preference override
	MaxWindowHours     int // upper bound for preference overrides
	NearMarginMinutes  int // "boarding soon" flag and primary-trim anchor
	MinResults         int // backup tier pads the combined result up to this
	MaxDurationHours   int // sanity ceiling on derived ride duration
}

// DefaultConfig returns the production boundaries.
func DefaultConfig() Config {
	return Config{
		LookbackMinutes:    60,
		DefaultWindowHours: 2,
		MaxWindowHours:     12,
		NearMarginMinutes:  15,
		MinResults:         3,
		MaxDurationHours:   10,
	}
}

// Selector ranks departure candidates. It performs no I/O; timetable rows
// and live delays arrive as plain inputs. logf reports data-quality
// warnings to the surrounding observability layer and may be nil.
type Selector struct {
	cfg  Config
	loc  *time.Location
	logf func(format string, args ...any)
}

// NewSelector builds a Selector with the given boundaries; zero fields fall
// back to the defaults.
func NewSelector(cfg Config, logf func(format string, args ...any)) *Selector {
	def := DefaultConfig()
	if cfg.LookbackMinutes <= 0 {
		cfg.LookbackMinutes = def.LookbackMinutes
	}
	if cfg.DefaultWindowHours <= 0 {
		cfg.DefaultWindowHours = def.DefaultWindowHours
	}
	if cfg.MaxWindowHours <= 0 {
		cfg.MaxWindowHours = def.MaxWindowHours
	}
	if cfg.NearMarginMinutes <= 0 {
		cfg.NearMarginMinutes = def.NearMarginMinutes
	}
	if cfg.MinResults <= 0 {
		cfg.MinResults = def.MinResults
	}
	if cfg.MaxDurationHours <= 0 {
		cfg.MaxDurationHours = def.MaxDurationHours
	}
	return &Selector{cfg: cfg, loc: clock.Taipei(), logf: logf}
}

// Select filters, enriches and ranks the supplied trains for one request.
// maxResults caps the primary tier; zero or negative means MinResults.
// Malformed timestamps or dates never fail the call: affected candidates
// are excluded, the window falls back to a safe now-anchored default, and
// each substitution is reported as a warning.
func (s *Selector) Select(trains []TrainTimetable, originID, destID string, intent nlu.ParsedIntent, delays map[string]LiveStatus, now time.Time, maxResults int) Ranked {
	var out Ranked
	if maxResults <= 0 {
		maxResults = s.cfg.MinResults
	}

	candidates := s.buildCandidates(trains, originID, destID, &out)

	// Pass-eligibility filter is on unless preferences request all
	// classes; direct-only applies independently.
	filterEligible := !intent.Preferences.AllClasses
	var eligible, ineligible []Candidate
	for _, c := range candidates {
		if intent.Preferences.DirectOnly && c.StopCount > 0 {
			continue
		}
		if !filterEligible || c.PassEligible {
			eligible = append(eligible, c)
		} else {
			ineligible = append(ineligible, c)
		}
	}

	base, baseIsToday := s.baseInstant(intent, now, &out)
	forward := s.cfg.DefaultWindowHours
	if h := intent.Preferences.WindowHours; h > 0 {
		forward = min(h, s.cfg.MaxWindowHours)
	}
	winStart := base.Add(-time.Duration(s.cfg.LookbackMinutes) * time.Minute)
	winEnd := base.Add(time.Duration(forward) * time.Hour)

	inWindow := func(c Candidate) (time.Time, bool) {
		depMin, err := clock.ParseClock(c.DepartureTime)
		if err != nil {
			return time.Time{}, false
		}
		dep := clock.At(base, depMin)
		if dep.Before(winStart) || dep.After(winEnd) {
			return dep, false
		}
		return dep, true
	}

	keepInWindow := func(list []Candidate) []Candidate {
		var kept []Candidate
		for _, c := range list {
			dep, ok := inWindow(c)
			if !ok {
				continue
			}
			if baseIsToday {
				// Departure instants compare against the wall clock, not
				// the window base, when the trip is for today.
				if dep.Before(now) {
					continue
				}
				if dep.Sub(now) <= time.Duration(s.cfg.NearMarginMinutes)*time.Minute {
					c.BoardingSoon = true
				}
			}
			s.mergeLive(&c, delays)
			kept = append(kept, c)
		}
		sort.SliceStable(kept, func(i, j int) bool {
			return clockMinutes(kept[i].DepartureTime) < clockMinutes(kept[j].DepartureTime)
		})
		return kept
	}

	primary := keepInWindow(eligible)
	out.Primary = s.trimPrimary(primary, base, maxResults)

	// Backup tier: pad a too-small eligible set with in-window,
	// non-departed, pass-ineligible departures.
	if filterEligible && len(out.Primary) < s.cfg.MinResults {
		backups := keepInWindow(ineligible)
		for _, c := range backups {
			if out.Total() >= s.cfg.MinResults {
				break
			}
			c.Backup = true
			out.Backup = append(out.Backup, c)
		}
	}
	return out
}

// buildCandidates keeps only trains stopping at both endpoints in travel
// order and derives duration and intermediate-stop count.
func (s *Selector) buildCandidates(trains []TrainTimetable, originID, destID string, out *Ranked) []Candidate {
	var candidates []Candidate
	ceiling := s.cfg.MaxDurationHours * 60

	for _, train := range trains {
		var origin, dest *StopTime
		for i := range train.Stops {
			st := &train.Stops[i]
			switch st.StationID {
			case originID:
				if origin == nil {
					origin = st
				}
			case destID:
				dest = st
			}
		}
		if origin == nil || dest == nil || dest.StopSequence <= origin.StopSequence {
			continue
		}

		depTime := origin.DepartureTime
		if depTime == "" {
			depTime = origin.ArrivalTime
		}
		arrTime := dest.ArrivalTime
		if arrTime == "" {
			arrTime = dest.DepartureTime
		}

		depMin, errDep := clock.ParseClock(depTime)
		arrMin, errArr := clock.ParseClock(arrTime)
		if errDep != nil || errArr != nil {
			s.warnf(out, "train %s: malformed stop time (%q/%q), excluded", train.TrainNo, depTime, arrTime)
			continue
		}

		duration := arrMin - depMin
		if duration < 0 {
			// Arrival numerically earlier than departure rolls to the
			// next day.
			duration += 24 * 60
		}
		if duration > ceiling {
			s.warnf(out, "train %s: duration %dm exceeds ceiling, excluded", train.TrainNo, duration)
			continue
		}

		candidates = append(candidates, Candidate{
			TrainNo:       train.TrainNo,
			TrainType:     train.TrainType,
			DepartureTime: clock.FormatClock(depMin),
			ArrivalTime:   clock.FormatClock(arrMin),
			Duration:      time.Duration(duration) * time.Minute,
			Minutes:       duration,
			StopCount:     dest.StopSequence - origin.StopSequence - 1,
			PassEligible:  PassEligible(train.TrainType),
		})
	}
	return candidates
}

// baseInstant computes the window anchor: date+time when both are given,
// date plus the current time of day when only the date is given, otherwise
// now. Malformed values fall back to now with a warning.
func (s *Selector) baseInstant(intent nlu.ParsedIntent, now time.Time, out *Ranked) (time.Time, bool) {
	localNow := now.In(s.loc)
	today := clock.CivilDate(now)

	date := intent.Date
	if date == "" {
		date = today
	}
	day, err := clock.ParseCivilDate(date)
	if err != nil {
		s.warnf(out, "malformed intent date %q, window anchored on now", date)
		return localNow, true
	}

	minute := clock.MinuteOfDay(now)
	if intent.Time != "" {
		m, err := clock.ParseClock(intent.Time)
		if err != nil {
			s.warnf(out, "malformed intent time %q, window anchored on now", intent.Time)
			return localNow, date == today
		}
		minute = m
	}
	return clock.At(day, minute), date == today
}

// trimPrimary caps the ascending-sorted primary tier at maxResults. When
// trimming is needed, candidates departing more than the near margin before
// the base instant are dropped from the front first, so the tier leads with
// departures the rider can still plausibly make.
func (s *Selector) trimPrimary(primary []Candidate, base time.Time, maxResults int) []Candidate {
	if len(primary) <= maxResults {
		return primary
	}
	anchor := clock.MinuteOfDay(base) - s.cfg.NearMarginMinutes
	start := 0
	for start < len(primary) && clockMinutes(primary[start].DepartureTime) < anchor {
		start++
	}
	if len(primary)-start < maxResults {
		start = len(primary) - maxResults
	}
	if start < 0 {
		start = 0
	}
	return primary[start : start+maxResults]
}

// mergeLive attaches delay data when present. Adjusted times wrap correctly
// across midnight in both directions; absent data leaves the candidate
// marked status-unknown.
func (s *Selector) mergeLive(c *Candidate, delays map[string]LiveStatus) {
	ls, ok := delays[c.TrainNo]
	if !ok {
		return
	}
	delay := ls.DelayMinutes
	c.StatusKnown = true
	c.DelayMinutes = &delay
	c.Status = ls.Status

	if adjusted, err := clock.AddMinutes(c.DepartureTime, delay); err == nil {
		c.ActualDeparture = adjusted
	}
	if adjusted, err := clock.AddMinutes(c.ArrivalTime, delay); err == nil {
		c.ActualArrival = adjusted
	}
}

func (s *Selector) warnf(out *Ranked, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	out.Warnings = append(out.Warnings, msg)
	if s.logf != nil {
		s.logf("Selector: %s", msg)
	}
}

func clockMinutes(hhmm string) int {
	m, err := clock.ParseClock(hhmm)
	if err != nil {
		return 0
	}
	return m
}
