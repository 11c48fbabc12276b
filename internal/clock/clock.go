// Package clock holds the fixed civil calendar used across the query
// pipeline. TRA publishes every timetable and delay figure in Taiwan local
// time, so all date/clock math happens in Asia/Taipei regardless of where
// the process runs.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const minutesPerDay = 24 * 60

var (
	taipeiOnce sync.Once
	taipeiLoc  *time.Location
)

// Taipei returns the reference timezone. Taiwan has no DST, so a fixed
// UTC+8 zone is an exact fallback when the tzdata lookup fails.
func Taipei() *time.Location {
	taipeiOnce.Do(func() {
		loc, err := time.LoadLocation("Asia/Taipei")
		if err != nil {
			loc = time.FixedZone("CST", 8*60*60)
		}
		taipeiLoc = loc
	})
	return taipeiLoc
}

// ParseClock parses "HH:MM" or "HH:MM:SS" into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time out of range %q", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM", wrapping into
// [00:00, 24:00) in both directions.
func FormatClock(minutes int) string {
	minutes %= minutesPerDay
	if minutes < 0 {
		minutes += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AddMinutes shifts a "HH:MM" clock time by delta minutes with midnight
// wraparound in both directions: 23:45 +30 -> 00:15, 00:15 -30 -> 23:45.
func AddMinutes(hhmm string, delta int) (string, error) {
	m, err := ParseClock(hhmm)
	if err != nil {
		return "", err
	}
	return FormatClock(m + delta), nil
}

// MinuteOfDay returns minutes since midnight of t in the Taipei calendar.
func MinuteOfDay(t time.Time) int {
	local := t.In(Taipei())
	return local.Hour()*60 + local.Minute()
}

// CivilDate formats t as YYYY-MM-DD in the Taipei calendar.
func CivilDate(t time.Time) string {
	return t.In(Taipei()).Format("2006-01-02")
}

// ParseCivilDate parses a YYYY-MM-DD date as midnight Taipei time. The
// round-trip check rejects dates that normalize (e.g. 2025-02-30).
func ParseCivilDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, Taipei())
	if err != nil {
		return time.Time{}, err
	}
	if t.Format("2006-01-02") != s {
		return time.Time{}, fmt.Errorf("non-round-tripping date %q", s)
	}
	return t, nil
}

// At combines a civil date and minutes since midnight into an instant in
// the Taipei calendar.
func At(date time.Time, minuteOfDay int) time.Time {
	local := date.In(Taipei())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, minuteOfDay, 0, 0, Taipei())
}
