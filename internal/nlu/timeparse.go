package nlu

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	rePeriodHalf = regexp.MustCompile(`(凌晨|清晨|早上|上午|中午|下午|傍晚|晚上|深夜|半夜)\s*([0-9]{1,2})點半`)
	rePeriodHM   = regexp.MustCompile(`(凌晨|清晨|早上|上午|中午|下午|傍晚|晚上|深夜|半夜)\s*([0-9]{1,2})(?:[點時:.]([0-9]{1,2})?)?分?`)
	reAmPm       = regexp.MustCompile(`([0-9]{1,2})(?::([0-9]{2}))?\s*([ap]m)\b`)

	reBareHalf = regexp.MustCompile(`([0-9]{1,2})點半`)
	reBareHM   = regexp.MustCompile(`([0-9]{1,2})[:.點時]([0-9]{1,2})分?`)
	reBareHour = regexp.MustCompile(`([0-9]{1,2})[點時](?:[^0-9半]|$)`)
)

// periodDefaults are the canned times used when a period word appears with
// no numeral at all ("明天早上的車").
var periodDefaults = []struct {
	word string
	hhmm string
}{
	{"凌晨", "05:00"},
	{"清晨", "06:00"},
	{"早上", "08:00"},
	{"上午", "09:00"},
	{"中午", "12:00"},
	{"下午", "14:00"},
	{"傍晚", "17:00"},
	{"晚上", "19:00"},
	{"深夜", "22:00"},
	{"半夜", "23:00"},
	{"morning", "08:00"},
	{"noon", "12:00"},
	{"afternoon", "14:00"},
	{"evening", "19:00"},
	{"night", "21:00"},
}

// extractTime tries, in fixed priority: a 12-hour period-prefixed pattern
// (including am/pm), then a bare 24-hour-ish pattern, then the generic
// period default table. The result always matches ^\d{2}:\d{2}$.
func (e *Extractor) extractTime(raw RawQuery, intent *ParsedIntent) {
	text := raw.Normalized

	if m := rePeriodHalf.FindStringSubmatch(text); m != nil {
		if hhmm, ok := periodTo24(m[1], m[2], "30"); ok {
			intent.Time = hhmm
			intent.addConfidence(weightTime, "time_period")
			return
		}
	}
	if m := rePeriodHM.FindStringSubmatch(text); m != nil {
		minute := m[3]
		if minute == "" {
			minute = "0"
		}
		if hhmm, ok := periodTo24(m[1], m[2], minute); ok {
			intent.Time = hhmm
			intent.addConfidence(weightTime, "time_period")
			return
		}
	}
	if m := reAmPm.FindStringSubmatch(text); m != nil {
		minute := strings.TrimPrefix(m[2], ":")
		if minute == "" {
			minute = "0"
		}
		if hhmm, ok := periodTo24(m[3], m[1], minute); ok {
			intent.Time = hhmm
			intent.addConfidence(weightTime, "time_period")
			return
		}
	}

	if m := reBareHalf.FindStringSubmatch(text); m != nil {
		if hhmm, ok := clockOf(m[1], "30"); ok {
			intent.Time = hhmm
			intent.addConfidence(weightTime, "time_bare")
			return
		}
	}
	if m := reBareHM.FindStringSubmatch(text); m != nil {
		if hhmm, ok := clockOf(m[1], m[2]); ok {
			intent.Time = hhmm
			intent.addConfidence(weightTime, "time_bare")
			return
		}
	}
	if m := reBareHour.FindStringSubmatch(text); m != nil {
		if hhmm, ok := clockOf(m[1], "0"); ok {
			intent.Time = hhmm
			intent.addConfidence(weightTime, "time_bare")
			return
		}
	}

	for _, pd := range periodDefaults {
		if strings.Contains(text, pd.word) {
			intent.Time = pd.hhmm
			intent.addConfidence(weightTime, "time_period_default")
			return
		}
	}
}

// periodTo24 converts a period-qualified 12-hour reading to 24-hour HH:MM.
// Noon stays 12, the post-midnight periods map hour 12 to 00, and the
// afternoon/evening periods add 12 unless the hour already is 12.
func periodTo24(period, hourStr, minuteStr string) (string, bool) {
	h, err := strconv.Atoi(hourStr)
	if err != nil || h > 23 {
		return "", false
	}
	m, err := strconv.Atoi(minuteStr)
	if err != nil || m > 59 {
		return "", false
	}

	switch period {
	case "中午":
		if h == 12 || h == 0 {
			h = 12
		} else if h < 6 {
			h += 12
		}
	case "下午", "傍晚", "晚上", "pm":
		if h != 12 && h < 12 {
			h += 12
		}
	case "凌晨", "清晨", "深夜", "半夜", "am":
		if h == 12 {
			h = 0
		}
	}
	if h > 23 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, m), true
}

func clockOf(hourStr, minuteStr string) (string, bool) {
	h, err := strconv.Atoi(hourStr)
	if err != nil || h > 23 {
		return "", false
	}
	m, err := strconv.Atoi(minuteStr)
	if err != nil || m > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, m), true
}
