package nlu

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	fastestWords  = []string{"最快", "快一點", "越快越好", "趕時間", "fastest"}
	cheapestWords = []string{"最便宜", "省錢", "便宜", "cheapest"}
	directWords   = []string{"直達", "不換車", "direct"}
)

// trainClasses in recognition order; 區間快 must precede 區間. Classes not
// covered by the commuter pass imply the user wants the full class range,
// so matching one lifts the default eligibility filter.
var trainClasses = []struct {
	word         string
	class        string
	fastestClass bool
	passEligible bool
}{
	{"普悠瑪", "普悠瑪", true, false},
	{"太魯閣", "太魯閣", true, false},
	{"自強", "自強", true, false},
	{"莒光", "莒光", false, false},
	{"復興", "復興", false, true},
	{"區間快", "區間快", false, true},
	{"區間", "區間", false, true},
}

// Explicit "next N hours" window override.
var reWindow = regexp.MustCompile(`(?:接下來|未來|之後)\s*([0-9]{1,2})\s*個?\s*小時|([0-9]{1,2})\s*個?\s*小時(?:內|以內)|next\s*([0-9]{1,2})\s*hours?`)

const (
	windowHoursMin = 1
	windowHoursMax = 12
)

// extractPreferences fills speed/cost (mutually exclusive, fastest wins
// ties), direct-only, class hint and the explicit window override.
func (e *Extractor) extractPreferences(raw RawQuery, intent *ParsedIntent) {
	text := raw.Normalized

	fastest := containsAny(text, fastestWords)
	cheapest := containsAny(text, cheapestWords)
	switch {
	case fastest:
		intent.Preferences.Fastest = true
		intent.addConfidence(weightPreference, "pref_fastest")
	case cheapest:
		intent.Preferences.Cheapest = true
		intent.addConfidence(weightPreference, "pref_cheapest")
	}

	if containsAny(text, directWords) {
		intent.Preferences.DirectOnly = true
		intent.addConfidence(weightPreference, "pref_direct")
	}

	for _, tc := range trainClasses {
		if !strings.Contains(text, tc.word) {
			continue
		}
		intent.Preferences.ClassHint = tc.class
		if tc.fastestClass {
			intent.Preferences.Fastest = true
		}
		if !tc.passEligible {
			intent.Preferences.AllClasses = true
		}
		intent.addConfidence(weightPreference, "pref_class")
		break
	}

	if m := reWindow.FindStringSubmatch(text); m != nil {
		digits := m[1]
		if digits == "" {
			digits = m[2]
		}
		if digits == "" {
			digits = m[3]
		}
		if hours, err := strconv.Atoi(digits); err == nil && hours >= windowHoursMin && hours <= windowHoursMax {
			intent.Preferences.WindowHours = hours
			intent.addConfidence(weightPreference, "pref_window")
		}
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
