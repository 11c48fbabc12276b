// Package nlu extracts structured trip intent from free-form, mixed-script
// travel requests ("明天早上8點 台北到台中 最快") without any learned model.
// Extraction is a decision list: an ordered sequence of independent
// predicate/transform passes over normalized text, each of which either
// fills a field and records the rule that fired, or does nothing.
package nlu

import (
	"strings"
	"unicode"
)

// maxQueryRunes bounds the text the extractor will look at. Longer input is
// truncated, never rejected.
const maxQueryRunes = 100

// Preferences are the optional ride preferences recognized in a query.
type Preferences struct {
	Fastest    bool   `json:"fastest,omitempty"`
	Cheapest   bool   `json:"cheapest,omitempty"`
	DirectOnly bool   `json:"directOnly,omitempty"`
	ClassHint  string `json:"classHint,omitempty"`

	// AllClasses disables the default pass-eligibility filter. It is set
	// when the user explicitly names a non-pass class (自強, 普悠瑪, ...).
	AllClasses bool `json:"allClasses,omitempty"`

	// WindowHours overrides the default forward search window ("接下來3小時").
	// Zero means no override.
	WindowHours int `json:"windowHours,omitempty"`
}

// ParsedIntent is the structured result of one extraction. Missing fields
// are empty strings; partial intents are the expected common case. Built
// once per request and never mutated afterwards.
type ParsedIntent struct {
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`

	Date string `json:"date,omitempty"` // YYYY-MM-DD, Taipei civil calendar
	Time string `json:"time,omitempty"` // HH:MM, 24h

	TrainNo string `json:"trainNo,omitempty"`
	// TrainNoPartial marks a 1-2 digit numeral that may be a truncated
	// train number rather than a full one.
	TrainNoPartial bool `json:"trainNoPartial,omitempty"`

	Preferences Preferences `json:"preferences"`

	// Confidence is an additive, capped [0,1] score over the rules that
	// fired. Both place names plus confidence >= 0.4 is the bar to act on
	// a trip query; a bare train-number intent is valid on its own.
	Confidence float64 `json:"confidence"`

	// Rules lists the fired rules in extraction order.
	Rules []string `json:"rules,omitempty"`
}

// Actionable reports whether the intent clears the bar for automatic
// handling: a bare train-number intent, or both places with enough
// confidence.
func (p ParsedIntent) Actionable() bool {
	if p.TrainNo != "" && p.Origin == "" && p.Destination == "" {
		return true
	}
	return p.Origin != "" && p.Destination != "" && p.Confidence >= confidenceActBar
}

// RawQuery pairs the original text with the normalized copy every rule
// matches against. Immutable once built.
type RawQuery struct {
	Original   string
	Normalized string
}

// NewRawQuery strips control runes, collapses whitespace, folds 臺 to 台,
// lowercases ASCII and truncates to maxQueryRunes.
func NewRawQuery(text string) RawQuery {
	var b strings.Builder
	space := false
	for _, r := range text {
		switch {
		case unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteRune(' ')
		}
		space = false
		if r == '臺' {
			r = '台'
		}
		b.WriteRune(unicode.ToLower(r))
	}
	norm := b.String()
	if runes := []rune(norm); len(runes) > maxQueryRunes {
		norm = string(runes[:maxQueryRunes])
	}
	return RawQuery{Original: text, Normalized: strings.TrimSpace(norm)}
}

// Empty reports whether nothing usable survived normalization.
func (q RawQuery) Empty() bool {
	return q.Normalized == ""
}
