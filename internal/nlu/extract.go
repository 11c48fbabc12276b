package nlu

import (
	"time"

	"github.com/lis186/smart-tra-mcp-server-sub000/internal/clock"
)

// Per-rule confidence weights. Additive, capped at 1.0. The place pair is
// the heaviest signal, then time, date, preferences.
const (
	confidenceActBar = 0.4

	weightPlacePair   = 0.45
	weightSinglePlace = 0.15
	weightTime        = 0.20
	weightDate        = 0.15
	weightPreference  = 0.05
	weightComplete    = 0.15

	weightTrainNoExact   = 0.85
	weightTrainNoPartial = 0.60
	weightTrainNoEmbed   = 0.30
)

// Extractor turns raw text into a ParsedIntent. It is stateless apart from
// the fixed Taipei calendar; Extract is pure and safe for concurrent use.
type Extractor struct {
	loc *time.Location
}

// NewExtractor returns an Extractor bound to the Taipei civil calendar.
func NewExtractor() *Extractor {
	return &Extractor{loc: clock.Taipei()}
}

// Extract runs the fixed-priority passes over text. It never fails:
// unusable input yields a zero-confidence intent. now anchors relative
// dates ("明天") and is the only external input besides the text.
func (e *Extractor) Extract(text string, now time.Time) ParsedIntent {
	raw := NewRawQuery(text)
	intent := ParsedIntent{}
	if raw.Empty() {
		return intent
	}

	// Pass 1: train number. A whole-string numeral short-circuits the
	// remaining passes as a train-number intent.
	if done := e.extractTrainNo(raw, &intent); done {
		return intent
	}

	// Pass 2: place pair.
	e.extractPlaces(raw, &intent)

	// Pass 3: time of day.
	e.extractTime(raw, &intent)

	// Pass 4: civil date.
	e.extractDate(raw, &intent, now)

	// Pass 5: preferences.
	e.extractPreferences(raw, &intent)

	// Completeness bonus when the full trip picture is present.
	if intent.Origin != "" && intent.Destination != "" && intent.Date != "" && intent.Time != "" {
		intent.addConfidence(weightComplete, "completeness_bonus")
	}
	return intent
}

func (p *ParsedIntent) addConfidence(weight float64, rule string) {
	p.Confidence += weight
	if p.Confidence > 1.0 {
		p.Confidence = 1.0
	}
	p.Rules = append(p.Rules, rule)
}
