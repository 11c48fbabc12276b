// Package station resolves short place strings to TRA stations against an
// in-memory directory. The directory is a read-only snapshot rebuilt
// wholesale and swapped atomically, so concurrent resolutions never see a
// half-built index.
package station

import (
	"errors"
	"strings"
	"sync/atomic"
)

// ErrNotLoaded is returned when Resolve is called before any directory
// load. This is the one hard failure; "no match" is an ordinary empty
// result.
var ErrNotLoaded = errors.New("station directory not loaded")

// Record is one station as supplied by the directory source. Read-only to
// the resolver.
type Record struct {
	ID      string   `json:"stationId"`
	NameZh  string   `json:"nameZh"`
	NameEn  string   `json:"nameEn"`
	Address string   `json:"address,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

// Match is one ranked resolver candidate.
type Match struct {
	StationID  string  `json:"stationId"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Confidence tiers per match kind.
const (
	confExact          = 1.0
	confPrefixExact    = 0.9
	confPrefixContains = 0.7
	confBroad          = 0.5
)

// defaultLimit is used when the caller passes no positive result cap.
const defaultLimit = 8

// defaultAliases maps common colloquial names to canonical ones. Extended
// per deployment via configuration.
var defaultAliases = map[string]string{
	"北車":   "台北",
	"台北車":  "台北",
	"高火":   "高雄",
	"中車":   "台中",
	"北上終點": "台北",
}

// Directory holds the current index snapshot. Load replaces the snapshot
// atomically; Resolve only ever reads one snapshot end to end.
type Directory struct {
	idx     atomic.Pointer[index]
	aliases map[string]string
}

// NewDirectory creates an empty directory. extraAliases are merged over the
// built-in colloquial alias table (keys and values are normalized).
func NewDirectory(extraAliases map[string]string) *Directory {
	aliases := make(map[string]string, len(defaultAliases)+len(extraAliases))
	for k, v := range defaultAliases {
		aliases[normalizeQuery(k)] = normalizeQuery(v)
	}
	for k, v := range extraAliases {
		aliases[normalizeQuery(k)] = normalizeQuery(v)
	}
	return &Directory{aliases: aliases}
}

// Load rebuilds the whole index from records in one pass and swaps it in.
func (d *Directory) Load(records []Record) {
	d.idx.Store(buildIndex(records))
}

// Loaded reports whether a snapshot is available.
func (d *Directory) Loaded() bool {
	return d.idx.Load() != nil
}

// Size returns the number of stations in the current snapshot.
func (d *Directory) Size() int {
	idx := d.idx.Load()
	if idx == nil {
		return 0
	}
	return len(idx.records)
}

// normalizeQuery case-folds, folds 臺 to 台, removes whitespace and strips a
// trailing station-suffix word.
func normalizeQuery(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '臺':
			b.WriteRune('台')
		case r == ' ' || r == '\t':
			// fold out
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	for _, suffix := range []string{"火車站", "車站", "站"} {
		if trimmed := strings.TrimSuffix(out, suffix); trimmed != out && trimmed != "" {
			return trimmed
		}
	}
	return out
}
