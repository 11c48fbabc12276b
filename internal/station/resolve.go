package station

import (
	"sort"
	"strings"
)

// Resolve returns the ranked station candidates for a short place string.
// Tiers are unioned, not short-circuited: exact/alias at 1.0, shrinking
// 3→1-rune prefixes at 0.9 (name starts with the query) or 0.7 (name
// contains it), and a broad 2-rune sweep at 0.5 when fewer than three
// candidates were found. Results are deduplicated by id keeping the best
// confidence, sorted by confidence descending then name ascending, and
// truncated to limit. Deterministic over one snapshot.
func (d *Directory) Resolve(query string, limit int) ([]Match, error) {
	idx := d.idx.Load()
	if idx == nil {
		return nil, ErrNotLoaded
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	norm := normalizeQuery(query)
	if norm == "" {
		return nil, nil
	}
	canon := norm
	if alias, ok := d.aliases[norm]; ok {
		canon = alias
	}

	best := make(map[string]*Match)
	keep := func(rec *Record, conf float64) {
		if m, ok := best[rec.ID]; ok {
			if conf > m.Confidence {
				m.Confidence = conf
			}
			return
		}
		best[rec.ID] = &Match{StationID: rec.ID, Name: rec.NameZh, Confidence: conf}
	}

	// Tier 1: exact name in either script, raw query or alias expansion.
	for _, q := range []string{norm, canon} {
		for _, rec := range idx.exact[q] {
			keep(rec, confExact)
		}
	}

	// Tier 2: shrinking prefixes of the (alias-expanded) query.
	runes := []rune(canon)
	for l := min(maxPrefixRunes, len(runes)); l >= 1; l-- {
		for _, rec := range idx.prefix[string(runes[:l])] {
			conf := 0.0
			for _, name := range namesOf(rec) {
				if name == "" {
					continue
				}
				if strings.HasPrefix(name, canon) || strings.HasPrefix(name, norm) {
					conf = confPrefixExact
					break
				}
				if strings.Contains(name, canon) || strings.Contains(name, norm) {
					conf = confPrefixContains
				}
			}
			if conf > 0 {
				keep(rec, conf)
			}
		}
	}

	// Tier 3: broad 2-rune sweep, only when the narrow tiers came up short.
	if len(best) < 3 && len(runes) >= 2 {
		for _, rec := range idx.prefix[string(runes[:2])] {
			keep(rec, confBroad)
		}
	}

	matches := make([]Match, 0, len(best))
	for _, m := range best {
		matches = append(matches, *m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].Name < matches[j].Name
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
