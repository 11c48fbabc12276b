package station

// index is one immutable directory snapshot: exact-name, short-prefix and
// record storage built in a single pass. Never mutated after buildIndex
// returns.
type index struct {
	records []Record

	// exact maps a full normalized name (either script) to stations.
	exact map[string][]*Record

	// prefix maps every 1-3 rune name prefix (either script) to stations.
	prefix map[string][]*Record
}

const maxPrefixRunes = 3

func buildIndex(records []Record) *index {
	idx := &index{
		records: make([]Record, len(records)),
		exact:   make(map[string][]*Record, len(records)*2),
		prefix:  make(map[string][]*Record, len(records)*4),
	}
	copy(idx.records, records)

	for i := range idx.records {
		rec := &idx.records[i]
		for _, name := range []string{normalizeQuery(rec.NameZh), normalizeQuery(rec.NameEn)} {
			if name == "" {
				continue
			}
			idx.exact[name] = append(idx.exact[name], rec)
			runes := []rune(name)
			for l := 1; l <= maxPrefixRunes && l <= len(runes); l++ {
				key := string(runes[:l])
				idx.prefix[key] = append(idx.prefix[key], rec)
			}
		}
	}
	return idx
}

// namesOf returns the normalized display names of a record for
// starts-with/contains checks.
func namesOf(rec *Record) [2]string {
	return [2]string{normalizeQuery(rec.NameZh), normalizeQuery(rec.NameEn)}
}
