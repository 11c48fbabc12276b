package nlu

import (
	"regexp"
	"sort"
	"strings"
)

// Directional separators between origin and destination, scanned left to
// right. "to" needs an ASCII word boundary so it never fires inside a
// romanized station name.
var reSeparator = regexp.MustCompile(`→|⇒|->|~|到|至|往|去|\bto\b`)

// "from X to Y" template fallback for queries without a usable separator
// occurrence.
var reFromTo = regexp.MustCompile(`(?:from|從)\s*(.+?)\s*(?:to|到|至|往)\s*(.+)`)

// Major TRA stations recognized as a name anywhere in a fragment.
var majorStations = []string{
	"台北", "板橋", "桃園", "中壢", "新竹", "苗栗", "台中", "彰化", "員林",
	"斗六", "嘉義", "台南", "高雄", "屏東", "基隆", "宜蘭", "羅東", "花蓮",
	"台東", "松山", "南港", "樹林", "新左營",
}

// Secondary stations tried after the major table misses.
var secondaryStations = []string{
	"七堵", "汐止", "瑞芳", "鶯歌", "楊梅", "竹南", "通霄", "後龍", "豐原",
	"大甲", "沙鹿", "清水", "新烏日", "二水", "田中", "社頭", "斗南", "民雄",
	"大林", "新營", "善化", "永康", "岡山", "左營", "鳳山", "潮州", "枋寮",
	"玉里", "壽豐", "新城", "蘇澳", "頭城", "礁溪", "知本", "太麻里", "竹北",
}

// Romanized names mapped back to the canonical script. Longest keys are
// tried first so "xinzuoying" wins over "zuoying".
var translitNames = map[string]string{
	"taipei": "台北", "banqiao": "板橋", "taoyuan": "桃園", "zhongli": "中壢",
	"jhongli": "中壢", "hsinchu": "新竹", "miaoli": "苗栗", "taichung": "台中",
	"changhua": "彰化", "yuanlin": "員林", "douliu": "斗六", "chiayi": "嘉義",
	"tainan": "台南", "kaohsiung": "高雄", "pingtung": "屏東", "keelung": "基隆",
	"yilan": "宜蘭", "luodong": "羅東", "hualien": "花蓮", "taitung": "台東",
	"songshan": "松山", "nangang": "南港", "shulin": "樹林", "zuoying": "左營",
	"xinzuoying": "新左營", "fengyuan": "豐原",
}

var translitKeys = func() []string {
	keys := make([]string, 0, len(translitNames))
	for k := range translitNames {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// Words removed from a fragment before name extraction: politeness filler,
// temporal words, clock/date numerals and ride vocabulary.
var (
	reStripFiller   = regexp.MustCompile(`我想要|我想|我要|請問|幫我查|幫我|查一下|查詢|想搭|要搭|搭乘|搭|坐|從|from`)
	reStripTemporal = regexp.MustCompile(`大後天|後天|明天|明日|今天|今日|tomorrow|today|下?(?:星期|週|周|禮拜)[一二三四五六日天]|凌晨|清晨|早上|上午|中午|下午|傍晚|晚上|深夜|半夜|morning|afternoon|evening|noon|night`)
	reStripClock    = regexp.MustCompile(`[0-9]{1,2}月[0-9]{1,2}[日號]?|[0-9]{1,2}/[0-9]{1,2}|[0-9]{1,2}:[0-9]{2}\s*[ap]m|[0-9]{1,2}\s*[ap]m|[0-9]{1,2}[:.點時][0-9]{0,2}分?半?|[0-9]+`)
	reStripRide     = regexp.MustCompile(`普悠瑪|太魯閣|自強號|自強|莒光號|莒光|復興號|復興|區間快|區間車|區間|最快|最便宜|便宜|直達|火車票|火車|列車|車票|的票|票`)
	reStripPunct    = regexp.MustCompile(`[,，。．!！?？、;；:：'"“”嗎呢哪了]`)

	reHanRun = regexp.MustCompile(`\p{Han}+`)
)

var stationSuffixes = []string{"火車站", "車站", "站"}

// extractPlaces scans separator occurrences in order and, at the first
// usable one, takes the rightmost plausible name before it and the leftmost
// plausible name after it. Falls back to the from/to template. A lone
// destination still counts, at reduced weight.
func (e *Extractor) extractPlaces(raw RawQuery, intent *ParsedIntent) {
	text := raw.Normalized
	for _, loc := range reSeparator.FindAllStringIndex(text, -1) {
		dest := plausibleName(text[loc[1]:], false)
		if dest == "" {
			continue
		}
		origin := plausibleName(text[:loc[0]], true)
		intent.Destination = dest
		if origin != "" {
			intent.Origin = origin
			intent.addConfidence(weightPlacePair, "place_pair_separator")
		} else {
			intent.addConfidence(weightSinglePlace, "place_destination_only")
		}
		return
	}

	if m := reFromTo.FindStringSubmatch(text); m != nil {
		origin := plausibleName(m[1], true)
		dest := plausibleName(m[2], false)
		if origin != "" && dest != "" {
			intent.Origin = origin
			intent.Destination = dest
			intent.addConfidence(weightPlacePair, "place_pair_template")
		}
	}
}

// plausibleName extracts one station-like name from a fragment. fromEnd
// selects the rightmost candidate (text before a separator), otherwise the
// leftmost (text after it).
func plausibleName(fragment string, fromEnd bool) string {
	cleaned := cleanFragment(fragment)
	if cleaned == "" {
		return ""
	}

	if name := findListed(cleaned, majorStations, fromEnd); name != "" {
		return name
	}
	if name := findListed(cleaned, secondaryStations, fromEnd); name != "" {
		return name
	}
	if name := findTransliterated(cleaned, fromEnd); name != "" {
		return name
	}
	if name := findHanRun(cleaned, fromEnd); name != "" {
		return name
	}

	// Last resort: the cleaned remainder itself, if it is name-sized.
	rest := stripStationSuffix(strings.ReplaceAll(cleaned, " ", ""))
	if n := len([]rune(rest)); n >= 2 && n <= 4 {
		return rest
	}
	return ""
}

func cleanFragment(fragment string) string {
	s := reStripTemporal.ReplaceAllString(fragment, " ")
	s = reStripClock.ReplaceAllString(s, " ")
	s = reStripRide.ReplaceAllString(s, " ")
	s = reStripFiller.ReplaceAllString(s, " ")
	s = reStripPunct.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// findListed returns the rightmost (or leftmost) table entry occurring in
// the fragment, preferring the longer name on position ties.
func findListed(fragment string, table []string, fromEnd bool) string {
	best, bestPos := "", -1
	for _, name := range table {
		if fromEnd {
			idx := strings.LastIndex(fragment, name)
			if idx < 0 {
				continue
			}
			if end := idx + len(name); end > bestPos || (end == bestPos && len(name) > len(best)) {
				best, bestPos = name, end
			}
		} else {
			idx := strings.Index(fragment, name)
			if idx < 0 {
				continue
			}
			if bestPos < 0 || idx < bestPos || (idx == bestPos && len(name) > len(best)) {
				best, bestPos = name, idx
			}
		}
	}
	return best
}

// findTransliterated maps a romanized name in the fragment to its canonical
// script. Matches must sit on ASCII letter boundaries.
func findTransliterated(fragment string, fromEnd bool) string {
	best, bestPos := "", -1
	for _, key := range translitKeys {
		idx := -1
		if fromEnd {
			idx = strings.LastIndex(fragment, key)
		} else {
			idx = strings.Index(fragment, key)
		}
		if idx < 0 || !asciiBounded(fragment, idx, len(key)) {
			continue
		}
		if fromEnd {
			if end := idx + len(key); end > bestPos {
				best, bestPos = translitNames[key], end
			}
		} else {
			if bestPos < 0 || idx < bestPos {
				best, bestPos = translitNames[key], idx
			}
		}
	}
	return best
}

func asciiBounded(s string, idx, length int) bool {
	if idx > 0 {
		if c := s[idx-1]; c >= 'a' && c <= 'z' {
			return false
		}
	}
	if end := idx + length; end < len(s) {
		if c := s[end]; c >= 'a' && c <= 'z' {
			return false
		}
	}
	return true
}

// findHanRun takes the rightmost (or leftmost) same-script run, strips
// station suffix words and the possessive 的, and accepts it only when 2-4
// characters remain.
func findHanRun(fragment string, fromEnd bool) string {
	runs := reHanRun.FindAllString(fragment, -1)
	if len(runs) == 0 {
		return ""
	}
	run := runs[0]
	if fromEnd {
		run = runs[len(runs)-1]
	}
	run = stripStationSuffix(run)
	if n := len([]rune(run)); n >= 2 && n <= 4 {
		return run
	}
	return ""
}

func stripStationSuffix(name string) string {
	name = strings.TrimSuffix(name, "的")
	for _, suffix := range stationSuffixes {
		if trimmed := strings.TrimSuffix(name, suffix); trimmed != name {
			name = trimmed
			break
		}
	}
	return strings.TrimSuffix(name, "的")
}
