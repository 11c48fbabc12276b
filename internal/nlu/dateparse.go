package nlu

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Relative day words, longest first so 大後天 wins over 後天.
var relativeDays = []struct {
	word string
	days int
}{
	{"大後天", 3},
	{"後天", 2},
	{"明天", 1},
	{"明日", 1},
	{"今天", 0},
	{"今日", 0},
	{"tomorrow", 1},
	{"today", 0},
}

var (
	reWeekday  = regexp.MustCompile(`(下)?(?:星期|週|周|禮拜)([一二三四五六日天])`)
	reMonthDay = regexp.MustCompile(`([0-9]{1,2})月([0-9]{1,2})[日號]?`)
	reSlashMD  = regexp.MustCompile(`([0-9]{1,2})/([0-9]{1,2})`)
)

var weekdayOf = map[string]time.Weekday{
	"日": time.Sunday, "天": time.Sunday,
	"一": time.Monday, "二": time.Tuesday, "三": time.Wednesday,
	"四": time.Thursday, "五": time.Friday, "六": time.Saturday,
}

// extractDate resolves date words against the current civil date in the
// fixed timezone, in priority order: relative day words, named weekdays
// (with "next week" adding 7 days), explicit month/day (rolled to next year
// if already passed). Output is YYYY-MM-DD regardless of host timezone.
func (e *Extractor) extractDate(raw RawQuery, intent *ParsedIntent, now time.Time) {
	text := raw.Normalized
	today := now.In(e.loc)

	for _, rd := range relativeDays {
		if strings.Contains(text, rd.word) {
			intent.Date = today.AddDate(0, 0, rd.days).Format("2006-01-02")
			intent.addConfidence(weightDate, "date_relative")
			return
		}
	}

	if m := reWeekday.FindStringSubmatch(text); m != nil {
		target := weekdayOf[m[2]]
		days := (int(target) - int(today.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		rule := "date_weekday"
		if m[1] != "" {
			days += 7
			rule = "date_weekday_next"
		}
		intent.Date = today.AddDate(0, 0, days).Format("2006-01-02")
		intent.addConfidence(weightDate, rule)
		return
	}

	if month, day, ok := matchMonthDay(text); ok {
		candidate := time.Date(today.Year(), time.Month(month), day, 0, 0, 0, 0, e.loc)
		// Reject numerals that normalize away (2月30日 and the like).
		if int(candidate.Month()) != month || candidate.Day() != day {
			return
		}
		todayMidnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, e.loc)
		if candidate.Before(todayMidnight) {
			candidate = candidate.AddDate(1, 0, 0)
		}
		intent.Date = candidate.Format("2006-01-02")
		intent.addConfidence(weightDate, "date_explicit")
	}
}

func matchMonthDay(text string) (month, day int, ok bool) {
	m := reMonthDay.FindStringSubmatch(text)
	if m == nil {
		m = reSlashMD.FindStringSubmatch(text)
	}
	if m == nil {
		return 0, 0, false
	}
	month, _ = strconv.Atoi(m[1])
	day, _ = strconv.Atoi(m[2])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, false
	}
	return month, day, true
}
