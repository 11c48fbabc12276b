package nlu

import "regexp"

var (
	// Whole-string 1-4 digit numeral: the query is the train number.
	reTrainNoWhole = regexp.MustCompile(`^[0-9]{1,4}$`)

	// Numeral qualified by a class name, e.g. "自強 123" or "普悠瑪272".
	reTrainNoClass = regexp.MustCompile(`(自強|普悠瑪|太魯閣|莒光|復興|區間快|區間)(?:號)?\s*([0-9]{1,4})(?:次)?`)

	// Numeral followed by a status-query suffix, e.g. "152誤點嗎".
	reTrainNoStatus = regexp.MustCompile(`([0-9]{2,4})\s*(?:次|號)?\s*(?:列車)?\s*(?:誤點|晚點|準點|到哪|狀態|幾點到)`)
)

// extractTrainNo runs first. Returns true when the whole query is a train
// number, which short-circuits all later passes. Qualified or status-query
// numerals are recognized at lower confidence without short-circuiting.
func (e *Extractor) extractTrainNo(raw RawQuery, intent *ParsedIntent) (shortCircuit bool) {
	if reTrainNoWhole.MatchString(raw.Normalized) {
		intent.TrainNo = raw.Normalized
		if len(raw.Normalized) <= 2 {
			// 1-2 digits could be a truncated number; flag it and act
			// with less certainty.
			intent.TrainNoPartial = true
			intent.addConfidence(weightTrainNoPartial, "train_no_bare_short")
		} else {
			intent.addConfidence(weightTrainNoExact, "train_no_bare")
		}
		return true
	}

	if m := reTrainNoClass.FindStringSubmatch(raw.Normalized); m != nil {
		intent.TrainNo = m[2]
		intent.addConfidence(weightTrainNoEmbed, "train_no_with_class")
		return false
	}
	if m := reTrainNoStatus.FindStringSubmatch(raw.Normalized); m != nil {
		intent.TrainNo = m[1]
		intent.addConfidence(weightTrainNoEmbed, "train_no_status_query")
		return false
	}
	return false
}
