package match

import "strings"

// exactContainedPenalty discounts the score when the verse is contained in
// the query rather than the other way around: a short verse swallowed by a
// longer spoken phrase is slightly less trustworthy, since the speaker may
// be discussing unrelated surrounding content.
const exactContainedPenalty = 0.9

// ExactScore measures substring containment between a query and a verse
// text. Both strings are normalized first; if either normalizes to empty
// the score is 0. A query fully contained in the text scores by coverage,
// len(query)/len(text). A text fully contained in the query scores
// len(text)/len(query) scaled by 0.9. Anything else scores 0: this is a
// containment check, not a similarity metric, and no partial-substring
// credit is given.
func ExactScore(query, text string) float64 {
	q := NormalizeText(query)
	t := NormalizeText(text)
	if q == "" || t == "" {
		return 0
	}

	if strings.Contains(t, q) {
		return float64(len(q)) / float64(len(t))
	}
	if strings.Contains(q, t) {
		return float64(len(t)) / float64(len(q)) * exactContainedPenalty
	}
	return 0
}
