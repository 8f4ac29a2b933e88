package match

import "github.com/hbollon/go-edlib"

// FuzzyScore measures the best-aligned contiguous overlap between a query
// and a verse text as a ratio in [0,1], tolerant of the insertions,
// deletions and substitutions typical of transcription noise. Both strings
// are normalized first; if either normalizes to empty the score is 0.
func FuzzyScore(query, text string) float64 {
	a := NormalizeText(query)
	b := NormalizeText(text)
	if a == "" || b == "" {
		return 0
	}
	return partialRatio(a, b)
}

// partialRatio slides the shorter string across same-length windows of the
// longer one and returns the best Levenshtein similarity of any window.
// Windows start at word boundaries, plus the tail window so the end of the
// longer string is always covered.
func partialRatio(a, b string) float64 {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if shorter == longer {
		return 1
	}

	width := len(shorter)
	best := 0.0
	for _, start := range windowStarts(longer, width) {
		end := start + width
		if end > len(longer) {
			end = len(longer)
		}
		if sim := levenshteinSimilarity(shorter, longer[start:end]); sim > best {
			best = sim
		}
	}
	return best
}

// windowStarts returns the window start offsets: position 0, the position
// after every space, and the start of the tail window when the string is
// longer than the window width.
func windowStarts(s string, width int) []int {
	starts := []int{0}
	for i := 0; i+1 < len(s); i++ {
		if s[i] == ' ' {
			starts = append(starts, i+1)
		}
	}
	if tail := len(s) - width; tail > 0 {
		starts = append(starts, tail)
	}
	return starts
}

// levenshteinSimilarity wraps the edit-distance primitive into a [0,1]
// similarity. The primitive only errors on an unknown algorithm, which
// cannot happen here; a failure still scores 0 rather than aborting.
func levenshteinSimilarity(a, b string) float64 {
	sim, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	return float64(sim)
}
