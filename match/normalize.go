package match

import (
	"strings"
	"unicode"
)

// NormalizeText canonicalizes text for comparison: lowercase, every
// character that is not a letter or digit becomes a single space, runs of
// whitespace collapse to one space, and the ends are trimmed.
//
// Both citation keys and text scoring go through this function, so every
// comparison in the package is performed on canonical forms. Apostrophes
// split words: NormalizeText("God's love") == "god s love".
func NormalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	pendingSpace := false
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(unicode.ToLower(r))
			pendingSpace = false
			continue
		}
		// Whitespace and punctuation both collapse into one separator.
		pendingSpace = true
	}

	return b.String()
}
