package match

import (
	"strconv"
	"strings"
	"unicode"
)

const maxTranslationTagLength = 24

// citationRef is the capture set of a parsed citation: book, chapter and
// verse identify the coordinate, translation holds the optional trailing
// tag ("" when absent).
type citationRef struct {
	book        string
	chapter     int
	verse       int
	translation string
}

// citationCore marks the byte offsets of the chapter and verse digit runs
// within the raw input.
type citationCore struct {
	bookEnd      int
	chapterStart int
	chapterEnd   int
	verseStart   int
	verseEnd     int
}

// parseCitation recognizes structured references of the shape
//
//	[1-3 ]Book Chapter{:|.}Verse [(TAG) | [TAG] | TAG]
//
// such as "John 3:16", "1 John 4.8", "Genesis 1:1 (NIV)" or
// "psalm 23:1 kjv", case-insensitive. Book names may contain digits and
// internal spaces; the chapter must be separated from the book by
// whitespace so numbered books keep their prefix. Input that does not fit
// the shape is reported as not-a-citation, never as an error, and the
// caller falls through to the scoring pipeline.
func parseCitation(input string) (citationRef, bool) {
	var ref citationRef

	s := strings.TrimSpace(input)
	if s == "" {
		return ref, false
	}

	core, ok := findCitationCore(s)
	if !ok {
		return ref, false
	}

	book, ok := citationBook(s[:core.bookEnd])
	if !ok {
		return ref, false
	}

	chapter, err := strconv.Atoi(s[core.chapterStart:core.chapterEnd])
	if err != nil {
		return ref, false
	}
	verse, err := strconv.Atoi(s[core.verseStart:core.verseEnd])
	if err != nil {
		return ref, false
	}

	tag, ok := citationTag(s[core.verseEnd:])
	if !ok {
		return ref, false
	}

	ref.book = book
	ref.chapter = chapter
	ref.verse = verse
	ref.translation = tag
	return ref, true
}

// findCitationCore scans left to right for the first "digits{:|.}digits"
// run whose chapter digits follow whitespace. Leading digits never match,
// which is what keeps the numeral prefix of "1 John 3:16" attached to the
// book name.
func findCitationCore(s string) (citationCore, bool) {
	for i := 1; i < len(s); i++ {
		if !isCitationSpace(s[i-1]) || !isASCIIDigit(s[i]) {
			continue
		}

		j := i
		for j < len(s) && isASCIIDigit(s[j]) {
			j++
		}
		if j >= len(s) || (s[j] != ':' && s[j] != '.') {
			continue
		}

		k := j + 1
		for k < len(s) && isASCIIDigit(s[k]) {
			k++
		}
		if k == j+1 {
			continue
		}

		return citationCore{
			bookEnd:      i - 1,
			chapterStart: i,
			chapterEnd:   j,
			verseStart:   j + 1,
			verseEnd:     k,
		}, true
	}
	return citationCore{}, false
}

// citationBook validates and trims the book portion. A leading numeral is
// allowed only as a single digit 1-3 ("1 John", "2 Kings"); the rest is
// letters, digits and internal spaces, with at least one letter.
func citationBook(raw string) (string, bool) {
	book := strings.TrimSpace(raw)
	if book == "" {
		return "", false
	}

	if isASCIIDigit(book[0]) {
		if book[0] < '1' || book[0] > '3' {
			return "", false
		}
		if len(book) > 1 && isASCIIDigit(book[1]) {
			return "", false
		}
	}

	hasLetter := false
	for _, r := range book {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r) || r == ' ':
		default:
			return "", false
		}
	}
	return book, hasLetter
}

// citationTag extracts the optional trailing translation tag. Accepted
// forms: nothing, "(NIV)", "[NIV]", or a single bare token such as "kjv".
// Parenthesized and bracketed tags may contain spaces ("(New International
// Version)"); a bare tag must be a single alphanumeric token, so trailing
// free text rejects the citation as a whole instead of being swallowed.
func citationTag(raw string) (string, bool) {
	trailer := strings.TrimSpace(raw)
	if trailer == "" {
		return "", true
	}

	wrapped := false
	if len(trailer) >= 2 {
		first, last := trailer[0], trailer[len(trailer)-1]
		if (first == '(' && last == ')') || (first == '[' && last == ']') {
			trailer = strings.TrimSpace(trailer[1 : len(trailer)-1])
			wrapped = true
		}
	}
	if trailer == "" || len(trailer) > maxTranslationTagLength {
		return "", false
	}

	for _, r := range trailer {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		if r == ' ' && wrapped {
			continue
		}
		return "", false
	}
	return trailer, true
}

func isCitationSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
