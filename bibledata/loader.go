package bibledata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tiwa-codes/scripture-sync/core"
)

// ErrMissingTranslation is returned when neither the document nor the
// caller provides a translation for the verses being loaded.
var ErrMissingTranslation = errors.New("no translation for verse entries")

// flatEntry is one element of the flat-array format. "version" is accepted
// as an alias for "translation".
type flatEntry struct {
	Translation string `json:"translation"`
	Version     string `json:"version"`
	Book        string `json:"book"`
	Chapter     int    `json:"chapter"`
	Verse       int    `json:"verse"`
	Text        string `json:"text"`
}

// booksDocument is the envelope of the books format.
type booksDocument struct {
	Version     string     `json:"version"`
	Translation string     `json:"translation"`
	Books       []bookJSON `json:"books"`
}

type bookJSON struct {
	Name     string        `json:"name"`
	Chapters []chapterJSON `json:"chapters"`
}

type chapterJSON struct {
	Chapter int         `json:"chapter"`
	Verses  []verseJSON `json:"verses"`
}

type verseJSON struct {
	Verse int    `json:"verse"`
	Text  string `json:"text"`
}

// LoadFile reads a corpus file and parses it with ParseJSON.
// defaultTranslation applies to entries that do not carry their own.
func LoadFile(path, defaultTranslation string) ([]*core.Verse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus file: %w", err)
	}
	verses, err := ParseJSON(data, defaultTranslation)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return verses, nil
}

// ParseJSON parses a corpus document in any of the accepted formats (see
// the package documentation) and returns verses in document order with
// IDs unset; the repository assigns content-based IDs on insert.
func ParseJSON(data []byte, defaultTranslation string) ([]*core.Verse, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, errors.New("empty corpus document")
	}

	if trimmed[0] == '[' {
		return parseFlat(data, defaultTranslation)
	}
	if trimmed[0] != '{' {
		return nil, errors.New("unrecognized corpus format")
	}

	// Probe for the books envelope before falling back to the book map.
	var envelope booksDocument
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Books) > 0 {
		return parseBooks(&envelope, defaultTranslation)
	}
	return parseBookMap(data, defaultTranslation)
}

func parseFlat(data []byte, defaultTranslation string) ([]*core.Verse, error) {
	var entries []flatEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("flat corpus array: %w", err)
	}

	verses := make([]*core.Verse, 0, len(entries))
	for _, e := range entries {
		if e.Book == "" || e.Text == "" || e.Chapter <= 0 || e.Verse <= 0 {
			continue
		}
		translation := e.Translation
		if translation == "" {
			translation = e.Version
		}
		if translation == "" {
			translation = defaultTranslation
		}
		if translation == "" {
			return nil, ErrMissingTranslation
		}
		verses = append(verses, &core.Verse{
			Translation: translation,
			Book:        e.Book,
			Chapter:     e.Chapter,
			VerseNum:    e.Verse,
			Text:        e.Text,
		})
	}
	return verses, nil
}

func parseBooks(doc *booksDocument, defaultTranslation string) ([]*core.Verse, error) {
	translation := doc.Translation
	if translation == "" {
		translation = doc.Version
	}
	if translation == "" {
		translation = defaultTranslation
	}
	if translation == "" {
		return nil, ErrMissingTranslation
	}

	var verses []*core.Verse
	for _, book := range doc.Books {
		if book.Name == "" {
			continue
		}
		for _, chapter := range book.Chapters {
			if chapter.Chapter <= 0 {
				continue
			}
			for _, v := range chapter.Verses {
				if v.Verse <= 0 || v.Text == "" {
					continue
				}
				verses = append(verses, &core.Verse{
					Translation: translation,
					Book:        book.Name,
					Chapter:     chapter.Chapter,
					VerseNum:    v.Verse,
					Text:        v.Text,
				})
			}
		}
	}
	return verses, nil
}

// parseBookMap decodes the nested book map with a token walk that
// preserves document order, which plain map decoding would randomize.
// Order matters: it fixes corpus ordinals and default variants.
func parseBookMap(data []byte, defaultTranslation string) ([]*core.Verse, error) {
	if defaultTranslation == "" {
		return nil, ErrMissingTranslation
	}

	var verses []*core.Verse
	err := walkObject(data, func(book string, chapters []byte) error {
		if book == "" {
			return nil
		}
		return walkObject(chapters, func(chapterKey string, verseMap []byte) error {
			chapter, err := strconv.Atoi(strings.TrimSpace(chapterKey))
			if err != nil || chapter <= 0 {
				return nil
			}
			return walkObject(verseMap, func(verseKey string, value []byte) error {
				verseNum, err := strconv.Atoi(strings.TrimSpace(verseKey))
				if err != nil || verseNum <= 0 {
					return nil
				}
				var text string
				if err := json.Unmarshal(value, &text); err != nil || text == "" {
					return nil
				}
				verses = append(verses, &core.Verse{
					Translation: defaultTranslation,
					Book:        book,
					Chapter:     chapter,
					VerseNum:    verseNum,
					Text:        text,
				})
				return nil
			})
		})
	})
	if err != nil {
		return nil, fmt.Errorf("nested corpus object: %w", err)
	}
	return verses, nil
}

// walkObject calls fn for each key of a JSON object in document order,
// passing the raw bytes of the value. Non-object input is skipped without
// error; the loaders treat shape mismatches as skippable entries.
func walkObject(data []byte, fn func(key string, value []byte) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return nil
}
