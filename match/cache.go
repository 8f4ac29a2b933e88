package match

import (
	"strings"

	"github.com/tiwa-codes/scripture-sync/core"
)

// referenceKey addresses one verse coordinate independent of translation.
type referenceKey struct {
	book    string
	chapter int
	verse   int
}

// referenceEntry holds the per-translation variants stored for one
// coordinate. The default variant is the first verse inserted for the key
// and stays stable for the lifetime of the cache.
type referenceEntry struct {
	variants     map[string]*core.Verse
	defaultVerse *core.Verse
}

// variant returns the verse for a translation, matched case-insensitively,
// or nil when the translation is absent or empty.
func (e *referenceEntry) variant(translation string) *core.Verse {
	if translation == "" {
		return nil
	}
	return e.variants[strings.ToUpper(translation)]
}

// corpusCache is an immutable snapshot of the whole corpus plus the two
// derived citation indices. Verses are kept in ordinal order: verses[i]
// aligns with row i of the vector index.
type corpusCache struct {
	verses    []*core.Verse
	bookNames map[string]string // normalized book name -> canonical book name
	refs      map[referenceKey]*referenceEntry
}

// buildCorpusCache indexes a verse snapshot. The input slice must already
// be in ordinal order; it is retained, not copied.
func buildCorpusCache(verses []*core.Verse) *corpusCache {
	c := &corpusCache{
		verses:    verses,
		bookNames: make(map[string]string),
		refs:      make(map[referenceKey]*referenceEntry),
	}

	for _, v := range verses {
		bookKey := NormalizeText(v.Book)
		if _, ok := c.bookNames[bookKey]; !ok {
			c.bookNames[bookKey] = v.Book
		}

		key := referenceKey{book: v.Book, chapter: v.Chapter, verse: v.VerseNum}
		entry := c.refs[key]
		if entry == nil {
			entry = &referenceEntry{
				variants:     make(map[string]*core.Verse),
				defaultVerse: v,
			}
			c.refs[key] = entry
		}
		translation := strings.ToUpper(v.Translation)
		if _, ok := entry.variants[translation]; !ok {
			entry.variants[translation] = v
		}
	}

	return c
}

// lookup resolves a normalized book key and coordinate to its reference
// entry, or nil when either the book or the coordinate is unknown.
func (c *corpusCache) lookup(bookKey string, chapter, verse int) *referenceEntry {
	canonical, ok := c.bookNames[bookKey]
	if !ok {
		return nil
	}
	return c.refs[referenceKey{book: canonical, chapter: chapter, verse: verse}]
}

func (c *corpusCache) empty() bool {
	return c == nil || len(c.verses) == 0
}

func (c *corpusCache) size() int {
	if c == nil {
		return 0
	}
	return len(c.verses)
}
