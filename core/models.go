package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Verse IDs are derived from content hashing so that re-importing the same
// corpus always produces the same IDs.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Verse represents a single verse of a single translation.
// Stored verses are immutable except for Vector, which is populated by the
// embedding tooling after import.
type Verse struct {
	Id          ID
	Translation string // e.g. "KJV", "NIV"
	Book        string // canonical book name, e.g. "John", "1 John"
	Chapter     int
	VerseNum    int
	Text        string
	Vector      []float32 // embedding vector for semantic search (populated by tooling)
}

// VerseID computes the content-based ID for a verse coordinate.
// The translation participates in the hash, so the same verse in two
// translations gets two distinct IDs.
func VerseID(translation, book string, chapter, verseNum int) ID {
	return IDFromContent(fmt.Sprintf("%s|%s|%d|%d", translation, book, chapter, verseNum))
}

// Reference renders the verse coordinate as "Book Chapter:Verse (TRANSLATION)".
func (v *Verse) Reference() string {
	return fmt.Sprintf("%s %d:%d (%s)", v.Book, v.Chapter, v.VerseNum, v.Translation)
}

// MatchResult is the outcome of resolving a query against the corpus.
// Results are constructed per query and never persisted.
type MatchResult struct {
	Verse     *Verse
	Score     float64 // combined score in [0,1]
	ElapsedMS float64 // wall-clock resolution time in milliseconds
}

// Checkpoint records batch-processor progress so that long-running jobs
// (reembedding the whole corpus, for example) can resume after interruption.
type Checkpoint struct {
	ProcessorType string
	LastId        ID
	Processed     int
	UpdatedAt     time.Time
}
