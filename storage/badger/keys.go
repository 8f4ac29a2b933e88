package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/tiwa-codes/scripture-sync/core"
)

// Key prefixes for different data types
const (
	verseRecordPrefix  = "verrec"
	verseOrdinalPrefix = "verord"
	verseOrdinalSeq    = "verordseq"
)

// makeVerseKey generates the primary key for a verse by ID.
func makeVerseKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", verseRecordPrefix, id))
}

// makeVerseOrdinalKey generates a key for the ordinal index.
// Format: prefix:ordinal
func makeVerseOrdinalKey(ordinal uint64) []byte {
	prefix := verseOrdinalPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for the ordinal
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort follows insertion order
	binary.BigEndian.PutUint64(buf[offset:], ordinal)
	return buf
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return []byte(fmt.Sprintf("%s:chkpt", processorType))
}
