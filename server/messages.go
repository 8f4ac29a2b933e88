package server

import (
	"strconv"

	"github.com/tiwa-codes/scripture-sync/core"
)

// WebSocket message types. Every broadcast frame is a JSON object whose
// "type" field carries one of these values.
const (
	msgTypeVerseMatch  = "verse_match"
	msgTypeManualVerse = "manual_verse"
	msgTypeLockStatus  = "lock_status"
)

// versePayload is the wire shape of a verse, shared by REST responses and
// broadcast messages. IDs travel as decimal strings; a 64-bit content
// hash does not survive a round-trip through a JSON double.
type versePayload struct {
	Id          core.ID `json:"id,string"`
	Translation string  `json:"translation"`
	Book        string  `json:"book"`
	Chapter     int     `json:"chapter"`
	VerseNum    int     `json:"verse"`
	Text        string  `json:"text"`
	Reference   string  `json:"reference"`
}

func newVersePayload(v *core.Verse) versePayload {
	return versePayload{
		Id:          v.Id,
		Translation: v.Translation,
		Book:        v.Book,
		Chapter:     v.Chapter,
		VerseNum:    v.VerseNum,
		Text:        v.Text,
		Reference:   v.Reference(),
	}
}

// verseMatchMessage announces a live transcription that resolved to a
// verse.
type verseMatchMessage struct {
	Type      string       `json:"type"`
	Text      string       `json:"text"`
	Verse     versePayload `json:"verse"`
	Score     float64      `json:"score"`
	LatencyMS float64      `json:"latency_ms"`
}

// manualVerseMessage announces a verse pushed to the display by an
// operator.
type manualVerseMessage struct {
	Type  string       `json:"type"`
	Verse versePayload `json:"verse"`
}

// lockStatusMessage announces a change to the display lock. VerseId is
// null while unlocked.
type lockStatusMessage struct {
	Type    string  `json:"type"`
	Locked  bool    `json:"locked"`
	VerseId *string `json:"verse_id"`
}

func idString(id core.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

// verseIdOrNull renders a verse ID for lock payloads, null for the zero
// ID so unlocked frames read as "no verse pinned".
func verseIdOrNull(id core.ID) *string {
	if id == 0 {
		return nil
	}
	s := idString(id)
	return &s
}
