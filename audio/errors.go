package audio

import "errors"

var (
	// ErrBaseURLRequired is returned when a transcriber is constructed
	// without a server address.
	ErrBaseURLRequired = errors.New("transcription server base URL required")

	// ErrEmptySegment is returned when a zero-length PCM segment is
	// submitted for transcription.
	ErrEmptySegment = errors.New("empty audio segment")
)
