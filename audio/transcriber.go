package audio

import "context"

// Audio format of the capture pipeline. Whisper models are trained on
// 16 kHz mono input, so the capture side resamples to this format before
// segmenting.
const (
	SampleRate     = 16000
	Channels       = 1
	BitsPerSample  = 16
	SegmentSeconds = 3
)

// SegmentBytes is the size of one full capture segment.
const SegmentBytes = SampleRate * SegmentSeconds * Channels * BitsPerSample / 8

// Transcriber converts a PCM audio segment to text.
// Implementations must be thread-safe for concurrent use.
type Transcriber interface {
	// Transcribe converts one segment of 16 kHz mono 16-bit little-endian
	// PCM to text. The returned text is trimmed; an empty string with a
	// nil error means the segment contained no recognizable speech.
	Transcribe(ctx context.Context, pcm []byte) (string, error)
}
