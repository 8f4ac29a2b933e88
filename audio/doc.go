// Package audio provides speech transcription for the live pipeline.
//
// The Transcriber interface converts raw PCM segments captured from a
// microphone or PA feed into text. Segments are 16 kHz mono 16-bit
// little-endian PCM, around three seconds each; the capture side owns the
// chunking, transcribers are stateless per call.
//
// Two implementations are provided: WhisperTranscriber talks to a local
// whisper-server over HTTP, and MockTranscriber cycles canned lines for
// demos and tests.
package audio
