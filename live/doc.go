// Package live provides pipeline orchestration for live verse projection.
//
// The Pipeline type manages the path from captured audio to projected
// verse, including:
//   - Transcribing PCM segments via an audio.Transcriber
//   - Resolving transcriptions to verses via the matcher
//   - Broadcasting matches to connected clients
//
// Processing is performed concurrently using worker pools so a slow
// transcription server never blocks resolution. Errors during async
// processing are logged but do not fail the submission.
package live
