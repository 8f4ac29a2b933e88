package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultWhisperTimeout = 30 * time.Second

// WhisperTranscriber implements Transcriber against a whisper-server
// instance (the whisper.cpp HTTP server).
//
// It uses the REST endpoint:
//
//	POST {baseURL}/inference
//
// with a multipart form carrying the segment as a WAV file.
type WhisperTranscriber struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// WhisperOption configures a WhisperTranscriber.
type WhisperOption func(*WhisperTranscriber)

// WithHTTPClient replaces the default HTTP client (30 second timeout).
func WithHTTPClient(client *http.Client) WhisperOption {
	return func(w *WhisperTranscriber) {
		if client != nil {
			w.client = client
		}
	}
}

// WithWhisperLogger sets a custom logger.
// Default is slog.Default().
func WithWhisperLogger(logger *slog.Logger) WhisperOption {
	return func(w *WhisperTranscriber) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWhisperTranscriber creates a transcriber talking to a whisper-server
// at baseURL.
//
// Returns the Transcriber interface to enforce abstraction.
func NewWhisperTranscriber(baseURL string, opts ...WhisperOption) (Transcriber, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	w := &WhisperTranscriber{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultWhisperTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "whisper-transcriber")
	return w, nil
}

// Transcribe uploads one PCM segment and returns the recognized text.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, pcm []byte) (string, error) {
	if len(pcm) == 0 {
		return "", ErrEmptySegment
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "segment.wav")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(WAVFromPCM(pcm)); err != nil {
		return "", err
	}
	if err := form.WriteField("response_format", "json"); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/inference", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcription request failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("cannot parse transcription response: %w", err)
	}

	text := strings.TrimSpace(parsed.Text)
	w.logger.Debug("segment transcribed", "bytes", len(pcm), "length", len(text))
	return text, nil
}
