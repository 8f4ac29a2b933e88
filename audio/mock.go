package audio

import (
	"context"
	"sync"
)

// MockTranscriber is a mock implementation of the Transcriber interface
// for testing without a transcription server or audio hardware.
type MockTranscriber struct {
	// TranscribeFunc allows custom behavior injection.
	TranscribeFunc func(ctx context.Context, pcm []byte) (string, error)

	mu        sync.Mutex
	lines     []string
	callCount int
}

// NewMockTranscriber creates a mock that cycles through the given lines,
// one per segment. With no lines it cycles a small set of verse quotes.
func NewMockTranscriber(lines ...string) *MockTranscriber {
	if len(lines) == 0 {
		lines = []string{
			"for god so loved the world",
			"the lord is my shepherd i shall not want",
			"in the beginning god created the heaven and the earth",
		}
	}
	return &MockTranscriber{lines: lines}
}

// Transcribe returns the next canned line, or calls TranscribeFunc if set.
func (m *MockTranscriber) Transcribe(ctx context.Context, pcm []byte) (string, error) {
	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, pcm)
	}
	if len(pcm) == 0 {
		return "", ErrEmptySegment
	}
	return m.lines[(n-1)%len(m.lines)], nil
}

// CallCount returns the number of times Transcribe was called.
func (m *MockTranscriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call counter.
func (m *MockTranscriber) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
}

// Verify interface compliance at compile time.
var _ Transcriber = (*MockTranscriber)(nil)
