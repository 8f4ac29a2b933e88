package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	settings := Load()

	assert.Equal(t, "Scripture Sync", settings.AppName)
	assert.Equal(t, ":8080", settings.Addr)
	assert.Equal(t, "./scripture-sync-data", settings.DBPath)
	assert.Equal(t, 0.6, settings.MinMatchScore)
	assert.Equal(t, 5, settings.MinTextLength)
	assert.Equal(t, "http://localhost:11434/v1", settings.EmbeddingHost)
	assert.Equal(t, "embeddinggemma", settings.EmbeddingModel)
	assert.Equal(t, "http://localhost:9000", settings.WhisperURL)
	assert.Equal(t, 20, settings.CandidateLimit)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SCRIPTURE_SYNC_APP_NAME", "Sunday Service")
	t.Setenv("SCRIPTURE_SYNC_ADDR", ":9999")
	t.Setenv("SCRIPTURE_SYNC_DB", "/var/lib/sync")
	t.Setenv("SCRIPTURE_SYNC_MIN_MATCH_SCORE", "0.75")
	t.Setenv("SCRIPTURE_SYNC_MIN_TEXT_LENGTH", "8")
	t.Setenv("SCRIPTURE_SYNC_EMBEDDING_HOST", "http://embed:11434/v1")
	t.Setenv("SCRIPTURE_SYNC_EMBEDDING_MODEL", "nomic-embed-text")
	t.Setenv("SCRIPTURE_SYNC_WHISPER_URL", "http://whisper:9000")
	t.Setenv("SCRIPTURE_SYNC_CANDIDATE_LIMIT", "50")

	settings := Load()

	assert.Equal(t, "Sunday Service", settings.AppName)
	assert.Equal(t, ":9999", settings.Addr)
	assert.Equal(t, "/var/lib/sync", settings.DBPath)
	assert.Equal(t, 0.75, settings.MinMatchScore)
	assert.Equal(t, 8, settings.MinTextLength)
	assert.Equal(t, "http://embed:11434/v1", settings.EmbeddingHost)
	assert.Equal(t, "nomic-embed-text", settings.EmbeddingModel)
	assert.Equal(t, "http://whisper:9000", settings.WhisperURL)
	assert.Equal(t, 50, settings.CandidateLimit)
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("SCRIPTURE_SYNC_MIN_MATCH_SCORE", "very confident")
	t.Setenv("SCRIPTURE_SYNC_CANDIDATE_LIMIT", "lots")

	settings := Load()

	assert.Equal(t, 0.6, settings.MinMatchScore)
	assert.Equal(t, 20, settings.CandidateLimit)
}
