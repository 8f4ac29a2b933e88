package config

import (
	"os"
	"strconv"
)

// Settings holds runtime configuration for the service and CLI.
// Values come from the environment with sensible defaults; the CLI loads
// a .env file first so deployments can keep settings beside the binary.
type Settings struct {
	AppName        string
	Addr           string
	DBPath         string
	MinMatchScore  float64
	MinTextLength  int
	EmbeddingHost  string
	EmbeddingModel string
	WhisperURL     string
	CandidateLimit int
}

// Load reads settings from the environment.
func Load() Settings {
	return Settings{
		AppName:        getenv("SCRIPTURE_SYNC_APP_NAME", "Scripture Sync"),
		Addr:           getenv("SCRIPTURE_SYNC_ADDR", ":8080"),
		DBPath:         getenv("SCRIPTURE_SYNC_DB", "./scripture-sync-data"),
		MinMatchScore:  getenvFloat("SCRIPTURE_SYNC_MIN_MATCH_SCORE", 0.6),
		MinTextLength:  getenvInt("SCRIPTURE_SYNC_MIN_TEXT_LENGTH", 5),
		EmbeddingHost:  getenv("SCRIPTURE_SYNC_EMBEDDING_HOST", "http://localhost:11434/v1"),
		EmbeddingModel: getenv("SCRIPTURE_SYNC_EMBEDDING_MODEL", "embeddinggemma"),
		WhisperURL:     getenv("SCRIPTURE_SYNC_WHISPER_URL", "http://localhost:9000"),
		CandidateLimit: getenvInt("SCRIPTURE_SYNC_CANDIDATE_LIMIT", 20),
	}
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(k string, fallback float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
