package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/tiwa-codes/scripture-sync/core"
	"github.com/tiwa-codes/scripture-sync/live"
	"github.com/tiwa-codes/scripture-sync/match"
	"github.com/tiwa-codes/scripture-sync/storage"
)

const (
	defaultAppName = "Scripture Sync"

	// defaultPageSize caps /verses/ listings unless the caller asks
	// otherwise.
	defaultPageSize = 100

	// defaultSearchScore is the /search acceptance threshold when the
	// request does not carry min_score. Deliberately permissive; a manual
	// search wants the best guess, not silence.
	defaultSearchScore = 0.3
)

// Matcher resolves queries against the corpus and reports the capability
// mode it was initialized with.
type Matcher interface {
	FindBestMatch(ctx context.Context, query string, minScore float64, translation string) (*core.MatchResult, error)
	Mode() match.Mode
}

var _ Matcher = (*match.Matcher)(nil)

// TextSubmitter enqueues pre-transcribed text onto the live pipeline.
type TextSubmitter interface {
	SubmitText(text string) error
}

var _ TextSubmitter = (*live.Pipeline)(nil)

// Server exposes the REST and WebSocket API.
type Server struct {
	appName  string
	verses   storage.VerseRepository
	matcher  Matcher
	hub      *Hub
	pipeline TextSubmitter
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithAppName sets the name reported on the root endpoint.
// Default is "Scripture Sync".
func WithAppName(name string) Option {
	return func(s *Server) error {
		if name != "" {
			s.appName = name
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithPipeline attaches the live pipeline backing POST /transcribe.
// Without one the endpoint answers 503.
func WithPipeline(pipeline TextSubmitter) Option {
	return func(s *Server) error {
		s.pipeline = pipeline
		return nil
	}
}

// NewServer wires the API around a verse corpus, a resolution engine and
// a broadcast hub.
func NewServer(verses storage.VerseRepository, matcher Matcher, hub *Hub, opts ...Option) (*Server, error) {
	if verses == nil {
		return nil, ErrVersesRequired
	}
	if matcher == nil {
		return nil, ErrMatcherRequired
	}
	if hub == nil {
		return nil, ErrHubRequired
	}

	s := &Server{
		appName: defaultAppName,
		verses:  verses,
		matcher: matcher,
		hub:     hub,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Hub returns the broadcast hub, for wiring the live pipeline's lock
// check and broadcaster.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Routes returns the handler serving the full API surface.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/verses/", s.handleVerses)
	mux.HandleFunc("/lock", s.handleLock)
	mux.HandleFunc("/transcribe", s.handleTranscribe)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/ws", s.hub.HandleWS)
	return withCORS(mux)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"app":    s.appName,
		"status": "running",
		"locked": s.hub.Locked(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	count, err := s.verses.CountVerses(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"mode":               s.matcher.Mode().String(),
		"verses":             count,
		"locked":             s.hub.Locked(),
		"active_connections": s.hub.ClientCount(),
	})
}

// handleVerses dispatches the /verses/ subtree: the collection, the
// operator's manual push, and single-verse lookups.
func (s *Server) handleVerses(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/verses/"), "/")
	switch {
	case rest == "":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleListVerses(w, r)
	case rest == "manual":
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleManualVerse(w, r)
	default:
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleGetVerse(w, r, rest)
	}
}

func (s *Server) handleListVerses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skip := parseIntParam(q.Get("skip"), 0)
	if skip < 0 {
		skip = 0
	}
	limit := parseIntParam(q.Get("limit"), defaultPageSize)

	verses, err := s.verses.GetVersesByBook(r.Context(), q.Get("translation"), q.Get("book"), skip, limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]versePayload, 0, len(verses))
	for _, v := range verses {
		out = append(out, newVersePayload(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{"verses": out})
}

func (s *Server) handleGetVerse(w http.ResponseWriter, r *http.Request, rawId string) {
	id, err := strconv.ParseUint(rawId, 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid verse id"))
		return
	}

	verse, err := s.verses.GetVerse(r.Context(), core.ID(id))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if verse == nil {
		writeErr(w, http.StatusNotFound, fmt.Errorf("verse not found"))
		return
	}
	writeJSON(w, http.StatusOK, newVersePayload(verse))
}

func (s *Server) handleManualVerse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VerseId core.ID `json:"verse_id,string"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}

	verse, err := s.verses.GetVerse(r.Context(), req.VerseId)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if verse == nil {
		writeErr(w, http.StatusNotFound, fmt.Errorf("verse not found"))
		return
	}

	s.logger.Info("manual verse pushed", "reference", verse.Reference())
	s.hub.Broadcast(manualVerseMessage{
		Type:  msgTypeManualVerse,
		Verse: newVersePayload(verse),
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "verse_id": idString(verse.Id)})
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}

	var req struct {
		Locked  bool    `json:"locked"`
		VerseId core.ID `json:"verse_id,string"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}

	locked, verseId := s.hub.SetLock(req.Locked, req.VerseId)
	s.logger.Info("display lock changed", "locked", locked, "verse_id", verseId)
	s.hub.Broadcast(lockStatusMessage{
		Type:    msgTypeLockStatus,
		Locked:  locked,
		VerseId: verseIdOrNull(verseId),
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"locked":   locked,
		"verse_id": verseIdOrNull(verseId),
	})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.pipeline == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("live pipeline is not running"))
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("text is required"))
		return
	}

	if err := s.pipeline.SubmitText(req.Text); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "text": req.Text})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("q is required"))
		return
	}
	translation := r.URL.Query().Get("translation")
	minScore := defaultSearchScore
	if raw := r.URL.Query().Get("min_score"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid min_score"))
			return
		}
		minScore = parsed
	}

	result, err := s.matcher.FindBestMatch(r.Context(), query, minScore, translation)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if result == nil {
		writeJSON(w, http.StatusOK, map[string]any{"matches": []searchMatch{}})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"matches": []searchMatch{{
			versePayload: newVersePayload(result.Verse),
			Score:        result.Score,
		}},
		"latency_ms": result.ElapsedMS,
	})
}

// searchMatch is a verse payload carrying the combined score it earned
// for the query.
type searchMatch struct {
	versePayload
	Score float64 `json:"score"`
}

func parseIntParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
