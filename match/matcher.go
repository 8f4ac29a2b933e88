package match

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/tiwa-codes/scripture-sync/ai"
	"github.com/tiwa-codes/scripture-sync/core"
	"github.com/tiwa-codes/scripture-sync/storage"
)

const (
	// minQueryLength is the minimum trimmed query length in runes; shorter
	// fragments are too ambiguous to score meaningfully.
	minQueryLength = 5

	// citationScore is the fixed score of a resolved citation: a parsed
	// reference is authoritative, not a guess.
	citationScore = 1.0

	// degradedThresholdCap bounds the acceptance threshold in ModeDegraded.
	// Exact+fuzzy blends run systematically lower than blends with a
	// semantic signal, so a caller's higher minimum would starve the
	// matcher of hits instead of making it stricter.
	degradedThresholdCap = 0.5

	// defaultCandidateLimit is the semantic shortlist size per query.
	defaultCandidateLimit = 20

	// defaultDistanceDivisor scales the exponential decay that converts an
	// index distance to a similarity. It is a tuning knob, not a derived
	// value; embedding models with different distance ranges want a
	// different divisor (WithDistanceDivisor).
	defaultDistanceDivisor = 10.0
)

// Mode reports which scoring capabilities a Matcher has. The mode is
// decided once per Initialize and stays fixed until the next Initialize;
// it never changes mid-query.
type Mode int

const (
	// ModeDegraded scores with exact and fuzzy signals only, over the
	// whole corpus, with the acceptance threshold capped at 0.5.
	ModeDegraded Mode = iota

	// ModeSemantic adds embedding-based candidate selection and a semantic
	// component to the blended score.
	ModeSemantic
)

func (m Mode) String() string {
	switch m {
	case ModeSemantic:
		return "semantic"
	case ModeDegraded:
		return "degraded"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// candidate pairs a corpus ordinal with its semantic sub-score. The
// fallback path synthesizes candidates with a zero semantic score.
type candidate struct {
	ordinal  int
	semantic float64
}

// Matcher resolves free-form text to the best-matching verse in the
// corpus. Construct with NewMatcher, then call Initialize once before
// serving queries; concurrent FindBestMatch calls are safe afterwards.
type Matcher struct {
	verses   storage.VerseRepository
	embedder ai.Embedder

	candidateLimit  int
	distanceDivisor float64
	logger          *slog.Logger

	mu    sync.RWMutex
	cache *corpusCache
	index *vectorIndex
	mode  Mode
}

// Option configures a Matcher.
type Option func(*Matcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// WithEmbedder supplies the optional semantic backend. Without an embedder
// the matcher always initializes into ModeDegraded.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(m *Matcher) error {
		m.embedder = embedder
		return nil
	}
}

// WithCandidateLimit sets the semantic shortlist size.
// Values below 1 fall back to the default of 20.
func WithCandidateLimit(limit int) Option {
	return func(m *Matcher) error {
		if limit < 1 {
			limit = defaultCandidateLimit
		}
		m.candidateLimit = limit
		return nil
	}
}

// WithDistanceDivisor sets the scaling constant of the distance-to-
// similarity decay. Values at or below 0 fall back to the default of 10.
func WithDistanceDivisor(divisor float64) Option {
	return func(m *Matcher) error {
		if divisor <= 0 {
			divisor = defaultDistanceDivisor
		}
		m.distanceDivisor = divisor
		return nil
	}
}

// NewMatcher creates a matcher over the given verse repository.
func NewMatcher(verses storage.VerseRepository, opts ...Option) (*Matcher, error) {
	if verses == nil {
		return nil, ErrVerseRepositoryRequired
	}

	m := &Matcher{
		verses:          verses,
		candidateLimit:  defaultCandidateLimit,
		distanceDivisor: defaultDistanceDivisor,
		logger:          slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	m.logger = m.logger.With("component", "matcher")
	return m, nil
}

// Mode returns the capability mode decided by the last Initialize.
// A matcher that was never initialized reports ModeDegraded.
func (m *Matcher) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// Initialize (re)builds the corpus snapshot and citation indices from the
// repository, then attempts to bring up the semantic backend: persisted
// vectors are reused, verses without one are embedded in a batch, and the
// flat index is built over the result. Initialization never fails; any
// backend problem is logged and reported as ModeDegraded, which is a
// normal outcome rather than an error. The returned mode is fixed until
// the next Initialize call.
//
// Initialize is a single-writer phase: do not run it concurrently with
// queries.
func (m *Matcher) Initialize(ctx context.Context) Mode {
	mode := ModeDegraded
	var (
		cache *corpusCache
		index *vectorIndex
	)

	verses, err := m.verses.GetAllVerses(ctx)
	switch {
	case err != nil:
		// Leave the cache unbuilt so the next query retries the load.
		m.logger.Error("loading corpus failed, queries will retry", "err", err)
	default:
		cache = buildCorpusCache(verses)
		switch {
		case m.embedder == nil:
			m.logger.Info("no embedder configured, exact and fuzzy scoring only")
		case cache.empty():
			m.logger.Info("corpus is empty, semantic index not built")
		default:
			index, err = m.buildIndex(ctx, cache.verses)
			if err != nil {
				m.logger.Warn("semantic backend unavailable, running degraded", "err", err)
				index = nil
			} else {
				mode = ModeSemantic
			}
		}
	}

	m.mu.Lock()
	m.cache = cache
	m.index = index
	m.mode = mode
	m.mu.Unlock()

	m.logger.Info("matcher initialized", "mode", mode.String(), "verses", cache.size())
	return mode
}

// buildIndex assembles the flat vector index in ordinal order, embedding
// only the verses that have no persisted vector. A corpus embedded at
// import time skips the encoder entirely here.
func (m *Matcher) buildIndex(ctx context.Context, verses []*core.Verse) (*vectorIndex, error) {
	vectors := make([][]float32, len(verses))
	var missingTexts []string
	var missingRows []int
	for i, v := range verses {
		if len(v.Vector) == 0 {
			missingTexts = append(missingTexts, v.Text)
			missingRows = append(missingRows, i)
			continue
		}
		vectors[i] = v.Vector
	}

	if len(missingTexts) > 0 {
		embedded, err := m.embedder.EmbedTexts(ctx, missingTexts)
		if err != nil {
			return nil, fmt.Errorf("embedding %d verses: %w", len(missingTexts), err)
		}
		if len(embedded) != len(missingTexts) {
			return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(missingTexts), len(embedded))
		}
		for i, row := range missingRows {
			vectors[row] = embedded[i]
		}
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, ErrEmptyVector
	}
	index := newVectorIndex(dim)
	if err := index.Add(vectors...); err != nil {
		return nil, err
	}
	return index, nil
}

// FindBestMatch resolves a query to the single best-matching verse, or
// nil, nil when nothing clears the threshold. See FindBestMatchWithMonitor.
func (m *Matcher) FindBestMatch(ctx context.Context, query string, minScore float64, translation string) (*core.MatchResult, error) {
	return m.FindBestMatchWithMonitor(ctx, query, minScore, translation, nil)
}

// FindBestMatchWithMonitor resolves a query with monitoring. The monitor
// receives callbacks at each stage of the pipeline.
//
// The pipeline: queries shorter than 5 trimmed runes are rejected; a
// parseable citation resolves immediately with score 1.0; otherwise the
// semantic backend proposes a candidate shortlist (the whole corpus, in
// ordinal order, when the backend is absent or yields nothing) and each
// candidate is scored with a mode-dependent blend of exact, fuzzy and
// semantic signals. The best candidate wins if it reaches the effective
// threshold: minScore, capped at 0.5 in ModeDegraded. Ties keep the first
// candidate seen in shortlist order.
//
// translation is an optional variant hint for the citation path; pass ""
// for none. A nil, nil return means no match; short queries, an empty
// corpus and below-threshold outcomes all land there. An error is
// returned only for repository failures while rebuilding an empty cache.
func (m *Matcher) FindBestMatchWithMonitor(ctx context.Context, query string, minScore float64, translation string, monitor MatchMonitor) (*core.MatchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	start := time.Now()
	monitor.Start(query)

	if utf8.RuneCountInString(strings.TrimSpace(query)) < minQueryLength {
		monitor.Finish(nil)
		return nil, nil
	}

	cache, err := m.ensureCache(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuilding corpus cache: %w", err)
	}

	// Citation fast path: a reference lookup is authoritative and O(1),
	// while scoring is O(corpus).
	if verse := resolveCitation(cache, query, translation); verse != nil {
		result := &core.MatchResult{Verse: verse, Score: citationScore, ElapsedMS: elapsedMS(start)}
		monitor.CitationHit(verse)
		monitor.Finish(result)
		return result, nil
	}

	if cache.empty() {
		monitor.Finish(nil)
		return nil, nil
	}

	mode := m.Mode()
	candidates := m.semanticCandidates(ctx, query)
	if len(candidates) == 0 {
		// Fallback: the whole corpus in ordinal order, semantic score 0.
		candidates = make([]candidate, len(cache.verses))
		for i := range cache.verses {
			candidates[i] = candidate{ordinal: i}
		}
		monitor.AfterCandidateSelection(len(candidates), false)
	} else {
		monitor.AfterCandidateSelection(len(candidates), true)
	}

	var best *core.Verse
	bestScore := 0.0
	for _, cand := range candidates {
		if cand.ordinal < 0 || cand.ordinal >= len(cache.verses) {
			continue
		}
		verse := cache.verses[cand.ordinal]

		score, ok := m.scoreCandidate(mode, query, verse, cand.semantic)
		if !ok {
			continue
		}
		monitor.CandidateScored(verse, score)

		// Strictly greater: on ties the first candidate seen wins, and
		// candidate order is deterministic, so so is the result.
		if score > bestScore {
			bestScore = score
			best = verse
		}
	}

	if best == nil || bestScore < effectiveThreshold(mode, minScore) {
		monitor.Finish(nil)
		return nil, nil
	}

	result := &core.MatchResult{Verse: best, Score: bestScore, ElapsedMS: elapsedMS(start)}
	monitor.Finish(result)
	return result, nil
}

// FindReference resolves a citation such as "John 3:16 (NIV)" directly to
// its verse without running the scoring pipeline. translation overrides
// any tag parsed from the query; pass "" to prefer the parsed tag, then
// the key's default variant. Returns nil, nil when the query is not a
// citation or names a coordinate absent from the corpus.
func (m *Matcher) FindReference(ctx context.Context, query, translation string) (*core.Verse, error) {
	cache, err := m.ensureCache(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuilding corpus cache: %w", err)
	}
	return resolveCitation(cache, query, translation), nil
}

// resolveCitation parses and resolves a citation against the cache
// indices. Variant priority: caller hint, then parsed tag, then the key's
// default variant. A hint or tag naming an unknown translation falls
// through to the next priority instead of failing the lookup.
func resolveCitation(cache *corpusCache, query, translation string) *core.Verse {
	if cache == nil {
		return nil
	}
	ref, ok := parseCitation(query)
	if !ok {
		return nil
	}
	entry := cache.lookup(NormalizeText(ref.book), ref.chapter, ref.verse)
	if entry == nil {
		return nil
	}
	if v := entry.variant(translation); v != nil {
		return v
	}
	if v := entry.variant(ref.translation); v != nil {
		return v
	}
	return entry.defaultVerse
}

// semanticCandidates returns the ranked shortlist from the vector index.
// A nil result means the backend is absent or failing and the resolver
// must fall back to the whole corpus; it is never an error.
func (m *Matcher) semanticCandidates(ctx context.Context, query string) []candidate {
	m.mu.RLock()
	index := m.index
	m.mu.RUnlock()
	if m.embedder == nil || index == nil || index.Len() == 0 {
		return nil
	}

	vector, err := m.embedder.EmbedText(ctx, query)
	if err != nil {
		m.logger.Warn("query embedding failed, scoring whole corpus", "err", err)
		return nil
	}

	ordinals, distances, err := index.Search(vector, m.candidateLimit)
	if err != nil {
		m.logger.Warn("vector search failed, scoring whole corpus", "err", err)
		return nil
	}

	candidates := make([]candidate, len(ordinals))
	for i, ordinal := range ordinals {
		candidates[i] = candidate{
			ordinal:  ordinal,
			semantic: math.Exp(-distances[i] / m.distanceDivisor),
		}
	}
	return candidates
}

// scoreCandidate blends the sub-scores for one candidate. A panic inside
// a single candidate's scoring is recovered and skips only that candidate:
// no-match is always a safe default for this system's consumers, so one
// malformed entry must not abort the whole resolution.
func (m *Matcher) scoreCandidate(mode Mode, query string, verse *core.Verse, semantic float64) (score float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("candidate scoring failed, skipping", "reference", verse.Reference(), "panic", r)
			score, ok = 0, false
		}
	}()

	exact := ExactScore(query, verse.Text)
	fuzzy := FuzzyScore(query, verse.Text)
	return blend(mode, exact, fuzzy, semantic), true
}

// blend combines the sub-scores according to the capability mode. With
// semantic support, a strong exact containment (> 0.5) shifts the weight
// onto it; otherwise fuzzy leads. Degraded mode redistributes the semantic
// weight across exact and fuzzy.
func blend(mode Mode, exact, fuzzy, semantic float64) float64 {
	if mode == ModeDegraded {
		return 0.3*exact + 0.7*fuzzy
	}
	if exact > 0.5 {
		return 0.5*exact + 0.3*fuzzy + 0.2*semantic
	}
	return 0.2*exact + 0.5*fuzzy + 0.3*semantic
}

// effectiveThreshold relaxes the caller's minimum in ModeDegraded, where
// blends run systematically lower.
func effectiveThreshold(mode Mode, minScore float64) float64 {
	if mode == ModeDegraded && minScore > degradedThresholdCap {
		return degradedThresholdCap
	}
	return minScore
}

// ensureCache returns the current corpus snapshot, rebuilding it from the
// repository when it has not been built yet or was built empty. The guard
// is check-then-populate: concurrent rebuilds may duplicate the read, but
// the snapshot is only ever published whole, and rebuilding an unchanged
// corpus is idempotent.
func (m *Matcher) ensureCache(ctx context.Context) (*corpusCache, error) {
	m.mu.RLock()
	cache := m.cache
	m.mu.RUnlock()
	if !cache.empty() {
		return cache, nil
	}

	verses, err := m.verses.GetAllVerses(ctx)
	if err != nil {
		return nil, err
	}
	rebuilt := buildCorpusCache(verses)

	m.mu.Lock()
	// Another rebuild may have landed first; keep whichever is populated.
	if m.cache.empty() {
		m.cache = rebuilt
	}
	cache = m.cache
	m.mu.Unlock()

	if !rebuilt.empty() {
		m.logger.Debug("corpus cache rebuilt", "verses", rebuilt.size())
	}
	return cache, nil
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
