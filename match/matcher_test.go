package match

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiwa-codes/scripture-sync/ai/mock"
	"github.com/tiwa-codes/scripture-sync/core"
	"github.com/tiwa-codes/scripture-sync/storage/badger"
)

// testCorpus returns a fresh copy of a small corpus covering two
// translations of the same coordinate, a numbered book and a psalm.
func testCorpus() []*core.Verse {
	return []*core.Verse{
		{Translation: "KJV", Book: "John", Chapter: 3, VerseNum: 16, Text: "For God so loved the world, that he gave his only begotten Son, that whosoever believeth in him should not perish, but have everlasting life."},
		{Translation: "NIV", Book: "John", Chapter: 3, VerseNum: 16, Text: "For God so loved the world that he gave his one and only Son, that whoever believes in him shall not perish but have eternal life."},
		{Translation: "KJV", Book: "Psalm", Chapter: 23, VerseNum: 1, Text: "The LORD is my shepherd; I shall not want."},
		{Translation: "KJV", Book: "Genesis", Chapter: 1, VerseNum: 1, Text: "In the beginning God created the heaven and the earth."},
		{Translation: "KJV", Book: "1 John", Chapter: 4, VerseNum: 8, Text: "He that loveth not knoweth not God; for God is love."},
	}
}

func TestNewMatcher(t *testing.T) {
	verseRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		verseRepo.Close()
		backend.Close()
	}()

	t.Run("valid configuration", func(t *testing.T) {
		matcher, err := NewMatcher(verseRepo)
		require.NoError(t, err)
		assert.NotNil(t, matcher)
	})

	t.Run("with custom logger", func(t *testing.T) {
		matcher, err := NewMatcher(verseRepo, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, matcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		matcher, err := NewMatcher(verseRepo, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, matcher)
	})

	t.Run("with embedder", func(t *testing.T) {
		matcher, err := NewMatcher(verseRepo, WithEmbedder(mock.NewMockEmbedder()))
		require.NoError(t, err)
		assert.NotNil(t, matcher)
	})

	t.Run("candidate limit below one falls back to default", func(t *testing.T) {
		matcher, err := NewMatcher(verseRepo, WithCandidateLimit(0))
		require.NoError(t, err)
		assert.NotNil(t, matcher)
	})

	t.Run("non-positive distance divisor falls back to default", func(t *testing.T) {
		matcher, err := NewMatcher(verseRepo, WithDistanceDivisor(-4))
		require.NoError(t, err)
		assert.NotNil(t, matcher)
	})

	t.Run("nil verse repository", func(t *testing.T) {
		_, err := NewMatcher(nil)
		assert.Equal(t, ErrVerseRepositoryRequired, err)
	})
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("no embedder reports degraded", func(t *testing.T) {
		verseRepo, _, backend, err := badger.NewMemoryRepositories()
		require.NoError(t, err)
		defer func() {
			verseRepo.Close()
			backend.Close()
		}()

		_, err = verseRepo.AddVerses(ctx, testCorpus()...)
		require.NoError(t, err)

		matcher, err := NewMatcher(verseRepo)
		require.NoError(t, err)

		mode := matcher.Initialize(ctx)
		assert.Equal(t, ModeDegraded, mode)
		assert.Equal(t, ModeDegraded, matcher.Mode())
	})

	t.Run("embedder reports semantic", func(t *testing.T) {
		verseRepo, _, backend, err := badger.NewMemoryRepositories()
		require.NoError(t, err)
		defer func() {
			verseRepo.Close()
			backend.Close()
		}()

		_, err = verseRepo.AddVerses(ctx, testCorpus()...)
		require.NoError(t, err)

		matcher, err := NewMatcher(verseRepo, WithEmbedder(mock.NewMockEmbedder()))
		require.NoError(t, err)

		mode := matcher.Initialize(ctx)
		assert.Equal(t, ModeSemantic, mode)
		assert.Equal(t, ModeSemantic, matcher.Mode())
	})

	t.Run("empty corpus with embedder reports degraded", func(t *testing.T) {
		verseRepo, _, backend, err := badger.NewMemoryRepositories()
		require.NoError(t, err)
		defer func() {
			verseRepo.Close()
			backend.Close()
		}()

		matcher, err := NewMatcher(verseRepo, WithEmbedder(mock.NewMockEmbedder()))
		require.NoError(t, err)

		assert.Equal(t, ModeDegraded, matcher.Initialize(ctx))
	})

	t.Run("failing embedder reports degraded", func(t *testing.T) {
		verseRepo, _, backend, err := badger.NewMemoryRepositories()
		require.NoError(t, err)
		defer func() {
			verseRepo.Close()
			backend.Close()
		}()

		_, err = verseRepo.AddVerses(ctx, testCorpus()...)
		require.NoError(t, err)

		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("embedding service down")
		}

		matcher, err := NewMatcher(verseRepo, WithEmbedder(embedder))
		require.NoError(t, err)

		assert.Equal(t, ModeDegraded, matcher.Initialize(ctx))
	})

	t.Run("stored vectors skip the encoder", func(t *testing.T) {
		verseRepo, _, backend, err := badger.NewMemoryRepositories()
		require.NoError(t, err)
		defer func() {
			verseRepo.Close()
			backend.Close()
		}()

		verses := testCorpus()
		vectors := [][]float32{
			{0.9, 0.1, 0},
			{0.85, 0.15, 0},
			{0, 0.9, 0.1},
			{0.1, 0, 0.9},
			{0.8, 0.2, 0},
		}
		for i, v := range verses {
			v.Vector = vectors[i]
		}
		_, err = verseRepo.AddVerses(ctx, verses...)
		require.NoError(t, err)

		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("should not be called")
		}

		matcher, err := NewMatcher(verseRepo, WithEmbedder(embedder))
		require.NoError(t, err)

		assert.Equal(t, ModeSemantic, matcher.Initialize(ctx))
		assert.Equal(t, 0, embedder.CallCount())
	})
}

func TestFindBestMatch_ShortQuery(t *testing.T) {
	verseRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		verseRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	_, err = verseRepo.AddVerses(ctx, testCorpus()...)
	require.NoError(t, err)

	matcher, err := NewMatcher(verseRepo)
	require.NoError(t, err)
	matcher.Initialize(ctx)

	for _, query := range []string{"", "amen", "   ab   ", "a b"} {
		result, err := matcher.FindBestMatch(ctx, query, 0.1, "")
		require.NoError(t, err)
		assert.Nil(t, result, "query %q should be rejected as too short", query)
	}
}

func TestFindBestMatch_Citations(t *testing.T) {
	verseRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		verseRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	_, err = verseRepo.AddVerses(ctx, testCorpus()...)
	require.NoError(t, err)

	matcher, err := NewMatcher(verseRepo)
	require.NoError(t, err)
	matcher.Initialize(ctx)

	t.Run("plain reference resolves the default variant", func(t *testing.T) {
		result, err := matcher.FindBestMatch(ctx, "John 3:16", 0.6, "")
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, 1.0, result.Score)
		assert.Equal(t, "John", result.Verse.Book)
		assert.Equal(t, 3, result.Verse.Chapter)
		assert.Equal(t, 16, result.Verse.VerseNum)
		// first inserted variant is the default
		assert.Equal(t, "KJV", result.Verse.Translation)
	})

	t.Run("translation hint selects the variant", func(t *testing.T) {
		result, err := matcher.FindBestMatch(ctx, "John 3:16", 0.6, "NIV")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "NIV", result.Verse.Translation)
	})

	t.Run("parenthesized tag selects the variant", func(t *testing.T) {
		result, err := matcher.FindBestMatch(ctx, "John 3:16 (NIV)", 0.6, "")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "NIV", result.Verse.Translation)
	})

	t.Run("bracketed tag selects the variant", func(t *testing.T) {
		result, err := matcher.FindBestMatch(ctx, "John 3:16 [NIV]", 0.6, "")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "NIV", result.Verse.Translation)
	})

	t.Run("bare tag is case-insensitive", func(t *testing.T) {
		result, err := matcher.FindBestMatch(ctx, "john 3:16 niv", 0.6, "")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "NIV", result.Verse.Translation)
	})

	t.Run("unknown tag falls back to the default variant", func(t *testing.T) {
		result, err := matcher.FindBestMatch(ctx, "John 3:16 (ESV)", 0.6, "")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "KJV", result.Verse.Translation)
	})

	t.Run("hint takes priority over parsed tag", func(t *testing.T) {
		result, err := matcher.FindBestMatch(ctx, "John 3:16 (KJV)", 0.6, "NIV")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "NIV", result.Verse.Translation)
	})

	t.Run("numbered book resolves", func(t *testing.T) {
		result, err := matcher.FindBestMatch(ctx, "1 John 4:8", 0.6, "")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "1 John", result.Verse.Book)
		assert.Equal(t, 1.0, result.Score)
	})

	t.Run("dot separator resolves", func(t *testing.T) {
		result, err := matcher.FindBestMatch(ctx, "Psalm 23.1", 0.6, "")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "Psalm", result.Verse.Book)
	})

	t.Run("unknown coordinate falls through to scoring", func(t *testing.T) {
		result, err := matcher.FindBestMatch(ctx, "John 99:99", 0.9, "")
		require.NoError(t, err)
		assert.Nil(t, result)
	})
}

func TestFindBestMatch_DegradedScoring(t *testing.T) {
	verseRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		verseRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	_, err = verseRepo.AddVerses(ctx, testCorpus()...)
	require.NoError(t, err)

	matcher, err := NewMatcher(verseRepo)
	require.NoError(t, err)
	require.Equal(t, ModeDegraded, matcher.Initialize(ctx))

	t.Run("verbatim verse scores 1", func(t *testing.T) {
		result, err := matcher.FindBestMatch(ctx, "The LORD is my shepherd; I shall not want.", 0.6, "")
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, "Psalm", result.Verse.Book)
		assert.InDelta(t, 1.0, result.Score, 1e-9)
	})

	t.Run("partial quote finds its verse", func(t *testing.T) {
		result, err := matcher.FindBestMatch(ctx, "god created the heaven and the earth", 0.6, "")
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, "Genesis", result.Verse.Book)
		assert.Greater(t, result.Score, 0.8)
	})

	t.Run("threshold is capped at one half", func(t *testing.T) {
		// A 0.95 minimum would reject the 0.9 blend; the degraded cap
		// relaxes it to 0.5 and the match goes through.
		result, err := matcher.FindBestMatch(ctx, "god created the heaven and the earth", 0.95, "")
		require.NoError(t, err)
		assert.NotNil(t, result)
	})

	t.Run("unrelated query yields no match", func(t *testing.T) {
		result, err := matcher.FindBestMatch(ctx, "quarterly revenue projections meeting", 0.6, "")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("resolution is deterministic", func(t *testing.T) {
		first, err := matcher.FindBestMatch(ctx, "god so loved the world", 0.3, "")
		require.NoError(t, err)
		require.NotNil(t, first)

		second, err := matcher.FindBestMatch(ctx, "god so loved the world", 0.3, "")
		require.NoError(t, err)
		require.NotNil(t, second)

		assert.Equal(t, first.Verse.Id, second.Verse.Id)
		assert.Equal(t, first.Score, second.Score)
	})
}

func TestFindBestMatch_Semantic(t *testing.T) {
	ctx := context.Background()

	// seed returns repositories whose verses carry explicit vectors, so the
	// index is built without calling the embedder.
	seed := func(t *testing.T) (*Matcher, *mock.MockEmbedder, func()) {
		t.Helper()
		verseRepo, _, backend, err := badger.NewMemoryRepositories()
		require.NoError(t, err)

		verses := testCorpus()
		vectors := [][]float32{
			{0.9, 0.1, 0},   // John KJV
			{0.85, 0.15, 0}, // John NIV
			{0, 0.9, 0.1},   // Psalm
			{0.1, 0, 0.9},   // Genesis
			{0.8, 0.2, 0},   // 1 John
		}
		for i, v := range verses {
			v.Vector = vectors[i]
		}
		_, err = verseRepo.AddVerses(ctx, verses...)
		require.NoError(t, err)

		embedder := mock.NewMockEmbedder()
		matcher, err := NewMatcher(verseRepo, WithEmbedder(embedder))
		require.NoError(t, err)
		require.Equal(t, ModeSemantic, matcher.Initialize(ctx))

		cleanup := func() {
			verseRepo.Close()
			backend.Close()
		}
		return matcher, embedder, cleanup
	}

	t.Run("shortlist finds the paraphrase", func(t *testing.T) {
		matcher, embedder, cleanup := seed(t)
		defer cleanup()

		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return []float32{0.9, 0.1, 0}, nil
		}

		result, err := matcher.FindBestMatch(ctx, "god loved the world so much he gave his son", 0.35, "")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "John", result.Verse.Book)
	})

	t.Run("strong containment shifts weight onto the exact signal", func(t *testing.T) {
		matcher, embedder, cleanup := seed(t)
		defer cleanup()

		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return []float32{0, 0.9, 0.1}, nil
		}

		result, err := matcher.FindBestMatch(ctx, "the lord is my shepherd", 0.6, "")
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, "Psalm", result.Verse.Book)
		// exact 23/40, fuzzy 1, semantic 1: 0.5*0.575 + 0.3 + 0.2
		assert.InDelta(t, 0.7875, result.Score, 1e-6)
	})

	t.Run("query embedding failure falls back to the whole corpus", func(t *testing.T) {
		matcher, embedder, cleanup := seed(t)
		defer cleanup()

		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("embedding service down")
		}

		result, err := matcher.FindBestMatch(ctx, "The LORD is my shepherd; I shall not want.", 0.6, "")
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, "Psalm", result.Verse.Book)
		// semantic-mode weights with a zero semantic component
		assert.InDelta(t, 0.8, result.Score, 1e-9)
	})

	t.Run("mode stays semantic after a failing query", func(t *testing.T) {
		matcher, embedder, cleanup := seed(t)
		defer cleanup()

		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("embedding service down")
		}

		_, err := matcher.FindBestMatch(ctx, "god so loved the world", 0.3, "")
		require.NoError(t, err)
		assert.Equal(t, ModeSemantic, matcher.Mode())
	})
}

func TestFindBestMatchWithMonitor(t *testing.T) {
	verseRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		verseRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	_, err = verseRepo.AddVerses(ctx, testCorpus()...)
	require.NoError(t, err)

	matcher, err := NewMatcher(verseRepo)
	require.NoError(t, err)
	matcher.Initialize(ctx)

	t.Run("citation path", func(t *testing.T) {
		monitor := &matchTestMonitor{}

		result, err := matcher.FindBestMatchWithMonitor(ctx, "John 3:16", 0.6, "", monitor)
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.True(t, monitor.startCalled)
		assert.NotNil(t, monitor.citationVerse)
		assert.True(t, monitor.finishCalled)
		assert.Equal(t, result, monitor.finishResult)
		assert.Zero(t, monitor.scored, "citation path must not score candidates")
	})

	t.Run("scoring path visits the whole corpus when degraded", func(t *testing.T) {
		monitor := &matchTestMonitor{}

		result, err := matcher.FindBestMatchWithMonitor(ctx, "god created the heaven and the earth", 0.6, "", monitor)
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.True(t, monitor.startCalled)
		assert.Nil(t, monitor.citationVerse)
		assert.Equal(t, 5, monitor.candidateCount)
		assert.False(t, monitor.semantic)
		assert.Equal(t, 5, monitor.scored)
		assert.True(t, monitor.finishCalled)
	})

	t.Run("no-match still finishes", func(t *testing.T) {
		monitor := &matchTestMonitor{}

		result, err := matcher.FindBestMatchWithMonitor(ctx, "quarterly revenue projections meeting", 0.6, "", monitor)
		require.NoError(t, err)
		assert.Nil(t, result)

		assert.True(t, monitor.finishCalled)
		assert.Nil(t, monitor.finishResult)
	})
}

func TestFindReference(t *testing.T) {
	verseRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		verseRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	_, err = verseRepo.AddVerses(ctx, testCorpus()...)
	require.NoError(t, err)

	matcher, err := NewMatcher(verseRepo)
	require.NoError(t, err)
	matcher.Initialize(ctx)

	t.Run("resolves a citation", func(t *testing.T) {
		verse, err := matcher.FindReference(ctx, "Psalm 23:1", "")
		require.NoError(t, err)
		require.NotNil(t, verse)
		assert.Equal(t, "Psalm", verse.Book)
	})

	t.Run("translation override", func(t *testing.T) {
		verse, err := matcher.FindReference(ctx, "John 3:16", "NIV")
		require.NoError(t, err)
		require.NotNil(t, verse)
		assert.Equal(t, "NIV", verse.Translation)
	})

	t.Run("non-citation input", func(t *testing.T) {
		verse, err := matcher.FindReference(ctx, "for god so loved", "")
		require.NoError(t, err)
		assert.Nil(t, verse)
	})

	t.Run("unknown coordinate", func(t *testing.T) {
		verse, err := matcher.FindReference(ctx, "John 99:99", "")
		require.NoError(t, err)
		assert.Nil(t, verse)
	})
}

func TestMatcher_LazyCacheRebuild(t *testing.T) {
	verseRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		verseRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	_, err = verseRepo.AddVerses(ctx, testCorpus()...)
	require.NoError(t, err)

	// No Initialize: the first query builds the cache on demand.
	matcher, err := NewMatcher(verseRepo)
	require.NoError(t, err)

	result, err := matcher.FindBestMatch(ctx, "John 3:16", 0.6, "")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, ModeDegraded, matcher.Mode())
}

func TestMatcher_EmptyCorpus(t *testing.T) {
	verseRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		verseRepo.Close()
		backend.Close()
	}()

	matcher, err := NewMatcher(verseRepo)
	require.NoError(t, err)
	matcher.Initialize(context.Background())

	result, err := matcher.FindBestMatch(context.Background(), "for god so loved the world", 0.1, "")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestMatcher_RepositoryFailure(t *testing.T) {
	verseRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)

	matcher, err := NewMatcher(verseRepo)
	require.NoError(t, err)

	// Closing the backend makes the lazy cache rebuild fail.
	verseRepo.Close()
	backend.Close()

	_, err = matcher.FindBestMatch(context.Background(), "for god so loved the world", 0.6, "")
	assert.Error(t, err)
}

// matchTestMonitor is a simple test implementation of MatchMonitor
type matchTestMonitor struct {
	startCalled    bool
	citationVerse  *core.Verse
	candidateCount int
	semantic       bool
	scored         int
	finishCalled   bool
	finishResult   *core.MatchResult
}

func (m *matchTestMonitor) Start(query string) {
	m.startCalled = true
}

func (m *matchTestMonitor) CitationHit(verse *core.Verse) {
	m.citationVerse = verse
}

func (m *matchTestMonitor) AfterCandidateSelection(count int, semantic bool) {
	m.candidateCount = count
	m.semantic = semantic
}

func (m *matchTestMonitor) CandidateScored(verse *core.Verse, score float64) {
	m.scored++
}

func (m *matchTestMonitor) Finish(result *core.MatchResult) {
	m.finishCalled = true
	m.finishResult = result
}
