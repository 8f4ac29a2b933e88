package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReembedder_Run(t *testing.T) {
	verses, checkpoints := setupTestRepos(t)
	ctx := context.Background()

	added, err := verses.AddVerses(ctx, makeVerses(10)...)
	require.NoError(t, err)
	require.Len(t, added, 10)

	// Run embedding
	var buf bytes.Buffer
	embedder := &mockEmbedder{}
	config := &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     3,
		RetryDelay:     10 * time.Millisecond,
	}

	reembedder := NewReembedder(verses, checkpoints, embedder, config, &buf)
	err = reembedder.Run(ctx)
	require.NoError(t, err)

	// Verify all verses have embeddings
	stored, err := verses.GetAllVerses(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 10)

	for _, verse := range stored {
		require.NotEmpty(t, verse.Vector, "verse %d should have embedding", verse.Id)
		// Verify normalization
		var magnitude float32
		for _, v := range verse.Vector {
			magnitude += v * v
		}
		assert.InDelta(t, 1.0, magnitude, 0.01, "vector should be normalized")
	}

	// Check progress output
	output := buf.String()
	assert.Contains(t, output, "10/10", "should show completion")
}

func TestReembedder_EmptyDatabase(t *testing.T) {
	verses, checkpoints := setupTestRepos(t)
	ctx := context.Background()

	var buf bytes.Buffer
	embedder := &mockEmbedder{}

	reembedder := NewReembedder(verses, checkpoints, embedder, DefaultConfig(), &buf)
	err := reembedder.Run(ctx)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "0 verses", "should report zero verses")
}

func TestReembedder_ContextCancellation(t *testing.T) {
	verses, checkpoints := setupTestRepos(t)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := verses.AddVerses(context.Background(), makeVerses(10)...)
	require.NoError(t, err)

	// Cancel after processing a few
	callCount := 0
	embedder := &mockEmbedder{
		embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			callCount++
			if callCount == 2 {
				cancel()
			}
			result := make([][]float32, len(texts))
			for i := range result {
				result[i] = []float32{1.0, 0.0, 0.0}
			}
			return result, nil
		},
	}

	var buf bytes.Buffer
	config := &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     3,
		RetryDelay:     10 * time.Millisecond,
	}

	reembedder := NewReembedder(verses, checkpoints, embedder, config, &buf)
	err = reembedder.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReembedder_EmbeddingError(t *testing.T) {
	verses, checkpoints := setupTestRepos(t)
	ctx := context.Background()

	_, err := verses.AddVerses(ctx, makeVerses(1)...)
	require.NoError(t, err)

	// Embedder that always fails
	embedder := &mockEmbedder{
		embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("persistent error")
		},
	}

	var buf bytes.Buffer
	config := &Config{
		BatchSize:      1,
		ReportInterval: 1,
		MaxRetries:     2,
		RetryDelay:     10 * time.Millisecond,
	}

	reembedder := NewReembedder(verses, checkpoints, embedder, config, &buf)
	err = reembedder.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persistent error")
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Greater(t, config.BatchSize, 0, "batch size should be positive")
	assert.Greater(t, config.ReportInterval, 0, "report interval should be positive")
	assert.Greater(t, config.MaxRetries, 0, "max retries should be positive")
	assert.Greater(t, config.RetryDelay, time.Duration(0), "retry delay should be positive")
}

func TestReembedder_ProgressTracking(t *testing.T) {
	verses, checkpoints := setupTestRepos(t)
	ctx := context.Background()

	// Add enough verses to trigger progress updates
	_, err := verses.AddVerses(ctx, makeVerses(25)...)
	require.NoError(t, err)

	var buf bytes.Buffer
	embedder := &mockEmbedder{}
	config := &Config{
		BatchSize:      5,
		ReportInterval: 10, // Report every 10 verses
		MaxRetries:     3,
		RetryDelay:     10 * time.Millisecond,
	}

	reembedder := NewReembedder(verses, checkpoints, embedder, config, &buf)
	err = reembedder.Run(ctx)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Progress:", "should show progress")
	assert.Contains(t, output, "25/25", "should show final count")
}

func TestReembedder_CheckpointResume(t *testing.T) {
	verses, checkpoints := setupTestRepos(t)
	ctx := context.Background()

	added, err := verses.AddVerses(ctx, makeVerses(10)...)
	require.NoError(t, err)

	// First run fails on the third batch
	batches := 0
	embedder := &mockEmbedder{
		embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			batches++
			if batches == 3 {
				return nil, errors.New("embedding host down")
			}
			result := make([][]float32, len(texts))
			for i := range result {
				result[i] = []float32{1.0, 0.0, 0.0}
			}
			return result, nil
		},
	}

	config := &Config{
		BatchSize:      2,
		ReportInterval: 2,
		MaxRetries:     1,
		RetryDelay:     10 * time.Millisecond,
	}

	var buf bytes.Buffer
	reembedder := NewReembedder(verses, checkpoints, embedder, config, &buf)
	err = reembedder.Run(ctx)
	require.Error(t, err)

	// Two batches of two completed before the failure
	checkpoint, err := checkpoints.LoadCheckpoint(ctx, ProcessorType)
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, 4, checkpoint.Processed)
	assert.Equal(t, added[3].Id, checkpoint.LastId)

	// Second run resumes after the checkpoint and only embeds the rest
	embedded := 0
	embedder.embedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		embedded += len(texts)
		result := make([][]float32, len(texts))
		for i := range result {
			result[i] = []float32{0.0, 1.0, 0.0}
		}
		return result, nil
	}

	buf.Reset()
	reembedder = NewReembedder(verses, checkpoints, embedder, config, &buf)
	err = reembedder.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 6, embedded, "resume should skip already-embedded verses")
	assert.Contains(t, buf.String(), "Resuming from checkpoint")

	// Every verse ends up with a vector
	stored, err := verses.GetAllVerses(ctx)
	require.NoError(t, err)
	for _, verse := range stored {
		assert.NotEmpty(t, verse.Vector, "verse %d should have embedding", verse.Id)
	}

	// A completed run clears its checkpoint
	checkpoint, err = checkpoints.LoadCheckpoint(ctx, ProcessorType)
	require.NoError(t, err)
	assert.Nil(t, checkpoint)
}

func TestReembedder_NilCheckpoints(t *testing.T) {
	verses, _ := setupTestRepos(t)
	ctx := context.Background()

	_, err := verses.AddVerses(ctx, makeVerses(4)...)
	require.NoError(t, err)

	var buf bytes.Buffer
	embedder := &mockEmbedder{}
	config := &Config{
		BatchSize:      2,
		ReportInterval: 2,
		MaxRetries:     1,
		RetryDelay:     10 * time.Millisecond,
	}

	// Runs fine without a checkpoint repository, just not resumable
	reembedder := NewReembedder(verses, nil, embedder, config, &buf)
	err = reembedder.Run(ctx)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "4/4")
}
