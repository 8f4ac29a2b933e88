// Copyright 2026 The scripture-sync Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tiwa-codes/scripture-sync/ai"
	"github.com/tiwa-codes/scripture-sync/core"
	"github.com/tiwa-codes/scripture-sync/storage"
)

// ProcessorType identifies this job's checkpoints in storage.
const ProcessorType = "verse-embeddings"

// Config holds configuration for the embedding run.
type Config struct {
	// BatchSize is the number of verses to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of verses)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder orchestrates embedding every verse in a database.
type Reembedder struct {
	verses      storage.VerseRepository
	checkpoints storage.CheckpointRepository
	embedder    ai.Embedder
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	iterator    *VerseIterator
}

// NewReembedder creates a new reembedder.
// checkpoints may be nil, in which case runs are not resumable.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(verses storage.VerseRepository, checkpoints storage.CheckpointRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewBatchProcessor(verses, embedder, config.MaxRetries, config.RetryDelay)
	iterator := NewVerseIterator(verses, config.BatchSize)

	return &Reembedder{
		verses:      verses,
		checkpoints: checkpoints,
		embedder:    embedder,
		config:      config,
		progress:    progress,
		processor:   processor,
		iterator:    iterator,
	}
}

// Run executes the embedding run. Every verse in the database is embedded
// with the configured embedder and its vector stored. Progress is reported
// to the configured writer. If a checkpoint from an interrupted run
// exists, processing resumes after the last completed batch; a completed
// run clears its checkpoint.
func (r *Reembedder) Run(ctx context.Context) error {
	total, err := r.verses.CountVerses(ctx)
	if err != nil {
		return fmt.Errorf("failed to count verses: %w", err)
	}

	if total == 0 {
		fmt.Fprintf(r.progress, "No verses found in database (0 verses)\n")
		return nil
	}

	// Resume from a previous interrupted run when possible
	var resumeAfter core.ID
	processed := 0
	if r.checkpoints != nil {
		checkpoint, err := r.checkpoints.LoadCheckpoint(ctx, ProcessorType)
		if err != nil {
			return fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if checkpoint != nil {
			resumeAfter = checkpoint.LastId
			processed = checkpoint.Processed
			fmt.Fprintf(r.progress, "Resuming from checkpoint (%d verses already embedded)\n", processed)
		}
	}

	fmt.Fprintf(r.progress, "Starting embedding of %d verses (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()
	tracker.Update(processed)

	err = r.iterator.ForEachAfter(ctx, resumeAfter, func(verses []*core.Verse) error {
		if err := r.processor.Process(ctx, verses); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(verses)
		tracker.Update(processed)

		if r.checkpoints != nil {
			checkpoint := &core.Checkpoint{
				ProcessorType: ProcessorType,
				LastId:        verses[len(verses)-1].Id,
				Processed:     processed,
				UpdatedAt:     time.Now().UTC(),
			}
			if err := r.checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
				return fmt.Errorf("failed to save checkpoint: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return err
	}

	// A finished run starts clean next time
	if r.checkpoints != nil {
		if err := r.checkpoints.DeleteCheckpoint(ctx, ProcessorType); err != nil {
			return fmt.Errorf("failed to clear checkpoint: %w", err)
		}
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Embedding complete. Processed %d verses in %v (%.1f verses/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())

	return nil
}
