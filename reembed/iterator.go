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

	"github.com/tiwa-codes/scripture-sync/core"
	"github.com/tiwa-codes/scripture-sync/storage"
)

const (
	// DefaultBatchSize is the default number of verses to fetch in each batch
	DefaultBatchSize = 100
)

// VerseIterator iterates over the stored corpus in insertion order, in
// batches.
type VerseIterator struct {
	repo      storage.VerseRepository
	batchSize int
}

// NewVerseIterator creates a new verse iterator.
// batchSize: number of verses per batch (must be > 0)
func NewVerseIterator(repo storage.VerseRepository, batchSize int) *VerseIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &VerseIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach iterates over the whole corpus, calling fn for each batch.
// Iteration stops on first error from fn or when all verses are processed.
// Context cancellation is checked between batches.
func (it *VerseIterator) ForEach(ctx context.Context, fn func([]*core.Verse) error) error {
	return it.ForEachAfter(ctx, 0, fn)
}

// ForEachAfter behaves like ForEach but resumes after the verse with the
// given ID. If the ID is zero or no longer present (the corpus changed
// since the checkpoint was written), the whole corpus is iterated.
func (it *VerseIterator) ForEachAfter(ctx context.Context, after core.ID, fn func([]*core.Verse) error) error {
	// Check context before starting
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	verses, err := it.repo.GetAllVerses(ctx)
	if err != nil {
		return err
	}

	// Locate the resume point. Verse IDs are content hashes, not
	// monotonic, so resuming means finding the ID's position in the
	// ordinal sequence.
	start := 0
	if after != 0 {
		for i, verse := range verses {
			if verse.Id == after {
				start = i + 1
				break
			}
		}
	}

	for i := start; i < len(verses); i += it.batchSize {
		end := i + it.batchSize
		if end > len(verses) {
			end = len(verses)
		}

		if err := fn(verses[i:end]); err != nil {
			return err
		}

		// Check context after each batch
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}
