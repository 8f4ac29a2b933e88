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
	"time"

	"github.com/tiwa-codes/scripture-sync/ai"
	"github.com/tiwa-codes/scripture-sync/core"
	"github.com/tiwa-codes/scripture-sync/storage"
)

// BatchProcessor handles embedding generation for batches of verses.
type BatchProcessor struct {
	repo           storage.VerseRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.VerseRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of verses and stores them.
// Vectors are normalized before storage so persisted vectors and fresh
// query embeddings stay comparable in the index.
func (bp *BatchProcessor) Process(ctx context.Context, verses []*core.Verse) error {
	if len(verses) == 0 {
		return nil
	}

	texts := make([]string, len(verses))
	for i, verse := range verses {
		texts[i] = verse.Text
	}

	// Generate embeddings with retry
	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(verses) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(verses), len(embeddings))
	}

	for i := range verses {
		verses[i].Vector = NormalizeVector(embeddings[i])
	}

	if err := bp.repo.UpdateVectors(ctx, verses...); err != nil {
		return fmt.Errorf("failed to store vectors: %w", err)
	}

	return nil
}
