package storage

import (
	"context"

	"github.com/tiwa-codes/scripture-sync/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// VerseRepository provides operations for managing the verse corpus.
type VerseRepository interface {
	Repository

	// AddVerses adds one or more verses to storage.
	// Verses with ID=0 get content-based IDs from their coordinate
	// (translation, book, chapter, verse). Verses whose ID is already
	// stored are skipped, so repeated imports are idempotent.
	// Returns the verses actually inserted, with IDs populated.
	AddVerses(ctx context.Context, verses ...*core.Verse) ([]*core.Verse, error)

	// GetVerse retrieves a single verse by ID.
	// Returns nil, nil if the verse doesn't exist.
	GetVerse(ctx context.Context, id core.ID) (*core.Verse, error)

	// GetAllVerses retrieves the whole corpus ordered by insertion position
	// ascending. The ordering is stable across calls for an unchanged
	// corpus; callers rely on it to align verses with vector index rows.
	GetAllVerses(ctx context.Context) ([]*core.Verse, error)

	// GetVersesByBook retrieves verses in insertion order, filtered by
	// translation and book (empty string matches any), skipping the first
	// skip matches and returning at most limit results (limit <= 0 means
	// no cap).
	GetVersesByBook(ctx context.Context, translation, book string, skip, limit int) ([]*core.Verse, error)

	// UpdateVectors stores embedding vectors for existing verses.
	// Only the Vector field of each verse is consulted.
	// Returns ErrNotFound if any verse doesn't exist.
	UpdateVectors(ctx context.Context, verses ...*core.Verse) error

	// CountVerses returns the number of stored verses.
	CountVerses(ctx context.Context) (int, error)
}

// CheckpointRepository persists batch-processor progress so interrupted
// jobs can resume where they left off.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for a processor type.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the checkpoint for a processor type.
	// Deleting a missing checkpoint is not an error.
	DeleteCheckpoint(ctx context.Context, processorType string) error
}
