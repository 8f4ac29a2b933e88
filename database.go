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


// Package scripturesync opens a verse database and hands out the pieces
// the commands wire together: repositories, the resolution engine, and
// the embedding tooling.
package scripturesync

import (
	"errors"
	"io"
	"log/slog"

	"github.com/tiwa-codes/scripture-sync/ai"
	"github.com/tiwa-codes/scripture-sync/ai/openai"
	"github.com/tiwa-codes/scripture-sync/match"
	"github.com/tiwa-codes/scripture-sync/reembed"
	"github.com/tiwa-codes/scripture-sync/storage"
	"github.com/tiwa-codes/scripture-sync/storage/badger"
)

// ErrEmbeddingNotConfigured is returned by factories that need an
// embedder when the database was opened without one.
var ErrEmbeddingNotConfigured = errors.New("embedding not configured")

// Database bundles the storage backend, its repositories and the
// optional embedding backend behind one open/close lifecycle.
type Database struct {
	backend        *badger.Backend
	verseRepo      storage.VerseRepository
	checkpointRepo storage.CheckpointRepository
	embedder       ai.Embedder
	logger         *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	embedder ai.Embedder
}

// WithEmbedding enables the semantic backend, building an embedder from
// the given configuration. Without it the database opens in text-only
// form and matchers run degraded.
func WithEmbedding(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithEmbedder injects a ready-made embedder, bypassing configuration.
// Takes precedence over WithEmbedding.
func WithEmbedder(embedder ai.Embedder) DatabaseOption {
	return func(o *databaseOptions) {
		o.embedder = embedder
	}
}

// NewDatabase opens (or creates) the verse database at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// Create verse repository
	verseRepo, err := badger.NewVerseRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create checkpoint repository
	checkpointRepo := badger.NewCheckpointRepository(backend)

	// Resolve the embedder: injected one first, then configuration
	embedder := options.embedder
	if embedder == nil && options.aiConfig != nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			verseRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:        backend,
		verseRepo:      verseRepo,
		checkpointRepo: checkpointRepo,
		embedder:       embedder,
		logger:         slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close repositories before the backend that carries them
	if err := db.verseRepo.Close(); err != nil {
		db.logger.Error("error closing verse repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) VerseRepository() storage.VerseRepository {
	return db.verseRepo
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.checkpointRepo
}

// Embedder returns the configured embedder, nil when the database was
// opened without one.
func (db *Database) Embedder() ai.Embedder {
	return db.embedder
}

// NewMatcher builds a resolution engine over this database's corpus. The
// database's embedder is wired in when present; explicit options are
// applied afterwards and may override it.
func (db *Database) NewMatcher(opts ...match.Option) (*match.Matcher, error) {
	if db.embedder != nil {
		opts = append([]match.Option{match.WithEmbedder(db.embedder)}, opts...)
	}
	return match.NewMatcher(db.verseRepo, opts...)
}

// NewReembedder builds the batch embedding job for this database's
// corpus. Requires an embedder.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	if db.embedder == nil {
		return nil, ErrEmbeddingNotConfigured
	}
	return reembed.NewReembedder(db.verseRepo, db.checkpointRepo, db.embedder, config, progress), nil
}
