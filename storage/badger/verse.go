package badger

import (
	"context"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/tiwa-codes/scripture-sync/core"
	"github.com/tiwa-codes/scripture-sync/storage"
)

// VerseRepository implements storage.VerseRepository for BadgerDB.
type VerseRepository struct {
	backend    *Backend
	ordinalSeq *badger.Sequence
}

var _ storage.VerseRepository = (*VerseRepository)(nil)

// NewVerseRepository creates a new VerseRepository.
func NewVerseRepository(backend *Backend) (*VerseRepository, error) {
	ordinalSeq, err := backend.GetSequence(verseOrdinalSeq)
	if err != nil {
		return nil, err
	}

	return &VerseRepository{
		backend:    backend,
		ordinalSeq: ordinalSeq,
	}, nil
}

// Close releases the ordinal sequence.
func (r *VerseRepository) Close() error {
	return r.ordinalSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *VerseRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddVerses adds one or more verses to storage.
// Verses with ID=0 get content-based IDs from their coordinate; verses whose
// ID already exists are skipped. Callers importing whole translations should
// batch their calls to stay under BadgerDB transaction limits.
func (r *VerseRepository) AddVerses(ctx context.Context, verses ...*core.Verse) ([]*core.Verse, error) {
	var inserted []*core.Verse
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, verse := range verses {
			if err := core.ValidateVerse(verse); err != nil {
				return err
			}
			if verse.Id == 0 {
				verse.Id = core.VerseID(verse.Translation, verse.Book, verse.Chapter, verse.VerseNum)
			}

			key := makeVerseKey(verse.Id)
			existing, err := r.readVerse(tx, key)
			if err != nil {
				return err
			}
			if existing != nil {
				// Same coordinate already imported
				continue
			}

			ordinal, err := r.ordinalSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if ordinal == 0 {
				ordinal, err = r.ordinalSeq.Next()
				if err != nil {
					return err
				}
			}

			// Store primary record
			value := storage.MarshalVerse(verse)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update ordinal index
			ordinalKey := makeVerseOrdinalKey(ordinal)
			if err := tx.Set(ordinalKey, storage.MarshalID(verse.Id)); err != nil {
				return err
			}

			inserted = append(inserted, verse)
		}
		return tx.Commit()
	}, true)

	return inserted, err
}

// GetVerse retrieves a single verse by ID.
// Returns nil, nil if the verse doesn't exist.
func (r *VerseRepository) GetVerse(ctx context.Context, id core.ID) (*core.Verse, error) {
	var result *core.Verse
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readVerse(tx, makeVerseKey(id))
		return err
	}, false)
	return result, err
}

// GetAllVerses retrieves the whole corpus ordered by insertion position
// ascending. The ordinal index is BigEndian-encoded, so plain lexicographic
// iteration yields insertion order.
func (r *VerseRepository) GetAllVerses(ctx context.Context) ([]*core.Verse, error) {
	var results []*core.Verse
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(verseOrdinalPrefix + ":")
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(prefix); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			// Read the ID from the index
			var verseID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				verseID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			// Look up the full record
			verse, err := r.readVerse(tx, makeVerseKey(verseID))
			if err != nil {
				return err
			}
			if verse != nil {
				results = append(results, verse)
			}
		}
		return nil
	}, false)

	return results, err
}

// GetVersesByBook retrieves verses in insertion order, filtered by
// translation and book (empty string matches any), with skip/limit
// pagination applied after filtering.
func (r *VerseRepository) GetVersesByBook(ctx context.Context, translation, book string, skip, limit int) ([]*core.Verse, error) {
	if skip < 0 {
		skip = 0
	}

	var results []*core.Verse
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(verseOrdinalPrefix + ":")
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		matched := 0
		for iter.Seek(prefix); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}
			if limit > 0 && len(results) >= limit {
				break
			}

			var verseID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				verseID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			verse, err := r.readVerse(tx, makeVerseKey(verseID))
			if err != nil {
				return err
			}
			if verse == nil {
				continue
			}
			if translation != "" && !strings.EqualFold(verse.Translation, translation) {
				continue
			}
			if book != "" && !strings.EqualFold(verse.Book, book) {
				continue
			}

			matched++
			if matched <= skip {
				continue
			}
			results = append(results, verse)
		}
		return nil
	}, false)

	return results, err
}

// UpdateVectors stores embedding vectors for existing verses.
func (r *VerseRepository) UpdateVectors(ctx context.Context, verses ...*core.Verse) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, verse := range verses {
			key := makeVerseKey(verse.Id)

			stored, err := r.readVerse(tx, key)
			if err != nil {
				return err
			}
			if stored == nil {
				return storage.ErrNotFound
			}

			stored.Vector = verse.Vector
			if err := tx.Set(key, storage.MarshalVerse(stored)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// CountVerses returns the number of stored verses.
func (r *VerseRepository) CountVerses(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(verseOrdinalPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefix); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}
			count++
		}
		return nil
	}, false)
	return count, err
}

// Helper methods

// readVerse reads a verse from the transaction.
func (r *VerseRepository) readVerse(tx *badger.Txn, key []byte) (*core.Verse, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var verse *core.Verse
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		verse, unmarshalErr = storage.UnmarshalVerse(val)
		return unmarshalErr
	})
	return verse, err
}
