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


package core

import "fmt"

// ValidateVerse validates a Verse according to domain rules.
//
// Validation rules:
//   - Translation and Book must not be empty
//   - Chapter and VerseNum must be at least 1
//   - Text must not be empty
//
// NOT validated (populated later):
//   - Vector (can be empty until the embedding tooling runs)
//   - ID (0 is replaced by the content-based ID at storage time)
func ValidateVerse(verse *Verse) error {
	if verse == nil {
		return fmt.Errorf("%w: verse is nil", ErrInvalidVerse)
	}

	if verse.Translation == "" {
		return fmt.Errorf("%w: %w", ErrInvalidVerse, ErrEmptyTranslation)
	}

	if verse.Book == "" {
		return fmt.Errorf("%w: %w", ErrInvalidVerse, ErrEmptyBook)
	}

	if verse.Chapter < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidVerse, ErrInvalidChapter)
	}

	if verse.VerseNum < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidVerse, ErrInvalidVerseNum)
	}

	if verse.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidVerse, ErrEmptyText)
	}

	return nil
}
