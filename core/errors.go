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

import "errors"

// Domain validation errors
var (
	// ErrInvalidVerse indicates a Verse failed validation.
	ErrInvalidVerse = errors.New("invalid verse")

	// ErrEmptyTranslation indicates the Translation field is empty.
	ErrEmptyTranslation = errors.New("translation cannot be empty")

	// ErrEmptyBook indicates the Book field is empty.
	ErrEmptyBook = errors.New("book cannot be empty")

	// ErrInvalidChapter indicates a chapter number below 1.
	ErrInvalidChapter = errors.New("chapter must be at least 1")

	// ErrInvalidVerseNum indicates a verse number below 1.
	ErrInvalidVerseNum = errors.New("verse number must be at least 1")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")
)
