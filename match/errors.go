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


package match

import "errors"

var (
	// ErrVerseRepositoryRequired is returned when a verse repository is not provided.
	ErrVerseRepositoryRequired = errors.New("verse repository required")

	// ErrDimensionMismatch indicates a vector whose length does not match the index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyVector indicates an attempt to index a zero-length vector.
	ErrEmptyVector = errors.New("empty vector")
)
