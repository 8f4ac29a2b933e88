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


// Package match implements hybrid resolution of free-form text to verses.
//
// The Matcher type resolves a spoken or typed query to the single best
// matching verse in the corpus by blending four independent signals:
//
//   - Citation parsing: structured references ("John 3:16 (NIV)") resolve
//     directly through the reference index, bypassing scoring entirely.
//   - Exact matching: substring containment between normalized strings.
//   - Fuzzy matching: best-aligned partial similarity, tolerant of the
//     insertions, deletions and substitutions typical of transcription.
//   - Semantic matching: embedding-based nearest-neighbor candidate
//     selection over a flat vector index.
//
// The semantic backend is optional. When no embedder is configured, or the
// index cannot be built, the matcher runs in ModeDegraded: candidates come
// from the whole corpus and scores blend exact and fuzzy signals only, with
// a relaxed acceptance threshold. Capability is decided once per Initialize
// and reported to the caller as the resulting Mode; it is never surfaced as
// an error from a match call.
package match
