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


// Package bibledata provides the built-in starter corpus and JSON corpus
// loading.
//
// Three document shapes are accepted by LoadFile and ParseJSON:
//
// A flat array of verse objects, each carrying its own translation
// ("version" is accepted as an alias):
//
//	[
//	    {"translation": "KJV", "book": "John", "chapter": 3, "verse": 16, "text": "..."}
//	]
//
// A books envelope, the format produced by common Bible dump tooling:
//
//	{
//	    "version": "KJV",
//	    "books": [
//	        {"name": "Genesis", "chapters": [
//	            {"chapter": 1, "verses": [{"verse": 1, "text": "..."}]}
//	        ]}
//	    ]
//	}
//
// A nested book map, keyed by book name, chapter and verse number:
//
//	{
//	    "Genesis": {"1": {"1": "In the beginning ..."}}
//	}
//
// Malformed entries are skipped, not fatal: corpus dumps in the wild are
// uneven and a single broken verse must not abort a 31,000-verse import.
// Verse order follows document order in all three formats, because import
// order fixes both the corpus ordinals and the default translation of each
// reference.
package bibledata
