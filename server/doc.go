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


// Package server exposes the REST and WebSocket API of the projection
// service.
//
// The Server type wires HTTP handlers around a verse repository, the
// resolution engine, and a Hub. REST covers corpus browsing, one-shot
// search, operator actions (manual verse, display lock), and text
// submission into the live pipeline. The Hub fans resolved matches and
// operator events out to every connected WebSocket client and owns the
// display lock state the live pipeline consults between transcriptions.
//
// Clients receive three message types over /ws: verse_match when a live
// transcription resolves, manual_verse when an operator pushes a verse,
// and lock_status when the display lock changes.
package server
