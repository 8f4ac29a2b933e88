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


package live

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"
	"github.com/tiwa-codes/scripture-sync/audio"
	"github.com/tiwa-codes/scripture-sync/core"
	"github.com/tiwa-codes/scripture-sync/match"
)

const (
	defaultMinScore      = 0.6
	defaultMinTextLength = 5
)

// Resolver resolves free-form text to the best-matching verse.
type Resolver interface {
	FindBestMatch(ctx context.Context, query string, minScore float64, translation string) (*core.MatchResult, error)
}

var _ Resolver = (*match.Matcher)(nil)

// Broadcaster delivers a resolved match, together with the transcription
// that produced it, to connected clients. Called from pool workers, so
// implementations must be safe for concurrent use.
type Broadcaster func(text string, result *core.MatchResult)

// Pipeline orchestrates live projection: audio segments are transcribed,
// transcriptions are resolved against the corpus, and matches are
// broadcast. It manages concurrent processing with separate worker pools
// for transcription and resolution.
type Pipeline struct {
	transcriber    audio.Transcriber
	resolver       Resolver
	broadcast      Broadcaster
	locked         func() bool
	transcribePool *ants.Pool
	matchPool      *ants.Pool
	minScore       float64
	minTextLength  int
	translation    string
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pools
		if p.transcribePool != nil {
			p.transcribePool.Release()
		}
		if p.matchPool != nil {
			p.matchPool.Release()
		}

		// Create new pools
		transcribePool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		matchPool, err := ants.NewPool(size)
		if err != nil {
			transcribePool.Release()
			return err
		}

		p.transcribePool = transcribePool
		p.matchPool = matchPool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMinScore sets the minimum combined score a match must reach before
// it is broadcast. Values are clamped to [0, 1]. Default is 0.6.
func WithMinScore(score float64) Option {
	return func(p *Pipeline) error {
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		p.minScore = score
		return nil
	}
}

// WithMinTextLength sets the minimum transcription length, in runes,
// worth resolving. Shorter transcriptions are dropped silently.
// Default is 5.
func WithMinTextLength(length int) Option {
	return func(p *Pipeline) error {
		if length < 0 {
			length = 0
		}
		p.minTextLength = length
		return nil
	}
}

// WithLockCheck installs the function consulted before each resolution.
// While it reports true the pipeline drops transcriptions instead of
// broadcasting, so an operator-locked display stays put. Default is
// never locked.
func WithLockCheck(locked func() bool) Option {
	return func(p *Pipeline) error {
		if locked != nil {
			p.locked = locked
		}
		return nil
	}
}

// WithTranslation sets the preferred translation passed to the resolver
// for citation lookups. Default is no preference.
func WithTranslation(translation string) Option {
	return func(p *Pipeline) error {
		p.translation = translation
		return nil
	}
}

// NewPipeline creates a new live projection pipeline.
func NewPipeline(
	transcriber audio.Transcriber,
	resolver Resolver,
	broadcast Broadcaster,
	opts ...Option,
) (*Pipeline, error) {
	if transcriber == nil {
		return nil, ErrTranscriberRequired
	}
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	if broadcast == nil {
		return nil, ErrBroadcasterRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	transcribePool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	matchPool, err := ants.NewPool(poolSize)
	if err != nil {
		transcribePool.Release()
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		transcriber:    transcriber,
		resolver:       resolver,
		broadcast:      broadcast,
		locked:         func() bool { return false },
		transcribePool: transcribePool,
		matchPool:      matchPool,
		minScore:       defaultMinScore,
		minTextLength:  defaultMinTextLength,
		logger:         slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Submit enqueues one PCM audio segment for processing and returns once
// it is queued. Transcription and resolution happen on the worker pools;
// errors during async processing are logged but do not fail the
// submission.
func (p *Pipeline) Submit(segment []byte) error {
	return p.transcribePool.Submit(func() {
		text, err := p.transcriber.Transcribe(context.Background(), segment)
		if err != nil {
			p.logger.Error("error transcribing segment", "err", err)
			return
		}
		if err := p.SubmitText(text); err != nil {
			p.logger.Error("error queueing transcription", "err", err)
		}
	})
}

// SubmitText enqueues already-transcribed text for resolution. Submit
// feeds it after transcription; the server also calls it directly for
// operator-typed segments. Text shorter than the minimum length is
// dropped without error.
func (p *Pipeline) SubmitText(text string) error {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < p.minTextLength {
		return nil
	}
	return p.matchPool.Submit(func() {
		p.resolve(text)
	})
}

// resolve runs one transcription through the resolver and broadcasts any
// match. Nothing happens while the display is locked.
func (p *Pipeline) resolve(text string) {
	if p.locked() {
		p.logger.Debug("display locked, transcription dropped", "length", len(text))
		return
	}

	result, err := p.resolver.FindBestMatch(context.Background(), text, p.minScore, p.translation)
	if err != nil {
		p.logger.Error("error resolving transcription", "err", err)
		return
	}
	if result == nil {
		p.logger.Debug("no verse matched", "text", text)
		return
	}

	p.logger.Info("verse matched",
		"reference", result.Verse.Reference(),
		"score", result.Score,
		"elapsed_ms", result.ElapsedMS)
	p.broadcast(text, result)
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.transcribePool != nil {
		p.transcribePool.Release()
	}
	if p.matchPool != nil {
		p.matchPool.Release()
	}
}
