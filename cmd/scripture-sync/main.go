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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	scripturesync "github.com/tiwa-codes/scripture-sync"
	"github.com/tiwa-codes/scripture-sync/ai"
	"github.com/tiwa-codes/scripture-sync/audio"
	"github.com/tiwa-codes/scripture-sync/bibledata"
	"github.com/tiwa-codes/scripture-sync/config"
	"github.com/tiwa-codes/scripture-sync/core"
	"github.com/tiwa-codes/scripture-sync/live"
	"github.com/tiwa-codes/scripture-sync/match"
	"github.com/tiwa-codes/scripture-sync/reembed"
	"github.com/tiwa-codes/scripture-sync/server"
	"github.com/tiwa-codes/scripture-sync/storage"
	"github.com/urfave/cli/v2"
)

// importBatchSize keeps AddVerses transactions under BadgerDB limits when
// importing whole translations.
const importBatchSize = 500

func main() {
	// Deployments keep settings in a .env beside the binary.
	_ = godotenv.Load(".env")

	if err := newApp(config.Load()).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the CLI. Flag defaults come from the environment-derived
// settings, so `scripture-sync serve` works with no flags at all.
func newApp(cfg config.Settings) *cli.App {
	return &cli.App{
		Name:  "scripture-sync",
		Usage: "Resolve live transcription and queries to Bible verses for projection",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   cfg.DBPath,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the REST and WebSocket service",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: cfg.Addr,
					},
					&cli.BoolFlag{
						Name:  "text-only",
						Usage: "Skip the embedding service and run on exact and fuzzy scoring only",
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Import verses from a JSON corpus file",
				ArgsUsage: "<file>",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "translation",
						Usage: "Translation code for entries that do not carry one",
						Value: "KJV",
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Load the built-in sample verses",
				Action: seedCommand,
			},
			{
				Name:   "embed",
				Usage:  "Embed stored verses, resuming from the last checkpoint",
				Action: embedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: cfg.EmbeddingHost,
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: cfg.EmbeddingModel,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of verses to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N verses",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Resolve a query against the stored corpus and print the best match",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "translation",
						Usage: "Preferred translation for citation lookups",
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Minimum acceptable match score",
						Value: cfg.MinMatchScore,
					},
					&cli.BoolFlag{
						Name:  "text-only",
						Usage: "Skip the embedding service and run on exact and fuzzy scoring only",
					},
				},
			},
		},
	}
}

func serveCommand(c *cli.Context) error {
	ctx := context.Background()
	cfg := config.Load()

	var embedding *ai.Config
	if !c.Bool("text-only") {
		embedding = ai.NewConfig(
			ai.WithEmbeddingHost(cfg.EmbeddingHost),
			ai.WithEmbeddingModel(cfg.EmbeddingModel),
		)
	}
	db, err := openDatabase(c.String("db"), embedding)
	if err != nil {
		return err
	}
	defer db.Close()

	matcher, err := db.NewMatcher(match.WithCandidateLimit(cfg.CandidateLimit))
	if err != nil {
		return fmt.Errorf("failed to create matcher: %w", err)
	}
	mode := matcher.Initialize(ctx)

	hub := server.NewHub(slog.Default())

	transcriber, err := audio.NewWhisperTranscriber(cfg.WhisperURL)
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	pipeline, err := live.NewPipeline(transcriber, matcher, hub.BroadcastMatch,
		live.WithLockCheck(hub.Locked),
		live.WithMinScore(cfg.MinMatchScore),
		live.WithMinTextLength(cfg.MinTextLength),
	)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	srv, err := server.NewServer(db.VerseRepository(), matcher, hub,
		server.WithAppName(cfg.AppName),
		server.WithPipeline(pipeline),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	addr := c.String("addr")
	slog.Info("scripture-sync listening", "addr", addr, "mode", mode.String())
	return http.ListenAndServe(addr, srv.Routes())
}

func importCommand(c *cli.Context) error {
	ctx := context.Background()

	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("import requires a corpus file argument")
	}

	verses, err := bibledata.LoadFile(path, c.String("translation"))
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	db, err := openDatabase(c.String("db"), nil)
	if err != nil {
		return err
	}
	defer db.Close()

	added, err := addBatched(ctx, db.VerseRepository(), verses)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Imported %d verses (%d new)\n", len(verses), added)
	return nil
}

func seedCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c.String("db"), nil)
	if err != nil {
		return err
	}
	defer db.Close()

	inserted, err := db.VerseRepository().AddVerses(ctx, bibledata.SampleVerses()...)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Seeded %d sample verses\n", len(inserted))
	return nil
}

func embedCommand(c *cli.Context) error {
	ctx := context.Background()

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(c.String("db"), ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	))
	if err != nil {
		return err
	}
	defer db.Close()

	job, err := db.NewReembedder(reembedConfig, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reembedder: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := job.Run(ctx); err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()
	cfg := config.Load()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("search requires a query argument")
	}

	var embedding *ai.Config
	if !c.Bool("text-only") {
		embedding = ai.NewConfig(
			ai.WithEmbeddingHost(cfg.EmbeddingHost),
			ai.WithEmbeddingModel(cfg.EmbeddingModel),
		)
	}
	db, err := openDatabase(c.String("db"), embedding)
	if err != nil {
		return err
	}
	defer db.Close()

	matcher, err := db.NewMatcher(match.WithCandidateLimit(cfg.CandidateLimit))
	if err != nil {
		return fmt.Errorf("failed to create matcher: %w", err)
	}
	matcher.Initialize(ctx)

	result, err := matcher.FindBestMatch(ctx, query, c.Float64("min-score"), c.String("translation"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if result == nil {
		fmt.Println("No match.")
		return nil
	}

	fmt.Printf("%s [%.3f in %.1fms]\n%s\n", result.Verse.Reference(), result.Score, result.ElapsedMS, result.Verse.Text)
	return nil
}

// openDatabase opens the database at path, wiring the embedding service
// when a config is given. Commands that only read or write text pass nil.
func openDatabase(path string, embedding *ai.Config) (*scripturesync.Database, error) {
	var opts []scripturesync.DatabaseOption
	if embedding != nil {
		opts = append(opts, scripturesync.WithEmbedding(embedding))
	}
	db, err := scripturesync.NewDatabase(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// addBatched inserts verses in fixed-size batches so a whole-translation
// import stays under BadgerDB transaction limits.
func addBatched(ctx context.Context, repo storage.VerseRepository, verses []*core.Verse) (int, error) {
	added := 0
	for start := 0; start < len(verses); start += importBatchSize {
		end := start + importBatchSize
		if end > len(verses) {
			end = len(verses)
		}
		inserted, err := repo.AddVerses(ctx, verses[start:end]...)
		if err != nil {
			return added, err
		}
		added += len(inserted)
	}
	return added, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
