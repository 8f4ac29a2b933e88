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
	"log/slog"
	"os"
	"strings"

	scripturesync "github.com/tiwa-codes/scripture-sync"
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	db, err := scripturesync.NewDatabase("./scripture-sync-data")
	if err != nil {
		panic(err)
	}
	defer db.Close()

	matcher, err := db.NewMatcher()
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	matcher.Initialize(ctx)

	query := "John 3:16"
	if len(os.Args) > 1 {
		query = strings.Join(os.Args[1:], " ")
	}

	result, err := matcher.FindBestMatch(ctx, query, 0.3, "")
	if err != nil {
		panic(err)
	}
	if result == nil {
		fmt.Println("No match.")
		return
	}

	fmt.Printf("%s [%0.3f in %0.1fms]\n%s\n", result.Verse.Reference(), result.Score, result.ElapsedMS, result.Verse.Text)
}
