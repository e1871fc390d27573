// Command indexer builds the keyword index from the configured corpus and
// answers one query from the command line, dumps the index, or loads the
// file corpus into PostgreSQL.
//
// Usage:
//
//	go run ./cmd/indexer -kw1 apple -kw2 banana
//	go run ./cmd/indexer -dump
//	go run ./cmd/indexer -seed
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	kw1 := flag.String("kw1", "", "first keyword")
	kw2 := flag.String("kw2", "", "second keyword")
	dump := flag.Bool("dump", false, "print every keyword with its ranked occurrences as JSON")
	seed := flag.Bool("seed", false, "copy the file corpus into the postgres corpus tables")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seed {
		if err := seedPostgres(ctx, cfg); err != nil {
			slog.Error("seeding failed", "error", err)
			os.Exit(1)
		}
		return
	}

	var db *postgres.Client
	if cfg.Corpus.Source == config.SourcePostgres {
		db, err = postgres.Connect(ctx, cfg.Postgres, resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Second})
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}
	src, err := corpus.Open(cfg.Corpus, db)
	if err != nil {
		slog.Error("failed to open corpus", "error", err)
		os.Exit(1)
	}

	engine := indexer.NewEngine(nil)
	report, err := engine.Build(ctx, src)
	if err != nil {
		slog.Error("failed to build index", "error", err)
		os.Exit(1)
	}
	slog.Info("index built",
		"documents", report.Documents,
		"keywords", report.Keywords,
		"duration", report.Duration,
	)

	if *dump {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(engine.Snapshot()); err != nil {
			slog.Error("failed to write index dump", "error", err)
			os.Exit(1)
		}
		return
	}

	if *kw1 == "" && *kw2 == "" {
		return
	}
	for _, doc := range engine.Top5(*kw1, *kw2) {
		fmt.Println(doc)
	}
}

// seedPostgres always reads the file corpus, whatever source the config
// selects for serving.
func seedPostgres(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.Connect(ctx, cfg.Postgres, resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Second})
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	n, err := corpus.Seed(ctx, db, corpus.NewFileSource(cfg.Corpus))
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d documents\n", n)
	return nil
}
