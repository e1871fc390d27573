package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Schema creates the tables read by PostgresSource. A document list may name
// the same file more than once, so rows are keyed by list position.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    position INTEGER PRIMARY KEY,
    name     TEXT NOT NULL,
    body     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS documents_name_idx ON documents (name);
CREATE TABLE IF NOT EXISTS noise_words (
    word TEXT PRIMARY KEY
);`

// TxRunner runs fn inside a database transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type snapshot struct {
	noise []string
	ids   []string
	texts map[string]string
}

// Seed copies src into the postgres corpus tables, replacing them in one
// transaction. The whole source is read before the transaction starts, so a
// missing resource leaves the tables untouched.
func Seed(ctx context.Context, db TxRunner, src Source) (int, error) {
	snap, err := load(ctx, src)
	if err != nil {
		return 0, err
	}

	err = db.InTx(ctx, func(tx *sql.Tx) error {
		return seedTables(ctx, tx, snap)
	})
	if err != nil {
		return 0, err
	}
	slog.Info("corpus seeded", "documents", len(snap.ids), "noise_words", len(snap.noise))
	return len(snap.ids), nil
}

// seedTables recreates the corpus tables so that rows written under an older
// layout do not survive a reseed.
func seedTables(ctx context.Context, ex execer, snap *snapshot) error {
	if _, err := ex.ExecContext(ctx, `DROP TABLE IF EXISTS documents, noise_words`); err != nil {
		return fmt.Errorf("dropping corpus tables: %w", err)
	}
	if _, err := ex.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating corpus tables: %w", err)
	}
	for _, w := range snap.noise {
		if _, err := ex.ExecContext(ctx,
			`INSERT INTO noise_words (word) VALUES ($1) ON CONFLICT DO NOTHING`, w,
		); err != nil {
			return fmt.Errorf("inserting noise word %q: %w", w, err)
		}
	}
	for pos, id := range snap.ids {
		if _, err := ex.ExecContext(ctx,
			`INSERT INTO documents (position, name, body) VALUES ($1, $2, $3)`,
			pos, id, snap.texts[id],
		); err != nil {
			return fmt.Errorf("inserting document %s: %w", id, err)
		}
	}
	return nil
}

func load(ctx context.Context, src Source) (*snapshot, error) {
	noise, err := src.NoiseWords(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading noise words: %w", err)
	}
	ids, err := src.DocumentIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading document list: %w", err)
	}
	snap := &snapshot{noise: noise, ids: ids, texts: make(map[string]string, len(ids))}
	for _, id := range ids {
		text, err := src.Content(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("reading document %s: %w", id, err)
		}
		snap.texts[id] = text
	}
	return snap, nil
}
