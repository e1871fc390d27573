package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/errors"
)

// Queryer is the subset of *sql.DB used by PostgresSource.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresSource reads the corpus from PostgreSQL tables created by Schema.
// Documents are indexed in position order; a name listed twice appears twice.
type PostgresSource struct {
	db Queryer
}

func NewPostgresSource(db Queryer) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) DocumentIDs(ctx context.Context) ([]string, error) {
	ids, err := s.column(ctx, `SELECT name FROM documents ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	if len(ids) == 0 {
		return nil, apperrors.NotFound("document list", "documents")
	}
	return ids, nil
}

// NoiseWords returns the noise_words table. An empty table is a valid, empty
// list.
func (s *PostgresSource) NoiseWords(ctx context.Context) ([]string, error) {
	words, err := s.column(ctx, `SELECT word FROM noise_words`)
	if err != nil {
		return nil, fmt.Errorf("listing noise words: %w", err)
	}
	return words, nil
}

func (s *PostgresSource) Content(ctx context.Context, docID string) (string, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE name = $1 ORDER BY position LIMIT 1`, docID,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.NotFound("document", docID)
	}
	if err != nil {
		return "", fmt.Errorf("reading document %s: %w", docID, err)
	}
	return body, nil
}

func (s *PostgresSource) column(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]string, 0, 64)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
