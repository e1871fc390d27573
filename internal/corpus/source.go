// Package corpus reads the inputs of an index build: the ordered document
// list, each document's raw text and the noise-word list. Sources report a
// missing resource with pkg/errors.ErrResourceNotFound.
package corpus

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/postgres"
)

// Source supplies the corpus to the indexer.
type Source interface {
	// DocumentIDs returns the document identifiers in the order they must
	// be indexed.
	DocumentIDs(ctx context.Context) ([]string, error)
	// NoiseWords returns the excluded words verbatim.
	NoiseWords(ctx context.Context) ([]string, error)
	// Content returns the raw text of one document.
	Content(ctx context.Context, docID string) (string, error)
}

// Open returns the Source selected by cfg. db is only used by the postgres
// source and may be nil otherwise.
func Open(cfg config.CorpusConfig, db *postgres.Client) (Source, error) {
	switch cfg.Source {
	case config.SourceFile:
		return NewFileSource(cfg), nil
	case config.SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres corpus source requires a database connection")
		}
		return NewPostgresSource(db.DB), nil
	default:
		return nil, fmt.Errorf("unknown corpus source %q", cfg.Source)
	}
}
