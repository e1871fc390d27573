package executor

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/errors"
)

// Index is the read side of the keyword index.
type Index interface {
	Search(keyword string) index.OccurrenceList
	Ready() bool
}

type SearchResult struct {
	Query     string         `json:"query"`
	Keywords  []string       `json:"keywords"`
	Found     bool           `json:"found"`
	Documents []string       `json:"documents"`
	TermStats map[string]int `json:"term_stats"`
}

type Executor struct {
	index  Index
	logger *slog.Logger
}

func New(idx Index) *Executor {
	return &Executor{
		index:  idx,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute runs plan against the index and returns at most limit documents.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	if !e.index.Ready() {
		return nil, apperrors.New(apperrors.ErrIndexNotReady, http.StatusServiceUnavailable, "index is not built")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &SearchResult{
		Query:     plan.RawQuery,
		Keywords:  plan.Keywords(),
		Documents: []string{},
		TermStats: make(map[string]int, 2),
	}
	if plan.Empty() {
		return result, nil
	}

	first := e.lookup(plan.First)
	second := e.lookup(plan.Second)
	for kw, list := range map[string]index.OccurrenceList{plan.First: first, plan.Second: second} {
		if kw != "" {
			result.TermStats[kw] = len(list)
		}
	}

	if docs := merger.TopK(first, second, limit); docs != nil {
		result.Found = true
		result.Documents = docs
	}

	e.logger.Debug("query executed",
		"query", plan.RawQuery,
		"keywords", result.Keywords,
		"results", len(result.Documents),
	)
	return result, nil
}

func (e *Executor) lookup(keyword string) index.OccurrenceList {
	if keyword == "" {
		return nil
	}
	return e.index.Search(keyword)
}
