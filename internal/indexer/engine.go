package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/merger"
	apperrors "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/metrics"
)

// Engine owns the keyword index and the noise-word normalizer it was built
// with.
type Engine struct {
	index        *index.KeywordIndex
	normalizer   *tokenizer.Normalizer
	normalizerMu sync.RWMutex
	metrics      *metrics.Metrics
	logger       *slog.Logger
	ready        atomic.Bool
	lastBuild    atomic.Int64
}

// BuildReport summarizes one Build call.
type BuildReport struct {
	Documents  int           `json:"documents"`
	NoiseWords int           `json:"noise_words"`
	Keywords   int           `json:"keywords"`
	Duration   time.Duration `json:"duration"`
}

// NewEngine returns an empty engine. m may be nil.
func NewEngine(m *metrics.Metrics) *Engine {
	return &Engine{
		index:   index.NewKeywordIndex(),
		metrics: m,
		logger:  slog.Default().With("component", "indexer"),
	}
}

// Build discards the current index and indexes every document of src in
// order. When a document cannot be read the documents merged before it stay
// indexed and the error is returned.
func (e *Engine) Build(ctx context.Context, src corpus.Source) (BuildReport, error) {
	start := time.Now()
	e.ready.Store(false)
	e.index.Reset()

	report, err := e.build(ctx, src)
	report.Duration = time.Since(start)
	report.Keywords = e.index.Stats().Keywords

	status := "success"
	if err != nil {
		status = "failure"
	}
	if e.metrics != nil {
		e.metrics.IndexBuildsTotal.WithLabelValues(status).Inc()
		e.metrics.IndexBuildDuration.Observe(report.Duration.Seconds())
		e.metrics.IndexKeywords.Set(float64(report.Keywords))
	}
	if err != nil {
		e.logger.Error("index build failed",
			"error", err,
			"documents_indexed", report.Documents,
			"keywords", report.Keywords,
		)
		return report, err
	}

	e.ready.Store(true)
	e.lastBuild.Store(time.Now().UnixNano())
	e.logger.Info("index build complete",
		"documents", report.Documents,
		"noise_words", report.NoiseWords,
		"keywords", report.Keywords,
		"duration", report.Duration,
	)
	return report, nil
}

func (e *Engine) build(ctx context.Context, src corpus.Source) (BuildReport, error) {
	var report BuildReport

	noise, err := src.NoiseWords(ctx)
	if err != nil {
		return report, fmt.Errorf("loading noise words: %w", err)
	}
	n := tokenizer.NewNormalizer(noise)
	e.normalizerMu.Lock()
	e.normalizer = n
	e.normalizerMu.Unlock()
	report.NoiseWords = n.NoiseWordCount()

	docIDs, err := src.DocumentIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("loading document list: %w", err)
	}

	for _, docID := range docIDs {
		text, err := src.Content(ctx, docID)
		if err != nil {
			return report, fmt.Errorf("reading document %s: %w", docID, err)
		}
		keywords := e.index.AddDocument(docID, text, n)
		report.Documents++
		if e.metrics != nil {
			e.metrics.DocsIndexedTotal.Inc()
		}
		e.logger.Debug("document merged",
			"doc_id", docID,
			"keywords", keywords,
		)
	}
	return report, nil
}

// IndexDocument merges one more document into the index using the
// normalizer of the last build. It fails until a Build has succeeded.
func (e *Engine) IndexDocument(docID string, text string) (int, error) {
	n := e.currentNormalizer()
	if n == nil || !e.ready.Load() {
		return 0, apperrors.New(apperrors.ErrIndexNotReady, http.StatusServiceUnavailable, "index has not been built")
	}
	keywords := e.index.AddDocument(docID, text, n)
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Inc()
		e.metrics.IndexKeywords.Set(float64(e.index.Stats().Keywords))
	}
	e.logger.Debug("document merged", "doc_id", docID, "keywords", keywords)
	return keywords, nil
}

// Search returns the ranked list for one keyword. A token that is not a
// valid keyword, or a keyword never indexed, yields nil.
func (e *Engine) Search(keyword string) index.OccurrenceList {
	kw, ok := tokenizer.Canonical(keyword)
	if !ok {
		return nil
	}
	return e.index.Lookup(kw)
}

// Top5 returns up to five documents containing kw1 or kw2.
func (e *Engine) Top5(kw1, kw2 string) []string {
	return e.TopK(kw1, kw2, merger.DefaultLimit)
}

// TopK returns up to k documents containing kw1 or kw2, ranked by frequency.
func (e *Engine) TopK(kw1, kw2 string, k int) []string {
	return merger.TopK(e.Search(kw1), e.Search(kw2), k)
}

// Ready reports whether the last Build completed without error.
func (e *Engine) Ready() bool {
	return e.ready.Load()
}

// LastBuild returns the completion time of the last successful Build.
func (e *Engine) LastBuild() time.Time {
	ns := e.lastBuild.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

func (e *Engine) Stats() index.Stats {
	return e.index.Stats()
}

func (e *Engine) Snapshot() []index.TermEntry {
	return e.index.Snapshot()
}

func (e *Engine) currentNormalizer() *tokenizer.Normalizer {
	e.normalizerMu.RLock()
	defer e.normalizerMu.RUnlock()
	return e.normalizer
}
