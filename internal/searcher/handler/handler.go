package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/middleware"
)

type SearchExecutor interface {
	Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, error)
}

// KeywordIndex exposes single-keyword lookups, index statistics and
// incremental document merges.
type KeywordIndex interface {
	Search(keyword string) index.OccurrenceList
	Stats() index.Stats
	LastBuild() time.Time
	IndexDocument(docID string, text string) (int, error)
}

// maxDocumentBytes bounds the body of a document upload.
const maxDocumentBytes = 1 << 20

// Tracker receives analytics events.
type Tracker interface {
	Track(event any)
}

type Config struct {
	DefaultLimit int
	MaxResults   int
}

type Handler struct {
	executor SearchExecutor
	index    KeywordIndex
	cache    *cache.QueryCache
	tracker  Tracker
	metrics  *metrics.Metrics
	cfg      Config
	logger   *slog.Logger
}

// New wires the search API. queryCache, tracker and m may be nil.
func New(exec SearchExecutor, idx KeywordIndex, queryCache *cache.QueryCache, tracker Tracker, m *metrics.Metrics, cfg Config) *Handler {
	return &Handler{
		executor: exec,
		index:    idx,
		cache:    queryCache,
		tracker:  tracker,
		metrics:  m,
		cfg:      cfg,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Routes registers the API on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/keywords/{keyword}", h.Keyword)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	mux.HandleFunc("PUT /api/v1/documents/{id}", h.IndexDocument)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("DELETE /api/v1/cache", h.CacheInvalidate)
}

// Search answers GET /api/v1/search?q=kw1+or+kw2 and
// GET /api/v1/search?kw1=..&kw2=..
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	plan, err := planFromRequest(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	limit, err := h.limit(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var result *executor.SearchResult
	cacheStatus := "bypass"
	if h.cache != nil && !plan.Empty() {
		var hit bool
		result, hit, err = h.cache.GetOrCompute(ctx, plan, limit, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, plan, limit)
		})
		cacheStatus = "miss"
		if hit {
			cacheStatus = "hit"
		}
	} else {
		result, err = h.executor.Execute(ctx, plan, limit)
	}
	latency := time.Since(start)

	if err != nil {
		h.observe("error", cacheStatus, latency, 0)
		log.Error("search execution failed", "query", plan.RawQuery, "error", err)
		h.writeError(w, err)
		return
	}

	resultType := "hit"
	if !result.Found {
		resultType = "zero_result"
	}
	h.observe(resultType, cacheStatus, latency, len(result.Documents))

	log.Info("search completed",
		"query", plan.RawQuery,
		"keywords", result.Keywords,
		"returned", len(result.Documents),
		"cache", cacheStatus,
		"latency", latency,
	)
	if h.tracker != nil {
		h.tracker.Track(analytics.SearchEvent{
			Type:      analytics.EventSearch,
			Query:     plan.RawQuery,
			Keywords:  result.Keywords,
			Returned:  len(result.Documents),
			Found:     result.Found,
			LatencyMs: latency.Milliseconds(),
			CacheHit:  cacheStatus == "hit",
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, result)
}

type keywordResponse struct {
	Keyword     string               `json:"keyword"`
	Found       bool                 `json:"found"`
	Occurrences index.OccurrenceList `json:"occurrences"`
}

// Keyword returns the full ranked list of one keyword.
func (h *Handler) Keyword(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("keyword")
	kw, ok := tokenizer.Canonical(raw)
	if !ok {
		h.writeError(w, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "%q is not a valid keyword", raw))
		return
	}
	list := h.index.Search(kw)
	resp := keywordResponse{Keyword: kw, Found: list != nil, Occurrences: list}
	if list == nil {
		resp.Occurrences = index.OccurrenceList{}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"index": h.index.Stats()}
	if last := h.index.LastBuild(); !last.IsZero() {
		resp["last_build"] = last.UTC().Format(time.RFC3339)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// IndexDocument merges the request body into the index as document id and
// drops cached results that may now be stale.
func (h *Handler) IndexDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	docID := r.PathValue("id")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		h.writeError(w, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusRequestEntityTooLarge,
			"document body exceeds %d bytes", maxDocumentBytes))
		return
	}
	keywords, err := h.index.IndexDocument(docID, string(body))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if h.cache != nil {
		if _, err := h.cache.Invalidate(ctx); err != nil {
			log.Warn("cache invalidation after document merge failed", "doc_id", docID, "error", err)
		}
	}
	log.Info("document indexed", "doc_id", docID, "keywords", keywords)
	h.writeJSON(w, http.StatusOK, map[string]any{"document": docID, "keywords": keywords})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
		"breaker":  h.cache.BreakerState().String(),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cache invalidation failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func planFromRequest(r *http.Request) (*parser.QueryPlan, error) {
	q := r.URL.Query()
	if query := q.Get("q"); query != "" {
		return parser.Parse(query)
	}
	if q.Has("kw1") || q.Has("kw2") {
		return parser.FromKeywords(q.Get("kw1"), q.Get("kw2"))
	}
	return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' or 'kw1'/'kw2' is required")
}

func (h *Handler) limit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return h.cfg.DefaultLimit, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer")
	}
	return min(n, h.cfg.MaxResults), nil
}

func (h *Handler) observe(resultType, cacheStatus string, latency time.Duration, returned int) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
	if resultType != "error" {
		h.metrics.SearchResultsCount.Observe(float64(returned))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := "search failed"
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
