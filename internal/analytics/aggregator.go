package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/kafka"
)

const (
	maxLatencySamples = 10000
	topListSize       = 10
)

type AggregatedStats struct {
	TotalSearches     int64            `json:"total_searches"`
	CacheHits         int64            `json:"cache_hits"`
	CacheMisses       int64            `json:"cache_misses"`
	ZeroResultCount   int64            `json:"zero_result_count"`
	AvgLatencyMs      float64          `json:"avg_latency_ms"`
	P50LatencyMs      int64            `json:"p50_latency_ms"`
	P95LatencyMs      int64            `json:"p95_latency_ms"`
	P99LatencyMs      int64            `json:"p99_latency_ms"`
	TopQueries        []TermCount      `json:"top_queries"`
	TopKeywords       []TermCount      `json:"top_keywords"`
	ZeroResultQueries []TermCount      `json:"zero_result_queries"`
	QueriesPerMinute  float64          `json:"queries_per_minute"`
	IndexBuilds       int64            `json:"index_builds"`
	LastBuild         *IndexBuildEvent `json:"last_build,omitempty"`
}

type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Aggregator folds search and index-build events into running statistics.
type Aggregator struct {
	mu                sync.RWMutex
	totalSearches     int64
	cacheHits         int64
	cacheMisses       int64
	zeroResults       int64
	latencies         []int64
	nextLatency       int
	queryCounts       map[string]int64
	keywordCounts     map[string]int64
	zeroResultQueries map[string]int64
	indexBuilds       int64
	lastBuild         *IndexBuildEvent
	startTime         time.Time
	now               func() time.Time
	logger            *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:         make([]int64, 0, 1024),
		queryCounts:       make(map[string]int64),
		keywordCounts:     make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		now:               time.Now,
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent returns the consumer callback feeding agg. Undecodable or
// unknown events are logged and skipped so they do not block the partition.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		env, err := kafka.DecodeJSON[envelope](value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "error", err)
			return nil
		}
		switch env.Type {
		case EventSearch:
			event, err := kafka.DecodeJSON[SearchEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode search event", "error", err)
				return nil
			}
			agg.RecordSearch(event)
		case EventIndexBuild:
			event, err := kafka.DecodeJSON[IndexBuildEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode index build event", "error", err)
				return nil
			}
			agg.RecordIndexBuild(event)
		default:
			agg.logger.Warn("skipping unknown analytics event", "type", env.Type, "key", string(key))
		}
		return nil
	}
}

func (a *Aggregator) RecordSearch(event SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalSearches++
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	a.recordLatency(event.LatencyMs)

	a.queryCounts[event.Query]++
	for _, kw := range event.Keywords {
		a.keywordCounts[kw]++
	}
	if !event.Found {
		a.zeroResults++
		a.zeroResultQueries[event.Query]++
	}
}

func (a *Aggregator) RecordIndexBuild(event IndexBuildEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.indexBuilds++
	a.lastBuild = &event
}

// recordLatency keeps the most recent maxLatencySamples values.
func (a *Aggregator) recordLatency(ms int64) {
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, ms)
		return
	}
	a.latencies[a.nextLatency] = ms
	a.nextLatency = (a.nextLatency + 1) % maxLatencySamples
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:     a.totalSearches,
		CacheHits:         a.cacheHits,
		CacheMisses:       a.cacheMisses,
		ZeroResultCount:   a.zeroResults,
		TopQueries:        topN(a.queryCounts, topListSize),
		TopKeywords:       topN(a.keywordCounts, topListSize),
		ZeroResultQueries: topN(a.zeroResultQueries, topListSize),
		IndexBuilds:       a.indexBuilds,
	}
	if a.lastBuild != nil {
		last := *a.lastBuild
		stats.LastBuild = &last
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	if elapsed := a.now().Sub(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN returns the n largest counts, ties broken by term.
func topN(counts map[string]int64, n int) []TermCount {
	result := make([]TermCount, 0, len(counts))
	for term, count := range counts {
		result = append(result, TermCount{Term: term, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Term < result[j].Term
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
