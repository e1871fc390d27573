package analytics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestAggregatorHandleEvent(t *testing.T) {
	agg := NewAggregator()
	start := agg.startTime
	agg.now = func() time.Time { return start.Add(2 * time.Minute) }
	handle := HandleEvent(agg)
	ctx := context.Background()

	events := []SearchEvent{
		{Type: EventSearch, Query: "apple or banana", Keywords: []string{"apple", "banana"}, Found: true, Returned: 3, LatencyMs: 4},
		{Type: EventSearch, Query: "apple or banana", Keywords: []string{"apple", "banana"}, Found: true, Returned: 3, LatencyMs: 1, CacheHit: true},
		{Type: EventSearch, Query: "pear", Keywords: []string{"pear"}, LatencyMs: 2},
		{Type: EventSearch, Query: "apple", Keywords: []string{"apple"}, Found: true, Returned: 2, LatencyMs: 3},
	}
	for _, e := range events {
		require.NoError(t, handle(ctx, []byte("search"), encode(t, e)))
	}
	require.NoError(t, handle(ctx, []byte("index_build"), encode(t, IndexBuildEvent{Type: EventIndexBuild, Documents: 3, Keywords: 12})))

	stats := agg.Stats()
	require.Equal(t, int64(4), stats.TotalSearches)
	require.Equal(t, int64(1), stats.CacheHits)
	require.Equal(t, int64(3), stats.CacheMisses)
	require.Equal(t, int64(1), stats.ZeroResultCount)
	require.Equal(t, []TermCount{{"apple", 3}, {"banana", 2}, {"pear", 1}}, stats.TopKeywords)
	require.Equal(t, TermCount{"apple or banana", 2}, stats.TopQueries[0])
	require.Equal(t, []TermCount{{"pear", 1}}, stats.ZeroResultQueries)
	require.InDelta(t, 2.5, stats.AvgLatencyMs, 0.001)
	require.Equal(t, int64(3), stats.P50LatencyMs)
	require.Equal(t, int64(4), stats.P99LatencyMs)
	require.InDelta(t, 2.0, stats.QueriesPerMinute, 0.001)
	require.Equal(t, int64(1), stats.IndexBuilds)
	require.Equal(t, 12, stats.LastBuild.Keywords)
}

func TestAggregatorSkipsBadMessages(t *testing.T) {
	agg := NewAggregator()
	handle := HandleEvent(agg)
	ctx := context.Background()

	require.NoError(t, handle(ctx, nil, []byte("not json")))
	require.NoError(t, handle(ctx, nil, []byte(`{"type":"unknown"}`)))
	require.NoError(t, handle(ctx, nil, []byte(`{"type":"search","returned":"three"}`)))
	require.Zero(t, agg.Stats().TotalSearches)
}

func TestAggregatorBoundsLatencySamples(t *testing.T) {
	agg := NewAggregator()
	for i := 0; i < maxLatencySamples+10; i++ {
		agg.RecordSearch(SearchEvent{Query: "q", LatencyMs: int64(i)})
	}
	require.Len(t, agg.latencies, maxLatencySamples)
	require.Equal(t, 10, agg.nextLatency)
	require.Equal(t, int64(maxLatencySamples+10), agg.Stats().TotalSearches)
}

func TestTopN(t *testing.T) {
	counts := map[string]int64{"b": 2, "a": 2, "c": 5, "d": 1}
	require.Equal(t, []TermCount{{"c", 5}, {"a", 2}, {"b", 2}}, topN(counts, 3))
	require.Empty(t, topN(nil, 3))
}
