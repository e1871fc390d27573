package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/resilience"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
	fail error
	gets atomic.Int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.gets.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	v, ok := s.data[key]
	if !ok {
		return nil, pkgredis.ErrCacheMiss
	}
	return v, nil
}

func (s *memoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.data[key] = value
	return nil
}

func (s *memoryStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}

func newCache(store Store) *QueryCache {
	breaker := resilience.NewCircuitBreaker("test-cache", resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	})
	return New(store, time.Minute, breaker, metrics.NewUnregistered())
}

func plan(t *testing.T, q string) *parser.QueryPlan {
	t.Helper()
	p, err := parser.Parse(q)
	require.NoError(t, err)
	return p
}

func TestGetOrCompute(t *testing.T) {
	c := newCache(newMemoryStore())
	ctx := context.Background()
	p := plan(t, "apple or banana")

	calls := 0
	compute := func() (*executor.SearchResult, error) {
		calls++
		return &executor.SearchResult{Query: p.RawQuery, Found: true, Documents: []string{"doc1", "doc2"}}, nil
	}

	result, hit, err := c.GetOrCompute(ctx, p, 5, compute)
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, []string{"doc1", "doc2"}, result.Documents)

	result, hit, err = c.GetOrCompute(ctx, p, 5, compute)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, []string{"doc1", "doc2"}, result.Documents)
	require.Equal(t, 1, calls)

	hits, misses := c.Stats()
	require.Equal(t, int64(1), hits)
	require.Equal(t, int64(1), misses)
}

func TestGetOrComputeError(t *testing.T) {
	c := newCache(newMemoryStore())
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), plan(t, "apple"), 5, func() (*executor.SearchResult, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestBuildKey(t *testing.T) {
	require.Equal(t, BuildKey(plan(t, "Apple or banana"), 5), BuildKey(plan(t, "apple BANANA"), 5))
	require.NotEqual(t, BuildKey(plan(t, "apple or banana"), 5), BuildKey(plan(t, "banana or apple"), 5))
	require.NotEqual(t, BuildKey(plan(t, "apple"), 5), BuildKey(plan(t, "apple"), 3))
	require.True(t, strings.HasPrefix(BuildKey(plan(t, "apple"), 5), keyPrefix))
}

func TestInvalidate(t *testing.T) {
	store := newMemoryStore()
	c := newCache(store)
	ctx := context.Background()
	c.Set(ctx, plan(t, "apple"), 5, &executor.SearchResult{})
	c.Set(ctx, plan(t, "banana"), 5, &executor.SearchResult{})
	store.data["other:key"] = []byte("x")

	deleted, err := c.Invalidate(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)
	require.Len(t, store.data, 1)

	_, ok := c.Get(ctx, plan(t, "apple"), 5)
	require.False(t, ok)
}

func TestStoreFailureOpensBreaker(t *testing.T) {
	store := newMemoryStore()
	store.fail = errors.New("connection refused")
	c := newCache(store)
	ctx := context.Background()
	p := plan(t, "apple")

	for i := 0; i < 2; i++ {
		_, ok := c.Get(ctx, p, 5)
		require.False(t, ok)
	}
	require.Equal(t, resilience.StateOpen, c.BreakerState())

	before := store.gets.Load()
	result, hit, err := c.GetOrCompute(ctx, p, 5, func() (*executor.SearchResult, error) {
		return &executor.SearchResult{Documents: []string{"doc1"}}, nil
	})
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, []string{"doc1"}, result.Documents)
	require.Equal(t, before, store.gets.Load())
}

func TestMissIsNotAFailure(t *testing.T) {
	c := newCache(newMemoryStore())
	for i := 0; i < 5; i++ {
		_, ok := c.Get(context.Background(), plan(t, "apple"), 5)
		require.False(t, ok)
	}
	require.Equal(t, resilience.StateClosed, c.BreakerState())
}
