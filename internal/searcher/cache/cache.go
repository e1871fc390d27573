package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/resilience"
)

const keyPrefix = "search:"

// Store is the key-value backend of the cache. Get reports an absent key
// with pkgredis.ErrCacheMiss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New returns a cache over store. Store failures trip breaker, after which
// the cache is bypassed until the breaker lets a probe through. m may be nil.
func New(store Store, ttl time.Duration, breaker *resilience.CircuitBreaker, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		ttl:     ttl,
		breaker: breaker,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, bool) {
	key := BuildKey(plan, limit)
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.store.Get(ctx, key)
		if errors.Is(err, pkgredis.ErrCacheMiss) {
			return nil
		}
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	if data == nil {
		c.miss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "query", plan.RawQuery, "key", key)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, plan *parser.QueryPlan, limit int, result *executor.SearchResult) {
	key := BuildKey(plan, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for plan or computes it once for
// all concurrent callers with the same key.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	plan *parser.QueryPlan,
	limit int,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, plan, limit); ok {
		return result, true, nil
	}
	key := BuildKey(plan, limit)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, plan, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// BreakerState reports the state of the breaker guarding the store.
func (c *QueryCache) BreakerState() resilience.State {
	return c.breaker.State()
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// BuildKey derives the cache key for plan. Keyword order is significant
// because ties favour the first keyword.
func BuildKey(plan *parser.QueryPlan, limit int) string {
	raw := fmt.Sprintf("%s|%s|limit=%d", plan.First, plan.Second, limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
