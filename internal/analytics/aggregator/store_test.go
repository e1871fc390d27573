package aggregator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/analytics"
)

type execCall struct {
	query string
	args  []any
}

type fakeDB struct {
	mu    sync.Mutex
	execs []execCall
	err   error
}

func (f *fakeDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.execs = append(f.execs, execCall{query: query, args: args})
	return nil, nil
}

func (f *fakeDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, errors.New("not supported")
}

func (f *fakeDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func (f *fakeDB) calls() []execCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]execCall(nil), f.execs...)
}

type fixedStats struct{ stats analytics.AggregatedStats }

func (f fixedStats) Stats() analytics.AggregatedStats { return f.stats }

func TestSaveSnapshot(t *testing.T) {
	db := &fakeDB{}
	store := NewStore(db)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return at }

	err := store.SaveSnapshot(context.Background(), analytics.AggregatedStats{
		TotalSearches: 3,
		TopKeywords:   []analytics.TermCount{{Term: "apple", Count: 2}},
	})
	require.NoError(t, err)

	calls := db.calls()
	require.Len(t, calls, 1)
	require.Contains(t, calls[0].query, "INSERT INTO analytics_snapshots")
	require.Equal(t, at, calls[0].args[1])

	var saved analytics.AggregatedStats
	require.NoError(t, json.Unmarshal(calls[0].args[0].([]byte), &saved))
	require.Equal(t, int64(3), saved.TotalSearches)
	require.Equal(t, "apple", saved.TopKeywords[0].Term)
}

func TestSaveSnapshotError(t *testing.T) {
	store := NewStore(&fakeDB{err: errors.New("connection reset")})
	err := store.SaveSnapshot(context.Background(), analytics.AggregatedStats{})
	require.ErrorContains(t, err, "saving analytics snapshot")
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, NewStore(db).EnsureSchema(context.Background()))
	require.Contains(t, db.calls()[0].query, "CREATE TABLE IF NOT EXISTS analytics_snapshots")
}

func TestRunSavesFinalSnapshot(t *testing.T) {
	defer goleak.VerifyNone(t)

	db := &fakeDB{}
	store := NewStore(db)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		store.Run(ctx, fixedStats{analytics.AggregatedStats{TotalSearches: 7}}, 5*time.Millisecond)
	}()

	require.Eventually(t, func() bool { return len(db.calls()) >= 2 }, time.Second, time.Millisecond)
	cancel()
	<-done
	require.GreaterOrEqual(t, len(db.calls()), 3)
}
