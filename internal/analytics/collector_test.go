package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/kafka"
)

type recordingPublisher struct {
	mu      sync.Mutex
	events  []kafka.Event
	batches int
	err     error
}

func (p *recordingPublisher) PublishBatch(ctx context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches++
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) snapshot() []kafka.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]kafka.Event(nil), p.events...)
}

func TestCollectorPublishesTrackedEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	pub := &recordingPublisher{}
	c := NewCollector(pub, 16)
	c.Start(context.Background())

	c.Track(SearchEvent{Type: EventSearch, Query: "apple or banana"})
	c.Track(IndexBuildEvent{Type: EventIndexBuild, Documents: 3})
	c.Close()

	events := pub.snapshot()
	require.Len(t, events, 2)
	require.Equal(t, "search", events[0].Key)
	require.Equal(t, "index_build", events[1].Key)
	require.Equal(t, "apple or banana", events[0].Value.(SearchEvent).Query)

	c.Track(SearchEvent{Type: EventSearch})
	require.Len(t, pub.snapshot(), 2)
	require.Equal(t, int64(1), c.Dropped())
}

func TestCollectorFlushesOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	pub := &recordingPublisher{}
	c := NewCollector(pub, 16)
	for i := 0; i < 5; i++ {
		c.Track(SearchEvent{Type: EventSearch})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Start(ctx)
	c.Close()

	require.Len(t, pub.snapshot(), 5)
}

func TestCollectorCountsEventsTrackedAfterCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	pub := &recordingPublisher{}
	c := NewCollector(pub, 16)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()
	<-c.done

	c.Track(SearchEvent{Type: EventSearch, Query: "late"})
	c.Close()

	require.Empty(t, pub.snapshot())
	require.Equal(t, int64(1), c.Dropped())
}

func TestCollectorDropsWhenFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCollector(&recordingPublisher{}, 1)
	c.Track(SearchEvent{})
	c.Track(SearchEvent{})
	require.Equal(t, int64(1), c.Dropped())

	c.Start(context.Background())
	c.Close()
}

func TestCollectorSurvivesPublishErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	pub := &recordingPublisher{err: errors.New("broker down")}
	c := NewCollector(pub, 4)
	c.Start(context.Background())
	c.Track(SearchEvent{})
	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return pub.batches == 1
	}, time.Second, time.Millisecond)
	c.Close()
}
