package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/kafka"
)

// maxBatch bounds how many buffered events one publish call carries.
const maxBatch = 100

// Publisher delivers events to the event bus.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector buffers events and publishes them in batches from a single
// goroutine so that Track never blocks a request. Events beyond the buffer
// are dropped.
type Collector struct {
	publisher Publisher
	eventCh   chan any
	done      chan struct{}
	mu        sync.RWMutex
	closed    bool
	dropped   atomic.Int64
	logger    *slog.Logger
}

func NewCollector(publisher Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		publisher: publisher,
		eventCh:   make(chan any, bufferSize),
		done:      make(chan struct{}),
		logger:    slog.Default().With("component", "analytics-collector"),
	}
}

// Start launches the publishing goroutine. It stops after Close, or after
// ctx is cancelled once the buffered events are flushed. Cancelling ctx
// closes the collector.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, c.batch(event))
			case <-ctx.Done():
				c.stopAccepting()
				c.drain()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues event. Events tracked once the collector is closed are
// counted as dropped.
func (c *Collector) Track(event any) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.dropped.Add(1)
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.dropped.Add(1)
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Dropped returns the number of events discarded because the buffer was full
// or the collector was closed.
func (c *Collector) Dropped() int64 {
	return c.dropped.Load()
}

// Close stops accepting events and waits for the buffered ones to be
// published. It must only be called after Start.
func (c *Collector) Close() {
	c.stopAccepting()
	<-c.done
}

func (c *Collector) stopAccepting() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
}

// batch returns first followed by whatever else is already buffered, up to
// maxBatch events.
func (c *Collector) batch(first any) []kafka.Event {
	events := []kafka.Event{{Key: eventKey(first), Value: first}}
	for len(events) < maxBatch {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return events
			}
			events = append(events, kafka.Event{Key: eventKey(event), Value: event})
		default:
			return events
		}
	}
	return events
}

func (c *Collector) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for event := range c.eventCh {
		c.publish(ctx, c.batch(event))
	}
}

func (c *Collector) publish(ctx context.Context, events []kafka.Event) {
	if err := c.publisher.PublishBatch(ctx, events); err != nil {
		c.logger.Error("failed to publish analytics events", "count", len(events), "error", err)
	}
}

func eventKey(event any) string {
	switch event.(type) {
	case SearchEvent:
		return string(EventSearch)
	case IndexBuildEvent:
		return string(EventIndexBuild)
	default:
		return "analytics"
	}
}
