// Package eventbus implements the venue's in-process publish/subscribe
// fabric: per-stream FIFO ordering, four priority tiers dispatched in
// strict priority order, handler-panic isolation, bounded admission with
// oldest-LOW eviction under backpressure, and subscription lifecycle/
// statistics. ThreeDotsLabs/watermill's in-process gochannel transport
// carries the actual per-stream pub/sub plumbing, panjf2000/ants/v2
// supplies the bounded dispatch worker pool, and golang.org/x/time/rate
// is the publish-side backpressure valve.
package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"

	"github.com/archon-trading/spotvenue/internal/logging"
)

// Priority is the four-tier priority scale. On a subscriber it decides
// handler order for each event (CRITICAL first, stable within a tier); on
// a published event it only decides which pending events admission may
// evict (LOW first). Events on one stream are dispatched in publish order
// whatever their priority.
type Priority int

const (
	Low Priority = iota
	Normal
	High
	Critical

	numPriorities = int(Critical) + 1
)

// Event is one published message: an opaque, stream-scoped payload plus
// its routing metadata.
type Event struct {
	StreamKey  string
	Priority   Priority
	Payload    any
	EnqueuedAt time.Time
}

// Handler processes one event. A panicking handler is recovered and
// counted, never crashing the bus or other subscribers.
type Handler func(ctx context.Context, evt Event)

// Stats is a snapshot of bus-wide counters.
type Stats struct {
	Published     int64
	Delivered     int64
	Dropped       int64
	HandlerPanics int64
	QueueDepth    int
}

// subscription is one registered handler, ranked within its stream's
// priority tier by registration order.
type subscription struct {
	id        string
	streamKey string
	priority  Priority
	handler   Handler
}

// streamState is the per-stream dispatch state: one underlying watermill
// subscription feeding a priority index of handlers, CRITICAL..LOW.
type streamState struct {
	tiers  [numPriorities][]*subscription
	cancel context.CancelFunc
}

func (s *streamState) empty() bool {
	for _, t := range s.tiers {
		if len(t) > 0 {
			return false
		}
	}
	return true
}

// orderedSubscribers returns every subscriber on this stream, CRITICAL
// first and stable within each tier.
func (s *streamState) orderedSubscribers() []*subscription {
	var out []*subscription
	for p := int(Critical); p >= int(Low); p-- {
		out = append(out, s.tiers[p]...)
	}
	return out
}

// Bus is the venue's event fan-out fabric. One Bus instance serves the
// whole process; streams are created lazily per stream key.
type Bus struct {
	logger logging.Logger

	pubsub  *gochannel.GoChannel
	pool    *ants.Pool
	limiter *rate.Limiter

	capacity      int
	dropOldestLow bool

	mu            sync.Mutex
	streams       map[string]*streamState
	subs          map[string]*subscription // subscription id -> entry, for Unsubscribe
	pending       []Event                  // admission queue, bounded by capacity
	published     int64
	delivered     int64
	dropped       int64
	handlerPanics int64
}

// Config configures bus construction.
type Config struct {
	QueueCapacity     int
	DispatchPoolSize  int
	DropOldestLowPrio bool
	PublishRatePerSec float64 // 0 disables rate limiting
}

// New builds a Bus backed by an in-process watermill gochannel transport
// and an ants/v2 bounded dispatch pool.
func New(cfg Config, logger logging.Logger) (*Bus, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: int64(cfg.QueueCapacity),
			Persistent:          false,
		},
		watermill.NopLogger{},
	)

	poolSize := cfg.DispatchPoolSize
	if poolSize <= 0 {
		poolSize = 8
	}
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.PublishRatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.PublishRatePerSec), int(cfg.PublishRatePerSec))
	}

	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = 4096
	}

	return &Bus{
		logger:        logger,
		pubsub:        pubsub,
		pool:          pool,
		limiter:       limiter,
		capacity:      capacity,
		dropOldestLow: cfg.DropOldestLowPrio,
		streams:       make(map[string]*streamState),
		subs:          make(map[string]*subscription),
	}, nil
}

// Close releases the dispatch pool and underlying transport.
func (b *Bus) Close() error {
	b.pool.Release()
	return b.pubsub.Close()
}

// Stats returns a snapshot of the bus's counters.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	depth := len(b.pending)
	b.mu.Unlock()
	return Stats{
		Published:     atomic.LoadInt64(&b.published),
		Delivered:     atomic.LoadInt64(&b.delivered),
		Dropped:       atomic.LoadInt64(&b.dropped),
		HandlerPanics: atomic.LoadInt64(&b.handlerPanics),
		QueueDepth:    depth,
	}
}
