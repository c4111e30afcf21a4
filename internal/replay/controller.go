// Package replay implements deterministic, multi-source historical
// dispatch: events from any number of DataSources are merged in strict
// timestamp order (ties broken by source registration order) and handed
// to a Sink one at a time, at a pace controlled by the selected Mode.
// Each source is wrapped in its own circuit breaker, so a flaky data
// source can no longer stall or corrupt the deterministic merge for
// every other source feeding the same run.
package replay

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/archon-trading/spotvenue/internal/logging"
)

// Mode is the closed set of dispatch paces.
type Mode string

const (
	Backtest    Mode = "BACKTEST"    // dispatch as fast as possible, no wall-clock pacing
	Realtime    Mode = "REALTIME"    // dispatch at the recorded inter-event gaps
	Accelerated Mode = "ACCELERATED" // recorded gaps divided by a speed multiplier
	Stepped     Mode = "STEPPED"     // dispatch exactly one event per Step() call
)

// Status is the controller's lifecycle state.
type Status string

const (
	Initialized Status = "INITIALIZED"
	Running     Status = "RUNNING"
	Paused      Status = "PAUSED"
	Stopped     Status = "STOPPED"
	Completed   Status = "COMPLETED"
)

// Event is one timestamped record pulled from a DataSource.
type Event struct {
	Timestamp time.Time
	Source    string
	Payload   any
}

// DataSource yields events in non-decreasing timestamp order. Next
// returns (Event{}, false, nil) at end of stream.
type DataSource interface {
	Name() string
	Next(ctx context.Context) (Event, bool, error)
}

// Sink receives dispatched events in deterministic merged order.
type Sink func(ctx context.Context, evt Event)

// Stats mirrors the original ReplayManager's performance counters.
type Stats struct {
	EventsDispatched int64
	SourcesTripped   int64
	StartedAt        time.Time
	LastEventAt      time.Time
}

// Controller drives one replay run.
type Controller struct {
	logger logging.Logger
	mode   Mode
	accel  float64

	mu     sync.Mutex
	status Status
	pauseCh chan struct{}
	stopCh  chan struct{}
	stepCh  chan struct{}

	sources  []*guardedSource
	stats    Stats
}

type guardedSource struct {
	src     DataSource
	breaker *gobreaker.CircuitBreaker
	order   int
}

// Config configures a Controller.
type Config struct {
	Mode               Mode
	AccelerationFactor float64 // used only in ACCELERATED mode; >1 speeds up, <1 slows down
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// New builds a Controller over the given data sources, each wrapped in
// its own circuit breaker so a failing source degrades gracefully
// (skipped once its breaker opens) instead of stalling the whole run.
func New(cfg Config, sources []DataSource, logger logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	accel := cfg.AccelerationFactor
	if accel <= 0 {
		accel = 1.0
	}
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout == 0 {
		openTimeout = 30 * time.Second
	}

	guarded := make([]*guardedSource, len(sources))
	for i, s := range sources {
		name := s.Name()
		guarded[i] = &guardedSource{
			src:   s,
			order: i,
			breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:        fmt.Sprintf("replay-source-%s", name),
				MaxRequests: 1,
				Timeout:     openTimeout,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= maxFailures
				},
			}),
		}
	}

	return &Controller{
		logger:  logger,
		mode:    cfg.Mode,
		accel:   accel,
		status:  Initialized,
		pauseCh: make(chan struct{}),
		stopCh:  make(chan struct{}),
		stepCh:  make(chan struct{}),
		sources: guarded,
	}
}

// Status returns the controller's current lifecycle state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Stats returns a snapshot of dispatch counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Controller) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

// Pause suspends dispatch after the in-flight event completes.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.status == Running {
		c.status = Paused
	}
	c.mu.Unlock()
}

// Resume continues a paused run.
func (c *Controller) Resume() {
	c.mu.Lock()
	if c.status == Paused {
		c.status = Running
		close(c.pauseCh)
		c.pauseCh = make(chan struct{})
	}
	c.mu.Unlock()
}

// Stop terminates the run; Run returns once the current event finishes.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.status != Stopped && c.status != Completed {
		c.status = Stopped
		close(c.stopCh)
	}
	c.mu.Unlock()
}

// Step releases exactly one event while Run is in STEPPED mode and waiting
// for the next step; a call made at any other moment (not yet started,
// paused, or mid-dispatch) is a no-op.
func (c *Controller) Step() {
	select {
	case c.stepCh <- struct{}{}:
	default:
	}
}
