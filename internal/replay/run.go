package replay

import (
	"container/heap"
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// Run drives one replay to completion (or until Stop/ctx cancellation),
// handing each merged event to sink in order. It refills the merge heap
// one event per source at a time: a source only yields its next event
// once its previous one has been dispatched, which keeps memory bounded
// regardless of source size.
func (c *Controller) Run(ctx context.Context, sink Sink) error {
	select {
	case <-c.stopCh:
		return nil // Stop() was called before Run() ever started
	default:
	}
	c.setStatus(Running)
	c.stats.StartedAt = c.now()

	h := &mergeHeap{}
	heap.Init(h)
	for _, gs := range c.sources {
		if item, ok, err := c.pull(ctx, gs); err != nil {
			c.logger.Warn("replay source failed on first pull")
			continue
		} else if ok {
			heap.Push(h, item)
		}
	}

	var lastDispatched time.Time
	first := true

	for h.Len() > 0 {
		select {
		case <-ctx.Done():
			c.setStatus(Stopped)
			return ctx.Err()
		case <-c.stopCh:
			c.setStatus(Stopped)
			return nil
		default:
		}

		if err := c.waitIfPaused(ctx); err != nil {
			return err
		}
		if c.mode == Stepped {
			select {
			case <-c.stepCh:
			case <-ctx.Done():
				c.setStatus(Stopped)
				return ctx.Err()
			case <-c.stopCh:
				c.setStatus(Stopped)
				return nil
			}
		}

		item := heap.Pop(h).(mergeItem)
		c.pace(ctx, item.evt.Timestamp, lastDispatched, first)
		first = false
		lastDispatched = item.evt.Timestamp

		sink(ctx, item.evt)
		c.mu.Lock()
		c.stats.EventsDispatched++
		c.stats.LastEventAt = item.evt.Timestamp
		c.mu.Unlock()

		gs := c.sources[item.order]
		if next, ok, err := c.pull(ctx, gs); err != nil {
			c.mu.Lock()
			c.stats.SourcesTripped++
			c.mu.Unlock()
			c.logger.Warn("replay source tripped its breaker, dropping remaining events from it")
		} else if ok {
			heap.Push(h, next)
		}
	}

	c.setStatus(Completed)
	return nil
}

// pull fetches the next event from a source through its circuit breaker,
// retrying a failing source until a pull succeeds, its breaker opens, or
// ctx is cancelled; only the last two return an error.
func (c *Controller) pull(ctx context.Context, gs *guardedSource) (mergeItem, bool, error) {
	type result struct {
		evt Event
		ok  bool
	}
	next := func() (any, error) {
		evt, ok, err := gs.src.Next(ctx)
		if err != nil {
			return nil, err
		}
		return result{evt: evt, ok: ok}, nil
	}
	raw, err := gs.breaker.Execute(next)
	for err != nil && !errors.Is(err, gobreaker.ErrOpenState) && ctx.Err() == nil {
		raw, err = gs.breaker.Execute(next)
	}
	if err != nil {
		return mergeItem{}, false, err
	}
	r := raw.(result)
	if !r.ok {
		return mergeItem{}, false, nil
	}
	return mergeItem{evt: r.evt, order: gs.order}, true, nil
}

// waitIfPaused blocks until Resume() or cancellation while paused.
func (c *Controller) waitIfPaused(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.status != Paused {
			c.mu.Unlock()
			return nil
		}
		ch := c.pauseCh
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			return nil
		}
	}
}

// pace sleeps to reproduce recorded inter-event spacing in REALTIME and
// ACCELERATED modes; BACKTEST and STEPPED never sleep.
func (c *Controller) pace(ctx context.Context, ts, last time.Time, first bool) {
	if first || (c.mode != Realtime && c.mode != Accelerated) {
		return
	}
	gap := ts.Sub(last)
	if gap <= 0 {
		return
	}
	if c.mode == Accelerated {
		gap = time.Duration(float64(gap) / c.accel)
	}
	t := time.NewTimer(gap)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	case <-c.stopCh:
	}
}

// now is split out so a future deterministic-clock injection point exists
// without touching every call site.
func (c *Controller) now() time.Time { return time.Now() }
