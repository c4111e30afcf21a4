package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// envelope is the wire shape stored inside each watermill message's
// payload, carrying the priority tag alongside the caller's value so
// subscribers can recover both.
type envelope struct {
	Priority   Priority    `json:"priority"`
	EnqueuedAt time.Time   `json:"enqueued_at"`
	Payload    any         `json:"payload"`
}

// Publish admits an event onto a stream. Admission is gated by the
// configured rate limiter (graceful backpressure: Publish blocks briefly
// rather than failing outright) and by the bounded pending queue, which
// evicts the oldest LOW priority event to make room for a higher or equal
// priority event when full and otherwise drops the new event.
func (b *Bus) Publish(ctx context.Context, streamKey string, priority Priority, payload any) error {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("eventbus: rate limit wait: %w", err)
		}
	}

	evt := Event{StreamKey: streamKey, Priority: priority, Payload: payload, EnqueuedAt: time.Now()}

	if !b.admit(evt) {
		atomic.AddInt64(&b.dropped, 1)
		b.logger.Warn("event dropped at admission", zap.String("stream", streamKey), zap.Int("priority", int(priority)))
		return nil
	}

	raw, err := json.Marshal(envelope{Priority: priority, EnqueuedAt: evt.EnqueuedAt, Payload: payload})
	if err != nil {
		return fmt.Errorf("eventbus: marshal payload: %w", err)
	}
	msg := message.NewMessage(fmt.Sprintf("%s-%d", streamKey, time.Now().UnixNano()), raw)
	msg.Metadata.Set("priority", fmt.Sprintf("%d", priority))

	if err := b.pubsub.Publish(streamKey, msg); err != nil {
		return fmt.Errorf("eventbus: publish: %w", err)
	}
	atomic.AddInt64(&b.published, 1)
	return nil
}

// admit enforces the bounded pending-queue accounting used for
// backpressure visibility (Stats().QueueDepth) and oldest-LOW eviction.
// The actual message storage lives in the watermill transport; `pending`
// here tracks admitted-but-not-yet-delivered events so eviction policy
// can be applied independent of the transport's own buffering.
func (b *Bus) admit(evt Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) < b.capacity {
		b.pending = append(b.pending, evt)
		return true
	}

	if !b.dropOldestLow {
		return false
	}

	for i, existing := range b.pending {
		if existing.Priority == Low {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			b.pending = append(b.pending, evt)
			atomic.AddInt64(&b.dropped, 1)
			return true
		}
	}
	return false
}

// markDelivered removes the oldest tracked pending entry for a stream once
// a handler has finished processing it, keeping QueueDepth accurate.
func (b *Bus) markDelivered(streamKey string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, evt := range b.pending {
		if evt.StreamKey == streamKey {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			break
		}
	}
}
