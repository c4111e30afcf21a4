package eventbus

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Subscribe registers handler to receive every event published to
// streamKey at the given priority tier. On each publish, every handler on
// a stream is invoked CRITICAL first, then HIGH, NORMAL, LOW, stable
// within a tier by registration order; dispatch for one message runs as a
// single task on the bounded ants/v2 pool so handler ordering is
// preserved without blocking the publisher or other streams. Returns a
// subscription id usable with Unsubscribe.
func (b *Bus) Subscribe(ctx context.Context, streamKey string, priority Priority, handler Handler) (string, error) {
	id := uuid.New().String()
	sub := &subscription{id: id, streamKey: streamKey, priority: priority, handler: handler}

	b.mu.Lock()
	st, ok := b.streams[streamKey]
	if !ok {
		subCtx, cancel := context.WithCancel(context.Background())
		msgs, err := b.pubsub.Subscribe(subCtx, streamKey)
		if err != nil {
			cancel()
			b.mu.Unlock()
			return "", err
		}
		st = &streamState{cancel: cancel}
		b.streams[streamKey] = st
		go b.pump(subCtx, streamKey, msgs)
	}
	st.tiers[priority] = append(st.tiers[priority], sub)
	b.subs[id] = sub
	b.mu.Unlock()

	return id, nil
}

// Unsubscribe removes one subscriber from its stream's priority tier. Once
// a stream has no subscribers left on any tier, its underlying watermill
// subscription is torn down.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	sub, ok := b.subs[id]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.subs, id)

	st, ok := b.streams[sub.streamKey]
	if ok {
		tier := st.tiers[sub.priority]
		for i, s := range tier {
			if s.id == id {
				st.tiers[sub.priority] = append(tier[:i:i], tier[i+1:]...)
				break
			}
		}
		if st.empty() {
			delete(b.streams, sub.streamKey)
			st.cancel()
		}
	}
	b.mu.Unlock()
}

// pump drains one stream's underlying message channel, submitting each
// delivery to the shared dispatch pool so handler execution is bounded
// and isolated from other streams.
func (b *Bus) pump(ctx context.Context, streamKey string, msgs <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			m := msg
			err := b.pool.Submit(func() { b.dispatch(ctx, streamKey, m) })
			if err != nil {
				// pool saturated or closed: nack so watermill's
				// in-memory transport can redeliver, and count the drop.
				m.Nack()
				atomic.AddInt64(&b.dropped, 1)
			}
		}
	}
}

// dispatch unmarshals one message and invokes every subscriber on
// streamKey in priority order, recovering any handler panic so it cannot
// cascade to other handlers, other subscriptions, or the dispatch pool.
func (b *Bus) dispatch(ctx context.Context, streamKey string, msg *message.Message) {
	var env envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		b.logger.Error("eventbus: malformed payload", zap.Error(err))
		msg.Nack()
		return
	}

	evt := Event{
		StreamKey:  streamKey,
		Priority:   env.Priority,
		Payload:    env.Payload,
		EnqueuedAt: env.EnqueuedAt,
	}

	b.mu.Lock()
	var ordered []*subscription
	if st, ok := b.streams[streamKey]; ok {
		ordered = st.orderedSubscribers()
	}
	b.mu.Unlock()

	for _, sub := range ordered {
		b.invokeHandler(ctx, sub, evt)
	}

	msg.Ack()
	atomic.AddInt64(&b.delivered, 1)
	b.markDelivered(streamKey)
}

// invokeHandler runs one subscriber's handler, recovering a panic so that
// a broken handler never stops the remaining handlers in priority order
// from running.
func (b *Bus) invokeHandler(ctx context.Context, sub *subscription, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&b.handlerPanics, 1)
			b.logger.Error("eventbus handler panicked",
				zap.String("stream", sub.streamKey),
				zap.Any("recovered", r))
		}
	}()
	sub.handler(ctx, evt)
}
