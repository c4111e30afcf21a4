package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/archon-trading/spotvenue/internal/logging"
)

func TestPublishSubscribeDelivers(t *testing.T) {
	bus, err := New(Config{QueueCapacity: 16, DispatchPoolSize: 2}, logging.NewNop())
	require.NoError(t, err)
	defer bus.Close()

	var mu sync.Mutex
	var received []string
	done := make(chan struct{}, 1)

	_, err = bus.Subscribe(context.Background(), "orders.BTC-USD", Normal, func(ctx context.Context, evt Event) {
		mu.Lock()
		received = append(received, evt.Payload.(string))
		mu.Unlock()
		done <- struct{}{}
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), "orders.BTC-USD", Normal, "hello"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"hello"}, received)
}

func TestHandlerPanicIsolated(t *testing.T) {
	bus, err := New(Config{QueueCapacity: 16, DispatchPoolSize: 2}, logging.NewNop())
	require.NoError(t, err)
	defer bus.Close()

	done := make(chan struct{}, 1)
	_, err = bus.Subscribe(context.Background(), "risky", Normal, func(ctx context.Context, evt Event) {
		panic("boom")
	})
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), "risky", Normal, func(ctx context.Context, evt Event) {
		done <- struct{}{}
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), "risky", Normal, "x"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second subscriber never received event after first panicked")
	}

	require.GreaterOrEqual(t, bus.Stats().HandlerPanics, int64(1))
}

func TestHandlersFireInPriorityOrder(t *testing.T) {
	bus, err := New(Config{QueueCapacity: 16, DispatchPoolSize: 1}, logging.NewNop())
	require.NoError(t, err)
	defer bus.Close()

	var mu sync.Mutex
	var order []string
	done := make(chan struct{}, 1)

	record := func(name string, last bool) Handler {
		return func(ctx context.Context, evt Event) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			if last {
				done <- struct{}{}
			}
		}
	}

	// Registered out of priority order on purpose: dispatch order must
	// still come out CRITICAL, HIGH, NORMAL, LOW regardless of
	// registration order.
	_, err = bus.Subscribe(context.Background(), "tiered", Low, record("low", true))
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), "tiered", Critical, record("critical", false))
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), "tiered", Normal, record("normal", false))
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), "tiered", High, record("high", false))
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), "tiered", Normal, "x"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"critical", "high", "normal", "low"}, order)
}

func TestUnsubscribeStopsDeliveryButLeavesOthersIntact(t *testing.T) {
	bus, err := New(Config{QueueCapacity: 16, DispatchPoolSize: 2}, logging.NewNop())
	require.NoError(t, err)
	defer bus.Close()

	var mu sync.Mutex
	var goneCalls, keptCalls int
	done := make(chan struct{}, 1)

	goneID, err := bus.Subscribe(context.Background(), "s1", Normal, func(ctx context.Context, evt Event) {
		mu.Lock()
		goneCalls++
		mu.Unlock()
	})
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), "s1", Normal, func(ctx context.Context, evt Event) {
		mu.Lock()
		keptCalls++
		mu.Unlock()
		done <- struct{}{}
	})
	require.NoError(t, err)

	bus.Unsubscribe(goneID)
	require.NoError(t, bus.Publish(context.Background(), "s1", Normal, "x"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 0, goneCalls)
	require.Equal(t, 1, keptCalls)
}
