package replay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/archon-trading/spotvenue/internal/logging"
)

type sliceSource struct {
	name   string
	events []Event
	idx    int
}

func (s *sliceSource) Name() string { return s.name }

func (s *sliceSource) Next(ctx context.Context) (Event, bool, error) {
	if s.idx >= len(s.events) {
		return Event{}, false, nil
	}
	evt := s.events[s.idx]
	s.idx++
	return evt, true, nil
}

func TestMergeOrdersByTimestampThenSource(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &sliceSource{name: "a", events: []Event{
		{Timestamp: base, Source: "a", Payload: "a0"},
		{Timestamp: base.Add(2 * time.Second), Source: "a", Payload: "a1"},
	}}
	b := &sliceSource{name: "b", events: []Event{
		{Timestamp: base, Source: "b", Payload: "b0"}, // ties with a0, registered after a: must come second
		{Timestamp: base.Add(time.Second), Source: "b", Payload: "b1"},
	}}

	ctrl := New(Config{Mode: Backtest}, []DataSource{a, b}, logging.NewNop())

	var got []string
	err := ctrl.Run(context.Background(), func(_ context.Context, evt Event) {
		got = append(got, evt.Payload.(string))
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a0", "b0", "b1", "a1"}, got)
	require.Equal(t, Completed, ctrl.Status())
	require.EqualValues(t, 4, ctrl.Stats().EventsDispatched)
}

func TestStopEndsRunEarly(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &sliceSource{name: "a", events: []Event{
		{Timestamp: base, Payload: "a0"},
		{Timestamp: base.Add(time.Second), Payload: "a1"},
	}}
	ctrl := New(Config{Mode: Backtest}, []DataSource{a}, logging.NewNop())
	ctrl.Stop()

	var got []string
	err := ctrl.Run(context.Background(), func(_ context.Context, evt Event) {
		got = append(got, evt.Payload.(string))
	})
	require.NoError(t, err)
	require.Empty(t, got)
	require.Equal(t, Stopped, ctrl.Status())
}
