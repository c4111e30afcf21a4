package replay

import "container/heap"

// mergeItem is one pending event pulled ahead-of-time from a source, kept
// in a min-heap ordered by (Timestamp, registration order) so concurrent
// sources with identical timestamps dispatch in a stable, repeatable
// order across runs.
type mergeItem struct {
	evt   Event
	order int
}

type mergeHeap []mergeItem

func (h mergeHeap) Len() int { return len(h) }

func (h mergeHeap) Less(i, j int) bool {
	if !h[i].evt.Timestamp.Equal(h[j].evt.Timestamp) {
		return h[i].evt.Timestamp.Before(h[j].evt.Timestamp)
	}
	return h[i].order < h[j].order
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x any) { *h = append(*h, x.(mergeItem)) }

func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*mergeHeap)(nil)
