package orderbook

import "github.com/archon-trading/spotvenue/pkg/money"

// DepthLevel is one aggregated price/quantity row of a depth snapshot.
type DepthLevel struct {
	Price    money.Decimal
	Quantity money.Decimal
}

// Depth returns up to `levels` aggregated price levels per side, best
// price first. It never mutates the book.
func (b *Book) Depth(levels int) (bids, asks []DepthLevel) {
	return collectLevels(b.bids, levels), collectLevels(b.asks, levels)
}

// collectLevels walks a price tree in comparator order (best-first, since
// bids use a descending comparator and asks an ascending one) and
// aggregates each level's remaining quantity, stopping at limit levels.
func collectLevels(t *rbtTree, limit int) []DepthLevel {
	out := make([]DepthLevel, 0, limit)
	it := t.Iterator()
	for len(out) < limit && it.Next() {
		level := it.Value()
		out = append(out, DepthLevel{Price: level.price, Quantity: level.totalQuantity()})
	}
	return out
}
