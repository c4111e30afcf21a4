// Package orderbook implements the price-time priority limit order book:
// a red-black tree per side keyed by price (O(log L) insert/remove, and
// O(log L) best-price access by walking to the tree's first element in
// comparator order; the best level is not cached), and a FIFO queue per
// price level (container/list) for time priority within a level, with an
// intrusive order-id index for O(1) arbitrary cancellation.
//
// Grounded on ccyyhlg-lightning-exchange's price_tree_sharded.go (the
// emirpasic/gods/v2 red-black tree usage) and price_tree.go (the
// HashMap+List FIFO-per-level design), generalized from float64 prices to
// exact money.Decimal and adapted to this venue's Order type.
package orderbook

import (
	"container/list"

	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"

	"github.com/archon-trading/spotvenue/internal/types"
	"github.com/archon-trading/spotvenue/pkg/money"
)

// priceLevel holds every resting order at one exact price, oldest first.
type priceLevel struct {
	price money.Decimal
	queue *list.List // *list.Element.Value is *types.Order
}

func newPriceLevel(price money.Decimal) *priceLevel {
	return &priceLevel{price: price, queue: list.New()}
}

// Price returns the exact price of this level.
func (pl *priceLevel) Price() money.Decimal { return pl.price }

// TotalQuantity sums remaining quantity across the level.
func (pl *priceLevel) TotalQuantity() money.Decimal { return pl.totalQuantity() }

// Front returns the oldest order's list element at this level, or nil if
// the level is empty. Callers outside the package walk the FIFO with
// elem.Next() and elem.Value.(*types.Order).
func (pl *priceLevel) Front() *list.Element { return pl.queue.Front() }

// totalQuantity sums remaining quantity across the level, used by depth
// snapshots.
func (pl *priceLevel) totalQuantity() money.Decimal {
	total := money.Zero()
	for e := pl.queue.Front(); e != nil; e = e.Next() {
		o := e.Value.(*types.Order)
		total = total.Add(o.RemainingQuantity())
	}
	return total
}

func ascending(a, b money.Decimal) int  { return a.Cmp(b) }
func descending(a, b money.Decimal) int { return b.Cmp(a) }

// rbtTree is the concrete tree type shared by depth.go's snapshot walk.
type rbtTree = rbt.Tree[money.Decimal, *priceLevel]

// Book is one symbol's two-sided order book. Not safe for concurrent use;
// callers (the symbol actor in internal/matching) serialize all access.
type Book struct {
	Symbol string

	bids *rbt.Tree[money.Decimal, *priceLevel] // descending: best bid = Left-most / comparator min
	asks *rbt.Tree[money.Decimal, *priceLevel] // ascending: best ask = Left-most / tree min

	index map[string]*list.Element // order_id -> FIFO node, for O(1) cancel

	stopBids []*types.Order // pending STOP/STOP_LIMIT buys, unsorted: activation scans linearly
	stopAsks []*types.Order // pending STOP/STOP_LIMIT sells
}

// New builds an empty book for one symbol.
func New(symbol string) *Book {
	return &Book{
		Symbol:   symbol,
		bids:     rbt.NewWith[money.Decimal, *priceLevel](descending),
		asks:     rbt.NewWith[money.Decimal, *priceLevel](ascending),
		index:    make(map[string]*list.Element),
		stopBids: nil,
		stopAsks: nil,
	}
}

func (b *Book) treeFor(side types.Side) *rbt.Tree[money.Decimal, *priceLevel] {
	if side == types.Buy {
		return b.bids
	}
	return b.asks
}

// AddResting inserts a resting order at the back of its price level's FIFO
// queue, creating the level if this is the first order at that price.
func (b *Book) AddResting(o *types.Order) {
	tree := b.treeFor(o.Side)
	level, found := tree.Get(o.Price)
	if !found {
		level = newPriceLevel(o.Price)
		tree.Put(o.Price, level)
	}
	elem := level.queue.PushBack(o)
	b.index[o.OrderID] = elem
}

// Remove takes an order off the book by id, dropping the price level if it
// becomes empty. Returns false if the order was not resting.
func (b *Book) Remove(orderID string, side types.Side, price money.Decimal) bool {
	elem, ok := b.index[orderID]
	if !ok {
		return false
	}
	delete(b.index, orderID)
	tree := b.treeFor(side)
	level, found := tree.Get(price)
	if !found {
		return false
	}
	level.queue.Remove(elem)
	if level.queue.Len() == 0 {
		tree.Remove(price)
	}
	return true
}

// BestBid returns the highest resting bid price level, or nil if empty.
func (b *Book) BestBid() *priceLevel { return treeExtreme(b.bids) }

// BestAsk returns the lowest resting ask price level, or nil if empty.
func (b *Book) BestAsk() *priceLevel { return treeExtreme(b.asks) }

// treeExtreme returns the level at the tree's iteration start, which is the
// comparator's "smallest" element — callers pass a tree whose comparator
// already encodes "best" as smallest (descending for bids, ascending for
// asks), so this is always the best price in O(log L).
func treeExtreme(t *rbt.Tree[money.Decimal, *priceLevel]) *priceLevel {
	it := t.Iterator()
	if !it.Next() {
		return nil
	}
	return it.Value()
}

// IsEmpty reports whether the book has no resting bids or asks.
func (b *Book) IsEmpty() bool {
	return b.bids.Size() == 0 && b.asks.Size() == 0
}

// FrontOf returns the oldest order at the book's best price on the given
// side, or nil if that side is empty.
func (b *Book) FrontOf(side types.Side) *types.Order {
	level := treeExtreme(b.treeFor(side))
	if level == nil || level.queue.Len() == 0 {
		return nil
	}
	return level.queue.Front().Value.(*types.Order)
}

// PopFront removes and returns the oldest order at the book's best price on
// the given side, dropping the level if it empties.
func (b *Book) PopFront(side types.Side) *types.Order {
	tree := b.treeFor(side)
	level := treeExtreme(tree)
	if level == nil || level.queue.Len() == 0 {
		return nil
	}
	elem := level.queue.Front()
	o := elem.Value.(*types.Order)
	level.queue.Remove(elem)
	delete(b.index, o.OrderID)
	if level.queue.Len() == 0 {
		tree.Remove(level.price)
	}
	return o
}

// Contains reports whether orderID currently rests on the book.
func (b *Book) Contains(orderID string) bool {
	_, ok := b.index[orderID]
	return ok
}

// Levels returns every resting price level on one side, best price first,
// without mutating the book. Used for feasibility scans (FOK dry runs)
// that must look deeper than the single best level.
func (b *Book) Levels(side types.Side) []*priceLevel {
	tree := b.treeFor(side)
	out := make([]*priceLevel, 0, tree.Size())
	it := tree.Iterator()
	for it.Next() {
		out = append(out, it.Value())
	}
	return out
}
