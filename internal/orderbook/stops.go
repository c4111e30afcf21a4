package orderbook

import (
	"github.com/archon-trading/spotvenue/internal/types"
	"github.com/archon-trading/spotvenue/pkg/money"
)

// AddStop parks a STOP/STOP_LIMIT order until its trigger price is crossed.
func (b *Book) AddStop(o *types.Order) {
	if o.Side == types.Buy {
		b.stopBids = append(b.stopBids, o)
	} else {
		b.stopAsks = append(b.stopAsks, o)
	}
}

// RemoveStop cancels a parked stop order by id. Returns false if not found.
func (b *Book) RemoveStop(orderID string, side types.Side) bool {
	list := &b.stopBids
	if side == types.Sell {
		list = &b.stopAsks
	}
	for i, o := range *list {
		if o.OrderID == orderID {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}

// ActivateStops scans both stop books against the last trade price and
// returns the orders whose trigger condition is now satisfied, removing
// them from the parked lists. Buy stops trigger when price rises to or
// through the stop price; sell stops trigger when price falls to or
// through it.
func (b *Book) ActivateStops(lastTradePrice money.Decimal) []*types.Order {
	var activated []*types.Order

	remaining := b.stopBids[:0]
	for _, o := range b.stopBids {
		if lastTradePrice.Cmp(o.StopPrice) >= 0 {
			activated = append(activated, o)
		} else {
			remaining = append(remaining, o)
		}
	}
	b.stopBids = remaining

	remaining = b.stopAsks[:0]
	for _, o := range b.stopAsks {
		if lastTradePrice.Cmp(o.StopPrice) <= 0 {
			activated = append(activated, o)
		} else {
			remaining = append(remaining, o)
		}
	}
	b.stopAsks = remaining

	return activated
}
