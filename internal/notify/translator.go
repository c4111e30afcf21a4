package notify

import (
	"context"
	"time"

	"github.com/archon-trading/spotvenue/internal/eventbus"
	"github.com/archon-trading/spotvenue/internal/orderbook"
	"github.com/archon-trading/spotvenue/internal/types"
)

// Translator bridges domain events raised by the matching engine and
// account ledger onto the public event bus, in the venue's normalized
// wire schema. It holds no state of its own beyond the bus it publishes to.
type Translator struct {
	bus *eventbus.Bus
}

// New returns a Translator publishing through bus.
func New(bus *eventbus.Bus) *Translator {
	return &Translator{bus: bus}
}

func nowMillis() int64 { return time.Now().UnixMilli() }

// PublishOrderUpdate emits an ORDER_TRADE_UPDATE for the given order on
// its owner's private stream (`<user_id>@order`).
func (t *Translator) PublishOrderUpdate(ctx context.Context, o *types.Order, execType types.ExecutionType, lastFilledQty, lastFilledPrice string, isMaker bool, tradeID int64, commission, commissionAsset string) error {
	evt := OrderTradeUpdate{
		EventType:        "ORDER_TRADE_UPDATE",
		EventTime:        nowMillis(),
		Symbol:           o.Symbol,
		ClientOrderID:    o.ClientOrderID,
		OrderID:          o.OrderID,
		Side:             string(o.Side),
		OrderType:        string(o.Type),
		TimeInForce:      string(o.TimeInForce),
		OriginalQuantity: o.Quantity.String(),
		OriginalPrice:    o.Price.String(),
		ExecutionType:    string(execType),
		OrderStatus:      string(o.Status),
		LastFilledQty:    lastFilledQty,
		LastFilledPrice:  lastFilledPrice,
		FilledQuantity:   o.FilledQuantity.String(),
		TradeID:          tradeID,
		CommissionAmount: commission,
		CommissionAsset:  commissionAsset,
		IsMaker:          isMaker,
		RejectReason:     string(o.RejectReason),
	}
	priority := eventbus.Normal
	if execType == types.ExecRejected {
		priority = eventbus.High
	}
	return t.bus.Publish(ctx, o.UserID+"@order", priority, evt)
}

// PublishTrade emits a public `trade` event on the symbol's public stream
// (`<symbol>@trade`).
func (t *Translator) PublishTrade(ctx context.Context, tr *types.Trade) error {
	evt := TradeEvent{
		EventType:     "trade",
		EventTime:     nowMillis(),
		Symbol:        tr.Symbol,
		TradeID:       tr.TradeID,
		Price:         tr.Price.String(),
		Quantity:      tr.Quantity.String(),
		BuyerOrderID:  tr.BuyOrderID,
		SellerOrderID: tr.SellOrderID,
		TradeTime:     tr.Timestamp.UnixMilli(),
		IsBuyerMaker:  tr.IsBuyerMaker,
	}
	return t.bus.Publish(ctx, tr.Symbol+"@trade", eventbus.Normal, evt)
}

// PublishDepth emits a `depthUpdate` snapshot on the symbol's public
// depth stream. Callers should skip the (possibly nontrivial) depth
// aggregation work entirely when the stream has no subscribers.
func (t *Translator) PublishDepth(ctx context.Context, symbol string, bids, asks []orderbook.DepthLevel) error {
	evt := DepthUpdate{
		EventType: "depthUpdate",
		EventTime: nowMillis(),
		Symbol:    symbol,
		Bids:      toWireLevels(bids),
		Asks:      toWireLevels(asks),
	}
	return t.bus.Publish(ctx, symbol+"@depth", eventbus.Normal, evt)
}

func toWireLevels(levels []orderbook.DepthLevel) []DepthLevelWire {
	out := make([]DepthLevelWire, len(levels))
	for i, l := range levels {
		out[i] = DepthLevelWire{l.Price.String(), l.Quantity.String()}
	}
	return out
}

// PublishAccountPosition emits an `outboundAccountPosition` push for the
// affected assets on a user's private stream after a settlement.
func (t *Translator) PublishAccountPosition(ctx context.Context, userID string, snap types.AccountSnapshot, affectedAssets []string) error {
	balances := make([]BalanceWire, 0, len(affectedAssets))
	for _, asset := range affectedAssets {
		b := snap.Balances[asset]
		balances = append(balances, BalanceWire{Asset: asset, Free: b.Free.String(), Locked: b.Locked.String()})
	}
	evt := OutboundAccountPosition{
		EventType: "outboundAccountPosition",
		EventTime: nowMillis(),
		UserID:    userID,
		Balances:  balances,
	}
	return t.bus.Publish(ctx, userID+"@account", eventbus.High, evt)
}
