// Package types holds the venue's core data model: orders, trades, and the
// enumerations that drive the matching state machine. Every enum is a closed
// sum type (a named string), never an open integer or a dynamically typed
// value, per the "replace dynamic typing with explicit sum types" design note.
package types

import (
	"time"

	"github.com/archon-trading/spotvenue/pkg/money"
)

// Side is the order side.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType is the closed set of order types.
type OrderType string

const (
	Market     OrderType = "MARKET"
	Limit      OrderType = "LIMIT"
	Stop       OrderType = "STOP"
	StopLimit  OrderType = "STOP_LIMIT"
)

// TimeInForce controls residual handling after the match loop.
type TimeInForce string

const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
)

// SelfTradePrevention is the STP policy evaluated before each fill.
type SelfTradePrevention string

const (
	StpNone         SelfTradePrevention = "NONE"
	StpExpireTaker  SelfTradePrevention = "EXPIRE_TAKER"
	StpExpireMaker  SelfTradePrevention = "EXPIRE_MAKER"
	StpExpireBoth   SelfTradePrevention = "EXPIRE_BOTH"
)

// PriceMatch resolves the effective limit price at match time instead of
// trusting the client-supplied price.
type PriceMatch string

const (
	PriceMatchNone     PriceMatch = "NONE"
	PriceMatchOpponent PriceMatch = "OPPONENT"
	PriceMatchQueue    PriceMatch = "QUEUE"
)

// Status is the order's lifecycle state. Terminal states (see IsTerminal)
// never transition further.
type Status string

const (
	StatusNew              Status = "NEW"
	StatusPartiallyFilled  Status = "PARTIALLY_FILLED"
	StatusFilled           Status = "FILLED"
	StatusCanceled         Status = "CANCELED"
	StatusRejected         Status = "REJECTED"
	StatusExpired          Status = "EXPIRED"
	StatusExpiredInMatch   Status = "EXPIRED_IN_MATCH"
)

// IsTerminal reports whether the status can never transition further.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFilled, StatusCanceled, StatusRejected, StatusExpired, StatusExpiredInMatch:
		return true
	default:
		return false
	}
}

// ExecutionType is the cause of an ORDER_TRADE_UPDATE event, kept distinct
// from Status: PARTIALLY_FILLED describes standing order state, not the
// event that just happened to it.
type ExecutionType string

const (
	ExecNew      ExecutionType = "NEW"
	ExecTrade    ExecutionType = "TRADE"
	ExecCanceled ExecutionType = "CANCELED"
	ExecExpired  ExecutionType = "EXPIRED"
	ExecRejected ExecutionType = "REJECTED"
)

// RejectReason enumerates why an order was rejected or expired.
type RejectReason string

const (
	ReasonNone                RejectReason = ""
	ReasonPriceFilter          RejectReason = "PRICE_FILTER"
	ReasonLotSize              RejectReason = "LOT_SIZE"
	ReasonInsufficientBalance  RejectReason = "INSUFFICIENT_BALANCE"
	ReasonNoLiquidity          RejectReason = "NO_LIQUIDITY"
	ReasonSymbolInactive       RejectReason = "SYMBOL_INACTIVE"
	ReasonSelfTrade            RejectReason = "STP_EXPIRE"
)

// Order is one client instruction, mutated only by the matching engine and
// never destroyed within a process run (kept for trade-history queries).
type Order struct {
	OrderID             string
	ClientOrderID       string
	UserID              string
	Symbol              string
	Side                Side
	Type                OrderType
	Quantity            money.Decimal
	Price               money.Decimal
	StopPrice           money.Decimal
	TimeInForce         TimeInForce
	SelfTradePrevention SelfTradePrevention
	PriceMatch          PriceMatch

	Status            Status
	FilledQuantity    money.Decimal
	AverageFillPrice  money.Decimal
	RejectReason      RejectReason
	LockedAsset       string
	LockedAmount      money.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time

	// SequenceNo is engine-assigned per symbol, increasing in acceptance
	// order. Book ordering and average-fill computation do not read it.
	SequenceNo int64
}

// RemainingQuantity is quantity not yet filled.
func (o *Order) RemainingQuantity() money.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

// IsFullyFilled reports whether filled_quantity has reached quantity.
func (o *Order) IsFullyFilled() bool {
	return o.FilledQuantity.Cmp(o.Quantity) >= 0
}

// IsOpen reports whether the order still rests on (or can still match
// against) the book.
func (o *Order) IsOpen() bool {
	return o.Status == StatusNew || o.Status == StatusPartiallyFilled
}

// ApplyFill records one fill against the order, recomputing the weighted
// average fill price exactly (no rounding until display).
func (o *Order) ApplyFill(price, quantity money.Decimal, now time.Time) {
	filledNotional := o.AverageFillPrice.Mul(o.FilledQuantity)
	newNotional := filledNotional.Add(price.Mul(quantity))
	o.FilledQuantity = o.FilledQuantity.Add(quantity)
	if o.FilledQuantity.Sign() > 0 {
		o.AverageFillPrice = newNotional.Div(o.FilledQuantity)
	}
	if o.IsFullyFilled() {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
	o.UpdatedAt = now
}
