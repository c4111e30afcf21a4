package matching

import (
	"context"

	"github.com/archon-trading/spotvenue/internal/orderbook"
	"github.com/archon-trading/spotvenue/internal/types"
	"github.com/archon-trading/spotvenue/pkg/money"
)

// SubmitRequest is the caller-facing order submission payload; OrderID
// and SequenceNo are assigned by the owning actor, never the caller.
type SubmitRequest struct {
	ClientOrderID       string
	UserID              string
	Symbol              string
	Side                types.Side
	Type                types.OrderType
	Quantity            money.Decimal
	Price               money.Decimal // required for LIMIT/STOP_LIMIT
	StopPrice           money.Decimal // required for STOP/STOP_LIMIT
	TimeInForce         types.TimeInForce
	SelfTradePrevention types.SelfTradePrevention
	PriceMatch          types.PriceMatch
}

// SubmitResult is returned once the full accept/validate/match/settle/
// publish pipeline has run for one submitted order (including any
// immediately-triggered stop activations).
type SubmitResult struct {
	Order  *types.Order
	Trades []*types.Trade
}

type submitOutcome struct {
	result *SubmitResult
	err    error
}

type submitCmd struct {
	ctx    context.Context
	req    SubmitRequest
	result chan submitOutcome
}

type cancelCmd struct {
	ctx     context.Context
	orderID string
	userID  string
	result  chan error
}

// DepthSnapshot is a synchronous, internally consistent depth view.
type DepthSnapshot struct {
	Symbol string
	Bids   []orderbook.DepthLevel
	Asks   []orderbook.DepthLevel
}

type depthCmd struct {
	levels int
	result chan DepthSnapshot
}

// command is the actor's internal message envelope; submitCmd, cancelCmd
// and depthCmd all satisfy it implicitly via type switch in actor.go.
type command any
