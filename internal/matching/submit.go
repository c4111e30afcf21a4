package matching

import (
	"context"
	"time"

	"github.com/archon-trading/spotvenue/internal/types"
)

// submit runs the full accept, validate, match, settle, publish pipeline
// for one order, entirely on the symbol actor's own goroutine.
func (a *symbolActor) submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	now := time.Now()
	orderID := a.nextOrderID()
	order := newOrderFromRequest(orderID, a.orderSeq, req, now)
	a.orders[orderID] = order

	if reason := a.validateStatic(req); reason != types.ReasonNone {
		order.Status = types.StatusRejected
		order.RejectReason = reason
		a.notifyOrderTerminal(ctx, order, types.ExecRejected)
		return &SubmitResult{Order: order}, nil
	}

	a.resolvePriceMatch(order)
	req.Price = order.Price // requiredLock must reserve against the resolved price, not the client's original one

	asset, amount, basisPrice, reason := a.requiredLock(req)
	if reason == types.ReasonNoLiquidity {
		// Market buy with nothing on the ask side: expires rather than
		// rejects, same as the FOK dry-run and market residual paths.
		order.Status = types.StatusExpired
		order.RejectReason = reason
		a.notifyOrderTerminal(ctx, order, types.ExecExpired)
		return &SubmitResult{Order: order}, nil
	}
	if reason != types.ReasonNone {
		order.Status = types.StatusRejected
		order.RejectReason = reason
		a.notifyOrderTerminal(ctx, order, types.ExecRejected)
		return &SubmitResult{Order: order}, nil
	}
	if err := a.accounts.Account(req.UserID).Lock(asset, amount); err != nil {
		order.Status = types.StatusRejected
		order.RejectReason = types.ReasonInsufficientBalance
		a.notifyOrderTerminal(ctx, order, types.ExecRejected)
		return &SubmitResult{Order: order}, nil
	}
	order.LockedAsset = asset
	order.LockedAmount = amount
	reservationBasis := basisPrice
	if req.Side == types.Buy && (req.Type == types.Market || req.Type == types.Stop) {
		// Stash the locked-in worst-case price on the order itself so a
		// later reactivation (stop trigger) and every consumeReservation
		// call agree on the same basis without recomputing it against a
		// book that may have moved since acceptance.
		order.Price = basisPrice
	}

	// STOP/STOP_LIMIT orders that haven't yet crossed their trigger just
	// park; they re-enter this same pipeline later via activateStops.
	if (req.Type == types.Stop || req.Type == types.StopLimit) && !a.stopTriggered(req) {
		a.book.AddStop(order)
		a.notifyOrderTerminal(ctx, order, types.ExecNew)
		return &SubmitResult{Order: order}, nil
	}

	if req.TimeInForce == types.FOK && !a.wouldFullyFill(req) {
		a.releaseReservation(order)
		order.Status = types.StatusExpired
		order.RejectReason = types.ReasonNoLiquidity
		a.notifyOrderTerminal(ctx, order, types.ExecExpired)
		return &SubmitResult{Order: order}, nil
	}

	matched, err := a.runMatchLoop(ctx, order, reservationBasis, now)
	if err != nil {
		return nil, err
	}

	a.finalizeResting(ctx, order, req)

	allTrades := matched.trades
	for _, stopOrder := range a.book.ActivateStops(a.lastTradePrice) {
		allTrades = append(allTrades, a.reactivateStopOrder(ctx, stopOrder, now)...)
	}

	return &SubmitResult{Order: order, Trades: allTrades}, nil
}

// reactivateStopOrder converts a triggered STOP/STOP_LIMIT order into its
// MARKET/LIMIT equivalent and re-enters the match/finalize stages,
// reusing the order and the reservation already locked when it was first
// accepted (spec's stop orders lock funds at acceptance, not at trigger).
func (a *symbolActor) reactivateStopOrder(ctx context.Context, o *types.Order, now time.Time) []*types.Trade {
	if o.Type == types.Stop {
		o.Type = types.Market
	} else {
		o.Type = types.Limit
	}

	matched, err := a.runMatchLoop(ctx, o, o.Price, now)
	if err != nil {
		a.logger.Error("reactivated stop order failed to match")
		return nil
	}

	req := SubmitRequest{Type: o.Type, TimeInForce: o.TimeInForce}
	a.finalizeResting(ctx, o, req)

	for _, nested := range a.book.ActivateStops(a.lastTradePrice) {
		matched.trades = append(matched.trades, a.reactivateStopOrder(ctx, nested, now)...)
	}
	return matched.trades
}

// finalizeResting applies the time-in-force decision once the match loop
// has consumed whatever liquidity was available: GTC limit remainders
// rest; market remainders expire with NO_LIQUIDITY and IOC/FOK limit
// remainders cancel, both releasing their reservation.
func (a *symbolActor) finalizeResting(ctx context.Context, order *types.Order, req SubmitRequest) {
	if order.Status == types.StatusExpiredInMatch {
		return // STP already terminated this order inside the match loop
	}
	if order.RemainingQuantity().Sign() <= 0 {
		return // fully filled; ApplyFill already set StatusFilled
	}

	restable := req.TimeInForce == types.GTC && (req.Type == types.Limit || req.Type == types.StopLimit)
	if restable {
		a.book.AddResting(order)
		a.notifyOrderTerminal(ctx, order, types.ExecNew)
		return
	}

	a.releaseReservation(order)
	if req.Type == types.Market || req.Type == types.Stop {
		order.Status = types.StatusExpired
		order.RejectReason = types.ReasonNoLiquidity
		a.notifyOrderTerminal(ctx, order, types.ExecExpired)
		return
	}
	order.Status = types.StatusCanceled
	a.notifyOrderTerminal(ctx, order, types.ExecCanceled)
}

// resolvePriceMatch rewrites a PRICE_MATCH-tagged order's limit price from
// the current book instead of trusting the client-supplied price: OPPONENT
// pegs to the best opposing price (crosses immediately), QUEUE pegs to the
// best same-side price (joins the existing best level without improving
// on it).
func (a *symbolActor) resolvePriceMatch(o *types.Order) {
	switch o.PriceMatch {
	case types.PriceMatchOpponent:
		if o.Side == types.Buy {
			if level := a.book.BestAsk(); level != nil {
				o.Price = level.Price()
			}
		} else if level := a.book.BestBid(); level != nil {
			o.Price = level.Price()
		}
	case types.PriceMatchQueue:
		if o.Side == types.Buy {
			if level := a.book.BestBid(); level != nil {
				o.Price = level.Price()
			}
		} else if level := a.book.BestAsk(); level != nil {
			o.Price = level.Price()
		}
	}
}

// stopTriggered reports whether a STOP/STOP_LIMIT order's trigger
// condition is already satisfied by the last trade price at submission
// time: a buy stop triggers on a rise through its stop price, a sell
// stop on a fall through it.
func (a *symbolActor) stopTriggered(req SubmitRequest) bool {
	if req.Side == types.Buy {
		return a.lastTradePrice.Cmp(req.StopPrice) >= 0
	}
	return a.lastTradePrice.Cmp(req.StopPrice) <= 0
}

