package matching

import (
	"time"

	"github.com/archon-trading/spotvenue/internal/types"
	"github.com/archon-trading/spotvenue/pkg/money"
)

// validateStatic checks the exchange filters (tick size, lot size, min
// notional) that don't depend on current book state: sequential checks,
// first failure wins, each producing a typed reason rather than a
// generic error string.
func (a *symbolActor) validateStatic(req SubmitRequest) types.RejectReason {
	if !a.symbolCfg.Active {
		return types.ReasonSymbolInactive
	}
	if !money.IsPositive(req.Quantity) {
		return types.ReasonLotSize
	}
	if a.symbolCfg.LotSize.Sign() > 0 && !isMultiple(req.Quantity, a.symbolCfg.LotSize) {
		return types.ReasonLotSize
	}

	switch req.Type {
	case types.Limit, types.StopLimit:
		if !money.IsPositive(req.Price) {
			return types.ReasonPriceFilter
		}
		if a.symbolCfg.TickSize.Sign() > 0 && !isMultiple(req.Price, a.symbolCfg.TickSize) {
			return types.ReasonPriceFilter
		}
		if a.symbolCfg.MinNotional.Sign() > 0 {
			notional := money.Notional(req.Price, req.Quantity)
			if notional.Cmp(a.symbolCfg.MinNotional) < 0 {
				return types.ReasonLotSize
			}
		}
	}

	switch req.Type {
	case types.Stop, types.StopLimit:
		if !money.IsPositive(req.StopPrice) {
			return types.ReasonPriceFilter
		}
	}

	return types.ReasonNone
}

// isMultiple reports whether v is an exact integer multiple of step.
func isMultiple(v, step money.Decimal) bool {
	if step.Sign() == 0 {
		return true
	}
	return v.Mod(step).IsZero()
}

// requiredLock computes the asset and amount that must be locked before
// an order can rest or match, plus the reservation basis price used later
// to release price-improvement surplus (see consumeReservation in
// match.go): quote notional for buys, base quantity for sells. Market
// buys need a reference price since none was supplied by the client;
// that reference is the current best ask inflated by the symbol's
// slippage envelope, and is unavailable (NoLiquidity) when the ask side
// is empty. Sell orders have no price-denominated reservation, so their
// basis is reported as the zero value and must not be used.
func (a *symbolActor) requiredLock(req SubmitRequest) (asset string, amount money.Decimal, basisPrice money.Decimal, reason types.RejectReason) {
	if req.Side == types.Sell {
		return a.symbolCfg.BaseAsset, req.Quantity, money.Zero(), types.ReasonNone
	}

	if req.Type == types.Limit || req.Type == types.StopLimit {
		return a.symbolCfg.QuoteAsset, money.Notional(req.Price, req.Quantity), req.Price, types.ReasonNone
	}

	// Market or stop-triggered market buy: use best ask with slippage
	// envelope as the worst-case reference price.
	best := a.book.BestAsk()
	if best == nil {
		return a.symbolCfg.QuoteAsset, money.Zero(), money.Zero(), types.ReasonNoLiquidity
	}
	envelope := best.Price()
	if a.symbolCfg.SlippageBps > 0 {
		bps := money.New(a.symbolCfg.SlippageBps, -4) // bps / 10000
		envelope = envelope.Mul(money.New(1, 0).Add(bps))
	}
	return a.symbolCfg.QuoteAsset, money.Notional(envelope, req.Quantity), envelope, types.ReasonNone
}

func newOrderFromRequest(orderID string, seq int64, req SubmitRequest, now time.Time) *types.Order {
	return &types.Order{
		OrderID:             orderID,
		ClientOrderID:       req.ClientOrderID,
		UserID:              req.UserID,
		Symbol:              req.Symbol,
		Side:                req.Side,
		Type:                req.Type,
		Quantity:            req.Quantity,
		Price:               req.Price,
		StopPrice:           req.StopPrice,
		TimeInForce:         req.TimeInForce,
		SelfTradePrevention: req.SelfTradePrevention,
		PriceMatch:          req.PriceMatch,
		Status:              types.StatusNew,
		FilledQuantity:      money.Zero(),
		AverageFillPrice:    money.Zero(),
		SequenceNo:          seq,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}
