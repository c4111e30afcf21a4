package matching

import (
	"github.com/archon-trading/spotvenue/internal/types"
	"github.com/archon-trading/spotvenue/pkg/money"
)

// wouldFullyFill answers the FOK feasibility question without mutating the
// book: could this order be completely filled against the current resting
// liquidity, honoring its limit price (if any) and its self-trade
// prevention policy. This must mirror runMatchLoop's own STP handling
// (match.go): EXPIRE_MAKER skips past the offending maker and keeps
// scanning for liquidity beyond it, but EXPIRE_TAKER/EXPIRE_BOTH stop the
// scan entirely at the first own-order collision, since the real match
// loop terminates the whole attempt there rather than matching around it.
func (a *symbolActor) wouldFullyFill(req SubmitRequest) bool {
	opposite := req.Side.Opposite()

	remaining := req.Quantity
outer:
	for _, level := range a.book.Levels(opposite) {
		if remaining.Sign() <= 0 {
			break
		}
		if !crosses(req.Side, req.Price, req.Type, level.Price()) {
			break
		}
		for e := level.Front(); e != nil; e = e.Next() {
			maker := e.Value.(*types.Order)
			if maker.UserID == req.UserID && req.SelfTradePrevention != types.StpNone {
				expireTaker, expireMaker := stpOutcome(req.SelfTradePrevention)
				if expireTaker {
					break outer
				}
				if expireMaker {
					continue
				}
			}
			take := minDecimal(maker.RemainingQuantity(), remaining)
			remaining = remaining.Sub(take)
			if remaining.Sign() <= 0 {
				break
			}
		}
	}
	return remaining.Sign() <= 0
}

// crosses reports whether a taker on `side` with the given limit (price,
// orderType) can execute against a resting price level at levelPrice.
// Market orders cross any price.
func crosses(side types.Side, limitPrice money.Decimal, orderType types.OrderType, levelPrice money.Decimal) bool {
	if orderType == types.Market || orderType == types.Stop {
		return true
	}
	if side == types.Buy {
		return limitPrice.Cmp(levelPrice) >= 0
	}
	return limitPrice.Cmp(levelPrice) <= 0
}

func minDecimal(a, b money.Decimal) money.Decimal {
	if a.Cmp(b) < 0 {
		return a
	}
	return b
}
