package matching

import (
	"context"
	"time"

	"github.com/archon-trading/spotvenue/internal/account"
	"github.com/archon-trading/spotvenue/internal/types"
	"github.com/archon-trading/spotvenue/pkg/money"
)

// matchResult accumulates everything one submission's match loop produced,
// so submit() can publish notifications once at the end in a single pass.
type matchResult struct {
	trades []*types.Trade
}

// runMatchLoop executes the price-time priority matching algorithm for a
// taker order already past validation and funds-locking. It mutates the
// book directly (removing/shrinking resting makers) and settles each
// trade through the account manager as it is produced, so a crash mid-
// loop never leaves a trade unsettled while still visible on the book.
//
// reservationBasis is the price used to compute how much of the taker's
// locked reservation each fill consumes: the order's own limit price for
// LIMIT/STOP_LIMIT, or the slippage-inflated envelope price for MARKET/
// STOP orders (see requiredLock in validate.go).
func (a *symbolActor) runMatchLoop(ctx context.Context, taker *types.Order, reservationBasis money.Decimal, now time.Time) (*matchResult, error) {
	result := &matchResult{}
	opposite := taker.Side.Opposite()

	for taker.RemainingQuantity().Sign() > 0 {
		maker := a.book.FrontOf(opposite)
		if maker == nil {
			break
		}
		if !crosses(taker.Side, taker.Price, taker.Type, maker.Price) {
			break
		}

		if maker.UserID == taker.UserID && taker.SelfTradePrevention != types.StpNone {
			expireTaker, expireMaker := stpOutcome(taker.SelfTradePrevention)
			if expireMaker {
				a.book.PopFront(opposite)
				a.releaseReservation(maker)
				maker.Status = types.StatusExpiredInMatch
				maker.RejectReason = types.ReasonSelfTrade
				maker.UpdatedAt = now
				a.notifyOrderTerminal(ctx, maker, types.ExecExpired)
			}
			if expireTaker {
				a.releaseReservation(taker)
				taker.Status = types.StatusExpiredInMatch
				taker.RejectReason = types.ReasonSelfTrade
				taker.UpdatedAt = now
				break
			}
			if expireMaker && !expireTaker {
				continue // retry against the new best maker
			}
		}

		fillQty := minDecimal(taker.RemainingQuantity(), maker.RemainingQuantity())
		fillPrice := maker.Price

		trade := &types.Trade{
			TradeID:      a.nextTradeID(),
			Symbol:       a.symbolCfg.Symbol,
			Price:        fillPrice,
			Quantity:     fillQty,
			Timestamp:    now,
			IsBuyerMaker: maker.Side == types.Buy,
		}
		if taker.Side == types.Buy {
			trade.BuyOrderID, trade.BuyerUserID = taker.OrderID, taker.UserID
			trade.SellOrderID, trade.SellerUserID = maker.OrderID, maker.UserID
		} else {
			trade.BuyOrderID, trade.BuyerUserID = maker.OrderID, maker.UserID
			trade.SellOrderID, trade.SellerUserID = taker.OrderID, taker.UserID
		}

		takerBps, makerBps := a.resolvedFeeBps()
		quoteNotional := money.Notional(fillPrice, fillQty)
		if taker.Side == types.Buy {
			trade.TakerFeeAsset = feeAssetFor(a.feeCfg.AssetPolicy, sideIsBuyer, a.symbolCfg.BaseAsset, a.symbolCfg.QuoteAsset)
			trade.MakerFeeAsset = feeAssetFor(a.feeCfg.AssetPolicy, sideIsSeller, a.symbolCfg.BaseAsset, a.symbolCfg.QuoteAsset)
		} else {
			trade.TakerFeeAsset = feeAssetFor(a.feeCfg.AssetPolicy, sideIsSeller, a.symbolCfg.BaseAsset, a.symbolCfg.QuoteAsset)
			trade.MakerFeeAsset = feeAssetFor(a.feeCfg.AssetPolicy, sideIsBuyer, a.symbolCfg.BaseAsset, a.symbolCfg.QuoteAsset)
		}
		// A fee is owed in the asset it is deducted from: a base-asset fee
		// is a share of the filled quantity, a quote-asset fee a share of
		// the notional.
		feeBasis := func(asset string) money.Decimal {
			if asset == a.symbolCfg.BaseAsset {
				return fillQty
			}
			return quoteNotional
		}
		trade.TakerFee = feeAmount(feeBasis(trade.TakerFeeAsset), takerBps)
		trade.MakerFee = feeAmount(feeBasis(trade.MakerFeeAsset), makerBps)

		if err := a.accounts.SettleTrade(account.TradeSettlement{
			TradeID:       trade.TradeID,
			Symbol:        a.symbolCfg.Symbol,
			BaseAsset:     a.symbolCfg.BaseAsset,
			QuoteAsset:    a.symbolCfg.QuoteAsset,
			Quantity:      fillQty,
			Price:         fillPrice,
			BuyerUserID:   trade.BuyerUserID,
			SellerUserID:  trade.SellerUserID,
			IsBuyerTaker:  taker.Side == types.Buy,
			TakerFee:      trade.TakerFee,
			TakerFeeAsset: trade.TakerFeeAsset,
			MakerFee:      trade.MakerFee,
			MakerFeeAsset: trade.MakerFeeAsset,
			Now:           now,
		}); err != nil {
			return result, err
		}

		taker.ApplyFill(fillPrice, fillQty, now)
		maker.ApplyFill(fillPrice, fillQty, now)
		a.consumeReservation(taker, reservationBasis, fillPrice, fillQty)
		a.consumeReservation(maker, maker.Price, fillPrice, fillQty)

		a.lastTradePrice = fillPrice
		result.trades = append(result.trades, trade)

		if maker.IsFullyFilled() {
			a.book.PopFront(opposite)
		}
		a.notifyTrade(ctx, trade)
		a.notifyOrderUpdate(ctx, maker, types.ExecTrade, fillQty, fillPrice, true, trade.TradeID, trade.MakerFee, trade.MakerFeeAsset)
		a.notifyOrderUpdate(ctx, taker, types.ExecTrade, fillQty, fillPrice, false, trade.TradeID, trade.TakerFee, trade.TakerFeeAsset)
	}

	return result, nil
}

// stpOutcome maps a self-trade-prevention policy onto which side(s) of
// the crossing pair should be expired instead of matched.
func stpOutcome(policy types.SelfTradePrevention) (expireTaker, expireMaker bool) {
	switch policy {
	case types.StpExpireTaker:
		return true, false
	case types.StpExpireMaker:
		return false, true
	case types.StpExpireBoth:
		return true, true
	default:
		return false, false
	}
}

// consumeReservation reduces an order's tracked locked-amount by the
// portion of its reservation this fill accounts for, releasing any
// price-improvement surplus (reservationBasis > fillPrice, buy side only)
// back to free balance immediately.
func (a *symbolActor) consumeReservation(o *types.Order, reservationBasis, fillPrice, fillQty money.Decimal) {
	if o.LockedAsset == "" {
		return
	}
	var consumedReservation money.Decimal
	if o.Side == types.Buy {
		consumedReservation = reservationBasis.Mul(fillQty)
		surplus := reservationBasis.Sub(fillPrice).Mul(fillQty)
		if surplus.Sign() > 0 {
			_ = a.accounts.Account(o.UserID).Unlock(o.LockedAsset, surplus)
		}
	} else {
		consumedReservation = fillQty
	}
	o.LockedAmount = o.LockedAmount.Sub(consumedReservation)
}

// releaseReservation unlocks whatever remains of an order's reservation,
// used on cancel, IOC/FOK remainder, and STP expiry.
func (a *symbolActor) releaseReservation(o *types.Order) {
	if o.LockedAsset == "" || !money.IsPositive(o.LockedAmount) {
		return
	}
	_ = a.accounts.Account(o.UserID).Unlock(o.LockedAsset, o.LockedAmount)
	o.LockedAmount = money.Zero()
}
