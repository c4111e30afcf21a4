// Package account implements the per-user balance ledger and position
// tracking that back every order's funds check and every trade's
// settlement: mutex-guarded balances and positions keyed by user, exact
// money.Decimal arithmetic throughout, and an explicit free/locked
// balance split so reservations never overlap with spendable funds.
package account

import (
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/archon-trading/spotvenue/internal/types"
	"github.com/archon-trading/spotvenue/internal/venueerrors"
	"github.com/archon-trading/spotvenue/pkg/money"
)

// UserAccount holds one user's balances, positions and transaction
// history. All mutation happens under its own mutex; never lock two
// accounts except through Manager.SettleTrade (see manager.go), which
// takes them in ascending user-ID order to avoid deadlock.
type UserAccount struct {
	mu sync.Mutex

	UserID      string
	balances    map[string]*types.AssetBalance
	positions   map[string]*types.Position
	history     []types.TransactionRecord
}

func newUserAccount(userID string) *UserAccount {
	return &UserAccount{
		UserID:    userID,
		balances:  make(map[string]*types.AssetBalance),
		positions: make(map[string]*types.Position),
	}
}

func (a *UserAccount) balanceFor(asset string) *types.AssetBalance {
	b, ok := a.balances[asset]
	if !ok {
		b = &types.AssetBalance{Asset: asset, Free: money.Zero(), Locked: money.Zero()}
		a.balances[asset] = b
	}
	return b
}

func (a *UserAccount) positionFor(symbol string) *types.Position {
	p, ok := a.positions[symbol]
	if !ok {
		p = &types.Position{Symbol: symbol, Quantity: money.Zero(), AverageCost: money.Zero()}
		a.positions[symbol] = p
	}
	return p
}

func (a *UserAccount) record(kind types.TransactionKind, asset string, amount money.Decimal, relatedTrade string, now time.Time) {
	a.history = append(a.history, types.TransactionRecord{
		ID:             ksuid.New().String(),
		UserID:         a.UserID,
		Kind:           kind,
		Asset:          asset,
		Amount:         amount,
		RelatedTradeID: relatedTrade,
		CreatedAt:      now,
	})
}

// Deposit credits free balance; a non-positive amount is rejected.
func (a *UserAccount) Deposit(asset string, amount money.Decimal, now time.Time) error {
	if !money.IsPositive(amount) {
		return venueerrors.New(venueerrors.Validation, "deposit amount must be positive")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.balanceFor(asset)
	b.Free = b.Free.Add(amount)
	a.record(types.TxnDeposit, asset, amount, "", now)
	return nil
}

// Withdraw debits free balance, failing if insufficient.
func (a *UserAccount) Withdraw(asset string, amount money.Decimal, now time.Time) error {
	if !money.IsPositive(amount) {
		return venueerrors.New(venueerrors.Validation, "withdraw amount must be positive")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.balanceFor(asset)
	if b.Free.Cmp(amount) < 0 {
		return venueerrors.New(venueerrors.InsufficientBalance, "insufficient free balance").
			WithDetail("asset", asset)
	}
	b.Free = b.Free.Sub(amount)
	a.record(types.TxnWithdraw, asset, amount.Neg(), "", now)
	return nil
}

// Lock moves amount from free to locked, used when an order is accepted.
func (a *UserAccount) Lock(asset string, amount money.Decimal) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.balanceFor(asset)
	if b.Free.Cmp(amount) < 0 {
		return venueerrors.New(venueerrors.InsufficientBalance, "insufficient free balance to lock").
			WithDetail("asset", asset).
			WithDetail("required", amount.String()).
			WithDetail("available", b.Free.String())
	}
	b.Free = b.Free.Sub(amount)
	b.Locked = b.Locked.Add(amount)
	return nil
}

// Unlock returns amount from locked to free, used on cancel/expire/reject
// of the unfilled remainder.
func (a *UserAccount) Unlock(asset string, amount money.Decimal) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.balanceFor(asset)
	if b.Locked.Cmp(amount) < 0 {
		return venueerrors.New(venueerrors.Invariant, "unlock exceeds locked balance").
			WithDetail("asset", asset)
	}
	b.Locked = b.Locked.Sub(amount)
	b.Free = b.Free.Add(amount)
	return nil
}

// Snapshot returns a point-in-time copy of balances and positions,
// leaving out assets whose free and locked balances are both zero.
func (a *UserAccount) Snapshot(now time.Time) types.AccountSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	balances := make(map[string]types.AssetBalance, len(a.balances))
	for k, v := range a.balances {
		if v.Free.IsZero() && v.Locked.IsZero() {
			continue
		}
		balances[k] = *v
	}
	positions := make(map[string]types.Position, len(a.positions))
	for k, v := range a.positions {
		positions[k] = *v
	}
	return types.AccountSnapshot{
		UserID:    a.UserID,
		Balances:  balances,
		Positions: positions,
		AsOf:      now,
	}
}

// applySettlementLeg mutates this account's locked balance (removing the
// asset given up), free balance (crediting the asset received), position
// and realized PnL for one side of a trade. Must be called with a.mu held.
// baseQty/quoteAmount are always positive magnitudes; side says whether
// this account bought or sold the base asset.
func (a *UserAccount) applySettlementLeg(
	side types.Side,
	symbol, baseAsset, quoteAsset string,
	baseQty, price, quoteAmount, fee money.Decimal,
	feeAsset string,
	tradeID int64,
	now time.Time,
) error {
	if side == types.Buy {
		quoteBal := a.balanceFor(quoteAsset)
		if quoteBal.Locked.Cmp(quoteAmount) < 0 {
			return venueerrors.New(venueerrors.Invariant, "settlement exceeds locked quote balance").
				WithDetail("asset", quoteAsset)
		}
		quoteBal.Locked = quoteBal.Locked.Sub(quoteAmount)

		baseBal := a.balanceFor(baseAsset)
		received := baseQty
		if feeAsset == baseAsset {
			received = received.Sub(fee)
		}
		baseBal.Free = baseBal.Free.Add(received)
		if feeAsset == quoteAsset {
			// fee taken from the quote leg before it was locked-in is not
			// modeled here; fee assets on a buy are the received asset
			// under the default policy, so this branch covers the fixed
			// policy variant only.
			quoteBal.Free = quoteBal.Free.Sub(fee)
		}

		pos := a.positionFor(symbol)
		newQty := pos.Quantity.Add(baseQty)
		if newQty.Sign() > 0 {
			totalCost := pos.AverageCost.Mul(pos.Quantity).Add(price.Mul(baseQty))
			pos.AverageCost = totalCost.Div(newQty)
		}
		pos.Quantity = newQty
		pos.UpdatedAt = now

		a.record(types.TxnTrade, quoteAsset, quoteAmount.Neg(), fmt.Sprintf("%d", tradeID), now)
		a.record(types.TxnTrade, baseAsset, received, fmt.Sprintf("%d", tradeID), now)
		return nil
	}

	// Sell side: give up base, receive quote.
	baseBal := a.balanceFor(baseAsset)
	if baseBal.Locked.Cmp(baseQty) < 0 {
		return venueerrors.New(venueerrors.Invariant, "settlement exceeds locked base balance").
			WithDetail("asset", baseAsset)
	}
	baseBal.Locked = baseBal.Locked.Sub(baseQty)

	quoteBal := a.balanceFor(quoteAsset)
	received := quoteAmount
	if feeAsset == quoteAsset {
		received = received.Sub(fee)
	}
	quoteBal.Free = quoteBal.Free.Add(received)
	if feeAsset == baseAsset {
		baseBal.Free = baseBal.Free.Sub(fee)
	}

	pos := a.positionFor(symbol)
	realized := price.Sub(pos.AverageCost).Mul(baseQty)
	pos.RealizedPnLCumulative = pos.RealizedPnLCumulative.Add(realized)
	pos.Quantity = pos.Quantity.Sub(baseQty)
	pos.UpdatedAt = now

	a.record(types.TxnTrade, baseAsset, baseQty.Neg(), fmt.Sprintf("%d", tradeID), now)
	a.record(types.TxnTrade, quoteAsset, received, fmt.Sprintf("%d", tradeID), now)
	return nil
}

