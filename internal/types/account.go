package types

import (
	"time"

	"github.com/archon-trading/spotvenue/pkg/money"
)

// AssetBalance is the free/locked split for one (user, asset) pair.
// Invariant: Free >= 0 && Locked >= 0 at every observable moment.
type AssetBalance struct {
	Asset  string
	Free   money.Decimal
	Locked money.Decimal
}

// Total is free + locked.
func (b AssetBalance) Total() money.Decimal {
	return b.Free.Add(b.Locked)
}

// Position is the per-(user, symbol) spot position. Quantity is always
// non-negative: this is a spot venue, not a margin book.
type Position struct {
	Symbol                string
	Quantity              money.Decimal
	AverageCost           money.Decimal
	RealizedPnLCumulative money.Decimal
	UpdatedAt             time.Time
}

// TransactionKind is the closed set of ledger transaction kinds.
type TransactionKind string

const (
	TxnDeposit  TransactionKind = "DEPOSIT"
	TxnWithdraw TransactionKind = "WITHDRAW"
	TxnTrade    TransactionKind = "TRADE"
)

// TransactionRecord is one entry in a user's append-only ledger history.
type TransactionRecord struct {
	ID            string
	UserID        string
	Kind          TransactionKind
	Asset         string
	Amount        money.Decimal
	RelatedTradeID string
	CreatedAt     time.Time
}

// AccountSnapshot is a point-in-time, internally consistent view of one
// user's balances and positions. Zero-balance assets are excluded.
type AccountSnapshot struct {
	UserID      string
	DisplayName string
	Balances    map[string]AssetBalance
	Positions   map[string]Position
	AsOf        time.Time
}
