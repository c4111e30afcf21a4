package types

import (
	"time"

	"github.com/archon-trading/spotvenue/pkg/money"
)

// Trade is an immutable record emitted per match. TradeID is monotonically
// increasing within a symbol (assigned by the owning symbol actor).
type Trade struct {
	TradeID      int64
	Symbol       string
	Price        money.Decimal
	Quantity     money.Decimal
	BuyOrderID   string
	SellOrderID  string
	BuyerUserID  string
	SellerUserID string
	Timestamp    time.Time
	IsBuyerMaker bool

	TakerFee      money.Decimal
	TakerFeeAsset string
	MakerFee      money.Decimal
	MakerFeeAsset string
}

// Notional returns price * quantity.
func (t *Trade) Notional() money.Decimal {
	return money.Notional(t.Price, t.Quantity)
}
