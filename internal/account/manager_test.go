package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/archon-trading/spotvenue/pkg/money"
)

func TestDepositLockUnlock(t *testing.T) {
	m := NewManager()
	acct := m.Account("alice")
	now := time.Now()

	require.NoError(t, acct.Deposit("USD", money.MustParse("1000"), now))
	require.NoError(t, acct.Lock("USD", money.MustParse("400")))

	snap := acct.Snapshot(now)
	require.Equal(t, "600", snap.Balances["USD"].Free.String())
	require.Equal(t, "400", snap.Balances["USD"].Locked.String())

	require.NoError(t, acct.Unlock("USD", money.MustParse("400")))
	snap = acct.Snapshot(now)
	require.Equal(t, "1000", snap.Balances["USD"].Free.String())
	require.Equal(t, "0", snap.Balances["USD"].Locked.String())
}

func TestLockInsufficientFree(t *testing.T) {
	m := NewManager()
	acct := m.Account("bob")
	require.NoError(t, acct.Deposit("USD", money.MustParse("10"), time.Now()))
	err := acct.Lock("USD", money.MustParse("20"))
	require.Error(t, err)
}

func TestSettleTradeConservesValue(t *testing.T) {
	m := NewManager()
	now := time.Now()

	buyer := m.Account("buyer1")
	seller := m.Account("seller1")
	require.NoError(t, buyer.Deposit("USD", money.MustParse("10000"), now))
	require.NoError(t, seller.Deposit("BTC", money.MustParse("5"), now))

	require.NoError(t, buyer.Lock("USD", money.MustParse("5000")))
	require.NoError(t, seller.Lock("BTC", money.MustParse("1")))

	err := m.SettleTrade(TradeSettlement{
		TradeID:      1,
		Symbol:       "BTC-USD",
		BaseAsset:    "BTC",
		QuoteAsset:   "USD",
		Quantity:     money.MustParse("1"),
		Price:        money.MustParse("5000"),
		BuyerUserID:  "buyer1",
		SellerUserID: "seller1",
		IsBuyerTaker: true,
		TakerFee:     money.Zero(),
		MakerFee:     money.Zero(),
		Now:          now,
	})
	require.NoError(t, err)

	buyerSnap := buyer.Snapshot(now)
	sellerSnap := seller.Snapshot(now)

	require.Equal(t, "1", buyerSnap.Balances["BTC"].Free.String())
	require.Equal(t, "0", buyerSnap.Balances["USD"].Locked.String())
	require.Equal(t, "5000", buyerSnap.Balances["USD"].Free.String())

	require.Equal(t, "0", sellerSnap.Balances["BTC"].Locked.String())
	require.Equal(t, "5000", sellerSnap.Balances["USD"].Free.String())
}
