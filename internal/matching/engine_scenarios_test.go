package matching

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/archon-trading/spotvenue/internal/account"
	"github.com/archon-trading/spotvenue/internal/config"
	"github.com/archon-trading/spotvenue/internal/eventbus"
	"github.com/archon-trading/spotvenue/internal/logging"
	"github.com/archon-trading/spotvenue/internal/types"
	"github.com/archon-trading/spotvenue/pkg/money"
)

func newTestEngine(t *testing.T) (*Engine, *account.Manager) {
	t.Helper()
	cfg := config.Default()
	cfg.Symbols = []config.Symbol{{
		Symbol:      "BTC-USD",
		BaseAsset:   "BTC",
		QuoteAsset:  "USD",
		TickSize:    money.MustParse("0.01"),
		LotSize:     money.MustParse("0.0001"),
		MinNotional: money.MustParse("1"),
		Active:      true,
	}}
	accounts := account.NewManager()
	bus, err := eventbus.New(eventbus.Config{QueueCapacity: 256, DispatchPoolSize: 4}, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { bus.Close() })

	eng := New(cfg, accounts, bus, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	eng.Start(ctx)
	return eng, accounts
}

func fund(t *testing.T, accounts *account.Manager, userID, asset, amount string) {
	t.Helper()
	require.NoError(t, accounts.Account(userID).Deposit(asset, money.MustParse(amount), time.Now()))
}

func TestSimpleFullFill(t *testing.T) {
	eng, accounts := newTestEngine(t)
	fund(t, accounts, "seller", "BTC", "10")
	fund(t, accounts, "buyer", "USD", "100000")

	ctx := context.Background()
	_, err := eng.Submit(ctx, SubmitRequest{UserID: "seller", Symbol: "BTC-USD", Side: types.Sell, Type: types.Limit, Quantity: money.MustParse("1"), Price: money.MustParse("50000"), TimeInForce: types.GTC})
	require.NoError(t, err)

	result, err := eng.Submit(ctx, SubmitRequest{UserID: "buyer", Symbol: "BTC-USD", Side: types.Buy, Type: types.Limit, Quantity: money.MustParse("1"), Price: money.MustParse("50000"), TimeInForce: types.GTC})
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	require.Equal(t, types.StatusFilled, result.Order.Status)
	require.Equal(t, "50000", result.Trades[0].Price.String())
}

func TestPartialFillLeavesResidual(t *testing.T) {
	eng, accounts := newTestEngine(t)
	fund(t, accounts, "seller", "BTC", "10")
	fund(t, accounts, "buyer", "USD", "100000")

	ctx := context.Background()
	_, err := eng.Submit(ctx, SubmitRequest{UserID: "seller", Symbol: "BTC-USD", Side: types.Sell, Type: types.Limit, Quantity: money.MustParse("0.5"), Price: money.MustParse("50000"), TimeInForce: types.GTC})
	require.NoError(t, err)

	result, err := eng.Submit(ctx, SubmitRequest{UserID: "buyer", Symbol: "BTC-USD", Side: types.Buy, Type: types.Limit, Quantity: money.MustParse("1"), Price: money.MustParse("50000"), TimeInForce: types.GTC})
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	require.Equal(t, types.StatusPartiallyFilled, result.Order.Status)
	require.Equal(t, "0.5", result.Order.RemainingQuantity().String())

	depth, err := eng.Depth(ctx, "BTC-USD", 5)
	require.NoError(t, err)
	require.Len(t, depth.Bids, 1)
	require.Equal(t, "0.5", depth.Bids[0].Quantity.String())
}

func TestSelfTradePreventionExpireTaker(t *testing.T) {
	eng, accounts := newTestEngine(t)
	fund(t, accounts, "trader", "BTC", "10")
	fund(t, accounts, "trader", "USD", "100000")

	ctx := context.Background()
	_, err := eng.Submit(ctx, SubmitRequest{UserID: "trader", Symbol: "BTC-USD", Side: types.Sell, Type: types.Limit, Quantity: money.MustParse("1"), Price: money.MustParse("50000"), TimeInForce: types.GTC})
	require.NoError(t, err)

	result, err := eng.Submit(ctx, SubmitRequest{
		UserID: "trader", Symbol: "BTC-USD", Side: types.Buy, Type: types.Limit,
		Quantity: money.MustParse("1"), Price: money.MustParse("50000"),
		TimeInForce: types.GTC, SelfTradePrevention: types.StpExpireTaker,
	})
	require.NoError(t, err)

	require.Empty(t, result.Trades)
	require.Equal(t, types.StatusExpiredInMatch, result.Order.Status)
	require.Equal(t, types.ReasonSelfTrade, result.Order.RejectReason)
}

func TestMarketOrderNoLiquidityExpires(t *testing.T) {
	eng, accounts := newTestEngine(t)
	fund(t, accounts, "buyer", "USD", "100000")

	ctx := context.Background()
	result, err := eng.Submit(ctx, SubmitRequest{UserID: "buyer", Symbol: "BTC-USD", Side: types.Buy, Type: types.Market, Quantity: money.MustParse("1"), TimeInForce: types.IOC})
	require.NoError(t, err)
	require.Equal(t, types.StatusExpired, result.Order.Status)
	require.Equal(t, types.ReasonNoLiquidity, result.Order.RejectReason)
}

func TestCancelDuringPartialFillReleasesReservation(t *testing.T) {
	eng, accounts := newTestEngine(t)
	fund(t, accounts, "seller", "BTC", "10")
	fund(t, accounts, "buyer", "USD", "100000")

	ctx := context.Background()
	_, err := eng.Submit(ctx, SubmitRequest{UserID: "seller", Symbol: "BTC-USD", Side: types.Sell, Type: types.Limit, Quantity: money.MustParse("0.5"), Price: money.MustParse("50000"), TimeInForce: types.GTC})
	require.NoError(t, err)

	result, err := eng.Submit(ctx, SubmitRequest{UserID: "buyer", Symbol: "BTC-USD", Side: types.Buy, Type: types.Limit, Quantity: money.MustParse("1"), Price: money.MustParse("50000"), TimeInForce: types.GTC})
	require.NoError(t, err)
	require.Equal(t, types.StatusPartiallyFilled, result.Order.Status)

	err = eng.Cancel(ctx, "BTC-USD", result.Order.OrderID, "buyer")
	require.NoError(t, err)

	snap, err := accounts.Snapshot("buyer", time.Now())
	require.NoError(t, err)
	require.Equal(t, "0", snap.Balances["USD"].Locked.String())
}

func TestPriceMatchOpponentPegsToBestOpposingPrice(t *testing.T) {
	eng, accounts := newTestEngine(t)
	fund(t, accounts, "seller", "BTC", "10")
	fund(t, accounts, "buyer", "USD", "100000")

	ctx := context.Background()
	_, err := eng.Submit(ctx, SubmitRequest{UserID: "seller", Symbol: "BTC-USD", Side: types.Sell, Type: types.Limit, Quantity: money.MustParse("1"), Price: money.MustParse("50000"), TimeInForce: types.GTC})
	require.NoError(t, err)

	result, err := eng.Submit(ctx, SubmitRequest{
		UserID: "buyer", Symbol: "BTC-USD", Side: types.Buy, Type: types.Limit,
		Quantity: money.MustParse("1"), Price: money.MustParse("1"), TimeInForce: types.GTC,
		PriceMatch: types.PriceMatchOpponent,
	})
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	require.Equal(t, "50000", result.Trades[0].Price.String())
}
