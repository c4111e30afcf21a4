package orderbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/archon-trading/spotvenue/internal/types"
	"github.com/archon-trading/spotvenue/pkg/money"
)

func newTestOrder(id string, side types.Side, price, qty string) *types.Order {
	return &types.Order{
		OrderID:  id,
		Symbol:   "BTC-USD",
		Side:     side,
		Type:     types.Limit,
		Price:    money.MustParse(price),
		Quantity: money.MustParse(qty),
		Status:   types.StatusNew,
	}
}

func TestBestBidAskAndPriceOrdering(t *testing.T) {
	b := New("BTC-USD")
	b.AddResting(newTestOrder("b1", types.Buy, "100.00", "1"))
	b.AddResting(newTestOrder("b2", types.Buy, "101.00", "1"))
	b.AddResting(newTestOrder("a1", types.Sell, "105.00", "1"))
	b.AddResting(newTestOrder("a2", types.Sell, "104.00", "1"))

	require.Equal(t, "101", b.BestBid().price.String())
	require.Equal(t, "104", b.BestAsk().price.String())
}

func TestFIFOWithinPriceLevel(t *testing.T) {
	b := New("BTC-USD")
	o1 := newTestOrder("o1", types.Buy, "100.00", "1")
	o2 := newTestOrder("o2", types.Buy, "100.00", "1")
	b.AddResting(o1)
	b.AddResting(o2)

	front := b.FrontOf(types.Buy)
	require.Equal(t, "o1", front.OrderID)
}

func TestRemoveDropsEmptyLevel(t *testing.T) {
	b := New("BTC-USD")
	o := newTestOrder("o1", types.Buy, "100.00", "1")
	b.AddResting(o)
	require.True(t, b.Remove("o1", types.Buy, o.Price))
	require.Nil(t, b.BestBid())
	require.False(t, b.Contains("o1"))
}

func TestActivateStopsBuyTriggersOnRise(t *testing.T) {
	b := New("BTC-USD")
	stop := newTestOrder("s1", types.Buy, "0", "1")
	stop.Type = types.Stop
	stop.StopPrice = money.MustParse("110.00")
	stop.CreatedAt = time.Now()
	b.AddStop(stop)

	activated := b.ActivateStops(money.MustParse("109.99"))
	require.Empty(t, activated)

	activated = b.ActivateStops(money.MustParse("110.00"))
	require.Len(t, activated, 1)
	require.Equal(t, "s1", activated[0].OrderID)
}
