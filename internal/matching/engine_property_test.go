package matching

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/archon-trading/spotvenue/internal/eventbus"
	"github.com/archon-trading/spotvenue/internal/types"
	"github.com/archon-trading/spotvenue/pkg/money"
)

// randomOrderSequence submits n random limit orders across a small pool of
// users, each order a GTC limit at a random tick offset from a fixed
// center price, and returns every SubmitResult produced. Using only GTC
// limit orders keeps orders resting in the book across the whole run
// instead of immediately expiring, which maximizes how often the book
// invariants below actually get exercised.
func randomOrderSequence(t *testing.T, eng *Engine, rng *rand.Rand, n int) []*SubmitResult {
	t.Helper()
	users := []string{"u1", "u2", "u3", "u4"}
	center := int64(500000) // 5000.00 in ticks of 0.01
	results := make([]*SubmitResult, 0, n)

	for i := 0; i < n; i++ {
		side := types.Buy
		if rng.Intn(2) == 1 {
			side = types.Sell
		}
		offset := int64(rng.Intn(401) - 200) // +/-2.00 around center
		priceTicks := center + offset
		price := money.New(priceTicks, -2)
		qty := money.New(int64(1+rng.Intn(50)), -2) // 0.01 .. 0.50, comfortably clears MinNotional at this price range

		req := SubmitRequest{
			UserID:      users[rng.Intn(len(users))],
			Symbol:      "BTC-USD",
			Side:        side,
			Type:        types.Limit,
			Quantity:    qty,
			Price:       price,
			TimeInForce: types.GTC,
		}
		result, err := eng.Submit(context.Background(), req)
		require.NoError(t, err)
		results = append(results, result)
	}
	return results
}

// TestPropertyBookNeverCrosses asserts best_bid < best_ask once a
// randomized GTC sequence has run, for every one of several seeds.
func TestPropertyBookNeverCrosses(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		eng, accounts := newTestEngine(t)
		for _, u := range []string{"u1", "u2", "u3", "u4"} {
			fund(t, accounts, u, "BTC", "1000")
			fund(t, accounts, u, "USD", "100000000")
		}

		rng := rand.New(rand.NewSource(seed))
		randomOrderSequence(t, eng, rng, 200)

		depth, err := eng.Depth(context.Background(), "BTC-USD", 1)
		require.NoError(t, err)
		if len(depth.Bids) > 0 && len(depth.Asks) > 0 {
			require.Truef(t, depth.Bids[0].Price.Cmp(depth.Asks[0].Price) < 0,
				"seed %d: best bid %s not below best ask %s", seed, depth.Bids[0].Price, depth.Asks[0].Price)
		}
	}
}

// TestPropertyBalancesNeverNegative asserts free and locked balances stay
// non-negative for every participant across a randomized GTC sequence.
func TestPropertyBalancesNeverNegative(t *testing.T) {
	users := []string{"u1", "u2", "u3", "u4"}
	for seed := int64(0); seed < 5; seed++ {
		eng, accounts := newTestEngine(t)
		for _, u := range users {
			fund(t, accounts, u, "BTC", "1000")
			fund(t, accounts, u, "USD", "100000000")
		}

		rng := rand.New(rand.NewSource(seed))
		randomOrderSequence(t, eng, rng, 200)

		for _, u := range users {
			snap, err := accounts.Snapshot(u, time.Now())
			require.NoError(t, err)
			for asset, bal := range snap.Balances {
				require.Truef(t, money.IsNonNegative(bal.Free), "seed %d user %s asset %s free went negative: %s", seed, u, asset, bal.Free)
				require.Truef(t, money.IsNonNegative(bal.Locked), "seed %d user %s asset %s locked went negative: %s", seed, u, asset, bal.Locked)
			}
		}
	}
}

// TestPropertyFillConservation asserts that every order's reported
// FilledQuantity never exceeds its requested Quantity, and exactly equals
// the sum of the quantities of every trade in the run that involved that
// order, whether it traded as taker on its own submission or later as a
// resting maker.
func TestPropertyFillConservation(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		eng, accounts := newTestEngine(t)
		for _, u := range []string{"u1", "u2", "u3", "u4"} {
			fund(t, accounts, u, "BTC", "1000")
			fund(t, accounts, u, "USD", "100000000")
		}

		rng := rand.New(rand.NewSource(seed))
		results := randomOrderSequence(t, eng, rng, 200)

		for _, r := range results {
			require.Truef(t, r.Order.FilledQuantity.Cmp(r.Order.Quantity) <= 0,
				"seed %d: order %s filled %s exceeds requested %s", seed, r.Order.OrderID, r.Order.FilledQuantity, r.Order.Quantity)

			own := money.Zero()
			for _, other := range results {
				for _, tr := range other.Trades {
					if tr.BuyOrderID == r.Order.OrderID || tr.SellOrderID == r.Order.OrderID {
						own = own.Add(tr.Quantity)
					}
				}
			}
			require.Truef(t, own.Equal(r.Order.FilledQuantity),
				"seed %d: order %s filled %s but the run's trades against it sum to %s", seed, r.Order.OrderID, r.Order.FilledQuantity, own)
		}
	}
}

// TestPropertyOrderUpdateEventTimeMonotonic asserts that ORDER_TRADE_UPDATE
// events published for one user's private stream during a randomized
// sequence never arrive with a decreasing event timestamp. EnqueuedAt is
// stamped by the bus at publish time from the same wall clock that seeds
// every ORDER_TRADE_UPDATE's `E` field, so it stands in for it here
// without needing to re-decode the wire payload's generic JSON shape.
func TestPropertyOrderUpdateEventTimeMonotonic(t *testing.T) {
	eng, accounts := newTestEngine(t)
	for _, u := range []string{"u1", "u2", "u3", "u4"} {
		fund(t, accounts, u, "BTC", "1000")
		fund(t, accounts, u, "USD", "100000000")
	}

	var mu sync.Mutex
	var times []time.Time
	_, err := eng.bus.Subscribe(context.Background(), "u1@order", eventbus.Normal, func(ctx context.Context, evt eventbus.Event) {
		mu.Lock()
		times = append(times, evt.EnqueuedAt)
		mu.Unlock()
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	randomOrderSequence(t, eng, rng, 100)

	// Submit only waits for the matching pipeline, not for the bus's async
	// dispatch pool to drain; give it a moment to deliver everything
	// published during the sequence above.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(times) > 0
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(times); i++ {
		require.Falsef(t, times[i].Before(times[i-1]), "event %d out of order: %s before %s", i, times[i], times[i-1])
	}
}
