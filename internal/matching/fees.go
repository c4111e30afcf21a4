package matching

import (
	"github.com/archon-trading/spotvenue/internal/config"
	"github.com/archon-trading/spotvenue/pkg/money"
)

// feeAmount converts a basis-point rate into the exact fee owed on a
// notional value: amount * bps / 10000.
func feeAmount(notional money.Decimal, bps int64) money.Decimal {
	if bps <= 0 {
		return money.Zero()
	}
	rate := money.New(bps, -4)
	return notional.Mul(rate)
}

// feeAssetFor resolves which asset a side's fee is deducted from under
// the venue's configured policy: under RECEIVED, the fee comes out of
// whatever asset that side received (base for a buyer, quote for a
// seller); under FIXED, it always comes out of the quote asset.
func feeAssetFor(policy config.FeeAssetPolicy, side takerMakerSide, baseAsset, quoteAsset string) string {
	if policy == config.FeeAssetFixed {
		return quoteAsset
	}
	if side == sideIsBuyer {
		return baseAsset
	}
	return quoteAsset
}

type takerMakerSide int

const (
	sideIsBuyer takerMakerSide = iota
	sideIsSeller
)
