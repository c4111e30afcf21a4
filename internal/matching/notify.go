package matching

import (
	"context"

	"github.com/archon-trading/spotvenue/internal/types"
	"github.com/archon-trading/spotvenue/pkg/money"
)

// notifyOrderUpdate publishes an ORDER_TRADE_UPDATE for a trade fill.
// Publish errors are logged, never surfaced to the matching pipeline:
// notification delivery is best-effort and must not roll back a
// settled trade.
func (a *symbolActor) notifyOrderUpdate(ctx context.Context, o *types.Order, execType types.ExecutionType, lastQty, lastPrice money.Decimal, isMaker bool, tradeID int64, commission money.Decimal, commissionAsset string) {
	if a.translator == nil {
		return
	}
	if err := a.translator.PublishOrderUpdate(ctx, o, execType, lastQty.String(), lastPrice.String(), isMaker, tradeID, commission.String(), commissionAsset); err != nil {
		a.logger.Warn("failed to publish order update")
	}
}

// notifyOrderTerminal publishes a non-trade terminal transition (cancel,
// reject, expire).
func (a *symbolActor) notifyOrderTerminal(ctx context.Context, o *types.Order, execType types.ExecutionType) {
	if a.translator == nil {
		return
	}
	if err := a.translator.PublishOrderUpdate(ctx, o, execType, "0", "0", false, 0, "0", ""); err != nil {
		a.logger.Warn("failed to publish order terminal update")
	}
}

func (a *symbolActor) notifyTrade(ctx context.Context, t *types.Trade) {
	if a.translator == nil {
		return
	}
	if err := a.translator.PublishTrade(ctx, t); err != nil {
		a.logger.Warn("failed to publish trade")
	}
}
