package matching

import (
	"context"

	"github.com/archon-trading/spotvenue/internal/types"
	"github.com/archon-trading/spotvenue/internal/venueerrors"
)

// cancel removes a resting (or parked stop) order, releasing its locked
// reservation. Returns NotFound if unknown, Forbidden if the caller
// doesn't own it, and AlreadyTerminal if it has already reached a
// terminal status.
func (a *symbolActor) cancel(ctx context.Context, orderID, userID string) error {
	o, ok := a.orders[orderID]
	if !ok {
		return venueerrors.New(venueerrors.NotFound, "order not found").WithDetail("order_id", orderID)
	}
	if o.UserID != userID {
		return venueerrors.New(venueerrors.Forbidden, "order belongs to another user")
	}
	if o.Status.IsTerminal() {
		return venueerrors.New(venueerrors.AlreadyTerminal, "order already in a terminal state")
	}

	switch o.Type {
	case types.Stop, types.StopLimit:
		a.book.RemoveStop(orderID, o.Side)
	default:
		a.book.Remove(orderID, o.Side, o.Price)
	}

	a.releaseReservation(o)
	o.Status = types.StatusCanceled
	a.notifyOrderTerminal(ctx, o, types.ExecCanceled)
	return nil
}
