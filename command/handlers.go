package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-delivery-relay/core"
)

type ReconcileDeliveryCommand struct {
	reconciler core.Reconciler
}

func NewReconcileDeliveryCommand(reconciler core.Reconciler) *ReconcileDeliveryCommand {
	return &ReconcileDeliveryCommand{reconciler: reconciler}
}

func (c *ReconcileDeliveryCommand) Execute(ctx context.Context, msg ReconcileDeliveryMessage) error {
	if c == nil || c.reconciler == nil {
		return commandDependencyError("command: reconciler is required")
	}
	out, err := c.reconciler.Reconcile(ctx, msg.Event)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
