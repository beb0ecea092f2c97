package webhooks

import (
	"context"

	"github.com/goliatone/go-delivery-relay/core"
)

// ReconcileDispatcher runs reconciliation inline on the caller's goroutine.
type ReconcileDispatcher struct {
	Reconciler core.Reconciler
}

func (d ReconcileDispatcher) Dispatch(ctx context.Context, event core.WebhookEvent) error {
	if d.Reconciler == nil {
		return core.Internal("webhooks: dispatcher requires a reconciler", nil)
	}
	_, err := d.Reconciler.Reconcile(ctx, event)
	return err
}

var _ core.TaskDispatcher = ReconcileDispatcher{}
