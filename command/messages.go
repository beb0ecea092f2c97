package command

import (
	"strings"

	"github.com/goliatone/go-delivery-relay/core"
)

const TypeReconcileDelivery = "relay.command.delivery.reconcile"

type ReconcileDeliveryMessage struct {
	Event core.WebhookEvent
}

func (ReconcileDeliveryMessage) Type() string { return TypeReconcileDelivery }

func (m ReconcileDeliveryMessage) Validate() error {
	if strings.TrimSpace(m.Event.OrderID) == "" {
		return commandValidationError("order_id", "order id is required")
	}
	return nil
}
