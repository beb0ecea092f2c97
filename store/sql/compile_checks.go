package sqlstore

import "github.com/goliatone/go-delivery-relay/core"

var (
	_ core.DeliveryStore     = (*DeliveryStore)(nil)
	_ core.ReferenceStore    = (*ReferenceStore)(nil)
	_ core.ReferenceStore    = (*CachedReferenceStore)(nil)
	_ core.NotificationStore = (*NotificationStore)(nil)
	_ core.WebhookLedger     = (*WebhookDeliveryStore)(nil)
)
