package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-delivery-relay/core"
)

func (r *deliveryRecord) toDomain() core.Delivery {
	return core.Delivery{
		OrderID:     r.ID,
		Status:      core.DeliveryStatus(r.Status),
		ContractID:  r.ContractID,
		SupplierID:  r.SupplierID,
		Courier:     copyAnyMap(r.Courier),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   cloneTimePointer(r.UpdatedAt),
		DeliveredAt: cloneTimePointer(r.DeliveredAt),
	}
}

func newDeliveryRecord(in core.Delivery, now time.Time) *deliveryRecord {
	status := in.Status
	if strings.TrimSpace(string(status)) == "" {
		status = core.DeliveryStatusAssigningDriver
	}
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return &deliveryRecord{
		ID:          strings.TrimSpace(in.OrderID),
		Status:      string(status),
		ContractID:  strings.TrimSpace(in.ContractID),
		SupplierID:  strings.TrimSpace(in.SupplierID),
		Courier:     copyAnyMap(in.Courier),
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   cloneTimePointer(in.UpdatedAt),
		DeliveredAt: cloneTimePointer(in.DeliveredAt),
	}
}

func (r *contractRecord) toDomain() core.Contract {
	return core.Contract{
		ID:         r.ID,
		EventID:    r.EventID,
		SupplierID: r.SupplierID,
	}
}

func (r *eventRecord) toDomain() core.Event {
	return core.Event{
		ID:     r.ID,
		Name:   r.Name,
		UserID: r.UserID,
	}
}

func newNotificationRecord(in core.NotificationInput, id string, now time.Time) *notificationRecord {
	return &notificationRecord{
		ID:             id,
		Avatar:         in.Avatar,
		Title:          in.Title,
		Message:        in.Message,
		ReferencedType: in.ReferencedType,
		ReferencedID:   in.ReferencedID,
		SenderID:       strings.TrimSpace(in.SenderID),
		ReceiverID:     strings.TrimSpace(in.ReceiverID),
		Unread:         true,
		CreatedAt:      now.UTC(),
	}
}

func (r *notificationRecord) toDomain() core.Notification {
	return core.Notification{
		ID:             r.ID,
		Avatar:         r.Avatar,
		Title:          r.Title,
		Message:        r.Message,
		ReferencedType: r.ReferencedType,
		ReferencedID:   r.ReferencedID,
		SenderID:       r.SenderID,
		ReceiverID:     r.ReceiverID,
		Unread:         r.Unread,
		CreatedAt:      r.CreatedAt,
	}
}

func (r *webhookDeliveryRecord) toDomain() core.WebhookDelivery {
	return core.WebhookDelivery{
		ID:         r.ID,
		ProviderID: r.ProviderID,
		EventID:    r.EventID,
		Status:     r.Status,
		Attempts:   r.Attempts,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func copyAnyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func cloneTimePointer(input *time.Time) *time.Time {
	if input == nil {
		return nil
	}
	value := input.UTC()
	return &value
}
