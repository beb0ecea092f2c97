package webhooks

import (
	"fmt"

	"github.com/goliatone/go-delivery-relay/core"
)

const notificationAvatar = "D"

const (
	TitleDriverAssigned  = "Driver Assigned"
	TitleDriverDelivered = "Driver Delivered"
	TitleDeliveryArrived = "Delivery Arrived"
)

func driverAssignedNotification(orderID string, contract core.Contract, supplierID string) core.NotificationInput {
	return core.NotificationInput{
		Avatar:         notificationAvatar,
		Title:          TitleDriverAssigned,
		Message:        fmt.Sprintf("A driver has been assigned for your delivery (Order ID: %s).", orderID),
		ReferencedType: core.ReferencedTypeContract,
		ReferencedID:   contract.ID,
		ReceiverID:     supplierID,
	}
}

func deliveredNotification(contract core.Contract, event core.Event, supplierID string) core.NotificationInput {
	return core.NotificationInput{
		Avatar: notificationAvatar,
		Title:  TitleDriverDelivered,
		Message: fmt.Sprintf(
			"The item for the event \"%s\" has been successfully delivered. Contract ID: \"%s\".",
			event.Name,
			contract.ID,
		),
		ReferencedType: core.ReferencedTypeContract,
		ReferencedID:   contract.ID,
		SenderID:       event.ID,
		ReceiverID:     supplierID,
	}
}

func arrivedNotification(contract core.Contract, event core.Event) core.NotificationInput {
	return core.NotificationInput{
		Avatar: notificationAvatar,
		Title:  TitleDeliveryArrived,
		Message: fmt.Sprintf(
			"The delivery has arrived and is now on-site. Please check your records for Contract ID: \"%s\".",
			contract.ID,
		),
		ReferencedType: core.ReferencedTypeContract,
		ReferencedID:   contract.ID,
		SenderID:       event.ID,
		ReceiverID:     event.UserID,
	}
}
