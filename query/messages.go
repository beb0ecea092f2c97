package query

import (
	"strings"
)

const (
	TypeOrderStatus  = "relay.query.order.status"
	TypeDriverStatus = "relay.query.order.driver"
)

const MessageOrderIDRequired = "orderId is required"

type OrderStatusMessage struct {
	OrderID string
}

func (OrderStatusMessage) Type() string { return TypeOrderStatus }

func (m OrderStatusMessage) Validate() error {
	if strings.TrimSpace(m.OrderID) == "" {
		return queryInvalidInputError(MessageOrderIDRequired, "orderId")
	}
	return nil
}

// DriverStatusMessage is only invalid when both identifiers are missing; a
// lone driver id is forwarded as-is.
type DriverStatusMessage struct {
	OrderID  string
	DriverID string
}

func (DriverStatusMessage) Type() string { return TypeDriverStatus }

func (m DriverStatusMessage) Validate() error {
	if strings.TrimSpace(m.OrderID) == "" && strings.TrimSpace(m.DriverID) == "" {
		return queryInvalidInputError(MessageOrderIDRequired, "orderId")
	}
	return nil
}
