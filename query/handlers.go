package query

import (
	"context"

	"github.com/goliatone/go-delivery-relay/core"
)

// OrderReader performs the provider lookups. Responses are relayed verbatim,
// so a provider non-2xx is a result, not an error.
type OrderReader interface {
	OrderStatus(ctx context.Context, orderID string) (core.TransportResponse, error)
	DriverStatus(ctx context.Context, orderID string, driverID string) (core.TransportResponse, error)
}

type OrderStatusQuery struct {
	reader OrderReader
}

func NewOrderStatusQuery(reader OrderReader) *OrderStatusQuery {
	return &OrderStatusQuery{reader: reader}
}

func (q *OrderStatusQuery) Query(ctx context.Context, msg OrderStatusMessage) (core.TransportResponse, error) {
	if q == nil || q.reader == nil {
		return core.TransportResponse{}, queryDependencyError("query: order reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.TransportResponse{}, err
	}
	return q.reader.OrderStatus(ctx, msg.OrderID)
}

type DriverStatusQuery struct {
	reader OrderReader
}

func NewDriverStatusQuery(reader OrderReader) *DriverStatusQuery {
	return &DriverStatusQuery{reader: reader}
}

func (q *DriverStatusQuery) Query(ctx context.Context, msg DriverStatusMessage) (core.TransportResponse, error) {
	if q == nil || q.reader == nil {
		return core.TransportResponse{}, queryDependencyError("query: order reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.TransportResponse{}, err
	}
	return q.reader.DriverStatus(ctx, msg.OrderID, msg.DriverID)
}
