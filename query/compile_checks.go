package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-delivery-relay/core"
)

var (
	_ gocmd.Querier[OrderStatusMessage, core.TransportResponse]  = (*OrderStatusQuery)(nil)
	_ gocmd.Querier[DriverStatusMessage, core.TransportResponse] = (*DriverStatusQuery)(nil)
)
