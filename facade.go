package relay

import (
	"fmt"

	relaycommand "github.com/goliatone/go-delivery-relay/command"
	"github.com/goliatone/go-delivery-relay/core"
	relayquery "github.com/goliatone/go-delivery-relay/query"
)

type Commands struct {
	ReconcileDelivery *relaycommand.ReconcileDeliveryCommand
}

type Queries struct {
	OrderStatus  *relayquery.OrderStatusQuery
	DriverStatus *relayquery.DriverStatusQuery
}

// Facade exposes the relay's command and query handlers for hosts that wire
// them into their own go-command dispatchers.
type Facade struct {
	commands Commands
	queries  Queries
}

func NewFacade(reconciler core.Reconciler, reader relayquery.OrderReader) (*Facade, error) {
	if reconciler == nil {
		return nil, fmt.Errorf("relay: reconciler is required")
	}
	if reader == nil {
		return nil, fmt.Errorf("relay: order reader is required")
	}
	return &Facade{
		commands: Commands{
			ReconcileDelivery: relaycommand.NewReconcileDeliveryCommand(reconciler),
		},
		queries: Queries{
			OrderStatus:  relayquery.NewOrderStatusQuery(reader),
			DriverStatus: relayquery.NewDriverStatusQuery(reader),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}
