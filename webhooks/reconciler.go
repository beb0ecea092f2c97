package webhooks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-delivery-relay/core"
)

// Plan is the full set of writes one event produces. Notifications are written
// in order before Update.
type Plan struct {
	OrderID       string
	Update        core.DeliveryUpdate
	Notifications []core.NotificationInput
}

// BuildPlan derives the writes for event from the resolved records. Missing
// records arrive as identifier-only values and yield empty fields.
func BuildPlan(event core.WebhookEvent, delivery core.Delivery, contract core.Contract, owner core.Event) Plan {
	event = event.Normalize()
	plan := Plan{
		OrderID: event.OrderID,
		Update: core.DeliveryUpdate{
			Status: MapStatus(event.Status),
		},
	}
	if event.HasDriver() {
		plan.Update.Courier = cloneMap(event.Driver)
		plan.Notifications = append(plan.Notifications,
			driverAssignedNotification(event.OrderID, contract, delivery.SupplierID),
		)
	}
	if isCompletion(event.Status) {
		plan.Update.MarkDelivered = true
		plan.Notifications = append(plan.Notifications,
			deliveredNotification(contract, owner, delivery.SupplierID),
			arrivedNotification(contract, owner),
		)
	}
	return plan
}

type ReconcilerOption func(*Reconciler)

func WithReconcilerLogger(logger core.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if logger != nil {
			r.observer.Logger = logger
		}
	}
}

func WithReconcilerMetrics(metrics core.MetricsRecorder) ReconcilerOption {
	return func(r *Reconciler) {
		if metrics != nil {
			r.observer.Metrics = metrics
		}
	}
}

// Reconciler applies provider events to delivery records. Each write goes
// through its own narrow store; there is no transaction across them.
type Reconciler struct {
	deliveries    core.DeliveryStore
	references    core.ReferenceStore
	notifications core.NotificationStore
	observer      core.Observer
}

func NewReconciler(
	deliveries core.DeliveryStore,
	references core.ReferenceStore,
	notifications core.NotificationStore,
	opts ...ReconcilerOption,
) *Reconciler {
	reconciler := &Reconciler{
		deliveries:    deliveries,
		references:    references,
		notifications: notifications,
		observer:      core.Observer{Metrics: core.NopMetricsRecorder{}},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(reconciler)
		}
	}
	return reconciler
}

// Reconcile resolves the delivery, contract and event chain, then writes the
// planned notifications followed by the delivery update. The first failed
// write stops the sequence; earlier writes are kept.
func (r *Reconciler) Reconcile(ctx context.Context, event core.WebhookEvent) (outcome core.ReconcileOutcome, err error) {
	event = event.Normalize()
	outcome = core.ReconcileOutcome{OrderID: event.OrderID}
	if event.OrderID == "" {
		outcome.Skipped = true
		return outcome, nil
	}
	if r == nil || r.deliveries == nil || r.notifications == nil {
		return outcome, core.Internal("webhooks: reconciler requires delivery and notification stores", nil)
	}

	startedAt := time.Now()
	defer func() {
		r.observer.Operation(ctx, startedAt, "webhook_reconcile", err, map[string]any{
			"order_id":      event.OrderID,
			"provider_code": event.Status,
			"delivery":      string(outcome.Status),
			"notifications": outcome.Notifications,
		})
	}()

	delivery, contract, owner, err := r.resolve(ctx, event.OrderID)
	if err != nil {
		return outcome, err
	}

	plan := BuildPlan(event, delivery, contract, owner)
	outcome.Status = plan.Update.Status

	for _, notification := range plan.Notifications {
		if _, err := r.notifications.AddNotification(ctx, notification); err != nil {
			return outcome, fmt.Errorf("webhooks: add %q notification for order %s: %w", notification.Title, event.OrderID, err)
		}
		outcome.Notifications++
		r.observer.Count(ctx, core.MetricNotifications, map[string]string{"title": notification.Title})
	}

	if err := r.deliveries.UpdateDelivery(ctx, event.OrderID, plan.Update); err != nil {
		return outcome, fmt.Errorf("webhooks: update delivery %s: %w", event.OrderID, err)
	}
	outcome.Delivered = plan.Update.MarkDelivered
	return outcome, nil
}

// resolve walks delivery -> contract -> event. A missing document degrades to
// an identifier-only value; a store failure aborts.
func (r *Reconciler) resolve(ctx context.Context, orderID string) (core.Delivery, core.Contract, core.Event, error) {
	deliveryLookup, err := r.deliveries.GetDelivery(ctx, orderID)
	if err != nil {
		return core.Delivery{}, core.Contract{}, core.Event{}, fmt.Errorf("webhooks: load delivery %s: %w", orderID, err)
	}
	delivery, found := deliveryLookup.Get()
	if !found {
		r.observer.Warn(ctx, "webhook delivery record not found", map[string]any{"order_id": orderID})
	}
	delivery.OrderID = orderID

	contract := core.Contract{ID: strings.TrimSpace(delivery.ContractID)}
	if contract.ID != "" && r.references != nil {
		lookup, err := r.references.GetContract(ctx, contract.ID)
		if err != nil {
			return delivery, contract, core.Event{}, fmt.Errorf("webhooks: load contract %s: %w", contract.ID, err)
		}
		if value, ok := lookup.Get(); ok {
			contract = value
		} else {
			r.observer.Warn(ctx, "webhook contract record not found", map[string]any{"order_id": orderID, "contract_id": contract.ID})
		}
	}

	owner := core.Event{ID: strings.TrimSpace(contract.EventID)}
	if owner.ID != "" && r.references != nil {
		lookup, err := r.references.GetEvent(ctx, owner.ID)
		if err != nil {
			return delivery, contract, owner, fmt.Errorf("webhooks: load event %s: %w", owner.ID, err)
		}
		if value, ok := lookup.Get(); ok {
			owner = value
		} else {
			r.observer.Warn(ctx, "webhook event record not found", map[string]any{"order_id": orderID, "event_id": owner.ID})
		}
	}
	return delivery, contract, owner, nil
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}

var _ core.Reconciler = (*Reconciler)(nil)
