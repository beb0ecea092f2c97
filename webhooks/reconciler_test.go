package webhooks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-delivery-relay/core"
)

var fixedTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		code string
		want core.DeliveryStatus
	}{
		{code: "DRIVER_ASSIGNED", want: "Driver Assigned"},
		{code: "PICKED_UP", want: "Picked Up"},
		{code: "ON_GOING", want: "On Going"},
		{code: "DELIVERED", want: "Delivered"},
		{code: "CANCELED", want: "Canceled"},
		{code: "COMPLETED", want: "Delivered"},
		{code: "REJECTED", want: "Assigning Driver"},
		{code: "", want: "Assigning Driver"},
		{code: "driver_assigned", want: "Assigning Driver"},
	}
	for _, tt := range tests {
		if got := MapStatus(tt.code); got != tt.want {
			t.Fatalf("MapStatus(%q): expected %q, got %q", tt.code, tt.want, got)
		}
	}
}

func TestBuildPlan_StatusOnlyEvent(t *testing.T) {
	plan := BuildPlan(core.WebhookEvent{OrderID: "ord-1", Status: "PICKED_UP"}, core.Delivery{}, core.Contract{}, core.Event{})
	if plan.Update.Status != core.DeliveryStatusPickedUp {
		t.Fatalf("unexpected status %q", plan.Update.Status)
	}
	if plan.Update.Courier != nil || plan.Update.MarkDelivered || len(plan.Notifications) != 0 {
		t.Fatalf("expected status-only plan, got %#v", plan)
	}
}

func TestReconcile_MissingOrderIDTouchesNothing(t *testing.T) {
	store := seededStore()
	outcome, err := store.newReconciler().Reconcile(context.Background(), core.WebhookEvent{Status: "COMPLETED"})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !outcome.Skipped {
		t.Fatalf("expected skipped outcome")
	}
	if store.reads != 0 || store.writes != 0 {
		t.Fatalf("expected zero store calls, got %d reads %d writes", store.reads, store.writes)
	}
}

func TestReconcile_DriverAssigned(t *testing.T) {
	store := seededStore()
	driver := map[string]any{"driverId": "drv-7", "name": "Juan", "phone": "+639171234567"}

	outcome, err := store.newReconciler().Reconcile(context.Background(), core.WebhookEvent{
		OrderID: "ord-1",
		Status:  "DRIVER_ASSIGNED",
		Driver:  driver,
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	delivery := store.deliveries["ord-1"]
	if delivery.Status != core.DeliveryStatusDriverAssigned {
		t.Fatalf("expected Driver Assigned, got %q", delivery.Status)
	}
	if delivery.Courier["driverId"] != "drv-7" || delivery.Courier["name"] != "Juan" {
		t.Fatalf("expected courier set from driver payload, got %#v", delivery.Courier)
	}
	if delivery.UpdatedAt == nil {
		t.Fatalf("expected updated_at to be assigned")
	}
	if delivery.DeliveredAt != nil {
		t.Fatalf("expected delivered_at to stay unset")
	}
	if len(store.notifications) != 1 || outcome.Notifications != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(store.notifications))
	}
	notification := store.notifications[0]
	if notification.ReceiverID != "sup-1" || notification.Title != TitleDriverAssigned {
		t.Fatalf("unexpected notification %#v", notification)
	}
	if notification.Message != "A driver has been assigned for your delivery (Order ID: ord-1)." {
		t.Fatalf("unexpected message %q", notification.Message)
	}
	if notification.ReferencedType != core.ReferencedTypeContract || notification.ReferencedID != "ctr-1" || notification.Avatar != "D" {
		t.Fatalf("unexpected reference fields %#v", notification)
	}
}

func TestReconcile_CompletedWritesTwoNotificationsWithoutDriver(t *testing.T) {
	store := seededStore()

	outcome, err := store.newReconciler().Reconcile(context.Background(), core.WebhookEvent{OrderID: "ord-1", Status: "COMPLETED"})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	delivery := store.deliveries["ord-1"]
	if delivery.Status != core.DeliveryStatusDelivered {
		t.Fatalf("expected Delivered, got %q", delivery.Status)
	}
	if delivery.DeliveredAt == nil || !outcome.Delivered {
		t.Fatalf("expected delivered_at to be set")
	}
	if len(store.notifications) != 2 {
		t.Fatalf("expected two notifications, got %d", len(store.notifications))
	}

	supplier := store.notifications[0]
	if supplier.ReceiverID != "sup-1" || supplier.Title != TitleDriverDelivered || supplier.SenderID != "evt-1" {
		t.Fatalf("unexpected supplier notification %#v", supplier)
	}
	wantDelivered := `The item for the event "Spring Gala" has been successfully delivered. Contract ID: "ctr-1".`
	if supplier.Message != wantDelivered {
		t.Fatalf("unexpected supplier message %q", supplier.Message)
	}
	owner := store.notifications[1]
	if owner.ReceiverID != "usr-1" || owner.Title != TitleDeliveryArrived {
		t.Fatalf("unexpected owner notification %#v", owner)
	}
	if !strings.Contains(owner.Message, `Contract ID: "ctr-1"`) {
		t.Fatalf("unexpected owner message %q", owner.Message)
	}
}

func TestReconcile_CompletedWithDriverWritesThreeNotifications(t *testing.T) {
	store := seededStore()
	_, err := store.newReconciler().Reconcile(context.Background(), core.WebhookEvent{
		OrderID: "ord-1",
		Status:  "COMPLETED",
		Driver:  map[string]any{"driverId": "drv-7"},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(store.notifications) != 3 {
		t.Fatalf("expected driver plus completion notifications, got %d", len(store.notifications))
	}
	if store.notifications[0].Title != TitleDriverAssigned {
		t.Fatalf("expected driver notification first, got %q", store.notifications[0].Title)
	}
}

func TestReconcile_NonMonotonicOverwriteIsAllowed(t *testing.T) {
	store := seededStore()
	reconciler := store.newReconciler()
	for _, code := range []string{"COMPLETED", "ON_GOING"} {
		if _, err := reconciler.Reconcile(context.Background(), core.WebhookEvent{OrderID: "ord-1", Status: code}); err != nil {
			t.Fatalf("reconcile %s: %v", code, err)
		}
	}
	if got := store.deliveries["ord-1"].Status; got != core.DeliveryStatusOnGoing {
		t.Fatalf("expected later event to overwrite status, got %q", got)
	}
}

func TestReconcile_MissingReferencesDoNotPanic(t *testing.T) {
	store := newMemoryStore()
	store.deliveries["ord-2"] = core.Delivery{OrderID: "ord-2", ContractID: "ctr-missing", SupplierID: "sup-2"}

	outcome, err := store.newReconciler().Reconcile(context.Background(), core.WebhookEvent{OrderID: "ord-2", Status: "COMPLETED"})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if outcome.Notifications != 2 {
		t.Fatalf("expected notifications to still be written, got %d", outcome.Notifications)
	}
	if store.notifications[0].ReferencedID != "ctr-missing" {
		t.Fatalf("expected identifier-only contract to keep its id, got %q", store.notifications[0].ReferencedID)
	}
	if store.notifications[1].ReceiverID != "" {
		t.Fatalf("expected absent event owner, got %q", store.notifications[1].ReceiverID)
	}
	// delivery + contract; no event read because the contract had no event id
	if store.reads != 2 {
		t.Fatalf("expected two reads, got %d", store.reads)
	}
}

func TestReconcile_MissingDeliveryReportsUpdateFailure(t *testing.T) {
	store := newMemoryStore()
	_, err := store.newReconciler().Reconcile(context.Background(), core.WebhookEvent{OrderID: "ghost", Status: "PICKED_UP"})
	if !errors.Is(err, core.ErrDeliveryNotFound) {
		t.Fatalf("expected delivery not found from update, got %v", err)
	}
	if store.reads != 1 {
		t.Fatalf("expected only the delivery read, got %d", store.reads)
	}
}

func TestReconcile_NotificationFailureStopsBeforeUpdate(t *testing.T) {
	store := seededStore()
	store.failNotificationAt = 2

	outcome, err := store.newReconciler().Reconcile(context.Background(), core.WebhookEvent{OrderID: "ord-1", Status: "COMPLETED"})
	if err == nil {
		t.Fatalf("expected notification failure")
	}
	if outcome.Notifications != 1 || len(store.notifications) != 1 {
		t.Fatalf("expected the first notification to be kept, got %d", len(store.notifications))
	}
	if len(store.updates) != 0 {
		t.Fatalf("expected delivery update to be skipped")
	}
	if store.deliveries["ord-1"].Status != core.DeliveryStatusAssigningDriver {
		t.Fatalf("expected delivery status untouched")
	}
}

func TestReconcile_ReadFailureAborts(t *testing.T) {
	store := seededStore()
	store.failRead = errors.New("store unavailable")
	if _, err := store.newReconciler().Reconcile(context.Background(), core.WebhookEvent{OrderID: "ord-1", Status: "PICKED_UP"}); err == nil {
		t.Fatalf("expected read failure to abort reconciliation")
	}
	if store.writes != 0 {
		t.Fatalf("expected no writes after read failure, got %d", store.writes)
	}
}
