package gojob

import (
	"context"
	"errors"
	"strings"
	"testing"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"

	"github.com/goliatone/go-delivery-relay/core"
)

type recordingHook struct {
	started   int
	succeeded int
	failed    []error
}

func (h *recordingHook) OnStart(context.Context, worker.Event)   { h.started++ }
func (h *recordingHook) OnSuccess(context.Context, worker.Event) { h.succeeded++ }
func (h *recordingHook) OnRetry(context.Context, worker.Event)   {}
func (h *recordingHook) OnFailure(_ context.Context, event worker.Event) {
	h.failed = append(h.failed, event.Err)
}

func TestExecutionMessageRoundTrip(t *testing.T) {
	event := core.WebhookEvent{
		EventID:   "e-1",
		EventType: "ORDER_STATUS_CHANGED",
		OrderID:   "ord-1",
		Status:    "COMPLETED",
		Driver:    map[string]any{"driverId": "drv-7"},
	}
	msg := ToExecutionMessage(event)
	if msg.JobID != JobIDReconcileDelivery {
		t.Fatalf("unexpected job id %q", msg.JobID)
	}
	if msg.IdempotencyKey != JobIDReconcileDelivery+":e-1" {
		t.Fatalf("unexpected idempotency key %q", msg.IdempotencyKey)
	}

	decoded, err := FromExecutionMessage(msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.OrderID != "ord-1" || decoded.Status != "COMPLETED" || decoded.EventID != "e-1" {
		t.Fatalf("unexpected event %#v", decoded)
	}
	if decoded.Driver["driverId"] != "drv-7" {
		t.Fatalf("expected driver payload, got %#v", decoded.Driver)
	}
}

func TestToExecutionMessage_NoDriverNoKey(t *testing.T) {
	msg := ToExecutionMessage(core.WebhookEvent{OrderID: "ord-1", Status: "PICKED_UP"})
	if msg.IdempotencyKey != "" {
		t.Fatalf("expected no idempotency key without event id")
	}
	decoded, err := FromExecutionMessage(msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.HasDriver() {
		t.Fatalf("expected driver to stay absent")
	}
}

func TestFromExecutionMessage_RejectsForeignJobs(t *testing.T) {
	if _, err := FromExecutionMessage(&job.ExecutionMessage{JobID: "other"}); err == nil {
		t.Fatalf("expected job id mismatch error")
	}
	if _, err := FromExecutionMessage(nil); err == nil {
		t.Fatalf("expected nil message error")
	}
}

func TestDispatcherRunsInlineHandlerWithHooks(t *testing.T) {
	hook := &recordingHook{}
	inline := NewInlineQueue(hook)
	var received core.WebhookEvent
	inline.Handle(JobIDReconcileDelivery, func(_ context.Context, msg *job.ExecutionMessage) error {
		event, err := FromExecutionMessage(msg)
		received = event
		return err
	})

	dispatcher := NewDispatcher(inline)
	if err := dispatcher.Dispatch(context.Background(), core.WebhookEvent{OrderID: "ord-1", Status: "ON_GOING"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if received.OrderID != "ord-1" {
		t.Fatalf("expected handler to receive event, got %#v", received)
	}
	if hook.started != 1 || hook.succeeded != 1 || len(hook.failed) != 0 {
		t.Fatalf("unexpected hook calls %#v", hook)
	}
}

func TestInlineQueue_ReportsHandlerFailure(t *testing.T) {
	hook := &recordingHook{}
	inline := NewInlineQueue(hook)
	inline.Handle(JobIDReconcileDelivery, func(context.Context, *job.ExecutionMessage) error {
		return errors.New("reconcile failed")
	})

	err := NewDispatcher(inline).Dispatch(context.Background(), core.WebhookEvent{OrderID: "ord-1"})
	if err == nil {
		t.Fatalf("expected handler error")
	}
	if len(hook.failed) != 1 || hook.failed[0] == nil {
		t.Fatalf("expected failure hook with error, got %#v", hook.failed)
	}
}

func TestInlineQueue_UnknownJob(t *testing.T) {
	if _, err := NewInlineQueue(nil).Enqueue(context.Background(), &job.ExecutionMessage{JobID: "nope"}); err == nil {
		t.Fatalf("expected missing handler error")
	}
}

func TestInlineQueue_EnqueueReturnsReceipt(t *testing.T) {
	inline := NewInlineQueue(nil)
	inline.Handle(JobIDReconcileDelivery, func(context.Context, *job.ExecutionMessage) error { return nil })

	receipt, err := inline.Enqueue(context.Background(), ToExecutionMessage(core.WebhookEvent{EventID: "e-4", OrderID: "ord-4"}))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if receipt.DispatchID != JobIDReconcileDelivery+":e-4" {
		t.Fatalf("expected idempotency key as dispatch id, got %q", receipt.DispatchID)
	}
	if receipt.EnqueuedAt.IsZero() {
		t.Fatalf("expected enqueued_at to be set")
	}

	receipt, err = inline.Enqueue(context.Background(), ToExecutionMessage(core.WebhookEvent{OrderID: "ord-5"}))
	if err != nil {
		t.Fatalf("enqueue without event id: %v", err)
	}
	if !strings.HasPrefix(receipt.DispatchID, JobIDReconcileDelivery+":") || receipt.DispatchID == JobIDReconcileDelivery+":" {
		t.Fatalf("expected generated dispatch id, got %q", receipt.DispatchID)
	}
}

func TestInlineQueue_SatisfiesEnqueuer(t *testing.T) {
	var enqueuer queue.Enqueuer = NewInlineQueue(nil)
	if enqueuer == nil {
		t.Fatalf("expected enqueuer")
	}
}
