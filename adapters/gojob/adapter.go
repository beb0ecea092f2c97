package gojob

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	"github.com/google/uuid"

	"github.com/goliatone/go-delivery-relay/core"
)

const JobIDReconcileDelivery = "relay.delivery.reconcile"

const (
	paramOrderID   = "order_id"
	paramStatus    = "status"
	paramEventID   = "event_id"
	paramEventType = "event_type"
	paramDriver    = "driver"
)

// ToExecutionMessage maps a webhook event onto a go-job message. The provider
// event id becomes the idempotency key when present.
func ToExecutionMessage(event core.WebhookEvent) *job.ExecutionMessage {
	event = event.Normalize()
	params := map[string]any{
		paramOrderID:   event.OrderID,
		paramStatus:    event.Status,
		paramEventID:   event.EventID,
		paramEventType: event.EventType,
	}
	if event.Driver != nil {
		params[paramDriver] = copyAnyMap(event.Driver)
	}
	msg := &job.ExecutionMessage{
		JobID:      JobIDReconcileDelivery,
		Parameters: params,
	}
	if event.EventID != "" {
		msg.IdempotencyKey = JobIDReconcileDelivery + ":" + event.EventID
	}
	return msg
}

// FromExecutionMessage maps a go-job message back into a webhook event.
func FromExecutionMessage(msg *job.ExecutionMessage) (core.WebhookEvent, error) {
	if msg == nil {
		return core.WebhookEvent{}, fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDReconcileDelivery {
		return core.WebhookEvent{}, fmt.Errorf("gojob: unexpected job id %q", msg.JobID)
	}
	event := core.WebhookEvent{
		OrderID:   stringParam(msg.Parameters, paramOrderID),
		Status:    stringParam(msg.Parameters, paramStatus),
		EventID:   stringParam(msg.Parameters, paramEventID),
		EventType: stringParam(msg.Parameters, paramEventType),
	}
	if driver, ok := msg.Parameters[paramDriver].(map[string]any); ok {
		event.Driver = copyAnyMap(driver)
	}
	return event.Normalize(), nil
}

type HandlerFunc func(ctx context.Context, msg *job.ExecutionMessage) error

// InlineQueue satisfies queue.Enqueuer by running the registered handler on
// the enqueuing goroutine. Handler errors are returned to the caller.
type InlineQueue struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	hook     worker.Hook
	now      func() time.Time
}

func NewInlineQueue(hook worker.Hook) *InlineQueue {
	return &InlineQueue{
		handlers: map[string]HandlerFunc{},
		hook:     hook,
		now:      time.Now,
	}
}

func (q *InlineQueue) Handle(jobID string, handler HandlerFunc) {
	if q == nil || handler == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[strings.TrimSpace(jobID)] = handler
}

// Enqueue runs the handler for msg before returning. The receipt dispatch id
// is the idempotency key when the message carries one.
func (q *InlineQueue) Enqueue(ctx context.Context, msg *job.ExecutionMessage) (queue.EnqueueReceipt, error) {
	if q == nil {
		return queue.EnqueueReceipt{}, fmt.Errorf("gojob: queue is not configured")
	}
	if msg == nil {
		return queue.EnqueueReceipt{}, fmt.Errorf("gojob: execution message is required")
	}
	q.mu.RLock()
	handler, ok := q.handlers[strings.TrimSpace(msg.JobID)]
	q.mu.RUnlock()
	if !ok {
		return queue.EnqueueReceipt{}, fmt.Errorf("gojob: no handler registered for %q", msg.JobID)
	}

	startedAt := q.now()
	receipt := queue.EnqueueReceipt{
		DispatchID: dispatchID(msg),
		EnqueuedAt: startedAt,
	}
	event := worker.Event{Message: msg, Attempt: 1, StartedAt: startedAt}
	if q.hook != nil {
		q.hook.OnStart(ctx, event)
	}
	err := handler(ctx, msg)
	event.Duration = q.now().Sub(startedAt)
	event.Err = err
	if q.hook != nil {
		if err != nil {
			q.hook.OnFailure(ctx, event)
		} else {
			q.hook.OnSuccess(ctx, event)
		}
	}
	return receipt, err
}

func dispatchID(msg *job.ExecutionMessage) string {
	if key := strings.TrimSpace(msg.IdempotencyKey); key != "" {
		return key
	}
	return strings.TrimSpace(msg.JobID) + ":" + uuid.NewString()
}

// Dispatcher hands webhook events to a go-job enqueuer.
type Dispatcher struct {
	enqueuer queue.Enqueuer
}

func NewDispatcher(enqueuer queue.Enqueuer) *Dispatcher {
	return &Dispatcher{enqueuer: enqueuer}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event core.WebhookEvent) error {
	if d == nil || d.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	_, err := d.enqueuer.Enqueue(ctx, ToExecutionMessage(event))
	return err
}

// ObserverHook reports job lifecycle through the relay observer.
type ObserverHook struct {
	Observer core.Observer
}

func (h ObserverHook) OnStart(ctx context.Context, event worker.Event) {
	h.Observer.Info(ctx, "job started", eventFields(event))
}

func (h ObserverHook) OnSuccess(ctx context.Context, event worker.Event) {
	h.Observer.Info(ctx, "job succeeded", eventFields(event))
}

func (h ObserverHook) OnFailure(ctx context.Context, event worker.Event) {
	h.Observer.Error(ctx, "job failed", eventFields(event))
}

func (h ObserverHook) OnRetry(ctx context.Context, event worker.Event) {
	h.Observer.Warn(ctx, "job retry scheduled", eventFields(event))
}

func eventFields(event worker.Event) map[string]any {
	fields := map[string]any{
		"attempt":     event.Attempt,
		"duration_ms": event.Duration.Milliseconds(),
	}
	if event.Message != nil {
		fields["job_id"] = event.Message.JobID
		fields["order_id"] = stringParam(event.Message.Parameters, paramOrderID)
		if event.Message.IdempotencyKey != "" {
			fields["idempotency_key"] = event.Message.IdempotencyKey
		}
	}
	if event.Err != nil {
		fields["error"] = event.Err.Error()
	}
	return fields
}

func stringParam(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	switch value := params[key].(type) {
	case string:
		return strings.TrimSpace(value)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var (
	_ queue.Enqueuer      = (*InlineQueue)(nil)
	_ core.TaskDispatcher = (*Dispatcher)(nil)
	_ worker.Hook         = ObserverHook{}
)
