package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type DeliveryStore interface {
	GetDelivery(ctx context.Context, orderID string) (Lookup[Delivery], error)
	UpdateDelivery(ctx context.Context, orderID string, update DeliveryUpdate) error
}

type ReferenceStore interface {
	GetContract(ctx context.Context, id string) (Lookup[Contract], error)
	GetEvent(ctx context.Context, id string) (Lookup[Event], error)
}

type NotificationStore interface {
	AddNotification(ctx context.Context, in NotificationInput) (Notification, error)
}

const (
	WebhookDeliveryPending   = "pending"
	WebhookDeliveryProcessed = "processed"
	WebhookDeliveryFailed    = "failed"
)

type WebhookDelivery struct {
	ID         string
	ProviderID string
	EventID    string
	Status     string
	Attempts   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// WebhookLedger records provider event ids so redelivered events are
// acknowledged without reapplying side effects. Failed events may be claimed
// again by a later redelivery; the relay never schedules retries itself.
type WebhookLedger interface {
	Claim(ctx context.Context, providerID string, eventID string, payload []byte) (WebhookDelivery, bool, error)
	Complete(ctx context.Context, id string) error
	Fail(ctx context.Context, id string, cause error) error
}

// Reconciler applies one webhook event to persisted state.
type Reconciler interface {
	Reconcile(ctx context.Context, event WebhookEvent) (ReconcileOutcome, error)
}

// TaskDispatcher hands a decoded webhook event to whatever runs reconciliation.
type TaskDispatcher interface {
	Dispatch(ctx context.Context, event WebhookEvent) error
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type InboundRequest struct {
	ProviderID string
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type InboundResult struct {
	Accepted   bool
	StatusCode int
	Metadata   map[string]any
}
