package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrDeliveryNotFound = errors.New("core: delivery not found")
	ErrOrderIDRequired  = errors.New("core: order id is required")
)

// DeliveryStatus is the internal status vocabulary persisted on delivery records.
type DeliveryStatus string

const (
	DeliveryStatusAssigningDriver DeliveryStatus = "Assigning Driver"
	DeliveryStatusDriverAssigned  DeliveryStatus = "Driver Assigned"
	DeliveryStatusPickedUp        DeliveryStatus = "Picked Up"
	DeliveryStatusOnGoing         DeliveryStatus = "On Going"
	DeliveryStatusDelivered       DeliveryStatus = "Delivered"
	DeliveryStatusCanceled        DeliveryStatus = "Canceled"
)

// Provider lifecycle codes carried in data.order.status of webhook payloads.
const (
	ProviderStatusDriverAssigned = "DRIVER_ASSIGNED"
	ProviderStatusPickedUp       = "PICKED_UP"
	ProviderStatusOnGoing        = "ON_GOING"
	ProviderStatusDelivered      = "DELIVERED"
	ProviderStatusCanceled       = "CANCELED"
	ProviderStatusCompleted      = "COMPLETED"
)

const ReferencedTypeContract = "contract"

// Delivery is keyed by the provider order id. Records are created outside the
// relay when an order is placed; the relay only mutates them from webhooks.
type Delivery struct {
	OrderID     string
	Status      DeliveryStatus
	ContractID  string
	SupplierID  string
	Courier     map[string]any
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeliveredAt *time.Time
}

type Contract struct {
	ID         string
	EventID    string
	SupplierID string
}

type Event struct {
	ID     string
	Name   string
	UserID string
}

// DeliveryUpdate is applied unconditionally. UpdatedAt is always assigned by the
// store clock; DeliveredAt only when MarkDelivered is set.
type DeliveryUpdate struct {
	Status        DeliveryStatus
	Courier       map[string]any
	MarkDelivered bool
}

type NotificationInput struct {
	Avatar         string
	Title          string
	Message        string
	ReferencedType string
	ReferencedID   string
	SenderID       string
	ReceiverID     string
}

// Notification is append-only. Unread is always true at creation.
type Notification struct {
	ID             string
	Avatar         string
	Title          string
	Message        string
	ReferencedType string
	ReferencedID   string
	SenderID       string
	ReceiverID     string
	Unread         bool
	CreatedAt      time.Time
}

// WebhookEvent is one decoded provider delivery-status callback.
type WebhookEvent struct {
	EventID   string
	EventType string
	OrderID   string
	// Status is the provider lifecycle code that drives reconciliation.
	Status string
	Driver map[string]any
}

func (e WebhookEvent) Normalize() WebhookEvent {
	e.EventID = strings.TrimSpace(e.EventID)
	e.EventType = strings.TrimSpace(e.EventType)
	e.OrderID = strings.TrimSpace(e.OrderID)
	e.Status = strings.TrimSpace(e.Status)
	return e
}

func (e WebhookEvent) HasDriver() bool {
	return e.Driver != nil
}

type ReconcileOutcome struct {
	OrderID       string
	Status        DeliveryStatus
	Skipped       bool
	Notifications int
	Delivered     bool
}

// Lookup is the result of a best-effort document read. A missing document is
// not an error: Value carries only the requested identifier.
type Lookup[T any] struct {
	Value T
	Found bool
}

func Found[T any](value T) Lookup[T] {
	return Lookup[T]{Value: value, Found: true}
}

func Missing[T any](value T) Lookup[T] {
	return Lookup[T]{Value: value}
}

func (l Lookup[T]) Get() (T, bool) {
	return l.Value, l.Found
}
