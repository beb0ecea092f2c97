package webhooks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-delivery-relay/core"
)

type memoryStore struct {
	mu            sync.Mutex
	deliveries    map[string]core.Delivery
	contracts     map[string]core.Contract
	events        map[string]core.Event
	notifications []core.NotificationInput
	updates       []core.DeliveryUpdate

	reads  int
	writes int

	failNotificationAt int
	failUpdate         error
	failRead           error
	notFoundOnUpdate   bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		deliveries: map[string]core.Delivery{},
		contracts:  map[string]core.Contract{},
		events:     map[string]core.Event{},
	}
}

func seededStore() *memoryStore {
	store := newMemoryStore()
	store.deliveries["ord-1"] = core.Delivery{
		OrderID:    "ord-1",
		Status:     core.DeliveryStatusAssigningDriver,
		ContractID: "ctr-1",
		SupplierID: "sup-1",
	}
	store.contracts["ctr-1"] = core.Contract{ID: "ctr-1", EventID: "evt-1", SupplierID: "sup-1"}
	store.events["evt-1"] = core.Event{ID: "evt-1", Name: "Spring Gala", UserID: "usr-1"}
	return store
}

func (s *memoryStore) GetDelivery(_ context.Context, orderID string) (core.Lookup[core.Delivery], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.failRead != nil {
		return core.Lookup[core.Delivery]{}, s.failRead
	}
	if delivery, ok := s.deliveries[orderID]; ok {
		return core.Found(delivery), nil
	}
	return core.Missing(core.Delivery{OrderID: orderID}), nil
}

func (s *memoryStore) UpdateDelivery(_ context.Context, orderID string, update core.DeliveryUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.failUpdate != nil {
		return s.failUpdate
	}
	delivery, ok := s.deliveries[orderID]
	if !ok {
		return core.ErrDeliveryNotFound
	}
	s.updates = append(s.updates, update)
	delivery.Status = update.Status
	if update.Courier != nil {
		delivery.Courier = update.Courier
	}
	stamp := fixedTime
	delivery.UpdatedAt = &stamp
	if update.MarkDelivered {
		delivery.DeliveredAt = &stamp
	}
	s.deliveries[orderID] = delivery
	return nil
}

func (s *memoryStore) GetContract(_ context.Context, id string) (core.Lookup[core.Contract], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if contract, ok := s.contracts[id]; ok {
		return core.Found(contract), nil
	}
	return core.Missing(core.Contract{ID: id}), nil
}

func (s *memoryStore) GetEvent(_ context.Context, id string) (core.Lookup[core.Event], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if event, ok := s.events[id]; ok {
		return core.Found(event), nil
	}
	return core.Missing(core.Event{ID: id}), nil
}

func (s *memoryStore) AddNotification(_ context.Context, in core.NotificationInput) (core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.failNotificationAt > 0 && len(s.notifications)+1 == s.failNotificationAt {
		return core.Notification{}, errors.New("notification insert failed")
	}
	s.notifications = append(s.notifications, in)
	return core.Notification{
		ID:             fmt.Sprintf("ntf-%d", len(s.notifications)),
		Avatar:         in.Avatar,
		Title:          in.Title,
		Message:        in.Message,
		ReferencedType: in.ReferencedType,
		ReferencedID:   in.ReferencedID,
		SenderID:       in.SenderID,
		ReceiverID:     in.ReceiverID,
		Unread:         true,
		CreatedAt:      fixedTime,
	}, nil
}

func (s *memoryStore) newReconciler() *Reconciler {
	return NewReconciler(s, s, s)
}

type memoryLedger struct {
	mu        sync.Mutex
	records   map[string]core.WebhookDelivery
	completed []string
	failed    []string
	claimErr  error
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{records: map[string]core.WebhookDelivery{}}
}

func (l *memoryLedger) Claim(_ context.Context, providerID string, eventID string, _ []byte) (core.WebhookDelivery, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.claimErr != nil {
		return core.WebhookDelivery{}, false, l.claimErr
	}
	key := providerID + "/" + eventID
	if existing, ok := l.records[key]; ok && existing.Status != core.WebhookDeliveryFailed {
		return existing, false, nil
	}
	record := core.WebhookDelivery{
		ID:         key,
		ProviderID: providerID,
		EventID:    eventID,
		Status:     core.WebhookDeliveryPending,
		Attempts:   l.records[key].Attempts + 1,
	}
	l.records[key] = record
	return record, true, nil
}

func (l *memoryLedger) Complete(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	record := l.records[id]
	record.Status = core.WebhookDeliveryProcessed
	l.records[id] = record
	l.completed = append(l.completed, id)
	return nil
}

func (l *memoryLedger) Fail(_ context.Context, id string, _ error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	record := l.records[id]
	record.Status = core.WebhookDeliveryFailed
	l.records[id] = record
	l.failed = append(l.failed, id)
	return nil
}
