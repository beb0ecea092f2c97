package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-delivery-relay/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type NotificationStore struct {
	repo repository.Repository[*notificationRecord]
	now  func() time.Time
}

func NewNotificationStore(db *bun.DB, opts ...Option) (*NotificationStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*notificationRecord](db, notificationHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid notification repository wiring: %w", err)
		}
	}
	resolved := resolveOptions(opts)
	return &NotificationStore{repo: repo, now: resolved.now}, nil
}

// AddNotification appends a new unread notification with a generated id.
func (s *NotificationStore) AddNotification(ctx context.Context, in core.NotificationInput) (core.Notification, error) {
	if s == nil || s.repo == nil {
		return core.Notification{}, fmt.Errorf("sqlstore: notification store is not configured")
	}
	if strings.TrimSpace(in.Title) == "" {
		return core.Notification{}, fmt.Errorf("sqlstore: notification title is required")
	}
	record := newNotificationRecord(in, uuid.NewString(), s.now())
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Notification{}, err
	}
	return created.toDomain(), nil
}

func (s *NotificationStore) ListByReceiver(ctx context.Context, receiverID string) ([]core.Notification, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: notification store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("receiver_id", "=", strings.TrimSpace(receiverID)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Notification, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *NotificationStore) ListByReference(ctx context.Context, referencedID string) ([]core.Notification, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: notification store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("referenced_type", "=", core.ReferencedTypeContract),
		repository.SelectBy("referenced_id", "=", strings.TrimSpace(referencedID)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Notification, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}
