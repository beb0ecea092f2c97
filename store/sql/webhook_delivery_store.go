package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-delivery-relay/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const maxLastErrorLength = 1024

type WebhookDeliveryStore struct {
	db   *bun.DB
	repo repository.Repository[*webhookDeliveryRecord]
	now  func() time.Time
}

func NewWebhookDeliveryStore(db *bun.DB, opts ...Option) (*WebhookDeliveryStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*webhookDeliveryRecord](db, webhookDeliveryHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid webhook delivery repository wiring: %w", err)
		}
	}
	resolved := resolveOptions(opts)
	return &WebhookDeliveryStore{
		db:   db,
		repo: repo,
		now:  resolved.now,
	}, nil
}

// Claim records the first sighting of an event. A second sighting returns the
// existing row unclaimed, except when the earlier attempt failed: that row is
// moved back to pending and handed out again.
func (s *WebhookDeliveryStore) Claim(
	ctx context.Context,
	providerID string,
	eventID string,
	payload []byte,
) (core.WebhookDelivery, bool, error) {
	if s == nil || s.db == nil {
		return core.WebhookDelivery{}, false, fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	providerID = strings.TrimSpace(providerID)
	eventID = strings.TrimSpace(eventID)
	if providerID == "" || eventID == "" {
		return core.WebhookDelivery{}, false, fmt.Errorf("sqlstore: provider id and event id are required")
	}

	now := s.now().UTC()
	record := &webhookDeliveryRecord{
		ID:         uuid.NewString(),
		ProviderID: providerID,
		EventID:    eventID,
		Status:     core.WebhookDeliveryPending,
		Attempts:   1,
		Payload:    append([]byte(nil), payload...),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if !isUniqueViolation(err) {
			return core.WebhookDelivery{}, false, err
		}
		return s.reclaim(ctx, providerID, eventID, now)
	}
	return record.toDomain(), true, nil
}

func (s *WebhookDeliveryStore) reclaim(
	ctx context.Context,
	providerID string,
	eventID string,
	now time.Time,
) (core.WebhookDelivery, bool, error) {
	existing, err := s.find(ctx, providerID, eventID)
	if err != nil {
		return core.WebhookDelivery{}, false, err
	}
	if existing.Status != core.WebhookDeliveryFailed {
		return existing.toDomain(), false, nil
	}

	result, err := s.db.NewUpdate().
		Model((*webhookDeliveryRecord)(nil)).
		Set("status = ?", core.WebhookDeliveryPending).
		Set("attempts = attempts + 1").
		Set("updated_at = ?", now).
		Where("id = ?", existing.ID).
		Where("status = ?", core.WebhookDeliveryFailed).
		Exec(ctx)
	if err != nil {
		return core.WebhookDelivery{}, false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return core.WebhookDelivery{}, false, err
	}
	if affected == 0 {
		// another redelivery won the race
		return existing.toDomain(), false, nil
	}
	existing.Status = core.WebhookDeliveryPending
	existing.Attempts++
	existing.UpdatedAt = now
	return existing.toDomain(), true, nil
}

func (s *WebhookDeliveryStore) Get(ctx context.Context, providerID string, eventID string) (core.WebhookDelivery, error) {
	if s == nil || s.db == nil {
		return core.WebhookDelivery{}, fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	record, err := s.find(ctx, strings.TrimSpace(providerID), strings.TrimSpace(eventID))
	if err != nil {
		return core.WebhookDelivery{}, err
	}
	return record.toDomain(), nil
}

func (s *WebhookDeliveryStore) Complete(ctx context.Context, id string) error {
	return s.settle(ctx, id, core.WebhookDeliveryProcessed, "")
}

func (s *WebhookDeliveryStore) Fail(ctx context.Context, id string, cause error) error {
	message := ""
	if cause != nil {
		message = cause.Error()
		if len(message) > maxLastErrorLength {
			message = message[:maxLastErrorLength]
		}
	}
	return s.settle(ctx, id, core.WebhookDeliveryFailed, message)
}

func (s *WebhookDeliveryStore) ListByStatus(ctx context.Context, status string) ([]core.WebhookDelivery, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("status", "=", strings.TrimSpace(status)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.WebhookDelivery, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *WebhookDeliveryStore) settle(ctx context.Context, id string, status string, lastError string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: webhook delivery id is required")
	}
	_, err := s.db.NewUpdate().
		Model((*webhookDeliveryRecord)(nil)).
		Set("status = ?", status).
		Set("last_error = ?", lastError).
		Set("updated_at = ?", s.now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (s *WebhookDeliveryStore) find(ctx context.Context, providerID string, eventID string) (*webhookDeliveryRecord, error) {
	record := &webhookDeliveryRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.provider_id = ?", providerID).
		Where("?TableAlias.event_id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf(
				"sqlstore: webhook delivery not found for provider %q event %q",
				providerID,
				eventID,
			)
		}
		return nil, err
	}
	return record, nil
}

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
