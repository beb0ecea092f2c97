package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-delivery-relay/core"
	"github.com/uptrace/bun"
)

type Option func(*storeOptions)

type storeOptions struct {
	now func() time.Time
}

// WithClock overrides the clock used for updated_at, delivered_at and
// created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

func resolveOptions(opts []Option) storeOptions {
	resolved := storeOptions{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}
	return resolved
}

type DeliveryStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewDeliveryStore(db *bun.DB, opts ...Option) (*DeliveryStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	resolved := resolveOptions(opts)
	return &DeliveryStore{db: db, now: resolved.now}, nil
}

// CreateDelivery inserts the record an order placement leaves behind. The
// relay itself never creates deliveries from webhooks.
func (s *DeliveryStore) CreateDelivery(ctx context.Context, in core.Delivery) (core.Delivery, error) {
	if s == nil || s.db == nil {
		return core.Delivery{}, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	if strings.TrimSpace(in.OrderID) == "" {
		return core.Delivery{}, core.ErrOrderIDRequired
	}
	record := newDeliveryRecord(in, s.now())
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.Delivery{}, err
	}
	return record.toDomain(), nil
}

func (s *DeliveryStore) GetDelivery(ctx context.Context, orderID string) (core.Lookup[core.Delivery], error) {
	if s == nil || s.db == nil {
		return core.Lookup[core.Delivery]{}, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return core.Lookup[core.Delivery]{}, core.ErrOrderIDRequired
	}
	record := &deliveryRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", orderID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Missing(core.Delivery{OrderID: orderID}), nil
		}
		return core.Lookup[core.Delivery]{}, err
	}
	return core.Found(record.toDomain()), nil
}

// UpdateDelivery overwrites status unconditionally. Courier is only touched
// when the update carries one. delivered_at is set by the first update with
// MarkDelivered and kept afterwards.
func (s *DeliveryStore) UpdateDelivery(ctx context.Context, orderID string, update core.DeliveryUpdate) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: delivery store is not configured")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return core.ErrOrderIDRequired
	}
	now := s.now().UTC()
	query := s.db.NewUpdate().
		Model((*deliveryRecord)(nil)).
		Set("status = ?", string(update.Status)).
		Set("updated_at = ?", now)
	if update.Courier != nil {
		courier, err := json.Marshal(update.Courier)
		if err != nil {
			return fmt.Errorf("sqlstore: encode courier: %w", err)
		}
		query = query.Set("courier = ?", string(courier))
	}
	if update.MarkDelivered {
		query = query.Set("delivered_at = COALESCE(delivered_at, ?)", now)
	}
	result, err := query.Where("id = ?", orderID).Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", core.ErrDeliveryNotFound, orderID)
	}
	return nil
}
