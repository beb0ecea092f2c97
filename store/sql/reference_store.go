package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-delivery-relay/core"
	"github.com/uptrace/bun"
)

// ReferenceStore reads the contract and event documents a delivery points at.
// The relay never writes them outside of seeding.
type ReferenceStore struct {
	db *bun.DB
}

func NewReferenceStore(db *bun.DB) (*ReferenceStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &ReferenceStore{db: db}, nil
}

func (s *ReferenceStore) GetContract(ctx context.Context, id string) (core.Lookup[core.Contract], error) {
	if s == nil || s.db == nil {
		return core.Lookup[core.Contract]{}, fmt.Errorf("sqlstore: reference store is not configured")
	}
	id = strings.TrimSpace(id)
	record := &contractRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Missing(core.Contract{ID: id}), nil
		}
		return core.Lookup[core.Contract]{}, err
	}
	return core.Found(record.toDomain()), nil
}

func (s *ReferenceStore) GetEvent(ctx context.Context, id string) (core.Lookup[core.Event], error) {
	if s == nil || s.db == nil {
		return core.Lookup[core.Event]{}, fmt.Errorf("sqlstore: reference store is not configured")
	}
	id = strings.TrimSpace(id)
	record := &eventRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Missing(core.Event{ID: id}), nil
		}
		return core.Lookup[core.Event]{}, err
	}
	return core.Found(record.toDomain()), nil
}

func (s *ReferenceStore) SaveContract(ctx context.Context, in core.Contract) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: reference store is not configured")
	}
	record := &contractRecord{
		ID:         strings.TrimSpace(in.ID),
		EventID:    strings.TrimSpace(in.EventID),
		SupplierID: strings.TrimSpace(in.SupplierID),
	}
	if record.ID == "" {
		return fmt.Errorf("sqlstore: contract id is required")
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("event_id = EXCLUDED.event_id").
		Set("supplier_id = EXCLUDED.supplier_id").
		Exec(ctx)
	return err
}

func (s *ReferenceStore) SaveEvent(ctx context.Context, in core.Event) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: reference store is not configured")
	}
	record := &eventRecord{
		ID:     strings.TrimSpace(in.ID),
		Name:   in.Name,
		UserID: strings.TrimSpace(in.UserID),
	}
	if record.ID == "" {
		return fmt.Errorf("sqlstore: event id is required")
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("event_name = EXCLUDED.event_name").
		Set("user_id = EXCLUDED.user_id").
		Exec(ctx)
	return err
}
