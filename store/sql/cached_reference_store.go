package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-delivery-relay/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const referenceCacheKeyPrefix = "delivery-relay::reference::v1"

var errReferenceMissing = errors.New("sqlstore: reference missing")

// CachedReferenceStore fronts contract and event reads with a cache. Missing
// documents are never cached so a record created later is picked up.
type CachedReferenceStore struct {
	base  core.ReferenceStore
	cache repositorycache.CacheService
}

func NewCachedReferenceStore(
	base core.ReferenceStore,
	cacheService repositorycache.CacheService,
) (*CachedReferenceStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base reference store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: reference cache service is required")
	}
	return &CachedReferenceStore{base: base, cache: cacheService}, nil
}

// ReferenceCacheKey returns delivery-relay::reference::v1::<kind>::<id> with
// the id URL-path escaped.
func ReferenceCacheKey(kind string, id string) string {
	return strings.Join([]string{
		referenceCacheKeyPrefix,
		strings.TrimSpace(kind),
		url.PathEscape(strings.TrimSpace(id)),
	}, "::")
}

func (s *CachedReferenceStore) GetContract(ctx context.Context, id string) (core.Lookup[core.Contract], error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Lookup[core.Contract]{}, fmt.Errorf("sqlstore: cached reference store is not configured")
	}
	id = strings.TrimSpace(id)
	contract, err := repositorycache.GetOrFetch(ctx, s.cache, ReferenceCacheKey("contract", id),
		func(ctx context.Context) (core.Contract, error) {
			lookup, fetchErr := s.base.GetContract(ctx, id)
			if fetchErr != nil {
				return core.Contract{}, fetchErr
			}
			if !lookup.Found {
				return core.Contract{}, errReferenceMissing
			}
			return lookup.Value, nil
		})
	if err != nil {
		if errors.Is(err, errReferenceMissing) {
			return core.Missing(core.Contract{ID: id}), nil
		}
		return core.Lookup[core.Contract]{}, err
	}
	return core.Found(contract), nil
}

func (s *CachedReferenceStore) GetEvent(ctx context.Context, id string) (core.Lookup[core.Event], error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Lookup[core.Event]{}, fmt.Errorf("sqlstore: cached reference store is not configured")
	}
	id = strings.TrimSpace(id)
	event, err := repositorycache.GetOrFetch(ctx, s.cache, ReferenceCacheKey("event", id),
		func(ctx context.Context) (core.Event, error) {
			lookup, fetchErr := s.base.GetEvent(ctx, id)
			if fetchErr != nil {
				return core.Event{}, fetchErr
			}
			if !lookup.Found {
				return core.Event{}, errReferenceMissing
			}
			return lookup.Value, nil
		})
	if err != nil {
		if errors.Is(err, errReferenceMissing) {
			return core.Missing(core.Event{ID: id}), nil
		}
		return core.Lookup[core.Event]{}, err
	}
	return core.Found(event), nil
}

// Invalidate drops a cached contract or event after it was rewritten.
func (s *CachedReferenceStore) Invalidate(ctx context.Context, kind string, id string) error {
	if s == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached reference store is not configured")
	}
	return s.cache.Delete(ctx, ReferenceCacheKey(kind, id))
}
