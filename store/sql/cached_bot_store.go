package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-botdir/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const botCacheKeyPrefix = "go-botdir::bot::v1"

// CachedBotStore layers a read cache over bot lookups by id and DID, the hot
// path for public directory reads. Writes go through to the base store and
// invalidate both keys.
type CachedBotStore struct {
	base  core.BotStore
	cache repositorycache.CacheService
}

func NewCachedBotStore(base core.BotStore, cacheService repositorycache.CacheService) (*CachedBotStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base bot store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: bot cache service is required")
	}
	return &CachedBotStore{base: base, cache: cacheService}, nil
}

// BotCacheKey returns the deterministic cache key for one bot lookup:
// go-botdir::bot::v1::<field>::<value> with the value URL-path escaped.
func BotCacheKey(field, value string) string {
	return strings.Join([]string{botCacheKeyPrefix, field, url.PathEscape(strings.TrimSpace(value))}, "::")
}

func (s *CachedBotStore) GetByID(ctx context.Context, id string) (core.Bot, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Bot{}, fmt.Errorf("sqlstore: cached bot store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, BotCacheKey("id", id), func(ctx context.Context) (core.Bot, error) {
		return s.base.GetByID(ctx, id)
	})
}

func (s *CachedBotStore) GetByDID(ctx context.Context, did string) (core.Bot, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Bot{}, fmt.Errorf("sqlstore: cached bot store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, BotCacheKey("did", did), func(ctx context.Context) (core.Bot, error) {
		return s.base.GetByDID(ctx, did)
	})
}

func (s *CachedBotStore) Create(ctx context.Context, bot core.Bot) (core.Bot, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Bot{}, fmt.Errorf("sqlstore: cached bot store is not configured")
	}
	created, err := s.base.Create(ctx, bot)
	if err != nil {
		return core.Bot{}, err
	}
	return created, s.invalidate(ctx, created)
}

func (s *CachedBotStore) Update(ctx context.Context, bot core.Bot) (core.Bot, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Bot{}, fmt.Errorf("sqlstore: cached bot store is not configured")
	}
	updated, err := s.base.Update(ctx, bot)
	if err != nil {
		return core.Bot{}, err
	}
	return updated, s.invalidate(ctx, updated)
}

// List is uncached: filters and pagination fan out too widely for key-based
// invalidation to stay correct.
func (s *CachedBotStore) List(ctx context.Context, filter core.BotFilter) (core.BotPage, error) {
	if s == nil || s.base == nil {
		return core.BotPage{}, fmt.Errorf("sqlstore: cached bot store is not configured")
	}
	return s.base.List(ctx, filter)
}

func (s *CachedBotStore) ActivateIfDraft(ctx context.Context, id string) (bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return false, fmt.Errorf("sqlstore: cached bot store is not configured")
	}
	activated, err := s.base.ActivateIfDraft(ctx, id)
	if err != nil {
		return false, err
	}
	if activated {
		if err := s.invalidateByID(ctx, id); err != nil {
			return activated, err
		}
	}
	return activated, nil
}

func (s *CachedBotStore) SetTrustBadge(ctx context.Context, id string, badge core.TrustBadge) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached bot store is not configured")
	}
	if err := s.base.SetTrustBadge(ctx, id, badge); err != nil {
		return err
	}
	return s.invalidateByID(ctx, id)
}

func (s *CachedBotStore) ListStaleManifests(ctx context.Context, cutoff time.Time, limit int) ([]core.Bot, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached bot store is not configured")
	}
	return s.base.ListStaleManifests(ctx, cutoff, limit)
}

func (s *CachedBotStore) invalidate(ctx context.Context, bot core.Bot) error {
	if err := s.cache.Delete(ctx, BotCacheKey("id", bot.ID)); err != nil {
		return err
	}
	return s.cache.Delete(ctx, BotCacheKey("did", bot.DID))
}

// invalidateByID also drops the DID key, which requires one base read; badge
// and activation writes are rare enough that the extra read does not matter.
func (s *CachedBotStore) invalidateByID(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, BotCacheKey("id", id)); err != nil {
		return err
	}
	bot, err := s.base.GetByID(ctx, id)
	if err != nil {
		return nil
	}
	return s.cache.Delete(ctx, BotCacheKey("did", bot.DID))
}

var _ core.BotStore = (*CachedBotStore)(nil)
