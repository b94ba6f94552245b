package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-botdir/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

type stubBotStore struct {
	mu            sync.Mutex
	bot           core.Bot
	getByIDCalls  int
	getByDIDCalls int
	getErr        error
}

func (s *stubBotStore) Create(_ context.Context, bot core.Bot) (core.Bot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bot = bot
	return bot, nil
}

func (s *stubBotStore) GetByID(_ context.Context, id string) (core.Bot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getByIDCalls++
	if s.getErr != nil {
		return core.Bot{}, s.getErr
	}
	if s.bot.ID != id {
		return core.Bot{}, core.ErrBotNotFound
	}
	return s.bot, nil
}

func (s *stubBotStore) GetByDID(_ context.Context, did string) (core.Bot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getByDIDCalls++
	if s.getErr != nil {
		return core.Bot{}, s.getErr
	}
	if s.bot.DID != did {
		return core.Bot{}, core.ErrBotNotFound
	}
	return s.bot, nil
}

func (s *stubBotStore) Update(_ context.Context, bot core.Bot) (core.Bot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bot = bot
	return bot, nil
}

func (s *stubBotStore) List(_ context.Context, _ core.BotFilter) (core.BotPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.BotPage{Bots: []core.Bot{s.bot}, Total: 1}, nil
}

func (s *stubBotStore) ActivateIfDraft(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bot.ID == id && s.bot.ListingStatus == core.ListingStatusDraft {
		s.bot.ListingStatus = core.ListingStatusActive
		return true, nil
	}
	return false, nil
}

func (s *stubBotStore) SetTrustBadge(_ context.Context, id string, badge core.TrustBadge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bot.ID != id {
		return core.ErrBotNotFound
	}
	s.bot.TrustBadge = badge
	return nil
}

func (s *stubBotStore) ListStaleManifests(_ context.Context, _ time.Time, _ int) ([]core.Bot, error) {
	return nil, nil
}

func (s *stubBotStore) idCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getByIDCalls
}

func newTestBotCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func TestCachedBotStore_GetByID_MissFetchThenHit(t *testing.T) {
	base := &stubBotStore{bot: core.Bot{ID: "bot-1", DID: "did:plc:abc", Handle: "helper.bsky.social"}}
	store, err := NewCachedBotStore(base, newTestBotCacheService(t))
	if err != nil {
		t.Fatalf("new cached bot store: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := store.GetByID(context.Background(), "bot-1")
		if err != nil {
			t.Fatalf("get by id: %v", err)
		}
		if got.DID != "did:plc:abc" {
			t.Fatalf("unexpected bot: %#v", got)
		}
	}
	if calls := base.idCalls(); calls != 1 {
		t.Fatalf("expected 1 base fetch, got %d", calls)
	}
}

func TestCachedBotStore_UpdateInvalidates(t *testing.T) {
	base := &stubBotStore{bot: core.Bot{ID: "bot-1", DID: "did:plc:abc", Handle: "old.bsky.social"}}
	store, err := NewCachedBotStore(base, newTestBotCacheService(t))
	if err != nil {
		t.Fatalf("new cached bot store: %v", err)
	}

	if _, err := store.GetByID(context.Background(), "bot-1"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	updated := base.bot
	updated.Handle = "new.bsky.social"
	if _, err := store.Update(context.Background(), updated); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.GetByID(context.Background(), "bot-1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Handle != "new.bsky.social" {
		t.Fatalf("expected invalidated cache to serve the update, got %q", got.Handle)
	}
}

func TestCachedBotStore_SetTrustBadgeInvalidates(t *testing.T) {
	base := &stubBotStore{bot: core.Bot{ID: "bot-1", DID: "did:plc:abc", TrustBadge: core.TrustBadgeNone}}
	store, err := NewCachedBotStore(base, newTestBotCacheService(t))
	if err != nil {
		t.Fatalf("new cached bot store: %v", err)
	}

	if _, err := store.GetByID(context.Background(), "bot-1"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if err := store.SetTrustBadge(context.Background(), "bot-1", core.TrustBadgeVerified); err != nil {
		t.Fatalf("set trust badge: %v", err)
	}

	got, err := store.GetByID(context.Background(), "bot-1")
	if err != nil {
		t.Fatalf("get after badge: %v", err)
	}
	if got.TrustBadge != core.TrustBadgeVerified {
		t.Fatalf("expected verified badge after invalidation, got %q", got.TrustBadge)
	}
}

func TestCachedBotStore_BaseErrorPropagates(t *testing.T) {
	base := &stubBotStore{getErr: core.ErrBotNotFound}
	store, err := NewCachedBotStore(base, newTestBotCacheService(t))
	if err != nil {
		t.Fatalf("new cached bot store: %v", err)
	}

	if _, err := store.GetByDID(context.Background(), "did:plc:missing"); !errors.Is(err, core.ErrBotNotFound) {
		t.Fatalf("expected base error propagation, got %v", err)
	}
}
