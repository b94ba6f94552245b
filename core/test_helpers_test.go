package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type memBotStore struct {
	mu   sync.Mutex
	bots map[string]Bot

	activateCalls int
	badgeCalls    []TrustBadge
}

func newMemBotStore(bots ...Bot) *memBotStore {
	store := &memBotStore{bots: map[string]Bot{}}
	for _, bot := range bots {
		store.bots[bot.ID] = bot
	}
	return store
}

func (s *memBotStore) Create(_ context.Context, bot Bot) (Bot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bots {
		if existing.DID == bot.DID {
			return Bot{}, fmt.Errorf("core: duplicate key value violates unique constraint")
		}
	}
	s.bots[bot.ID] = bot
	return bot, nil
}

func (s *memBotStore) GetByID(_ context.Context, id string) (Bot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bot, ok := s.bots[id]
	if !ok {
		return Bot{}, ErrBotNotFound
	}
	return bot, nil
}

func (s *memBotStore) GetByDID(_ context.Context, did string) (Bot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bot := range s.bots {
		if bot.DID == did {
			return bot, nil
		}
	}
	return Bot{}, ErrBotNotFound
}

func (s *memBotStore) Update(_ context.Context, bot Bot) (Bot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bots[bot.ID]; !ok {
		return Bot{}, ErrBotNotFound
	}
	s.bots[bot.ID] = bot
	return bot, nil
}

func (s *memBotStore) List(_ context.Context, filter BotFilter) (BotPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []Bot{}
	for _, bot := range s.bots {
		if filter.ListingStatus != "" && string(bot.ListingStatus) != filter.ListingStatus {
			continue
		}
		matched = append(matched, bot)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return BotPage{Bots: matched, Total: len(matched), Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *memBotStore) ActivateIfDraft(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activateCalls++
	bot, ok := s.bots[id]
	if !ok {
		return false, ErrBotNotFound
	}
	if bot.ListingStatus != ListingStatusDraft {
		return false, nil
	}
	bot.ListingStatus = ListingStatusActive
	s.bots[id] = bot
	return true, nil
}

func (s *memBotStore) SetTrustBadge(_ context.Context, id string, badge TrustBadge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bot, ok := s.bots[id]
	if !ok {
		return ErrBotNotFound
	}
	bot.TrustBadge = badge
	s.bots[id] = bot
	s.badgeCalls = append(s.badgeCalls, badge)
	return nil
}

func (s *memBotStore) ListStaleManifests(_ context.Context, cutoff time.Time, limit int) ([]Bot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stale := []Bot{}
	for _, bot := range s.bots {
		if bot.ManifestURL == "" {
			continue
		}
		if bot.UpdatedAt.Before(cutoff) {
			stale = append(stale, bot)
		}
		if len(stale) >= limit {
			break
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].ID < stale[j].ID })
	return stale, nil
}

type memManifestStore struct {
	mu      sync.Mutex
	records map[string]ManifestRecord
	failOn  error
}

func newMemManifestStore() *memManifestStore {
	return &memManifestStore{records: map[string]ManifestRecord{}}
}

func (s *memManifestStore) Upsert(_ context.Context, record ManifestRecord) (ManifestRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != nil {
		return ManifestRecord{}, s.failOn
	}
	s.records[record.BotID] = record
	return record, nil
}

func (s *memManifestStore) GetByBot(_ context.Context, botID string) (ManifestRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[botID]
	if !ok {
		return ManifestRecord{}, ErrManifestNotFound
	}
	return record, nil
}

type memCommandStore struct {
	mu       sync.Mutex
	commands map[string][]CommandRecord
	replaces int
}

func newMemCommandStore() *memCommandStore {
	return &memCommandStore{commands: map[string][]CommandRecord{}}
}

func (s *memCommandStore) ReplaceForBot(_ context.Context, botID string, commands []CommandRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaces++
	s.commands[botID] = commands
	return nil
}

func (s *memCommandStore) ListForBot(_ context.Context, botID string) ([]CommandRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commands[botID], nil
}

type memChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]VerificationChallenge
}

func newMemChallengeStore(challenges ...VerificationChallenge) *memChallengeStore {
	store := &memChallengeStore{challenges: map[string]VerificationChallenge{}}
	for _, challenge := range challenges {
		store.challenges[challenge.ID] = challenge
	}
	return store
}

func (s *memChallengeStore) Create(_ context.Context, challenge VerificationChallenge) (VerificationChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[challenge.ID] = challenge
	return challenge, nil
}

func (s *memChallengeStore) Get(_ context.Context, id string) (VerificationChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	challenge, ok := s.challenges[id]
	if !ok {
		return VerificationChallenge{}, ErrChallengeNotFound
	}
	return challenge, nil
}

func (s *memChallengeStore) LatestForBot(_ context.Context, botID string) (VerificationChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest VerificationChallenge
	found := false
	for _, challenge := range s.challenges {
		if challenge.BotID != botID {
			continue
		}
		if !found || challenge.IssuedAt.After(latest.IssuedAt) {
			latest = challenge
			found = true
		}
	}
	if !found {
		return VerificationChallenge{}, ErrChallengeNotFound
	}
	return latest, nil
}

func (s *memChallengeStore) TransitionFromPending(_ context.Context, id string, next ChallengeStatus, evidenceURI string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	challenge, ok := s.challenges[id]
	if !ok {
		return false, nil
	}
	if challenge.Status != ChallengeStatusPending {
		return false, nil
	}
	challenge.Status = next
	challenge.EvidenceURI = evidenceURI
	s.challenges[id] = challenge
	return true, nil
}

type memOperatorStore struct {
	mu        sync.Mutex
	operators map[string]Operator
}

func newMemOperatorStore() *memOperatorStore {
	return &memOperatorStore{operators: map[string]Operator{}}
}

func (s *memOperatorStore) Create(_ context.Context, operator Operator) (Operator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operators[operator.ID] = operator
	return operator, nil
}

func (s *memOperatorStore) GetByAPIKey(_ context.Context, apiKey string) (Operator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, operator := range s.operators {
		if operator.APIKey == apiKey {
			return operator, nil
		}
	}
	return Operator{}, ErrOperatorNotFound
}

type stubFeed struct {
	mu    sync.Mutex
	posts []FeedPost
	err   error
	calls int
}

func (f *stubFeed) RecentPosts(context.Context, string, int) ([]FeedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.posts, nil
}

type captureEnqueuer struct {
	mu       sync.Mutex
	messages []JobExecutionMessage
	err      error
}

func (e *captureEnqueuer) Enqueue(_ context.Context, msg *JobExecutionMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	if msg != nil {
		e.messages = append(e.messages, *msg)
	}
	return nil
}

func (e *captureEnqueuer) last() (JobExecutionMessage, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.messages) == 0 {
		return JobExecutionMessage{}, false
	}
	return e.messages[len(e.messages)-1], true
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

var (
	_ BotStore       = (*memBotStore)(nil)
	_ ManifestStore  = (*memManifestStore)(nil)
	_ CommandStore   = (*memCommandStore)(nil)
	_ ChallengeStore = (*memChallengeStore)(nil)
	_ OperatorStore  = (*memOperatorStore)(nil)
	_ FeedReader     = (*stubFeed)(nil)
	_ JobEnqueuer    = (*captureEnqueuer)(nil)
)
