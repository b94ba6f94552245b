package core

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

const (
	// JobTypeManifestFetch identifies a queued manifest ingestion run.
	JobTypeManifestFetch = "botdir.manifest.fetch"
	// JobTypeVerificationCheck identifies a queued verification poll attempt.
	JobTypeVerificationCheck = "botdir.verification.check"
)

const staleRefreshBatchSize = 100

// Service is the directory's synchronous surface: registration, listing
// maintenance, challenge issuance, and read access. The asynchronous side
// (ManifestIngestor, VerificationPoller) shares its stores and clock.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	bots            BotStore
	manifests       ManifestStore
	commands        CommandStore
	challenges      ChallengeStore
	operators       OperatorStore
	reputation      ReputationStore
	feed            FeedReader
	enqueuer        JobEnqueuer
	now             func() time.Time
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("botdir", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("botdir"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = directoryErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.now == nil {
		builder.now = time.Now
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		bots:            builder.bots,
		manifests:       builder.manifests,
		commands:        builder.commands,
		challenges:      builder.challenges,
		operators:       builder.operators,
		reputation:      builder.reputation,
		feed:            builder.feed,
		enqueuer:        builder.enqueuer,
		now:             builder.now,
	}, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

// Config returns the resolved configuration the service runs with.
func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

// MapError converts an error into the directory's error envelope for
// transport edges. Sentinel errors keep their identity through errors.Is.
func (s *Service) MapError(err error) error {
	if s == nil || s.errorMapper == nil {
		return err
	}
	if err == nil {
		return nil
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

// RegisterBot creates a draft listing owned by an operator and, when a
// manifest URL is declared, schedules the first ingestion run.
func (s *Service) RegisterBot(ctx context.Context, input RegisterBotInput) (Bot, error) {
	startedAt := s.clock()
	bot, err := s.registerBot(ctx, input)
	s.observeOperation(ctx, startedAt, "register_bot", err, map[string]any{
		"bot_id":      bot.ID,
		"did":         input.DID,
		"operator_id": input.OperatorID,
	})
	return bot, err
}

func (s *Service) registerBot(ctx context.Context, input RegisterBotInput) (Bot, error) {
	if s == nil || s.bots == nil {
		return Bot{}, fmt.Errorf("core: bot store is required")
	}
	did := strings.TrimSpace(input.DID)
	if did == "" {
		return Bot{}, fmt.Errorf("core: did is required")
	}
	if !strings.HasPrefix(did, "did:") {
		return Bot{}, fmt.Errorf("core: invalid did %q", did)
	}
	handle := strings.TrimSpace(input.Handle)
	if handle == "" {
		return Bot{}, fmt.Errorf("core: handle is required")
	}
	if strings.TrimSpace(input.OperatorID) == "" {
		return Bot{}, fmt.Errorf("core: operator id is required")
	}

	secret, err := randomHex(32)
	if err != nil {
		return Bot{}, fmt.Errorf("core: listing secret generation failed: %w", err)
	}

	now := s.clock()
	bot := Bot{
		ID:            uuid.NewString(),
		DID:           did,
		Handle:        handle,
		DisplayName:   strings.TrimSpace(input.DisplayName),
		Description:   strings.TrimSpace(input.Description),
		OperatorID:    strings.TrimSpace(input.OperatorID),
		Categories:    input.Categories,
		ManifestURL:   strings.TrimSpace(input.ManifestURL),
		ListingStatus: ListingStatusDraft,
		TrustBadge:    TrustBadgeNone,
		ListingSecret: secret,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created, err := s.bots.Create(ctx, bot)
	if err != nil {
		return Bot{}, err
	}
	if created.ManifestURL != "" {
		if err := s.enqueueManifestFetch(ctx, created.ID, created.ManifestURL); err != nil {
			s.logWarn(ctx, "initial manifest fetch enqueue failed", map[string]any{
				"bot_id": created.ID,
				"error":  err.Error(),
			})
		}
	}
	return created, nil
}

// UpdateBotListing applies a partial update; nil fields are untouched. A
// changed manifest URL triggers a fresh ingestion run.
func (s *Service) UpdateBotListing(ctx context.Context, botID string, input UpdateBotListingInput) (Bot, error) {
	startedAt := s.clock()
	bot, err := s.updateBotListing(ctx, botID, input)
	s.observeOperation(ctx, startedAt, "update_bot_listing", err, map[string]any{
		"bot_id": botID,
	})
	return bot, err
}

func (s *Service) updateBotListing(ctx context.Context, botID string, input UpdateBotListingInput) (Bot, error) {
	if s == nil || s.bots == nil {
		return Bot{}, fmt.Errorf("core: bot store is required")
	}
	bot, err := s.bots.GetByID(ctx, strings.TrimSpace(botID))
	if err != nil {
		return Bot{}, err
	}

	previousManifestURL := bot.ManifestURL
	if input.Handle != nil {
		handle := strings.TrimSpace(*input.Handle)
		if handle == "" {
			return Bot{}, fmt.Errorf("core: handle is required")
		}
		bot.Handle = handle
	}
	if input.DisplayName != nil {
		bot.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Description != nil {
		bot.Description = strings.TrimSpace(*input.Description)
	}
	if input.Categories != nil {
		bot.Categories = *input.Categories
	}
	if input.ManifestURL != nil {
		bot.ManifestURL = strings.TrimSpace(*input.ManifestURL)
	}
	if input.ListingStatus != nil {
		status := strings.TrimSpace(strings.ToLower(*input.ListingStatus))
		if !ValidListingStatus(status) {
			return Bot{}, fmt.Errorf("core: invalid listing status %q", *input.ListingStatus)
		}
		bot.ListingStatus = ListingStatus(status)
	}
	bot.UpdatedAt = s.clock()

	updated, err := s.bots.Update(ctx, bot)
	if err != nil {
		return Bot{}, err
	}
	if updated.ManifestURL != "" && updated.ManifestURL != previousManifestURL {
		if err := s.enqueueManifestFetch(ctx, updated.ID, updated.ManifestURL); err != nil {
			s.logWarn(ctx, "manifest refetch enqueue failed", map[string]any{
				"bot_id": updated.ID,
				"error":  err.Error(),
			})
		}
	}
	return updated, nil
}

// CreateOperator provisions an operator account and its API key.
func (s *Service) CreateOperator(ctx context.Context, input CreateOperatorInput) (Operator, error) {
	startedAt := s.clock()
	operator, err := s.createOperator(ctx, input)
	s.observeOperation(ctx, startedAt, "create_operator", err, map[string]any{
		"operator_id": operator.ID,
	})
	return operator, err
}

func (s *Service) createOperator(ctx context.Context, input CreateOperatorInput) (Operator, error) {
	if s == nil || s.operators == nil {
		return Operator{}, fmt.Errorf("core: operator store is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Operator{}, fmt.Errorf("core: operator name is required")
	}
	email := strings.TrimSpace(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return Operator{}, fmt.Errorf("core: invalid operator email")
	}
	apiKey, err := randomHex(32)
	if err != nil {
		return Operator{}, fmt.Errorf("core: api key generation failed: %w", err)
	}
	now := s.clock()
	return s.operators.Create(ctx, Operator{
		ID:                 uuid.NewString(),
		Name:               name,
		Email:              email,
		APIKey:             apiKey,
		VerificationStatus: "unverified",
		CreatedAt:          now,
		UpdatedAt:          now,
	})
}

// AuthenticateOperator resolves an operator by API key.
func (s *Service) AuthenticateOperator(ctx context.Context, apiKey string) (Operator, error) {
	if s == nil || s.operators == nil {
		return Operator{}, fmt.Errorf("core: operator store is required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return Operator{}, ErrInvalidAPIKey
	}
	operator, err := s.operators.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return Operator{}, ErrInvalidAPIKey
	}
	return operator, nil
}

// AuthenticateBot resolves a bot by DID and checks its listing secret.
func (s *Service) AuthenticateBot(ctx context.Context, did, listingSecret string) (Bot, error) {
	if s == nil || s.bots == nil {
		return Bot{}, fmt.Errorf("core: bot store is required")
	}
	bot, err := s.bots.GetByDID(ctx, strings.TrimSpace(did))
	if err != nil {
		return Bot{}, ErrInvalidListingSecret
	}
	if bot.ListingSecret == "" ||
		subtle.ConstantTimeCompare([]byte(bot.ListingSecret), []byte(strings.TrimSpace(listingSecret))) != 1 {
		return Bot{}, ErrInvalidListingSecret
	}
	return bot, nil
}

// IngestManifest schedules a manifest fetch for the bot. The work happens
// asynchronously; this call only validates inputs and enqueues.
func (s *Service) IngestManifest(ctx context.Context, botID, manifestURL string) error {
	startedAt := s.clock()
	err := s.ingestManifest(ctx, botID, manifestURL)
	s.observeOperation(ctx, startedAt, "ingest_manifest", err, map[string]any{
		"bot_id": botID,
	})
	return err
}

func (s *Service) ingestManifest(ctx context.Context, botID, manifestURL string) error {
	if s == nil || s.bots == nil {
		return fmt.Errorf("core: bot store is required")
	}
	bot, err := s.bots.GetByID(ctx, strings.TrimSpace(botID))
	if err != nil {
		return err
	}
	manifestURL = strings.TrimSpace(manifestURL)
	if manifestURL == "" {
		manifestURL = bot.ManifestURL
	}
	if manifestURL == "" {
		return fmt.Errorf("core: manifest url is required")
	}
	return s.enqueueManifestFetch(ctx, bot.ID, manifestURL)
}

// EnqueueStaleManifestRefreshes re-enqueues fetch jobs for bots whose
// manifest has not been revalidated within the refresh interval. Returns the
// number of jobs scheduled.
func (s *Service) EnqueueStaleManifestRefreshes(ctx context.Context) (int, error) {
	startedAt := s.clock()
	count, err := s.enqueueStaleManifestRefreshes(ctx)
	s.observeOperation(ctx, startedAt, "refresh_stale_manifests", err, map[string]any{
		"scheduled": count,
	})
	return count, err
}

func (s *Service) enqueueStaleManifestRefreshes(ctx context.Context) (int, error) {
	if s == nil || s.bots == nil {
		return 0, fmt.Errorf("core: bot store is required")
	}
	cutoff := s.clock().Add(-s.config.Manifest.RefreshInterval)
	stale, err := s.bots.ListStaleManifests(ctx, cutoff, staleRefreshBatchSize)
	if err != nil {
		return 0, err
	}
	scheduled := 0
	for _, bot := range stale {
		if bot.ManifestURL == "" {
			continue
		}
		if err := s.enqueueManifestFetch(ctx, bot.ID, bot.ManifestURL); err != nil {
			return scheduled, err
		}
		scheduled++
	}
	return scheduled, nil
}

func (s *Service) enqueueManifestFetch(ctx context.Context, botID, manifestURL string) error {
	if s.enqueuer == nil {
		return fmt.Errorf("core: job enqueuer is required")
	}
	return s.enqueuer.Enqueue(ctx, &JobExecutionMessage{
		JobID: JobTypeManifestFetch,
		Parameters: map[string]any{
			"bot_id":       botID,
			"manifest_url": manifestURL,
		},
		IdempotencyKey: "manifest:" + botID,
	})
}

// GetBot returns a single listing.
func (s *Service) GetBot(ctx context.Context, botID string) (Bot, error) {
	if s == nil || s.bots == nil {
		return Bot{}, fmt.Errorf("core: bot store is required")
	}
	return s.bots.GetByID(ctx, strings.TrimSpace(botID))
}

// ListBots returns a filtered page of listings. Status defaults to active so
// public reads never surface drafts.
func (s *Service) ListBots(ctx context.Context, filter BotFilter) (BotPage, error) {
	if s == nil || s.bots == nil {
		return BotPage{}, fmt.Errorf("core: bot store is required")
	}
	if strings.TrimSpace(filter.ListingStatus) == "" {
		filter.ListingStatus = string(ListingStatusActive)
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.bots.List(ctx, filter)
}

// GetManifest returns the bot's current manifest record.
func (s *Service) GetManifest(ctx context.Context, botID string) (ManifestRecord, error) {
	if s == nil || s.manifests == nil {
		return ManifestRecord{}, fmt.Errorf("core: manifest store is required")
	}
	return s.manifests.GetByBot(ctx, strings.TrimSpace(botID))
}

// ListCommands returns the bot's advertised commands.
func (s *Service) ListCommands(ctx context.Context, botID string) ([]CommandRecord, error) {
	if s == nil || s.commands == nil {
		return nil, fmt.Errorf("core: command store is required")
	}
	return s.commands.ListForBot(ctx, strings.TrimSpace(botID))
}

// GetReputation returns the bot's reputation projection.
func (s *Service) GetReputation(ctx context.Context, botID string) (ReputationMetrics, error) {
	if s == nil || s.reputation == nil {
		return ReputationMetrics{}, fmt.Errorf("core: reputation store is required")
	}
	return s.reputation.GetForBot(ctx, strings.TrimSpace(botID))
}

func (s *Service) clock() time.Time {
	if s == nil || s.now == nil {
		return time.Now()
	}
	return s.now()
}

func randomHex(bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
