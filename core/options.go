package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	opts "github.com/goliatone/go-options"
)

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig   Config
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

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithBotStore(store BotStore) Option {
	return func(b *serviceBuilder) {
		b.bots = store
	}
}

func WithManifestStore(store ManifestStore) Option {
	return func(b *serviceBuilder) {
		b.manifests = store
	}
}

func WithCommandStore(store CommandStore) Option {
	return func(b *serviceBuilder) {
		b.commands = store
	}
}

func WithChallengeStore(store ChallengeStore) Option {
	return func(b *serviceBuilder) {
		b.challenges = store
	}
}

func WithOperatorStore(store OperatorStore) Option {
	return func(b *serviceBuilder) {
		b.operators = store
	}
}

func WithReputationStore(store ReputationStore) Option {
	return func(b *serviceBuilder) {
		b.reputation = store
	}
}

func WithFeedReader(reader FeedReader) Option {
	return func(b *serviceBuilder) {
		b.feed = reader
	}
}

func WithJobEnqueuer(enqueuer JobEnqueuer) Option {
	return func(b *serviceBuilder) {
		b.enqueuer = enqueuer
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *serviceBuilder) {
		b.now = now
	}
}

func defaultServiceBuilder(cfg Config) serviceBuilder {
	return serviceBuilder{
		runtimeConfig:   cfg,
		metricsRecorder: NopMetricsRecorder{},
		errorMapper:     directoryErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
	}
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}

	verification := map[string]any{}
	if includeZero || cfg.Verification.NonceTTL > 0 {
		verification["nonce_ttl"] = cfg.Verification.NonceTTL
	}
	if includeZero || cfg.Verification.InitialDelay > 0 {
		verification["initial_delay"] = cfg.Verification.InitialDelay
	}
	if includeZero || cfg.Verification.RetryDelay > 0 {
		verification["retry_delay"] = cfg.Verification.RetryDelay
	}
	if includeZero || cfg.Verification.MaxRetries > 0 {
		verification["max_retries"] = cfg.Verification.MaxRetries
	}
	if includeZero || cfg.Verification.FeedPageSize > 0 {
		verification["feed_page_size"] = cfg.Verification.FeedPageSize
	}
	if includeZero || cfg.Verification.Concurrency > 0 {
		verification["concurrency"] = cfg.Verification.Concurrency
	}
	if len(verification) > 0 {
		layer["verification"] = verification
	}

	manifestLayer := map[string]any{}
	if includeZero || cfg.Manifest.FetchTimeout > 0 {
		manifestLayer["fetch_timeout"] = cfg.Manifest.FetchTimeout
	}
	if includeZero || cfg.Manifest.MaxBytes > 0 {
		manifestLayer["max_bytes"] = cfg.Manifest.MaxBytes
	}
	if includeZero || cfg.Manifest.RefreshInterval > 0 {
		manifestLayer["refresh_interval"] = cfg.Manifest.RefreshInterval
	}
	if includeZero || cfg.Manifest.Concurrency > 0 {
		manifestLayer["concurrency"] = cfg.Manifest.Concurrency
	}
	if len(manifestLayer) > 0 {
		layer["manifest"] = manifestLayer
	}

	return layer
}
