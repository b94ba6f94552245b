package botdir

import "github.com/goliatone/go-botdir/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type Bot = core.Bot
type Operator = core.Operator
type VerificationChallenge = core.VerificationChallenge
type ManifestRecord = core.ManifestRecord
type CommandRecord = core.CommandRecord
type ReputationMetrics = core.ReputationMetrics
type ChallengeIssue = core.ChallengeIssue
type BotFilter = core.BotFilter
type BotPage = core.BotPage

type RegisterBotInput = core.RegisterBotInput
type UpdateBotListingInput = core.UpdateBotListingInput
type CreateOperatorInput = core.CreateOperatorInput

type BotStore = core.BotStore
type ManifestStore = core.ManifestStore
type CommandStore = core.CommandStore
type ChallengeStore = core.ChallengeStore
type OperatorStore = core.OperatorStore
type ReputationStore = core.ReputationStore
type FeedReader = core.FeedReader
type JobEnqueuer = core.JobEnqueuer

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithBotStore        = core.WithBotStore
	WithManifestStore   = core.WithManifestStore
	WithCommandStore    = core.WithCommandStore
	WithChallengeStore  = core.WithChallengeStore
	WithOperatorStore   = core.WithOperatorStore
	WithReputationStore = core.WithReputationStore
	WithFeedReader      = core.WithFeedReader
	WithJobEnqueuer     = core.WithJobEnqueuer
	WithClock           = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
