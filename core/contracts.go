package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// BotStore is the durable registry of bot listings. ActivateIfDraft and
// SetTrustBadge are the only two bot mutations the asynchronous core performs;
// both are single-row conditional updates.
type BotStore interface {
	Create(ctx context.Context, bot Bot) (Bot, error)
	GetByID(ctx context.Context, id string) (Bot, error)
	GetByDID(ctx context.Context, did string) (Bot, error)
	Update(ctx context.Context, bot Bot) (Bot, error)
	List(ctx context.Context, filter BotFilter) (BotPage, error)
	// ActivateIfDraft transitions draft -> active and reports whether a row
	// changed. Any other current status is a safe no-op.
	ActivateIfDraft(ctx context.Context, id string) (bool, error)
	SetTrustBadge(ctx context.Context, id string, badge TrustBadge) error
	// ListStaleManifests returns bots whose manifest has not been revalidated
	// since the cutoff and that still declare a manifest URL.
	ListStaleManifests(ctx context.Context, cutoff time.Time, limit int) ([]Bot, error)
}

// ManifestStore keeps at most one ManifestRecord per bot; Upsert replaces the
// row wholesale, it never accumulates history.
type ManifestStore interface {
	Upsert(ctx context.Context, record ManifestRecord) (ManifestRecord, error)
	GetByBot(ctx context.Context, botID string) (ManifestRecord, error)
}

type CommandStore interface {
	// ReplaceForBot swaps the bot's full command set atomically.
	ReplaceForBot(ctx context.Context, botID string, commands []CommandRecord) error
	ListForBot(ctx context.Context, botID string) ([]CommandRecord, error)
}

// ChallengeStore persists verification challenges. TransitionFromPending is a
// compare-and-swap: it moves the challenge out of pending only if it is still
// pending, and reports whether this writer won. Concurrent redeliveries that
// lose the swap observe false and discard their result.
type ChallengeStore interface {
	Create(ctx context.Context, challenge VerificationChallenge) (VerificationChallenge, error)
	Get(ctx context.Context, id string) (VerificationChallenge, error)
	LatestForBot(ctx context.Context, botID string) (VerificationChallenge, error)
	TransitionFromPending(ctx context.Context, id string, next ChallengeStatus, evidenceURI string) (bool, error)
}

type OperatorStore interface {
	Create(ctx context.Context, operator Operator) (Operator, error)
	GetByAPIKey(ctx context.Context, apiKey string) (Operator, error)
}

type ReputationStore interface {
	GetForBot(ctx context.Context, botID string) (ReputationMetrics, error)
}

// FeedReader provides read-only access to a subject's recent public posts.
// Failures are transient by definition; the poller owns the retry budget.
type FeedReader interface {
	RecentPosts(ctx context.Context, did string, limit int) ([]FeedPost, error)
}

// JobExecutionMessage is the queue-portable job envelope. Delay is a
// best-effort minimum before the job becomes eligible; the attempt counter and
// all other state live in Parameters so a process restart between attempts
// loses nothing.
type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
	Delay          time.Duration
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

// JobHandler processes one delivered job. A returned error signals an
// infrastructure failure the queue should redeliver; domain failures are
// resolved into persisted state and return nil.
type JobHandler interface {
	Process(ctx context.Context, params map[string]any) error
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}
