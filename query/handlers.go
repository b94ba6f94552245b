package query

import (
	"context"

	"github.com/goliatone/go-botdir/core"
)

type BotReader interface {
	GetBot(ctx context.Context, botID string) (core.Bot, error)
	ListBots(ctx context.Context, filter core.BotFilter) (core.BotPage, error)
}

type ManifestReader interface {
	GetManifest(ctx context.Context, botID string) (core.ManifestRecord, error)
	ListCommands(ctx context.Context, botID string) ([]core.CommandRecord, error)
}

type ChallengeReader interface {
	LatestChallenge(ctx context.Context, botID string) (core.VerificationChallenge, error)
}

type ReputationReader interface {
	GetReputation(ctx context.Context, botID string) (core.ReputationMetrics, error)
}

type GetBotQuery struct {
	reader BotReader
}

func NewGetBotQuery(reader BotReader) *GetBotQuery {
	return &GetBotQuery{reader: reader}
}

func (q *GetBotQuery) Query(ctx context.Context, msg GetBotMessage) (core.Bot, error) {
	if q == nil || q.reader == nil {
		return core.Bot{}, queryDependencyError("query: bot reader is required")
	}
	return q.reader.GetBot(ctx, msg.BotID)
}

type ListBotsQuery struct {
	reader BotReader
}

func NewListBotsQuery(reader BotReader) *ListBotsQuery {
	return &ListBotsQuery{reader: reader}
}

func (q *ListBotsQuery) Query(ctx context.Context, msg ListBotsMessage) (core.BotPage, error) {
	if q == nil || q.reader == nil {
		return core.BotPage{}, queryDependencyError("query: bot reader is required")
	}
	return q.reader.ListBots(ctx, msg.Filter)
}

type GetManifestQuery struct {
	reader ManifestReader
}

func NewGetManifestQuery(reader ManifestReader) *GetManifestQuery {
	return &GetManifestQuery{reader: reader}
}

func (q *GetManifestQuery) Query(ctx context.Context, msg GetManifestMessage) (core.ManifestRecord, error) {
	if q == nil || q.reader == nil {
		return core.ManifestRecord{}, queryDependencyError("query: manifest reader is required")
	}
	return q.reader.GetManifest(ctx, msg.BotID)
}

type ListCommandsQuery struct {
	reader ManifestReader
}

func NewListCommandsQuery(reader ManifestReader) *ListCommandsQuery {
	return &ListCommandsQuery{reader: reader}
}

func (q *ListCommandsQuery) Query(ctx context.Context, msg ListCommandsMessage) ([]core.CommandRecord, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: manifest reader is required")
	}
	return q.reader.ListCommands(ctx, msg.BotID)
}

type LatestChallengeQuery struct {
	reader ChallengeReader
}

func NewLatestChallengeQuery(reader ChallengeReader) *LatestChallengeQuery {
	return &LatestChallengeQuery{reader: reader}
}

func (q *LatestChallengeQuery) Query(ctx context.Context, msg LatestChallengeMessage) (core.VerificationChallenge, error) {
	if q == nil || q.reader == nil {
		return core.VerificationChallenge{}, queryDependencyError("query: challenge reader is required")
	}
	return q.reader.LatestChallenge(ctx, msg.BotID)
}

type GetReputationQuery struct {
	reader ReputationReader
}

func NewGetReputationQuery(reader ReputationReader) *GetReputationQuery {
	return &GetReputationQuery{reader: reader}
}

func (q *GetReputationQuery) Query(ctx context.Context, msg GetReputationMessage) (core.ReputationMetrics, error) {
	if q == nil || q.reader == nil {
		return core.ReputationMetrics{}, queryDependencyError("query: reputation reader is required")
	}
	return q.reader.GetReputation(ctx, msg.BotID)
}
