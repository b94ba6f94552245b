package query

import (
	"github.com/goliatone/go-botdir/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Querier[GetBotMessage, core.Bot]                            = (*GetBotQuery)(nil)
	_ gocmd.Querier[ListBotsMessage, core.BotPage]                      = (*ListBotsQuery)(nil)
	_ gocmd.Querier[GetManifestMessage, core.ManifestRecord]            = (*GetManifestQuery)(nil)
	_ gocmd.Querier[ListCommandsMessage, []core.CommandRecord]          = (*ListCommandsQuery)(nil)
	_ gocmd.Querier[LatestChallengeMessage, core.VerificationChallenge] = (*LatestChallengeQuery)(nil)
	_ gocmd.Querier[GetReputationMessage, core.ReputationMetrics]       = (*GetReputationQuery)(nil)
)
