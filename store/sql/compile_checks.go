package sqlstore

import "github.com/goliatone/go-botdir/core"

var (
	_ core.BotStore       = (*BotStore)(nil)
	_ core.ManifestStore  = (*ManifestStore)(nil)
	_ core.CommandStore   = (*CommandStore)(nil)
	_ core.ChallengeStore = (*ChallengeStore)(nil)
	_ core.OperatorStore  = (*OperatorStore)(nil)
	_ core.ReputationStore = (*ReputationStore)(nil)
	_ core.BotStore       = (*CachedBotStore)(nil)
)
