package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[RegisterBotMessage]      = (*RegisterBotCommand)(nil)
	_ gocmd.Commander[UpdateBotListingMessage] = (*UpdateBotListingCommand)(nil)
	_ gocmd.Commander[CreateOperatorMessage]   = (*CreateOperatorCommand)(nil)
	_ gocmd.Commander[IssueChallengeMessage]   = (*IssueChallengeCommand)(nil)
	_ gocmd.Commander[IngestManifestMessage]   = (*IngestManifestCommand)(nil)
)
