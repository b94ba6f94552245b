package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-botdir/core"
)

const (
	TypeGetBot          = "botdir.query.bot.get"
	TypeListBots        = "botdir.query.bot.list"
	TypeGetManifest     = "botdir.query.manifest.get"
	TypeListCommands    = "botdir.query.command.list"
	TypeLatestChallenge = "botdir.query.challenge.latest"
	TypeGetReputation   = "botdir.query.reputation.get"
)

type GetBotMessage struct {
	BotID string
}

func (GetBotMessage) Type() string { return TypeGetBot }

func (m GetBotMessage) Validate() error {
	if strings.TrimSpace(m.BotID) == "" {
		return fmt.Errorf("query: bot id is required")
	}
	return nil
}

type ListBotsMessage struct {
	Filter core.BotFilter
}

func (ListBotsMessage) Type() string { return TypeListBots }

func (m ListBotsMessage) Validate() error {
	if m.Filter.Limit < 0 {
		return fmt.Errorf("query: limit must be >= 0")
	}
	if m.Filter.Offset < 0 {
		return fmt.Errorf("query: offset must be >= 0")
	}
	if m.Filter.ListingStatus != "" && !core.ValidListingStatus(m.Filter.ListingStatus) {
		return fmt.Errorf("query: unknown listing status %q", m.Filter.ListingStatus)
	}
	return nil
}

type GetManifestMessage struct {
	BotID string
}

func (GetManifestMessage) Type() string { return TypeGetManifest }

func (m GetManifestMessage) Validate() error {
	if strings.TrimSpace(m.BotID) == "" {
		return fmt.Errorf("query: bot id is required")
	}
	return nil
}

type ListCommandsMessage struct {
	BotID string
}

func (ListCommandsMessage) Type() string { return TypeListCommands }

func (m ListCommandsMessage) Validate() error {
	if strings.TrimSpace(m.BotID) == "" {
		return fmt.Errorf("query: bot id is required")
	}
	return nil
}

type LatestChallengeMessage struct {
	BotID string
}

func (LatestChallengeMessage) Type() string { return TypeLatestChallenge }

func (m LatestChallengeMessage) Validate() error {
	if strings.TrimSpace(m.BotID) == "" {
		return fmt.Errorf("query: bot id is required")
	}
	return nil
}

type GetReputationMessage struct {
	BotID string
}

func (GetReputationMessage) Type() string { return TypeGetReputation }

func (m GetReputationMessage) Validate() error {
	if strings.TrimSpace(m.BotID) == "" {
		return fmt.Errorf("query: bot id is required")
	}
	return nil
}
