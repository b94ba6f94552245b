package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-botdir/core"
)

const (
	TypeRegisterBot      = "botdir.command.bot.register"
	TypeUpdateBotListing = "botdir.command.bot.update_listing"
	TypeCreateOperator   = "botdir.command.operator.create"
	TypeIssueChallenge   = "botdir.command.challenge.issue"
	TypeIngestManifest   = "botdir.command.manifest.ingest"
)

type RegisterBotMessage struct {
	Input core.RegisterBotInput
}

func (RegisterBotMessage) Type() string { return TypeRegisterBot }

func (m RegisterBotMessage) Validate() error {
	if strings.TrimSpace(m.Input.OperatorID) == "" {
		return fmt.Errorf("command: operator id is required")
	}
	did := strings.TrimSpace(m.Input.DID)
	if did == "" {
		return fmt.Errorf("command: did is required")
	}
	if !strings.HasPrefix(did, "did:") {
		return fmt.Errorf("command: did must start with did:")
	}
	if strings.TrimSpace(m.Input.Handle) == "" {
		return fmt.Errorf("command: handle is required")
	}
	return nil
}

type UpdateBotListingMessage struct {
	BotID string
	Input core.UpdateBotListingInput
}

func (UpdateBotListingMessage) Type() string { return TypeUpdateBotListing }

func (m UpdateBotListingMessage) Validate() error {
	if strings.TrimSpace(m.BotID) == "" {
		return fmt.Errorf("command: bot id is required")
	}
	if m.Input.ListingStatus != nil && !core.ValidListingStatus(*m.Input.ListingStatus) {
		return fmt.Errorf("command: unknown listing status %q", *m.Input.ListingStatus)
	}
	return nil
}

type CreateOperatorMessage struct {
	Input core.CreateOperatorInput
}

func (CreateOperatorMessage) Type() string { return TypeCreateOperator }

func (m CreateOperatorMessage) Validate() error {
	if strings.TrimSpace(m.Input.Name) == "" {
		return fmt.Errorf("command: operator name is required")
	}
	if !strings.Contains(m.Input.Email, "@") {
		return fmt.Errorf("command: operator email is required")
	}
	return nil
}

type IssueChallengeMessage struct {
	BotID string
}

func (IssueChallengeMessage) Type() string { return TypeIssueChallenge }

func (m IssueChallengeMessage) Validate() error {
	if strings.TrimSpace(m.BotID) == "" {
		return fmt.Errorf("command: bot id is required")
	}
	return nil
}

type IngestManifestMessage struct {
	BotID       string
	ManifestURL string
}

func (IngestManifestMessage) Type() string { return TypeIngestManifest }

func (m IngestManifestMessage) Validate() error {
	if strings.TrimSpace(m.BotID) == "" {
		return fmt.Errorf("command: bot id is required")
	}
	return nil
}
