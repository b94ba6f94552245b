package command

import (
	"context"

	"github.com/goliatone/go-botdir/core"
	gocmd "github.com/goliatone/go-command"
)

type MutatingService interface {
	RegisterBot(ctx context.Context, input core.RegisterBotInput) (core.Bot, error)
	UpdateBotListing(ctx context.Context, botID string, input core.UpdateBotListingInput) (core.Bot, error)
	CreateOperator(ctx context.Context, input core.CreateOperatorInput) (core.Operator, error)
	IssueChallenge(ctx context.Context, botID string) (core.ChallengeIssue, error)
	IngestManifest(ctx context.Context, botID string, manifestURL string) error
}

type RegisterBotCommand struct {
	service MutatingService
}

func NewRegisterBotCommand(service MutatingService) *RegisterBotCommand {
	return &RegisterBotCommand{service: service}
}

func (c *RegisterBotCommand) Execute(ctx context.Context, msg RegisterBotMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: registration service is required")
	}
	out, err := c.service.RegisterBot(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateBotListingCommand struct {
	service MutatingService
}

func NewUpdateBotListingCommand(service MutatingService) *UpdateBotListingCommand {
	return &UpdateBotListingCommand{service: service}
}

func (c *UpdateBotListingCommand) Execute(ctx context.Context, msg UpdateBotListingMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: listing service is required")
	}
	out, err := c.service.UpdateBotListing(ctx, msg.BotID, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CreateOperatorCommand struct {
	service MutatingService
}

func NewCreateOperatorCommand(service MutatingService) *CreateOperatorCommand {
	return &CreateOperatorCommand{service: service}
}

func (c *CreateOperatorCommand) Execute(ctx context.Context, msg CreateOperatorMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: operator service is required")
	}
	out, err := c.service.CreateOperator(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type IssueChallengeCommand struct {
	service MutatingService
}

func NewIssueChallengeCommand(service MutatingService) *IssueChallengeCommand {
	return &IssueChallengeCommand{service: service}
}

func (c *IssueChallengeCommand) Execute(ctx context.Context, msg IssueChallengeMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: challenge service is required")
	}
	out, err := c.service.IssueChallenge(ctx, msg.BotID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type IngestManifestCommand struct {
	service MutatingService
}

func NewIngestManifestCommand(service MutatingService) *IngestManifestCommand {
	return &IngestManifestCommand{service: service}
}

func (c *IngestManifestCommand) Execute(ctx context.Context, msg IngestManifestMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: ingestion service is required")
	}
	return c.service.IngestManifest(ctx, msg.BotID, msg.ManifestURL)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
