package botdir

import (
	"fmt"

	botdircommand "github.com/goliatone/go-botdir/command"
	botdirquery "github.com/goliatone/go-botdir/query"
)

// CommandQueryService is the surface the facade wires command and query
// handlers against. *core.Service satisfies it.
type CommandQueryService interface {
	botdircommand.MutatingService
	botdirquery.BotReader
	botdirquery.ManifestReader
	botdirquery.ChallengeReader
	botdirquery.ReputationReader
}

type Commands struct {
	RegisterBot      *botdircommand.RegisterBotCommand
	UpdateBotListing *botdircommand.UpdateBotListingCommand
	CreateOperator   *botdircommand.CreateOperatorCommand
	IssueChallenge   *botdircommand.IssueChallengeCommand
	IngestManifest   *botdircommand.IngestManifestCommand
}

type Queries struct {
	GetBot          *botdirquery.GetBotQuery
	ListBots        *botdirquery.ListBotsQuery
	GetManifest     *botdirquery.GetManifestQuery
	ListCommands    *botdirquery.ListCommandsQuery
	LatestChallenge *botdirquery.LatestChallengeQuery
	GetReputation   *botdirquery.GetReputationQuery
}

// Facade bundles the directory's command and query handlers behind one entry
// point so hosts register them on a bus without knowing the wiring.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	reputationReader botdirquery.ReputationReader
}

// WithReputationReader overrides where reputation reads come from, for hosts
// that project metrics out of a separate system.
func WithReputationReader(reader botdirquery.ReputationReader) FacadeOption {
	return func(options *facadeOptions) {
		options.reputationReader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("botdir: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reputationReader := cfg.reputationReader
	if reputationReader == nil {
		reputationReader = service
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		RegisterBot:      botdircommand.NewRegisterBotCommand(service),
		UpdateBotListing: botdircommand.NewUpdateBotListingCommand(service),
		CreateOperator:   botdircommand.NewCreateOperatorCommand(service),
		IssueChallenge:   botdircommand.NewIssueChallengeCommand(service),
		IngestManifest:   botdircommand.NewIngestManifestCommand(service),
	}
	facade.queries = Queries{
		GetBot:          botdirquery.NewGetBotQuery(service),
		ListBots:        botdirquery.NewListBotsQuery(service),
		GetManifest:     botdirquery.NewGetManifestQuery(service),
		ListCommands:    botdirquery.NewListCommandsQuery(service),
		LatestChallenge: botdirquery.NewLatestChallengeQuery(service),
		GetReputation:   botdirquery.NewGetReputationQuery(reputationReader),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
