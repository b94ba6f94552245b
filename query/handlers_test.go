package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-botdir/core"
	goerrors "github.com/goliatone/go-errors"
)

func TestGetBotQuery_DelegatesToReader(t *testing.T) {
	expected := core.Bot{ID: "bot-1", DID: "did:plc:abc", Handle: "helper.bsky.social"}
	reader := stubDirectoryReader{
		getBotFn: func(_ context.Context, botID string) (core.Bot, error) {
			if botID != "bot-1" {
				t.Fatalf("unexpected bot id %q", botID)
			}
			return expected, nil
		},
	}

	got, err := NewGetBotQuery(reader).Query(context.Background(), GetBotMessage{BotID: "bot-1"})
	if err != nil {
		t.Fatalf("query get bot: %v", err)
	}
	if got.ID != expected.ID || got.DID != expected.DID {
		t.Fatalf("unexpected bot: %#v", got)
	}
}

func TestListBotsQuery_DelegatesFilter(t *testing.T) {
	reader := stubDirectoryReader{
		listBotsFn: func(_ context.Context, filter core.BotFilter) (core.BotPage, error) {
			if filter.Category != "moderation" || filter.Limit != 10 {
				t.Fatalf("unexpected filter: %#v", filter)
			}
			return core.BotPage{Bots: []core.Bot{{ID: "bot-1"}}, Total: 1, Limit: 10}, nil
		},
	}

	page, err := NewListBotsQuery(reader).Query(context.Background(), ListBotsMessage{
		Filter: core.BotFilter{Category: "moderation", Limit: 10},
	})
	if err != nil {
		t.Fatalf("query list bots: %v", err)
	}
	if page.Total != 1 || len(page.Bots) != 1 {
		t.Fatalf("unexpected page: %#v", page)
	}
}

func TestManifestQueries_DelegateToReader(t *testing.T) {
	validatedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	reader := stubDirectoryReader{
		getManifestFn: func(_ context.Context, botID string) (core.ManifestRecord, error) {
			return core.ManifestRecord{BotID: botID, SchemaVersion: "1.0", ValidatedAt: &validatedAt}, nil
		},
		listCommandsFn: func(_ context.Context, botID string) ([]core.CommandRecord, error) {
			return []core.CommandRecord{{BotID: botID, Name: "summarize"}}, nil
		},
	}

	record, err := NewGetManifestQuery(reader).Query(context.Background(), GetManifestMessage{BotID: "bot-1"})
	if err != nil {
		t.Fatalf("query get manifest: %v", err)
	}
	if !record.Valid() {
		t.Fatalf("expected valid manifest record: %#v", record)
	}

	commands, err := NewListCommandsQuery(reader).Query(context.Background(), ListCommandsMessage{BotID: "bot-1"})
	if err != nil {
		t.Fatalf("query list commands: %v", err)
	}
	if len(commands) != 1 || commands[0].Name != "summarize" {
		t.Fatalf("unexpected commands: %#v", commands)
	}
}

func TestLatestChallengeQuery_DelegatesToReader(t *testing.T) {
	reader := stubDirectoryReader{
		latestChallengeFn: func(_ context.Context, botID string) (core.VerificationChallenge, error) {
			return core.VerificationChallenge{ID: "ch-1", BotID: botID, Status: core.ChallengeStatusPending}, nil
		},
	}

	got, err := NewLatestChallengeQuery(reader).Query(context.Background(), LatestChallengeMessage{BotID: "bot-1"})
	if err != nil {
		t.Fatalf("query latest challenge: %v", err)
	}
	if got.ID != "ch-1" || got.Status != core.ChallengeStatusPending {
		t.Fatalf("unexpected challenge: %#v", got)
	}
}

func TestGetReputationQuery_DelegatesToReader(t *testing.T) {
	reader := stubDirectoryReader{
		getReputationFn: func(_ context.Context, botID string) (core.ReputationMetrics, error) {
			return core.ReputationMetrics{BotID: botID, ManifestCompletenessPct: 80}, nil
		},
	}

	got, err := NewGetReputationQuery(reader).Query(context.Background(), GetReputationMessage{BotID: "bot-1"})
	if err != nil {
		t.Fatalf("query get reputation: %v", err)
	}
	if got.ManifestCompletenessPct != 80 {
		t.Fatalf("unexpected metrics: %#v", got)
	}
}

func TestQueryMessageValidation(t *testing.T) {
	tests := []struct {
		name    string
		msg     interface{ Validate() error }
		wantErr bool
	}{
		{name: "get bot valid", msg: GetBotMessage{BotID: "bot-1"}, wantErr: false},
		{name: "get bot missing id", msg: GetBotMessage{}, wantErr: true},
		{name: "list bots valid", msg: ListBotsMessage{Filter: core.BotFilter{Limit: 20}}, wantErr: false},
		{name: "list bots negative limit", msg: ListBotsMessage{Filter: core.BotFilter{Limit: -1}}, wantErr: true},
		{
			name:    "list bots unknown status",
			msg:     ListBotsMessage{Filter: core.BotFilter{ListingStatus: "archived"}},
			wantErr: true,
		},
		{name: "latest challenge missing id", msg: LatestChallengeMessage{}, wantErr: true},
		{name: "get reputation valid", msg: GetReputationMessage{BotID: "bot-1"}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetBotQuery_NilReaderReturnsRichError(t *testing.T) {
	var q *GetBotQuery
	_, err := q.Query(context.Background(), GetBotMessage{BotID: "bot-1"})
	if err == nil {
		t.Fatal("expected dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}

type stubDirectoryReader struct {
	getBotFn          func(ctx context.Context, botID string) (core.Bot, error)
	listBotsFn        func(ctx context.Context, filter core.BotFilter) (core.BotPage, error)
	getManifestFn     func(ctx context.Context, botID string) (core.ManifestRecord, error)
	listCommandsFn    func(ctx context.Context, botID string) ([]core.CommandRecord, error)
	latestChallengeFn func(ctx context.Context, botID string) (core.VerificationChallenge, error)
	getReputationFn   func(ctx context.Context, botID string) (core.ReputationMetrics, error)
}

func (s stubDirectoryReader) GetBot(ctx context.Context, botID string) (core.Bot, error) {
	if s.getBotFn == nil {
		return core.Bot{}, fmt.Errorf("get bot not configured")
	}
	return s.getBotFn(ctx, botID)
}

func (s stubDirectoryReader) ListBots(ctx context.Context, filter core.BotFilter) (core.BotPage, error) {
	if s.listBotsFn == nil {
		return core.BotPage{}, fmt.Errorf("list bots not configured")
	}
	return s.listBotsFn(ctx, filter)
}

func (s stubDirectoryReader) GetManifest(ctx context.Context, botID string) (core.ManifestRecord, error) {
	if s.getManifestFn == nil {
		return core.ManifestRecord{}, fmt.Errorf("get manifest not configured")
	}
	return s.getManifestFn(ctx, botID)
}

func (s stubDirectoryReader) ListCommands(ctx context.Context, botID string) ([]core.CommandRecord, error) {
	if s.listCommandsFn == nil {
		return nil, fmt.Errorf("list commands not configured")
	}
	return s.listCommandsFn(ctx, botID)
}

func (s stubDirectoryReader) LatestChallenge(ctx context.Context, botID string) (core.VerificationChallenge, error) {
	if s.latestChallengeFn == nil {
		return core.VerificationChallenge{}, fmt.Errorf("latest challenge not configured")
	}
	return s.latestChallengeFn(ctx, botID)
}

func (s stubDirectoryReader) GetReputation(ctx context.Context, botID string) (core.ReputationMetrics, error) {
	if s.getReputationFn == nil {
		return core.ReputationMetrics{}, fmt.Errorf("get reputation not configured")
	}
	return s.getReputationFn(ctx, botID)
}

var (
	_ BotReader        = stubDirectoryReader{}
	_ ManifestReader   = stubDirectoryReader{}
	_ ChallengeReader  = stubDirectoryReader{}
	_ ReputationReader = stubDirectoryReader{}
)
