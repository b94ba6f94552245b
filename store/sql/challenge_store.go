package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-botdir/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ChallengeStore struct {
	db   *bun.DB
	repo repository.Repository[*challengeRecord]
}

func (s *ChallengeStore) Create(ctx context.Context, challenge core.VerificationChallenge) (core.VerificationChallenge, error) {
	if s == nil || s.repo == nil {
		return core.VerificationChallenge{}, fmt.Errorf("sqlstore: challenge store is not configured")
	}
	if strings.TrimSpace(challenge.ID) == "" {
		return core.VerificationChallenge{}, fmt.Errorf("sqlstore: challenge id is required")
	}
	if strings.TrimSpace(challenge.BotID) == "" {
		return core.VerificationChallenge{}, fmt.Errorf("sqlstore: bot id is required")
	}
	created, err := s.repo.Create(ctx, newChallengeRecord(challenge))
	if err != nil {
		return core.VerificationChallenge{}, err
	}
	return created.toDomain(), nil
}

func (s *ChallengeStore) Get(ctx context.Context, id string) (core.VerificationChallenge, error) {
	if s == nil || s.repo == nil {
		return core.VerificationChallenge{}, fmt.Errorf("sqlstore: challenge store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if isNotFound(err) {
			return core.VerificationChallenge{}, core.ErrChallengeNotFound
		}
		return core.VerificationChallenge{}, err
	}
	return record.toDomain(), nil
}

func (s *ChallengeStore) LatestForBot(ctx context.Context, botID string) (core.VerificationChallenge, error) {
	if s == nil || s.repo == nil {
		return core.VerificationChallenge{}, fmt.Errorf("sqlstore: challenge store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("bot_id", "=", strings.TrimSpace(botID)),
		repository.OrderBy("issued_at DESC"),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Limit(1)
		}),
	)
	if err != nil {
		return core.VerificationChallenge{}, err
	}
	if len(records) == 0 {
		return core.VerificationChallenge{}, core.ErrChallengeNotFound
	}
	return records[0].toDomain(), nil
}

// TransitionFromPending is the single-shot terminal write: a conditional
// update guarded on status='pending'. Zero rows affected means another worker
// already finalized the challenge.
func (s *ChallengeStore) TransitionFromPending(ctx context.Context, id string, next core.ChallengeStatus, evidenceURI string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: challenge store is not configured")
	}
	if !next.Terminal() {
		return false, fmt.Errorf("sqlstore: %q is not a terminal challenge status", next)
	}
	result, err := s.db.NewUpdate().
		Model((*challengeRecord)(nil)).
		Set("status = ?", string(next)).
		Set("evidence_uri = ?", strings.TrimSpace(evidenceURI)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", strings.TrimSpace(id)).
		Where("status = ?", string(core.ChallengeStatusPending)).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

var _ core.ChallengeStore = (*ChallengeStore)(nil)
