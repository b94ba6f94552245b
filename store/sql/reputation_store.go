package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-botdir/core"
	"github.com/uptrace/bun"
)

// ReputationStore reads the reputation projection. An absent row reads as the
// zero projection rather than an error; every bot conceptually has metrics.
type ReputationStore struct {
	db *bun.DB
}

func NewReputationStore(db *bun.DB) (*ReputationStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &ReputationStore{db: db}, nil
}

func (s *ReputationStore) GetForBot(ctx context.Context, botID string) (core.ReputationMetrics, error) {
	if s == nil || s.db == nil {
		return core.ReputationMetrics{}, fmt.Errorf("sqlstore: reputation store is not configured")
	}
	trimmedID := strings.TrimSpace(botID)
	record := &reputationRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("brm.bot_id = ?", trimmedID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNotFound(err) {
			return core.ReputationMetrics{BotID: trimmedID}, nil
		}
		return core.ReputationMetrics{}, err
	}
	return record.toDomain(), nil
}

var _ core.ReputationStore = (*ReputationStore)(nil)
