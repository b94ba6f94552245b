package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-botdir/core"
	"github.com/uptrace/bun"
)

type ManifestStore struct {
	db *bun.DB
}

func NewManifestStore(db *bun.DB) (*ManifestStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &ManifestStore{db: db}, nil
}

// Upsert replaces the bot's single manifest row wholesale. Success clears the
// error list, failure clears the structured fields; no history accumulates.
func (s *ManifestStore) Upsert(ctx context.Context, record core.ManifestRecord) (core.ManifestRecord, error) {
	if s == nil || s.db == nil {
		return core.ManifestRecord{}, fmt.Errorf("sqlstore: manifest store is not configured")
	}
	if strings.TrimSpace(record.BotID) == "" {
		return core.ManifestRecord{}, fmt.Errorf("sqlstore: bot id is required")
	}

	row := newManifestRecord(record)
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	if row.Errors == nil {
		row.Errors = []string{}
	}

	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (bot_id) DO UPDATE").
		Set("raw = EXCLUDED.raw").
		Set("schema_version = EXCLUDED.schema_version").
		Set("validated_at = EXCLUDED.validated_at").
		Set("errors = EXCLUDED.errors").
		Set("interaction_modes = EXCLUDED.interaction_modes").
		Set("dm_enabled = EXCLUDED.dm_enabled").
		Set("dm_retention = EXCLUDED.dm_retention").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return core.ManifestRecord{}, err
	}
	return row.toDomain(), nil
}

func (s *ManifestStore) GetByBot(ctx context.Context, botID string) (core.ManifestRecord, error) {
	if s == nil || s.db == nil {
		return core.ManifestRecord{}, fmt.Errorf("sqlstore: manifest store is not configured")
	}
	record := &manifestRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("bm.bot_id = ?", strings.TrimSpace(botID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNotFound(err) {
			return core.ManifestRecord{}, core.ErrManifestNotFound
		}
		return core.ManifestRecord{}, err
	}
	return record.toDomain(), nil
}

var _ core.ManifestStore = (*ManifestStore)(nil)
