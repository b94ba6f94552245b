package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-botdir/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type BotStore struct {
	db   *bun.DB
	repo repository.Repository[*botRecord]
}

func (s *BotStore) Create(ctx context.Context, bot core.Bot) (core.Bot, error) {
	if s == nil || s.repo == nil {
		return core.Bot{}, fmt.Errorf("sqlstore: bot store is not configured")
	}
	if strings.TrimSpace(bot.ID) == "" {
		return core.Bot{}, fmt.Errorf("sqlstore: bot id is required")
	}
	if strings.TrimSpace(bot.DID) == "" {
		return core.Bot{}, fmt.Errorf("sqlstore: bot did is required")
	}
	created, err := s.repo.Create(ctx, newBotRecord(bot))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Bot{}, fmt.Errorf("sqlstore: a listing for %s already exists", bot.DID)
		}
		return core.Bot{}, err
	}
	return created.toDomain(), nil
}

func (s *BotStore) GetByID(ctx context.Context, id string) (core.Bot, error) {
	if s == nil || s.repo == nil {
		return core.Bot{}, fmt.Errorf("sqlstore: bot store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if isNotFound(err) {
			return core.Bot{}, core.ErrBotNotFound
		}
		return core.Bot{}, err
	}
	return record.toDomain(), nil
}

func (s *BotStore) GetByDID(ctx context.Context, did string) (core.Bot, error) {
	if s == nil || s.repo == nil {
		return core.Bot{}, fmt.Errorf("sqlstore: bot store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("did", "=", strings.TrimSpace(did)),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.deleted_at IS NULL")
		}),
	)
	if err != nil {
		return core.Bot{}, err
	}
	if len(records) == 0 {
		return core.Bot{}, core.ErrBotNotFound
	}
	return records[0].toDomain(), nil
}

func (s *BotStore) Update(ctx context.Context, bot core.Bot) (core.Bot, error) {
	if s == nil || s.repo == nil {
		return core.Bot{}, fmt.Errorf("sqlstore: bot store is not configured")
	}
	trimmedID := strings.TrimSpace(bot.ID)
	if trimmedID == "" {
		return core.Bot{}, fmt.Errorf("sqlstore: bot id is required")
	}
	record := newBotRecord(bot)
	record.UpdatedAt = time.Now().UTC()
	updated, err := s.repo.Update(ctx, record, repository.UpdateByID(trimmedID))
	if err != nil {
		if isNotFound(err) {
			return core.Bot{}, core.ErrBotNotFound
		}
		return core.Bot{}, err
	}
	return updated.toDomain(), nil
}

// List filters by status/search/badge in SQL; category membership is applied
// in process because the categories column is a JSON document on both
// dialects.
func (s *BotStore) List(ctx context.Context, filter core.BotFilter) (core.BotPage, error) {
	if s == nil || s.db == nil {
		return core.BotPage{}, fmt.Errorf("sqlstore: bot store is not configured")
	}

	records := []*botRecord{}
	query := s.db.NewSelect().
		Model(&records).
		Where("b.deleted_at IS NULL").
		Order("b.created_at DESC")
	if status := strings.TrimSpace(filter.ListingStatus); status != "" {
		query = query.Where("b.listing_status = ?", status)
	}
	if badge := strings.TrimSpace(filter.TrustBadge); badge != "" {
		query = query.Where("b.trust_badge = ?", badge)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		needle := "%" + strings.ToLower(search) + "%"
		query = query.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(b.handle) LIKE ?", needle).
				WhereOr("LOWER(b.display_name) LIKE ?", needle).
				WhereOr("LOWER(b.description) LIKE ?", needle)
		})
	}
	if err := query.Scan(ctx); err != nil {
		return core.BotPage{}, err
	}

	matched := make([]core.Bot, 0, len(records))
	category := strings.TrimSpace(strings.ToLower(filter.Category))
	for _, record := range records {
		bot := record.toDomain()
		if category != "" && !hasCategory(bot.Categories, category) {
			continue
		}
		matched = append(matched, bot)
	}

	total := len(matched)
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return core.BotPage{
		Bots:   matched[offset:end],
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// ActivateIfDraft is a conditional update so concurrent ingestion runs cannot
// double-transition; zero rows means the bot was not in draft.
func (s *BotStore) ActivateIfDraft(ctx context.Context, id string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: bot store is not configured")
	}
	result, err := s.db.NewUpdate().
		Model((*botRecord)(nil)).
		Set("listing_status = ?", string(core.ListingStatusActive)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", strings.TrimSpace(id)).
		Where("listing_status = ?", string(core.ListingStatusDraft)).
		Where("deleted_at IS NULL").
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

func (s *BotStore) SetTrustBadge(ctx context.Context, id string, badge core.TrustBadge) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: bot store is not configured")
	}
	result, err := s.db.NewUpdate().
		Model((*botRecord)(nil)).
		Set("trust_badge = ?", string(badge)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", strings.TrimSpace(id)).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.ErrBotNotFound
	}
	return nil
}

// ListStaleManifests returns bots declaring a manifest URL whose manifest row
// is missing or was last validated before the cutoff.
func (s *BotStore) ListStaleManifests(ctx context.Context, cutoff time.Time, limit int) ([]core.Bot, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: bot store is not configured")
	}
	if limit <= 0 {
		limit = 100
	}
	records := []*botRecord{}
	err := s.db.NewSelect().
		Model(&records).
		Join("LEFT JOIN bot_manifests AS bm ON bm.bot_id = b.id").
		Where("b.deleted_at IS NULL").
		Where("b.manifest_url <> ''").
		Where("bm.validated_at IS NULL OR bm.validated_at < ?", cutoff).
		Order("b.created_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Bot, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func hasCategory(categories []string, category string) bool {
	for _, candidate := range categories {
		if strings.EqualFold(strings.TrimSpace(candidate), category) {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "no rows") || strings.Contains(message, "not found")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
