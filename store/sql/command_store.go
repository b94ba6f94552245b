package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-botdir/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type CommandStore struct {
	db *bun.DB
}

func NewCommandStore(db *bun.DB) (*CommandStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &CommandStore{db: db}, nil
}

// ReplaceForBot swaps the bot's full command set in one transaction:
// delete-all-then-insert, never a partial patch.
func (s *CommandStore) ReplaceForBot(ctx context.Context, botID string, commands []core.CommandRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: command store is not configured")
	}
	trimmedID := strings.TrimSpace(botID)
	if trimmedID == "" {
		return fmt.Errorf("sqlstore: bot id is required")
	}

	now := time.Now().UTC()
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*commandRecord)(nil)).
			Where("bot_id = ?", trimmedID).
			Exec(ctx); err != nil {
			return err
		}
		if len(commands) == 0 {
			return nil
		}
		rows := make([]*commandRecord, 0, len(commands))
		for position, command := range commands {
			command.BotID = trimmedID
			if strings.TrimSpace(command.ID) == "" {
				command.ID = uuid.NewString()
			}
			rows = append(rows, newCommandRecord(command, position, now))
		}
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
}

func (s *CommandStore) ListForBot(ctx context.Context, botID string) ([]core.CommandRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: command store is not configured")
	}
	records := []*commandRecord{}
	err := s.db.NewSelect().
		Model(&records).
		Where("bc.bot_id = ?", strings.TrimSpace(botID)).
		Order("bc.position ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.CommandRecord, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

var _ core.CommandStore = (*CommandStore)(nil)
