package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-botdir/core"
	repository "github.com/goliatone/go-repository-bun"
)

type OperatorStore struct {
	repo repository.Repository[*operatorRecord]
}

func (s *OperatorStore) Create(ctx context.Context, operator core.Operator) (core.Operator, error) {
	if s == nil || s.repo == nil {
		return core.Operator{}, fmt.Errorf("sqlstore: operator store is not configured")
	}
	if strings.TrimSpace(operator.ID) == "" {
		return core.Operator{}, fmt.Errorf("sqlstore: operator id is required")
	}
	created, err := s.repo.Create(ctx, newOperatorRecord(operator))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Operator{}, fmt.Errorf("sqlstore: an operator with that email already exists")
		}
		return core.Operator{}, err
	}
	return created.toDomain(), nil
}

func (s *OperatorStore) GetByAPIKey(ctx context.Context, apiKey string) (core.Operator, error) {
	if s == nil || s.repo == nil {
		return core.Operator{}, fmt.Errorf("sqlstore: operator store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("api_key", "=", strings.TrimSpace(apiKey)),
	)
	if err != nil {
		return core.Operator{}, err
	}
	if len(records) == 0 {
		return core.Operator{}, core.ErrOperatorNotFound
	}
	return records[0].toDomain(), nil
}

var _ core.OperatorStore = (*OperatorStore)(nil)
