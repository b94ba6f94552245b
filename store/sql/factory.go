package sqlstore

import (
	"fmt"

	"github.com/goliatone/go-botdir/core"
	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db *bun.DB

	botStore        *BotStore
	manifestStore   *ManifestStore
	commandStore    *CommandStore
	challengeStore  *ChallengeStore
	operatorStore   *OperatorStore
	reputationStore *ReputationStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) error {
	if f == nil {
		return fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return err
		}
		f.db = db
	}
	if f.botStore != nil {
		return nil
	}
	return f.initStores()
}

func (f *RepositoryFactory) BotStore() core.BotStore {
	if f == nil {
		return nil
	}
	return f.botStore
}

func (f *RepositoryFactory) ManifestStore() core.ManifestStore {
	if f == nil {
		return nil
	}
	return f.manifestStore
}

func (f *RepositoryFactory) CommandStore() core.CommandStore {
	if f == nil {
		return nil
	}
	return f.commandStore
}

func (f *RepositoryFactory) ChallengeStore() core.ChallengeStore {
	if f == nil {
		return nil
	}
	return f.challengeStore
}

func (f *RepositoryFactory) OperatorStore() core.OperatorStore {
	if f == nil {
		return nil
	}
	return f.operatorStore
}

func (f *RepositoryFactory) ReputationStore() core.ReputationStore {
	if f == nil {
		return nil
	}
	return f.reputationStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	botRepo := repository.NewRepository[*botRecord](f.db, botHandlers())
	if validator, ok := botRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid bot repository wiring: %w", err)
		}
	}
	challengeRepo := repository.NewRepository[*challengeRecord](f.db, challengeHandlers())
	if validator, ok := challengeRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid challenge repository wiring: %w", err)
		}
	}
	operatorRepo := repository.NewRepository[*operatorRecord](f.db, operatorHandlers())
	if validator, ok := operatorRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid operator repository wiring: %w", err)
		}
	}

	f.botStore = &BotStore{db: f.db, repo: botRepo}
	f.challengeStore = &ChallengeStore{db: f.db, repo: challengeRepo}
	f.operatorStore = &OperatorStore{repo: operatorRepo}

	manifestStore, err := NewManifestStore(f.db)
	if err != nil {
		return err
	}
	f.manifestStore = manifestStore
	commandStore, err := NewCommandStore(f.db)
	if err != nil {
		return err
	}
	f.commandStore = commandStore
	reputationStore, err := NewReputationStore(f.db)
	if err != nil {
		return err
	}
	f.reputationStore = reputationStore

	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
