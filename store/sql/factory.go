package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-credbroker/core"
)

// RepositoryFactory wires the bun-backed vault stores from a persistence
// client or raw bun handle.
type RepositoryFactory struct {
	db    *bun.DB
	cache repositorycache.CacheService

	backend       *vaultBackend
	vaultProvider *VaultProvider
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

// WithCache installs a cache service for vault data reads. Call before
// BuildStores.
func (f *RepositoryFactory) WithCache(cache repositorycache.CacheService) *RepositoryFactory {
	if f != nil {
		f.cache = cache
	}
	return f
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.vaultProvider != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) VaultProvider() core.VaultProvider {
	if f == nil {
		return nil
	}
	return f.vaultProvider
}

func (f *RepositoryFactory) VaultDataStore() *VaultDataStore {
	if f == nil || f.backend == nil {
		return nil
	}
	return f.backend.vaultData
}

func (f *RepositoryFactory) EntryDataStore() *EntryDataStore {
	if f == nil || f.backend == nil {
		return nil
	}
	return f.backend.entryData
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	vaultRepo := repository.NewRepository[*vaultRecord](f.db, vaultHandlers())
	groupRepo := repository.NewRepository[*groupRecord](f.db, groupHandlers())
	entryRepo := repository.NewRepository[*entryRecord](f.db, entryHandlers())
	entryDataRepo := repository.NewRepository[*entryDataRecord](f.db, entryDataHandlers())
	vaultDataRepo := repository.NewRepository[*vaultDataRecord](f.db, vaultDataHandlers())

	for name, repo := range map[string]any{
		"vault":      vaultRepo,
		"group":      groupRepo,
		"entry":      entryRepo,
		"entry data": entryDataRepo,
		"vault data": vaultDataRepo,
	} {
		if validator, ok := repo.(repository.Validator); ok {
			if err := validator.Validate(); err != nil {
				return fmt.Errorf("sqlstore: invalid %s repository wiring: %w", name, err)
			}
		}
	}

	f.backend = &vaultBackend{
		db:        f.db,
		vaults:    vaultRepo,
		groups:    groupRepo,
		entries:   entryRepo,
		entryData: NewEntryDataStore(f.db, entryDataRepo),
		vaultData: NewVaultDataStore(f.db, vaultDataRepo, f.cache),
	}
	f.vaultProvider = &VaultProvider{backend: f.backend}
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
