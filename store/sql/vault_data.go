package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const vaultDataCacheKeyPrefix = "go-credbroker::vault_data::v1"

// vaultDataValue is the cacheable result of one key lookup; Found false
// caches the absence so repeated association probes skip the database.
type vaultDataValue struct {
	Value string
	Found bool
}

// VaultDataStore persists vault-level key/value records: client associations,
// migration markers, and other broker state. Reads go through an optional
// cache because association keys are probed on every cross-vault search.
type VaultDataStore struct {
	db    *bun.DB
	repo  repository.Repository[*vaultDataRecord]
	cache repositorycache.CacheService
}

func NewVaultDataStore(db *bun.DB, repo repository.Repository[*vaultDataRecord], cache repositorycache.CacheService) *VaultDataStore {
	return &VaultDataStore{db: db, repo: repo, cache: cache}
}

// VaultDataCacheKey returns the deterministic cache key for one vault data
// record: go-credbroker::vault_data::v1::<vault_id>::<key> with both
// segments URL-path escaped.
func VaultDataCacheKey(vaultID, key string) string {
	return strings.Join([]string{
		vaultDataCacheKeyPrefix,
		url.PathEscape(strings.TrimSpace(vaultID)),
		url.PathEscape(strings.TrimSpace(key)),
	}, "::")
}

func (s *VaultDataStore) Get(ctx context.Context, vaultID, key string) (string, bool, error) {
	if s == nil || s.repo == nil {
		return "", false, fmt.Errorf("sqlstore: vault data store is not configured")
	}
	if s.cache == nil {
		value, err := s.fetch(ctx, vaultID, key)
		if err != nil {
			return "", false, err
		}
		return value.Value, value.Found, nil
	}

	value, err := repositorycache.GetOrFetch(ctx, s.cache, VaultDataCacheKey(vaultID, key), func(ctx context.Context) (vaultDataValue, error) {
		return s.fetch(ctx, vaultID, key)
	})
	if err != nil {
		return "", false, err
	}
	return value.Value, value.Found, nil
}

func (s *VaultDataStore) fetch(ctx context.Context, vaultID, key string) (vaultDataValue, error) {
	record, err := s.find(ctx, vaultID, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vaultDataValue{}, nil
		}
		return vaultDataValue{}, err
	}
	if record == nil {
		return vaultDataValue{}, nil
	}
	return vaultDataValue{Value: record.Value, Found: true}, nil
}

func (s *VaultDataStore) find(ctx context.Context, vaultID, key string) (*vaultDataRecord, error) {
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("vault_id", "=", strings.TrimSpace(vaultID)),
		repository.SelectBy("key", "=", strings.TrimSpace(key)),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (s *VaultDataStore) Set(ctx context.Context, vaultID, key, value string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: vault data store is not configured")
	}
	vaultID = strings.TrimSpace(vaultID)
	key = strings.TrimSpace(key)
	if vaultID == "" || key == "" {
		return fmt.Errorf("sqlstore: vault id and key are required")
	}

	existing, err := s.find(ctx, vaultID, key)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	now := time.Now().UTC()
	if existing != nil {
		existing.Value = value
		existing.UpdatedAt = now
		if _, err := s.repo.Update(ctx, existing, repository.UpdateByID(existing.ID)); err != nil {
			return err
		}
	} else {
		record := &vaultDataRecord{
			ID:        uuid.NewString(),
			VaultID:   vaultID,
			Key:       key,
			Value:     value,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := s.repo.Create(ctx, record); err != nil {
			return err
		}
	}
	return s.invalidate(ctx, vaultID, key)
}

func (s *VaultDataStore) Remove(ctx context.Context, vaultID, key string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: vault data store is not configured")
	}
	record, err := s.find(ctx, vaultID, key)
	if err != nil {
		return err
	}
	if record != nil {
		if _, err := s.db.NewDelete().
			Model((*vaultDataRecord)(nil)).
			Where("id = ?", record.ID).
			Exec(ctx); err != nil {
			return err
		}
	}
	return s.invalidate(ctx, vaultID, key)
}

func (s *VaultDataStore) Keys(ctx context.Context, vaultID string) ([]string, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: vault data store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("vault_id", "=", strings.TrimSpace(vaultID)),
		repository.OrderBy("key ASC"),
	)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(records))
	for _, record := range records {
		keys = append(keys, record.Key)
	}
	return keys, nil
}

func (s *VaultDataStore) invalidate(ctx context.Context, vaultID, key string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, VaultDataCacheKey(vaultID, key))
}
