package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// EntryDataStore persists per-entry key/value records, both client-visible
// attributes and the protected custom-data channel.
type EntryDataStore struct {
	db   *bun.DB
	repo repository.Repository[*entryDataRecord]
}

func NewEntryDataStore(db *bun.DB, repo repository.Repository[*entryDataRecord]) *EntryDataStore {
	return &EntryDataStore{db: db, repo: repo}
}

func (s *EntryDataStore) Get(ctx context.Context, entryID, kind, key string) (string, bool, error) {
	if s == nil || s.repo == nil {
		return "", false, fmt.Errorf("sqlstore: entry data store is not configured")
	}
	record, err := s.find(ctx, entryID, kind, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	if record == nil {
		return "", false, nil
	}
	return record.Value, true, nil
}

func (s *EntryDataStore) find(ctx context.Context, entryID, kind, key string) (*entryDataRecord, error) {
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("entry_id", "=", strings.TrimSpace(entryID)),
		repository.SelectBy("kind", "=", strings.TrimSpace(kind)),
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

func (s *EntryDataStore) Set(ctx context.Context, entryID, kind, key, value string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: entry data store is not configured")
	}
	entryID = strings.TrimSpace(entryID)
	key = strings.TrimSpace(key)
	if entryID == "" || key == "" {
		return fmt.Errorf("sqlstore: entry id and key are required")
	}

	existing, err := s.find(ctx, entryID, kind, key)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	now := time.Now().UTC()
	if existing != nil {
		existing.Value = value
		existing.UpdatedAt = now
		_, err := s.repo.Update(ctx, existing, repository.UpdateByID(existing.ID))
		return err
	}
	record := &entryDataRecord{
		ID:        uuid.NewString(),
		EntryID:   entryID,
		Kind:      kind,
		Key:       key,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.repo.Create(ctx, record)
	return err
}

func (s *EntryDataStore) Remove(ctx context.Context, entryID, kind, key string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: entry data store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*entryDataRecord)(nil)).
		Where("entry_id = ?", strings.TrimSpace(entryID)).
		Where("kind = ?", strings.TrimSpace(kind)).
		Where("key = ?", strings.TrimSpace(key)).
		Exec(ctx)
	return err
}

func (s *EntryDataStore) Keys(ctx context.Context, entryID, kind string) ([]string, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: entry data store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("entry_id", "=", strings.TrimSpace(entryID)),
		repository.SelectBy("kind", "=", strings.TrimSpace(kind)),
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
