package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-credbroker/core"
)

// vaultBackend bundles the repositories one vault tree reads and writes.
// The core contracts expose synchronous accessors, so lookups run under a
// background context and read failures degrade to absent values.
type vaultBackend struct {
	db        *bun.DB
	vaults    repository.Repository[*vaultRecord]
	groups    repository.Repository[*groupRecord]
	entries   repository.Repository[*entryRecord]
	entryData *EntryDataStore
	vaultData *VaultDataStore
}

func (b *vaultBackend) ctx() context.Context {
	return context.Background()
}

// Vault adapts one persisted vault record to the broker's vault contract.
type Vault struct {
	record  *vaultRecord
	backend *vaultBackend
}

func (v *Vault) ID() string   { return v.record.ID }
func (v *Vault) Name() string { return v.record.Name }
func (v *Vault) Locked() bool { return v.record.Locked }

func (v *Vault) RecycleBinID() string { return v.record.RecycleBinID }

func (v *Vault) RootGroup() (core.Group, bool) {
	records, _, err := v.backend.groups.List(v.backend.ctx(),
		repository.SelectBy("vault_id", "=", v.record.ID),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.parent_id IS NULL")
		}),
	)
	if err != nil || len(records) == 0 {
		return nil, false
	}
	return &Group{record: records[0], backend: v.backend}, true
}

func (v *Vault) GroupsRecursive() iter.Seq[core.Group] {
	return func(yield func(core.Group) bool) {
		records, _, err := v.backend.groups.List(v.backend.ctx(),
			repository.SelectBy("vault_id", "=", v.record.ID),
			repository.OrderBy("created_at ASC"),
		)
		if err != nil {
			return
		}
		for _, record := range records {
			if !yield(&Group{record: record, backend: v.backend}) {
				return
			}
		}
	}
}

func (v *Vault) EntriesRecursive() iter.Seq[core.Entry] {
	return func(yield func(core.Entry) bool) {
		records, _, err := v.backend.entries.List(v.backend.ctx(),
			repository.SelectBy("vault_id", "=", v.record.ID),
			repository.OrderBy("created_at ASC"),
		)
		if err != nil {
			return
		}
		for _, record := range records {
			if !yield(&Entry{record: record, backend: v.backend}) {
				return
			}
		}
	}
}

func (v *Vault) FindEntryByID(id string) (core.Entry, bool) {
	record, err := v.backend.entries.GetByID(v.backend.ctx(), strings.TrimSpace(id))
	if err != nil || record == nil || record.VaultID != v.record.ID {
		return nil, false
	}
	return &Entry{record: record, backend: v.backend}, true
}

func (v *Vault) FindGroupByPath(path string) (core.Group, bool) {
	segments := splitGroupPath(path)
	current, ok := v.RootGroup()
	if !ok {
		return nil, false
	}
	for _, segment := range segments {
		next, found := childByName(current, segment)
		if !found {
			return nil, false
		}
		current = next
	}
	return current, true
}

func (v *Vault) CreateGroup(path string) (core.Group, error) {
	segments := splitGroupPath(path)
	if len(segments) == 0 {
		return nil, fmt.Errorf("sqlstore: group path is required")
	}
	current, ok := v.RootGroup()
	if !ok {
		return nil, fmt.Errorf("sqlstore: vault %s has no root group", v.record.ID)
	}
	for _, segment := range segments {
		if next, found := childByName(current, segment); found {
			current = next
			continue
		}
		parentID := current.ID()
		now := time.Now().UTC()
		record := &groupRecord{
			ID:               uuid.NewString(),
			VaultID:          v.record.ID,
			ParentID:         &parentID,
			Name:             segment,
			SearchingEnabled: true,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		created, err := v.backend.groups.Create(v.backend.ctx(), record)
		if err != nil {
			return nil, err
		}
		current = &Group{record: created, backend: v.backend}
	}
	return current, nil
}

func (v *Vault) CreateEntry(groupID string, in core.CreateEntryInput) (core.Entry, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, fmt.Errorf("sqlstore: group id is required")
	}
	group, err := v.backend.groups.GetByID(v.backend.ctx(), groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sqlstore: group not found: %s", groupID)
		}
		return nil, err
	}
	if group.VaultID != v.record.ID {
		return nil, fmt.Errorf("sqlstore: group %s belongs to another vault", groupID)
	}

	now := time.Now().UTC()
	record := &entryRecord{
		ID:        uuid.NewString(),
		VaultID:   v.record.ID,
		GroupID:   groupID,
		Title:     in.Title,
		Username:  in.Username,
		Password:  in.Password,
		URL:       in.URL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := v.backend.entries.Create(v.backend.ctx(), record)
	if err != nil {
		return nil, err
	}
	return &Entry{record: created, backend: v.backend}, nil
}

func (v *Vault) RecycleEntry(id string) error {
	record, err := v.backend.entries.GetByID(v.backend.ctx(), strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if record.VaultID != v.record.ID {
		return fmt.Errorf("sqlstore: entry %s belongs to another vault", id)
	}
	record.Recycled = true
	record.UpdatedAt = time.Now().UTC()
	_, err = v.backend.entries.Update(v.backend.ctx(), record, repository.UpdateByID(record.ID))
	return err
}

func (v *Vault) CustomDataKeys() []string {
	keys, err := v.backend.vaultData.Keys(v.backend.ctx(), v.record.ID)
	if err != nil {
		return nil
	}
	return keys
}

func (v *Vault) CustomDataValue(key string) (string, bool) {
	value, ok, err := v.backend.vaultData.Get(v.backend.ctx(), v.record.ID, key)
	if err != nil {
		return "", false
	}
	return value, ok
}

func (v *Vault) SetCustomDataValue(key, value string) error {
	return v.backend.vaultData.Set(v.backend.ctx(), v.record.ID, key, value)
}

func (v *Vault) RemoveCustomDataValue(key string) error {
	return v.backend.vaultData.Remove(v.backend.ctx(), v.record.ID, key)
}

func splitGroupPath(path string) []string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return nil
	}
	raw := strings.Split(path, "/")
	segments := make([]string, 0, len(raw))
	for _, segment := range raw {
		segment = strings.TrimSpace(segment)
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

func childByName(group core.Group, name string) (core.Group, bool) {
	for _, child := range group.Children() {
		if child.Name() == name {
			return child, true
		}
	}
	return nil, false
}
