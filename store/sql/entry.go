package sqlstore

import (
	"time"

	repository "github.com/goliatone/go-repository-bun"
)

// Entry adapts one persisted entry record to the broker's entry contract.
// Field mutations are buffered between BeginUpdate and EndUpdate; EndUpdate
// flushes the record. Data-channel writes persist immediately.
type Entry struct {
	record  *entryRecord
	backend *vaultBackend

	updating bool
	dirty    bool
}

func (e *Entry) ID() string               { return e.record.ID }
func (e *Entry) Title() string            { return e.record.Title }
func (e *Entry) Username() string         { return e.record.Username }
func (e *Entry) Password() string         { return e.record.Password }
func (e *Entry) URL() string              { return e.record.URL }
func (e *Entry) AdditionalURLs() []string { return append([]string(nil), e.record.AdditionalURLs...) }
func (e *Entry) Recycled() bool           { return e.record.Recycled }

func (e *Entry) GroupName() string {
	group, err := e.backend.groups.GetByID(e.backend.ctx(), e.record.GroupID)
	if err != nil {
		return ""
	}
	return group.Name
}

func (e *Entry) Expired() bool {
	return e.record.ExpiresAt != nil && e.record.ExpiresAt.Before(time.Now())
}

func (e *Entry) TOTP() (string, bool) {
	if e.record.TOTPSecret == "" {
		return "", false
	}
	return e.record.TOTPSecret, true
}

func (e *Entry) AttributeKeys() []string {
	keys, err := e.backend.entryData.Keys(e.backend.ctx(), e.record.ID, entryDataKindAttribute)
	if err != nil {
		return nil
	}
	return keys
}

func (e *Entry) AttributeValue(key string) (string, bool) {
	value, ok, err := e.backend.entryData.Get(e.backend.ctx(), e.record.ID, entryDataKindAttribute, key)
	if err != nil {
		return "", false
	}
	return value, ok
}

func (e *Entry) RemoveAttribute(key string) error {
	return e.backend.entryData.Remove(e.backend.ctx(), e.record.ID, entryDataKindAttribute, key)
}

func (e *Entry) CustomDataValue(key string) (string, bool) {
	value, ok, err := e.backend.entryData.Get(e.backend.ctx(), e.record.ID, entryDataKindCustomData, key)
	if err != nil {
		return "", false
	}
	return value, ok
}

func (e *Entry) SetCustomDataValue(key, value string) error {
	return e.backend.entryData.Set(e.backend.ctx(), e.record.ID, entryDataKindCustomData, key, value)
}

func (e *Entry) BeginUpdate() {
	e.updating = true
}

func (e *Entry) EndUpdate() {
	e.updating = false
	if !e.dirty {
		return
	}
	e.record.UpdatedAt = time.Now().UTC()
	if _, err := e.backend.entries.Update(e.backend.ctx(), e.record, repository.UpdateByID(e.record.ID)); err == nil {
		e.dirty = false
	}
}

func (e *Entry) SetUsername(username string) error {
	e.record.Username = username
	return e.flushUnlessUpdating()
}

func (e *Entry) SetPassword(password string) error {
	e.record.Password = password
	return e.flushUnlessUpdating()
}

func (e *Entry) flushUnlessUpdating() error {
	e.dirty = true
	if e.updating {
		return nil
	}
	e.record.UpdatedAt = time.Now().UTC()
	_, err := e.backend.entries.Update(e.backend.ctx(), e.record, repository.UpdateByID(e.record.ID))
	if err == nil {
		e.dirty = false
	}
	return err
}
