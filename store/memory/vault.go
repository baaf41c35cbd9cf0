package memstore

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-credbroker/core"
)

// Vault is a mutex-guarded in-memory vault tree.
type Vault struct {
	mu         sync.RWMutex
	id         string
	name       string
	locked     bool
	root       *Group
	recycleBin *Group
	customData map[string]string
}

func NewVault(name string) *Vault {
	vault := &Vault{
		id:         uuid.NewString(),
		name:       name,
		customData: map[string]string{},
	}
	vault.root = &Group{
		id:               uuid.NewString(),
		name:             "Root",
		searchingEnabled: true,
		vault:            vault,
	}
	return vault
}

func (v *Vault) ID() string   { return v.id }
func (v *Vault) Name() string { return v.name }

func (v *Vault) Locked() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.locked
}

// SetLocked toggles the lock state; hosts call it from their vault lifecycle
// hooks.
func (v *Vault) SetLocked(locked bool) {
	v.mu.Lock()
	v.locked = locked
	v.mu.Unlock()
}

func (v *Vault) RootGroup() (core.Group, bool) {
	return v.root, true
}

func (v *Vault) RecycleBinID() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.recycleBin == nil {
		return ""
	}
	return v.recycleBin.id
}

func (v *Vault) GroupsRecursive() iter.Seq[core.Group] {
	return func(yield func(core.Group) bool) {
		var walk func(group *Group) bool
		walk = func(group *Group) bool {
			if !yield(group) {
				return false
			}
			for _, child := range group.children {
				if !walk(child) {
					return false
				}
			}
			return true
		}
		walk(v.root)
	}
}

func (v *Vault) EntriesRecursive() iter.Seq[core.Entry] {
	return func(yield func(core.Entry) bool) {
		for group := range v.GroupsRecursive() {
			for _, entry := range group.(*Group).entries {
				if !yield(entry) {
					return
				}
			}
		}
	}
}

func (v *Vault) FindEntryByID(id string) (core.Entry, bool) {
	for entry := range v.EntriesRecursive() {
		if entry.ID() == id {
			return entry, true
		}
	}
	return nil, false
}

func (v *Vault) FindGroupByPath(path string) (core.Group, bool) {
	current := v.root
	for _, segment := range splitPath(path) {
		next, ok := current.childByName(segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func (v *Vault) CreateGroup(path string) (core.Group, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil, fmt.Errorf("memstore: group path is required")
	}
	current := v.root
	for _, segment := range segments {
		if next, ok := current.childByName(segment); ok {
			current = next
			continue
		}
		current = current.AddChild(segment)
	}
	return current, nil
}

func (v *Vault) CreateEntry(groupID string, in core.CreateEntryInput) (core.Entry, error) {
	for group := range v.GroupsRecursive() {
		if group.ID() == groupID {
			return group.(*Group).AddEntry(EntrySpec{
				Title:    in.Title,
				Username: in.Username,
				Password: in.Password,
				URL:      in.URL,
			}), nil
		}
	}
	return nil, fmt.Errorf("memstore: group not found: %s", groupID)
}

func (v *Vault) RecycleEntry(id string) error {
	entry, ok := v.FindEntryByID(id)
	if !ok {
		return fmt.Errorf("memstore: entry not found: %s", id)
	}
	typed := entry.(*Entry)
	v.mu.Lock()
	typed.recycled = true
	v.mu.Unlock()
	return nil
}

func (v *Vault) CustomDataKeys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	keys := make([]string, 0, len(v.customData))
	for key := range v.customData {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (v *Vault) CustomDataValue(key string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	value, ok := v.customData[key]
	return value, ok
}

func (v *Vault) SetCustomDataValue(key, value string) error {
	v.mu.Lock()
	v.customData[key] = value
	v.mu.Unlock()
	return nil
}

func (v *Vault) RemoveCustomDataValue(key string) error {
	v.mu.Lock()
	delete(v.customData, key)
	v.mu.Unlock()
	return nil
}

// EnableRecycleBin creates the recycle bin group on first use.
func (v *Vault) EnableRecycleBin() *Group {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.recycleBin == nil {
		bin := v.root.AddChild("Recycle Bin")
		bin.searchingEnabled = false
		bin.recycled = true
		v.recycleBin = bin
	}
	return v.recycleBin
}

// Group is an in-memory vault group.
type Group struct {
	id               string
	name             string
	recycled         bool
	searchingEnabled bool
	vault            *Vault
	entries          []*Entry
	children         []*Group
}

func (g *Group) ID() string             { return g.id }
func (g *Group) Name() string           { return g.name }
func (g *Group) Recycled() bool         { return g.recycled }
func (g *Group) SearchingEnabled() bool { return g.searchingEnabled }

func (g *Group) Entries() []core.Entry {
	entries := make([]core.Entry, 0, len(g.entries))
	for _, entry := range g.entries {
		entries = append(entries, entry)
	}
	return entries
}

func (g *Group) Children() []core.Group {
	children := make([]core.Group, 0, len(g.children))
	for _, child := range g.children {
		children = append(children, child)
	}
	return children
}

func (g *Group) AddChild(name string) *Group {
	child := &Group{
		id:               uuid.NewString(),
		name:             name,
		searchingEnabled: true,
		vault:            g.vault,
	}
	g.children = append(g.children, child)
	return child
}

// SetSearchingEnabled excludes or includes the group subtree from searches.
func (g *Group) SetSearchingEnabled(enabled bool) {
	g.searchingEnabled = enabled
}

func (g *Group) childByName(name string) (*Group, bool) {
	for _, child := range g.children {
		if child.name == name {
			return child, true
		}
	}
	return nil, false
}

// EntrySpec seeds a new in-memory entry.
type EntrySpec struct {
	Title          string
	Username       string
	Password       string
	URL            string
	AdditionalURLs []string
	TOTP           string
	Expired        bool
}

func (g *Group) AddEntry(spec EntrySpec) *Entry {
	entry := &Entry{
		id:             uuid.NewString(),
		title:          spec.Title,
		username:       spec.Username,
		password:       spec.Password,
		url:            spec.URL,
		additionalURLs: append([]string(nil), spec.AdditionalURLs...),
		totp:           spec.TOTP,
		expired:        spec.Expired,
		group:          g,
		attributes:     map[string]string{},
		customData:     map[string]string{},
	}
	g.entries = append(g.entries, entry)
	return entry
}

// Entry is an in-memory credential entry.
type Entry struct {
	mu             sync.RWMutex
	id             string
	title          string
	username       string
	password       string
	url            string
	additionalURLs []string
	totp           string
	expired        bool
	recycled       bool
	group          *Group
	attributes     map[string]string
	customData     map[string]string
}

func (e *Entry) ID() string    { return e.id }
func (e *Entry) Title() string { return e.title }

func (e *Entry) Username() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.username
}

func (e *Entry) Password() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.password
}

func (e *Entry) URL() string { return e.url }

func (e *Entry) AdditionalURLs() []string {
	return append([]string(nil), e.additionalURLs...)
}

func (e *Entry) GroupName() string { return e.group.name }

func (e *Entry) Expired() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.expired
}

func (e *Entry) Recycled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.recycled
}

func (e *Entry) TOTP() (string, bool) {
	if e.totp == "" {
		return "", false
	}
	return e.totp, true
}

func (e *Entry) AttributeKeys() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]string, 0, len(e.attributes))
	for key := range e.attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (e *Entry) AttributeValue(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	value, ok := e.attributes[key]
	return value, ok
}

// SetAttribute seeds a client-visible attribute; tests use it to stage
// legacy data.
func (e *Entry) SetAttribute(key, value string) {
	e.mu.Lock()
	e.attributes[key] = value
	e.mu.Unlock()
}

func (e *Entry) RemoveAttribute(key string) error {
	e.mu.Lock()
	delete(e.attributes, key)
	e.mu.Unlock()
	return nil
}

func (e *Entry) CustomDataValue(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	value, ok := e.customData[key]
	return value, ok
}

func (e *Entry) SetCustomDataValue(key, value string) error {
	e.mu.Lock()
	e.customData[key] = value
	e.mu.Unlock()
	return nil
}

func (e *Entry) BeginUpdate() {}
func (e *Entry) EndUpdate()   {}

func (e *Entry) SetUsername(username string) error {
	e.mu.Lock()
	e.username = username
	e.mu.Unlock()
	return nil
}

func (e *Entry) SetPassword(password string) error {
	e.mu.Lock()
	e.password = password
	e.mu.Unlock()
	return nil
}

// SetExpired toggles the expiration flag.
func (e *Entry) SetExpired(expired bool) {
	e.mu.Lock()
	e.expired = expired
	e.mu.Unlock()
}

func splitPath(path string) []string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return nil
	}
	raw := strings.Split(path, "/")
	segments := make([]string, 0, len(raw))
	for _, segment := range raw {
		if trimmed := strings.TrimSpace(segment); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return segments
}

var (
	_ core.Vault = (*Vault)(nil)
	_ core.Group = (*Group)(nil)
	_ core.Entry = (*Entry)(nil)
)
