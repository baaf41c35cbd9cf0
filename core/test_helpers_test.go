package core

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"sync"
)

type fakeEntry struct {
	id             string
	title          string
	username       string
	password       string
	url            string
	additionalURLs []string
	groupName      string
	totp           string
	expired        bool
	recycled       bool
	attributes     map[string]string
	customData     map[string]string
}

func newFakeEntry(id string) *fakeEntry {
	return &fakeEntry{
		id:         id,
		attributes: map[string]string{},
		customData: map[string]string{},
	}
}

func (e *fakeEntry) ID() string                { return e.id }
func (e *fakeEntry) Title() string             { return e.title }
func (e *fakeEntry) Username() string          { return e.username }
func (e *fakeEntry) Password() string          { return e.password }
func (e *fakeEntry) URL() string               { return e.url }
func (e *fakeEntry) AdditionalURLs() []string  { return e.additionalURLs }
func (e *fakeEntry) GroupName() string         { return e.groupName }
func (e *fakeEntry) Expired() bool             { return e.expired }
func (e *fakeEntry) Recycled() bool            { return e.recycled }

func (e *fakeEntry) TOTP() (string, bool) {
	if e.totp == "" {
		return "", false
	}
	return e.totp, true
}

func (e *fakeEntry) AttributeKeys() []string {
	keys := make([]string, 0, len(e.attributes))
	for key := range e.attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (e *fakeEntry) AttributeValue(key string) (string, bool) {
	value, ok := e.attributes[key]
	return value, ok
}

func (e *fakeEntry) RemoveAttribute(key string) error {
	delete(e.attributes, key)
	return nil
}

func (e *fakeEntry) CustomDataValue(key string) (string, bool) {
	value, ok := e.customData[key]
	return value, ok
}

func (e *fakeEntry) SetCustomDataValue(key, value string) error {
	e.customData[key] = value
	return nil
}

func (e *fakeEntry) BeginUpdate() {}
func (e *fakeEntry) EndUpdate()   {}

func (e *fakeEntry) SetUsername(username string) error {
	e.username = username
	return nil
}

func (e *fakeEntry) SetPassword(password string) error {
	e.password = password
	return nil
}

type fakeVault struct {
	id         string
	name       string
	locked     bool
	customData map[string]string
}

func newFakeVault(id string) *fakeVault {
	return &fakeVault{id: id, name: id, customData: map[string]string{}}
}

func (v *fakeVault) ID() string            { return v.id }
func (v *fakeVault) Name() string          { return v.name }
func (v *fakeVault) Locked() bool          { return v.locked }
func (v *fakeVault) RecycleBinID() string  { return "" }

func (v *fakeVault) RootGroup() (Group, bool) { return nil, false }

func (v *fakeVault) GroupsRecursive() iter.Seq[Group] {
	return func(func(Group) bool) {}
}

func (v *fakeVault) EntriesRecursive() iter.Seq[Entry] {
	return func(func(Entry) bool) {}
}

func (v *fakeVault) FindEntryByID(string) (Entry, bool)    { return nil, false }
func (v *fakeVault) FindGroupByPath(string) (Group, bool)  { return nil, false }
func (v *fakeVault) CreateGroup(string) (Group, error)     { return nil, fmt.Errorf("not supported") }
func (v *fakeVault) RecycleEntry(string) error             { return fmt.Errorf("not supported") }

func (v *fakeVault) CreateEntry(string, CreateEntryInput) (Entry, error) {
	return nil, fmt.Errorf("not supported")
}

func (v *fakeVault) CustomDataKeys() []string {
	keys := make([]string, 0, len(v.customData))
	for key := range v.customData {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (v *fakeVault) CustomDataValue(key string) (string, bool) {
	value, ok := v.customData[key]
	return value, ok
}

func (v *fakeVault) SetCustomDataValue(key, value string) error {
	v.customData[key] = value
	return nil
}

func (v *fakeVault) RemoveCustomDataValue(key string) error {
	delete(v.customData, key)
	return nil
}

type fakePrompter struct {
	mu sync.Mutex

	confirmResponse ConfirmAccessResponse
	confirmErr      error
	confirmCalls    int
	lastConfirm     ConfirmAccessRequest

	yesNoAnswers []bool
	yesNoCalls   int

	labels      []string
	labelAccept bool
	labelCalls  int
}

func (p *fakePrompter) ConfirmAccess(ctx context.Context, req ConfirmAccessRequest) (ConfirmAccessResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmCalls++
	p.lastConfirm = req
	if err := ctx.Err(); err != nil {
		return ConfirmAccessResponse{}, err
	}
	return p.confirmResponse, p.confirmErr
}

func (p *fakePrompter) AskYesNo(ctx context.Context, title, message string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	answer := false
	if p.yesNoCalls < len(p.yesNoAnswers) {
		answer = p.yesNoAnswers[p.yesNoCalls]
	}
	p.yesNoCalls++
	return answer, nil
}

func (p *fakePrompter) AskLabel(ctx context.Context, title, message string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	label := ""
	if p.labelCalls < len(p.labels) {
		label = p.labels[p.labelCalls]
	}
	p.labelCalls++
	return label, p.labelAccept, nil
}

type fakeSession struct {
	clientID string
	handled  int
}

func (s *fakeSession) HandleMessage(_ context.Context, raw []byte) ([]byte, error) {
	s.handled++
	return append([]byte(s.clientID+":"), raw...), nil
}

type fakeSessionFactory struct {
	created int
	err     error
}

func (f *fakeSessionFactory) NewSession(clientID string) (ClientSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created++
	return &fakeSession{clientID: clientID}, nil
}
