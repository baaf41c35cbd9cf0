package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// SessionRegistry holds per-client protocol state, created lazily on first
// message. Sessions stay resident until explicitly removed or swept by the
// idle janitor.
type SessionRegistry struct {
	mu       sync.RWMutex
	factory  SessionFactory
	clock    func() time.Time
	sessions map[string]*sessionState
}

type sessionState struct {
	session  ClientSession
	lastSeen time.Time
}

func NewSessionRegistry(factory SessionFactory) *SessionRegistry {
	return &SessionRegistry{
		factory:  factory,
		clock:    time.Now,
		sessions: make(map[string]*sessionState),
	}
}

// Route dispatches a raw client message to the client's session, creating the
// session on first contact.
func (r *SessionRegistry) Route(ctx context.Context, clientID string, raw []byte) ([]byte, error) {
	id := strings.TrimSpace(clientID)
	if id == "" {
		return nil, fmt.Errorf("core: client id is required")
	}
	session, err := r.ensure(id)
	if err != nil {
		return nil, err
	}
	return session.HandleMessage(ctx, raw)
}

func (r *SessionRegistry) ensure(clientID string) (ClientSession, error) {
	r.mu.RLock()
	state, ok := r.sessions[clientID]
	r.mu.RUnlock()
	if ok {
		r.touch(clientID)
		return state.session, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.sessions[clientID]; ok {
		state.lastSeen = r.clock()
		return state.session, nil
	}
	if r.factory == nil {
		return nil, fmt.Errorf("core: session factory is not configured")
	}
	session, err := r.factory.NewSession(clientID)
	if err != nil {
		return nil, err
	}
	r.sessions[clientID] = &sessionState{session: session, lastSeen: r.clock()}
	return session, nil
}

func (r *SessionRegistry) touch(clientID string) {
	r.mu.Lock()
	if state, ok := r.sessions[clientID]; ok {
		state.lastSeen = r.clock()
	}
	r.mu.Unlock()
}

// Get returns the session for a known client without creating one.
func (r *SessionRegistry) Get(clientID string) (ClientSession, bool) {
	r.mu.RLock()
	state, ok := r.sessions[strings.TrimSpace(clientID)]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return state.session, true
}

// Remove drops a client's session.
func (r *SessionRegistry) Remove(clientID string) {
	r.mu.Lock()
	delete(r.sessions, strings.TrimSpace(clientID))
	r.mu.Unlock()
}

// Len reports the number of resident sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle removes sessions not seen within ttl and reports how many were
// dropped. A ttl of zero disables eviction.
func (r *SessionRegistry) EvictIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := r.clock().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, state := range r.sessions {
		if state.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

// AssociationRegistry manages the persisted client/vault shared-key bindings
// kept in vault custom data.
type AssociationRegistry struct {
	prompter Prompter
	clock    func() time.Time
}

func NewAssociationRegistry(prompter Prompter) *AssociationRegistry {
	return &AssociationRegistry{prompter: prompter, clock: time.Now}
}

// Associate stores a new shared key under a user-chosen label. When the label
// collides with an existing binding the user decides between overwriting and
// picking another name; declining at any prompt aborts the association.
func (r *AssociationRegistry) Associate(ctx context.Context, vault Vault, suggestedLabel, key string) (string, error) {
	if vault == nil {
		return "", fmt.Errorf("core: vault is required")
	}
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("core: association key is required")
	}

	label := strings.TrimSpace(suggestedLabel)
	for {
		if r.prompter != nil {
			value, accepted, err := r.prompter.AskLabel(ctx,
				"New client association",
				"Choose a unique name for this client so you can recognize it later.")
			if err != nil {
				return "", err
			}
			if !accepted {
				return "", goerrors.New("association refused by user", goerrors.CategoryAuthz).
					WithTextCode(BrokerErrorPromptDeclined)
			}
			if strings.TrimSpace(value) != "" {
				label = strings.TrimSpace(value)
			}
		}
		if label == "" {
			return "", fmt.Errorf("core: association label is required")
		}

		_, exists := vault.CustomDataValue(AssociationKeyPrefix + label)
		if !exists {
			break
		}
		if r.prompter == nil {
			break
		}
		overwrite, err := r.prompter.AskYesNo(ctx,
			"Overwrite existing association?",
			fmt.Sprintf("A client named %q is already associated with this vault.", label))
		if err != nil {
			return "", err
		}
		if overwrite {
			break
		}
	}

	if err := vault.SetCustomDataValue(AssociationKeyPrefix+label, key); err != nil {
		return "", err
	}
	if err := vault.SetCustomDataValue(AssociationCreatedPrefix+label, r.now().Format(time.RFC3339)); err != nil {
		return "", err
	}
	return label, nil
}

// LookupKey resolves the stored key for a client label.
func (r *AssociationRegistry) LookupKey(vault Vault, label string) (ClientAssociation, bool) {
	if vault == nil {
		return ClientAssociation{}, false
	}
	label = strings.TrimSpace(label)
	key, ok := vault.CustomDataValue(AssociationKeyPrefix + label)
	if !ok {
		return ClientAssociation{}, false
	}
	assoc := ClientAssociation{Label: label, Key: key}
	if raw, ok := vault.CustomDataValue(AssociationCreatedPrefix + label); ok {
		if created, err := time.Parse(time.RFC3339, raw); err == nil {
			assoc.CreatedAt = created
		}
	}
	return assoc, true
}

// List returns every association stored on the vault, sorted by label.
func (r *AssociationRegistry) List(vault Vault) []ClientAssociation {
	if vault == nil {
		return nil
	}
	var labels []string
	for _, key := range vault.CustomDataKeys() {
		if strings.HasPrefix(key, AssociationKeyPrefix) {
			labels = append(labels, strings.TrimPrefix(key, AssociationKeyPrefix))
		}
	}
	sort.Strings(labels)
	associations := make([]ClientAssociation, 0, len(labels))
	for _, label := range labels {
		if assoc, ok := r.LookupKey(vault, label); ok {
			associations = append(associations, assoc)
		}
	}
	return associations
}

// Remove drops an association and its creation marker.
func (r *AssociationRegistry) Remove(vault Vault, label string) error {
	if vault == nil {
		return fmt.Errorf("core: vault is required")
	}
	label = strings.TrimSpace(label)
	if err := vault.RemoveCustomDataValue(AssociationKeyPrefix + label); err != nil {
		return err
	}
	return vault.RemoveCustomDataValue(AssociationCreatedPrefix + label)
}

func (r *AssociationRegistry) now() time.Time {
	if r.clock == nil {
		return time.Now()
	}
	return r.clock()
}
