package core

import (
	"context"
	"iter"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-credbroker/policy"
)

// Custom-data keys for per-entry behavior flags. Values are "true"/"false".
const (
	DataKeyHideEntry      = "broker.hide_entry"
	DataKeyOnlyHTTPAuth   = "broker.only_http_auth"
	DataKeyNotHTTPAuth    = "broker.not_http_auth"
	DataKeySkipAutoSubmit = "broker.skip_auto_submit"
)

// Vault-level custom-data key shapes for persisted client associations.
const (
	AssociationKeyPrefix     = "assoc:"
	AssociationCreatedPrefix = "assoc-created:"
)

// LegacyAttributePrefix marks pre-migration per-entry shared keys kept in
// entry attributes instead of vault custom data.
const LegacyAttributePrefix = "legacy-key:"

// LegacyRuleAttribute is the attribute name older releases stored access
// rules under before the custom-data side channel existed.
const LegacyRuleAttribute = "Broker Settings"

// StringFieldPrefix marks entry attributes exposed to clients as extra
// string fields when the corresponding setting is on.
const StringFieldPrefix = "KPH: "

// TrueValue is the canonical truthy custom-data value.
const TrueValue = "true"

// Entry is a borrowed view of one stored credential. The vault owns the
// record; the broker reads it during a single request and mutates it only
// through the Begin/EndUpdate bracket.
type Entry interface {
	ID() string
	Title() string
	Username() string
	Password() string
	URL() string
	AdditionalURLs() []string
	GroupName() string
	Expired() bool
	Recycled() bool
	TOTP() (string, bool)

	AttributeKeys() []string
	AttributeValue(key string) (string, bool)
	RemoveAttribute(key string) error

	CustomDataValue(key string) (string, bool)
	SetCustomDataValue(key, value string) error

	BeginUpdate()
	EndUpdate()
	SetUsername(username string) error
	SetPassword(password string) error
}

// Group is a borrowed view of a vault group.
type Group interface {
	ID() string
	Name() string
	Recycled() bool
	SearchingEnabled() bool
	Entries() []Entry
	Children() []Group
}

// Vault is the credential store collaborator. Implementations expose a lazy,
// restartable traversal; the broker never materializes ownership of the
// tree.
type Vault interface {
	ID() string
	Name() string
	Locked() bool

	RootGroup() (Group, bool)
	RecycleBinID() string
	GroupsRecursive() iter.Seq[Group]
	EntriesRecursive() iter.Seq[Entry]

	FindEntryByID(id string) (Entry, bool)
	FindGroupByPath(path string) (Group, bool)
	CreateGroup(path string) (Group, error)
	CreateEntry(groupID string, in CreateEntryInput) (Entry, error)
	RecycleEntry(id string) error

	CustomDataKeys() []string
	CustomDataValue(key string) (string, bool)
	SetCustomDataValue(key, value string) error
	RemoveCustomDataValue(key string) error
}

// VaultProvider resolves which vaults are visible to a request: the single
// active vault and every open (unlocked) one.
type VaultProvider interface {
	ActiveVault() (Vault, bool)
	OpenVaults() []Vault
}

// CreateEntryInput seeds a new entry created on behalf of a client.
type CreateEntryInput struct {
	Title    string
	Username string
	Password string
	URL      string
}

// ClientKey pairs a client identifier with the shared key value it presented
// for vault authorization.
type ClientKey struct {
	ID  string
	Key string
}

// MatchRequest describes one credential lookup. It is immutable for the
// duration of a single orchestration pass.
type MatchRequest struct {
	PageURL    string
	SubmitURL  string
	Realm      string
	HTTPAuth   bool
	ClientKeys []ClientKey
}

// RequestContext carries per-request state that older designs kept in
// ambient globals.
type RequestContext struct {
	ActiveVaultID string
}

// Login is the serialized result disclosed to a client for one approved
// entry.
type Login struct {
	ID             string            `json:"uuid"`
	Name           string            `json:"name"`
	Username       string            `json:"login"`
	Password       string            `json:"password"`
	Group          string            `json:"group"`
	TOTP           string            `json:"totp,omitempty"`
	Expired        bool              `json:"expired,omitempty"`
	SkipAutoSubmit string            `json:"skipAutoSubmit,omitempty"`
	StringFields   []map[string]string `json:"stringFields,omitempty"`
}

// ClientAssociation is the persisted shared-secret binding between a client
// label and a vault.
type ClientAssociation struct {
	Label     string
	Key       string
	CreatedAt time.Time
}

// AddLoginRequest captures a client's request to store a new credential.
type AddLoginRequest struct {
	Username  string
	Password  string
	URL       string
	SubmitURL string
	Realm     string
	GroupPath string
	GroupID   string
}

// UpdateLoginRequest captures a client's request to update stored
// credentials for an existing entry.
type UpdateLoginRequest struct {
	EntryID   string
	Username  string
	Password  string
	URL       string
	SubmitURL string
}

// GroupNode is one node of the serialized vault group tree.
type GroupNode struct {
	Name     string      `json:"name"`
	ID       string      `json:"uuid"`
	Children []GroupNode `json:"children"`
}

// GroupRef identifies a group that was found or created by path.
type GroupRef struct {
	Name string `json:"name"`
	ID   string `json:"uuid"`
}

// ConfirmCandidate is the projection of an entry shown to the human
// decision-maker.
type ConfirmCandidate struct {
	ID       string
	Title    string
	Username string
	URL      string
}

// ConfirmAccessRequest asks the human collaborator to approve a subset of
// candidates for the given request context.
type ConfirmAccessRequest struct {
	Candidates []ConfirmCandidate
	Host       string
	SubmitHost string
	Realm      string
	HTTPAuth   bool
}

// ConfirmAccessResponse carries the approved subset back. RejectedIDs lists
// candidates the user explicitly struck out, as opposed to merely leaving
// unselected; only explicit rejections earn a persisted denial.
type ConfirmAccessResponse struct {
	ApprovedIDs []string
	RejectedIDs []string
	Remember    bool
}

// Prompter is the human-decision collaborator. Calls block until the user
// answers or ctx is canceled.
type Prompter interface {
	ConfirmAccess(ctx context.Context, req ConfirmAccessRequest) (ConfirmAccessResponse, error)
	AskYesNo(ctx context.Context, title, message string) (bool, error)
	AskLabel(ctx context.Context, title, message string) (value string, accepted bool, err error)
}

// ClientSession owns per-client protocol and handshake state. Sessions are
// created lazily by the registry and live until process teardown unless an
// idle janitor is configured.
type ClientSession interface {
	HandleMessage(ctx context.Context, raw []byte) ([]byte, error)
}

// SessionFactory builds protocol state for a previously unseen client id.
type SessionFactory interface {
	NewSession(clientID string) (ClientSession, error)
}

// ClientNotifier delivers out-of-band messages (vault locked/unlocked) to
// connected clients.
type ClientNotifier interface {
	Notify(ctx context.Context, message []byte) error
}

// Searcher finds candidate entries for a request across eligible vaults.
type Searcher interface {
	FindCandidates(ctx context.Context, req MatchRequest) ([]Entry, error)
}

// Confirmer resolves the allowed subset of candidates, consulting policy and
// the human collaborator.
type Confirmer interface {
	Resolve(ctx context.Context, req MatchRequest, candidates []Entry) ([]Entry, error)
}

// AccessPolicy is the slice of the policy evaluator the coordinator needs.
type AccessPolicy interface {
	Evaluate(entry policy.RuleCarrier, host, submitHost, realm string) policy.Verdict
	Allow(entry policy.RuleCarrier, host string) error
	Deny(entry policy.RuleCarrier, host string) error
	SetRealm(entry policy.RuleCarrier, realm string) error
}

// MetricsRecorder mirrors the ambient metrics contract used by the service
// facade.
type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// MaintenanceJobMessage describes a broker maintenance job (session
// eviction, legacy migration) handed to an external queue.
type MaintenanceJobMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

// MaintenanceEnqueuer hands maintenance jobs to an external queue.
type MaintenanceEnqueuer interface {
	Enqueue(ctx context.Context, msg *MaintenanceJobMessage) error
}

// BrokerService is the full client-facing surface of the broker.
type BrokerService interface {
	FindLogins(ctx context.Context, req MatchRequest) ([]Login, error)
	AddLogin(ctx context.Context, req AddLoginRequest) (Login, error)
	UpdateLogin(ctx context.Context, req UpdateLoginRequest) (Login, error)
	VaultGroups(ctx context.Context) (GroupNode, error)
	CreateGroup(ctx context.Context, path string) (GroupRef, error)
	VaultHash(ctx context.Context) (string, error)
	Associate(ctx context.Context, suggestedLabel, key string) (string, error)
	LookupKey(ctx context.Context, label string) (ClientAssociation, error)
	Route(ctx context.Context, clientID string, raw []byte) ([]byte, error)
	MigrateLegacySettings(ctx context.Context) (int, error)
	OnVaultLocked(ctx context.Context)
	OnVaultUnlocked(ctx context.Context)
	OnActiveVaultChanged(ctx context.Context)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
