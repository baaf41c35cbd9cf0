package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"golang.org/x/text/language"

	"github.com/goliatone/go-credbroker/match"
	"github.com/goliatone/go-credbroker/policy"
)

var (
	ErrVaultNotFound = errors.New("core: vault not found")
	ErrVaultLocked   = errors.New("core: vault is locked")
	ErrEntryNotFound = errors.New("core: entry not found")
	ErrGroupNotFound = errors.New("core: group not found")
)

// DataKeyMigrated marks a vault whose legacy attribute-based settings were
// already moved into the custom-data side channel.
const DataKeyMigrated = "broker.migrated"

// RepositoryStoreFactory builds the persistence-backed collaborators from a
// raw persistence client handed in by the host application.
type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

// StoreProvider exposes the stores a repository factory produced.
type StoreProvider interface {
	VaultProvider() VaultProvider
}

type Service struct {
	config              Config
	logger              Logger
	loggerProvider      LoggerProvider
	metricsRecorder     MetricsRecorder
	errorFactory        ErrorFactory
	errorMapper         ErrorMapper
	persistenceClient   any
	repositoryFactory   any
	configProvider      ConfigProvider
	optionsResolver     OptionsResolver
	vaults              VaultProvider
	prompter            Prompter
	notifier            ClientNotifier
	searcher            Searcher
	confirmer           Confirmer
	accessPolicy        AccessPolicy
	sessions            *SessionRegistry
	associations        *AssociationRegistry
	maintenanceEnqueuer MaintenanceEnqueuer
	codec               LoginCodec
	locale              language.Tag
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("credbroker", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("credbroker"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.vaultProvider == nil && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			storeProvider, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if storeProvider != nil {
				builder.vaultProvider = storeProvider.VaultProvider()
			}
		} else if storeProvider, ok := builder.repositoryFactory.(StoreProvider); ok {
			builder.vaultProvider = storeProvider.VaultProvider()
		}
	}

	if builder.accessPolicy == nil {
		builder.accessPolicy = defaultAccessPolicy(finalConfig)
	}

	configFn := func() Config { return finalConfig }
	if builder.searcher == nil {
		builder.searcher = NewSearchOrchestrator(builder.vaultProvider, configFn, logger)
	}
	if builder.confirmer == nil {
		builder.confirmer = NewConfirmCoordinator(builder.accessPolicy, builder.prompter, configFn, logger)
	}

	locale := language.Und
	if trimmed := strings.TrimSpace(finalConfig.Locale); trimmed != "" {
		if parsed, parseErr := language.Parse(trimmed); parseErr == nil {
			locale = parsed
		}
	}

	return &Service{
		config:              finalConfig,
		logger:              logger,
		loggerProvider:      provider,
		metricsRecorder:     builder.metricsRecorder,
		errorFactory:        builder.errorFactory,
		errorMapper:         builder.errorMapper,
		persistenceClient:   builder.persistenceClient,
		repositoryFactory:   builder.repositoryFactory,
		configProvider:      builder.configProvider,
		optionsResolver:     builder.optionsResolver,
		vaults:              builder.vaultProvider,
		prompter:            builder.prompter,
		notifier:            builder.notifier,
		searcher:            builder.searcher,
		confirmer:           builder.confirmer,
		accessPolicy:        builder.accessPolicy,
		sessions:            NewSessionRegistry(builder.sessionFactory),
		associations:        NewAssociationRegistry(builder.prompter),
		maintenanceEnqueuer: builder.maintenanceEnqueuer,
		codec:               LoginCodec{SupportKPHFields: finalConfig.SupportKPHFields},
		locale:              locale,
	}, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

// ServiceDependencies exposes the resolved collaborators for hosts that need
// to introspect or extend the wiring.
type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	VaultProvider     VaultProvider
	Prompter          Prompter
	Notifier          ClientNotifier
	Searcher          Searcher
	Confirmer         Confirmer
	AccessPolicy      AccessPolicy
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		VaultProvider:     s.vaults,
		Prompter:          s.prompter,
		Notifier:          s.notifier,
		Searcher:          s.searcher,
		Confirmer:         s.confirmer,
		AccessPolicy:      s.accessPolicy,
	}
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Sessions() *SessionRegistry {
	if s == nil {
		return nil
	}
	return s.sessions
}

func (s *Service) Associations() *AssociationRegistry {
	if s == nil {
		return nil
	}
	return s.associations
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	if mapped := s.errorMapper(err); mapped != nil {
		return mapped
	}
	return err
}

// FindLogins runs the full disclosure pipeline for one lookup: search the
// eligible vaults, resolve access per entry, rank the survivors, and project
// them into client payloads.
func (s *Service) FindLogins(ctx context.Context, req MatchRequest) ([]Login, error) {
	startedAt := time.Now()
	fields := map[string]any{"host": hostOf(req.PageURL), "http_auth": req.HTTPAuth}

	logins, err := s.findLogins(ctx, req)
	fields["result_count"] = len(logins)
	s.observeOperation(ctx, startedAt, "find_logins", err, fields)
	return logins, s.mapError(err)
}

func (s *Service) findLogins(ctx context.Context, req MatchRequest) ([]Login, error) {
	candidates, err := s.searcher.FindCandidates(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	allowed, err := s.confirmer.Resolve(ctx, req, candidates)
	if err != nil {
		return nil, err
	}
	return s.codec.EncodeAll(s.rank(req, allowed)), nil
}

func (s *Service) rank(req MatchRequest, entries []Entry) []Entry {
	if len(entries) < 2 {
		return entries
	}
	byID := make(map[string]Entry, len(entries))
	candidates := make([]match.Candidate, 0, len(entries))
	for _, entry := range entries {
		byID[entry.ID()] = entry
		candidates = append(candidates, match.Candidate{
			ID:       entry.ID(),
			Title:    entry.Title(),
			Username: entry.Username(),
			URL:      entry.URL(),
		})
	}

	field := SortFieldForConfig(s.config)
	ranked := match.Rank(candidates, hostOf(req.PageURL), req.SubmitURL, match.RankOptions{
		Field:         field,
		BestMatchOnly: s.config.Match.BestMatchOnly,
		Locale:        s.locale,
	})

	ordered := make([]Entry, 0, len(ranked))
	for _, candidate := range ranked {
		if entry, ok := byID[candidate.ID]; ok {
			ordered = append(ordered, entry)
		}
	}
	return ordered
}

// SortFieldForConfig maps the sort setting onto the ranker's field selector.
func SortFieldForConfig(cfg Config) match.SortField {
	if cfg.Match.SortByTitle {
		return match.SortFieldTitle
	}
	return match.SortFieldUsername
}

// DefaultEntryGroup is where client-saved credentials land when the request
// names no group.
const DefaultEntryGroup = "Broker Passwords"

// AddLogin creates a new credential entry in the active vault. The entry
// title defaults to the page host, and its access rule is seeded with the
// requesting hosts so the page can read the credential back without another
// prompt.
func (s *Service) AddLogin(ctx context.Context, req AddLoginRequest) (Login, error) {
	startedAt := time.Now()
	fields := map[string]any{"host": hostOf(req.URL)}

	login, err := s.addLogin(ctx, req)
	s.observeOperation(ctx, startedAt, "add_login", err, fields)
	return login, s.mapError(err)
}

func (s *Service) addLogin(ctx context.Context, req AddLoginRequest) (Login, error) {
	vault, err := s.activeVault()
	if err != nil {
		return Login{}, err
	}
	if strings.TrimSpace(req.URL) == "" {
		return Login{}, fmt.Errorf("core: login url is required")
	}

	groupID, err := s.resolveTargetGroup(vault, req)
	if err != nil {
		return Login{}, err
	}

	title := hostOf(req.URL)
	if title == "" {
		title = req.URL
	}
	entry, err := vault.CreateEntry(groupID, CreateEntryInput{
		Title:    title,
		Username: req.Username,
		Password: req.Password,
		URL:      req.URL,
	})
	if err != nil {
		return Login{}, err
	}

	if err := s.seedAccessRule(entry, hostOf(req.URL), hostOf(req.SubmitURL), strings.TrimSpace(req.Realm)); err != nil {
		return Login{}, err
	}
	return s.codec.Encode(entry), nil
}

func (s *Service) seedAccessRule(entry Entry, host, submitHost, realm string) error {
	entry.BeginUpdate()
	defer entry.EndUpdate()

	if host != "" {
		if err := s.accessPolicy.Allow(entry, host); err != nil {
			return err
		}
	}
	if submitHost != "" && submitHost != host {
		if err := s.accessPolicy.Allow(entry, submitHost); err != nil {
			return err
		}
	}
	if realm != "" {
		if err := s.accessPolicy.SetRealm(entry, realm); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) resolveTargetGroup(vault Vault, req AddLoginRequest) (string, error) {
	if id := strings.TrimSpace(req.GroupID); id != "" {
		for group := range vault.GroupsRecursive() {
			if group.ID() == id {
				return id, nil
			}
		}
		return "", fmt.Errorf("core: group not found: %s", id)
	}
	if path := strings.TrimSpace(req.GroupPath); path != "" {
		if group, ok := vault.FindGroupByPath(path); ok {
			return group.ID(), nil
		}
		group, err := vault.CreateGroup(path)
		if err != nil {
			return "", err
		}
		return group.ID(), nil
	}
	if group, ok := vault.FindGroupByPath(DefaultEntryGroup); ok {
		return group.ID(), nil
	}
	group, err := vault.CreateGroup(DefaultEntryGroup)
	if err != nil {
		return "", err
	}
	return group.ID(), nil
}

// UpdateLogin rewrites the username and password of an existing entry. Unless
// updates are pre-approved by configuration the user confirms the change
// first. A missing entry falls back to creating one; an entry with no stored
// username is not treated as a login and refuses the update.
func (s *Service) UpdateLogin(ctx context.Context, req UpdateLoginRequest) (Login, error) {
	startedAt := time.Now()
	fields := map[string]any{"entry_id": req.EntryID}

	login, err := s.updateLogin(ctx, req)
	s.observeOperation(ctx, startedAt, "update_login", err, fields)
	return login, s.mapError(err)
}

func (s *Service) updateLogin(ctx context.Context, req UpdateLoginRequest) (Login, error) {
	id := strings.TrimSpace(req.EntryID)
	if id == "" {
		return Login{}, fmt.Errorf("core: entry id is required")
	}
	entry, ok := s.lookupEntry(id)
	if !ok {
		// The record is gone; store the credentials as a fresh entry.
		return s.addLogin(ctx, AddLoginRequest{
			Username:  req.Username,
			Password:  req.Password,
			URL:       req.URL,
			SubmitURL: req.SubmitURL,
		})
	}
	if entry.Username() == "" {
		return Login{}, goerrors.New("entry has no stored username, update refused", goerrors.CategoryOperation).
			WithTextCode(BrokerErrorOperationFailed)
	}
	if entry.Username() == req.Username && entry.Password() == req.Password {
		return s.codec.Encode(entry), nil
	}

	if !s.config.Access.AlwaysAllowUpdate && s.prompter != nil {
		approved, err := s.prompter.AskYesNo(ctx,
			"Update credentials?",
			fmt.Sprintf("Overwrite the stored credentials for %q?", entry.Title()))
		if err != nil {
			return Login{}, err
		}
		if !approved {
			return Login{}, goerrors.New("credential update refused by user", goerrors.CategoryAuthz).
				WithTextCode(BrokerErrorPromptDeclined)
		}
	}

	entry.BeginUpdate()
	defer entry.EndUpdate()
	if err := entry.SetUsername(req.Username); err != nil {
		return Login{}, err
	}
	if err := entry.SetPassword(req.Password); err != nil {
		return Login{}, err
	}
	return s.codec.Encode(entry), nil
}

func (s *Service) lookupEntry(id string) (Entry, bool) {
	for _, vault := range s.searchableVaults() {
		if entry, ok := vault.FindEntryByID(id); ok && !entry.Recycled() {
			return entry, true
		}
	}
	return nil, false
}

func (s *Service) searchableVaults() []Vault {
	if s.vaults == nil {
		return nil
	}
	var vaults []Vault
	if active, ok := s.vaults.ActiveVault(); ok && !active.Locked() {
		vaults = append(vaults, active)
	}
	if !s.config.Match.SearchInAllVaults {
		return vaults
	}
	for _, vault := range s.vaults.OpenVaults() {
		if vault == nil || vault.Locked() {
			continue
		}
		if len(vaults) > 0 && vault.ID() == vaults[0].ID() {
			continue
		}
		vaults = append(vaults, vault)
	}
	return vaults
}

// VaultGroups returns the group tree of the active vault, recycle bin
// excluded.
func (s *Service) VaultGroups(ctx context.Context) (GroupNode, error) {
	startedAt := time.Now()

	node, err := s.vaultGroups()
	s.observeOperation(ctx, startedAt, "vault_groups", err, nil)
	return node, s.mapError(err)
}

func (s *Service) vaultGroups() (GroupNode, error) {
	vault, err := s.activeVault()
	if err != nil {
		return GroupNode{}, err
	}
	root, ok := vault.RootGroup()
	if !ok {
		return GroupNode{}, fmt.Errorf("core: group not found: vault has no root group")
	}
	return buildGroupNode(vault, root), nil
}

func buildGroupNode(vault Vault, group Group) GroupNode {
	node := GroupNode{Name: group.Name(), ID: group.ID()}
	for _, child := range group.Children() {
		if child.Recycled() || (child.ID() != "" && child.ID() == vault.RecycleBinID()) {
			continue
		}
		node.Children = append(node.Children, buildGroupNode(vault, child))
	}
	return node
}

// CreateGroup resolves a slash-separated group path in the active vault,
// creating missing segments after the user approves.
func (s *Service) CreateGroup(ctx context.Context, path string) (GroupRef, error) {
	startedAt := time.Now()
	fields := map[string]any{"group_path": path}

	ref, err := s.createGroup(ctx, path)
	s.observeOperation(ctx, startedAt, "create_group", err, fields)
	return ref, s.mapError(err)
}

func (s *Service) createGroup(ctx context.Context, path string) (GroupRef, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return GroupRef{}, fmt.Errorf("core: group path is required")
	}
	vault, err := s.activeVault()
	if err != nil {
		return GroupRef{}, err
	}
	if group, ok := vault.FindGroupByPath(path); ok {
		return GroupRef{Name: group.Name(), ID: group.ID()}, nil
	}

	if s.prompter != nil {
		approved, err := s.prompter.AskYesNo(ctx,
			"Create group?",
			fmt.Sprintf("Create the group %q in vault %q?", path, vault.Name()))
		if err != nil {
			return GroupRef{}, err
		}
		if !approved {
			return GroupRef{}, goerrors.New("group creation refused by user", goerrors.CategoryAuthz).
				WithTextCode(BrokerErrorPromptDeclined)
		}
	}

	group, err := vault.CreateGroup(path)
	if err != nil {
		return GroupRef{}, err
	}
	return GroupRef{Name: group.Name(), ID: group.ID()}, nil
}

// VaultHash returns a stable opaque identifier for the active vault. Clients
// key their stored associations on it.
func (s *Service) VaultHash(ctx context.Context) (string, error) {
	vault, err := s.activeVault()
	if err != nil {
		return "", s.mapError(err)
	}
	return VaultHashOf(vault), nil
}

// VaultHashOf derives the client-facing identifier from a vault id.
func VaultHashOf(vault Vault) string {
	sum := sha256.Sum256([]byte(vault.ID()))
	return hex.EncodeToString(sum[:])
}

// Associate stores a client's shared key on the active vault under a
// user-confirmed label and returns the label.
func (s *Service) Associate(ctx context.Context, suggestedLabel, key string) (string, error) {
	startedAt := time.Now()

	label, err := s.associate(ctx, suggestedLabel, key)
	s.observeOperation(ctx, startedAt, "associate", err, map[string]any{"client_id": label})
	return label, s.mapError(err)
}

func (s *Service) associate(ctx context.Context, suggestedLabel, key string) (string, error) {
	vault, err := s.activeVault()
	if err != nil {
		return "", err
	}
	return s.associations.Associate(ctx, vault, suggestedLabel, key)
}

// LookupKey resolves a stored association by label, scanning the open vaults
// when cross-vault search is enabled.
func (s *Service) LookupKey(ctx context.Context, label string) (ClientAssociation, error) {
	startedAt := time.Now()

	assoc, err := s.lookupKey(label)
	s.observeOperation(ctx, startedAt, "lookup_key", err, map[string]any{"client_id": label})
	return assoc, s.mapError(err)
}

func (s *Service) lookupKey(label string) (ClientAssociation, error) {
	for _, vault := range s.searchableVaults() {
		if assoc, ok := s.associations.LookupKey(vault, label); ok {
			return assoc, nil
		}
	}
	return ClientAssociation{}, goerrors.New(
		fmt.Sprintf("client %q is not associated with any open vault", label),
		goerrors.CategoryAuth,
	).WithTextCode(BrokerErrorNotAssociated)
}

// Route dispatches a raw protocol message to the owning client session,
// creating the session on first contact.
func (s *Service) Route(ctx context.Context, clientID string, raw []byte) ([]byte, error) {
	response, err := s.sessions.Route(ctx, clientID, raw)
	return response, s.mapError(err)
}

// OnVaultLocked cancels any in-flight access prompt and tells clients the
// vault went away.
func (s *Service) OnVaultLocked(ctx context.Context) {
	s.cancelActivePrompt()
	s.notify(ctx, `{"action":"vault-locked"}`)
	s.logInfo(ctx, "vault locked", nil)
}

// OnVaultUnlocked tells clients credentials are reachable again.
func (s *Service) OnVaultUnlocked(ctx context.Context) {
	s.notify(ctx, `{"action":"vault-unlocked"}`)
	s.logInfo(ctx, "vault unlocked", nil)
}

// OnActiveVaultChanged cancels any in-flight prompt; whatever the user was
// asked about referred to the previous vault.
func (s *Service) OnActiveVaultChanged(ctx context.Context) {
	s.cancelActivePrompt()
	s.notify(ctx, `{"action":"active-vault-changed"}`)
	s.logInfo(ctx, "active vault changed", nil)
}

func (s *Service) cancelActivePrompt() {
	if canceler, ok := s.confirmer.(interface{ CancelActive() }); ok {
		canceler.CancelActive()
	}
}

func (s *Service) notify(ctx context.Context, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, []byte(message)); err != nil {
		s.logError(ctx, "client notification failed", map[string]any{"error": err.Error()})
	}
}

// EvictIdleSessions sweeps sessions past the configured idle TTL and reports
// how many were dropped.
func (s *Service) EvictIdleSessions(ctx context.Context) int {
	evicted := s.sessions.EvictIdle(s.config.Session.IdleTTL)
	if evicted > 0 {
		s.logInfo(ctx, "idle sessions evicted", map[string]any{"evicted": evicted})
		s.recordCounter(ctx, "credbroker.sessions_evicted.total", int64(evicted), nil)
	}
	return evicted
}

// MigrateLegacySettings moves attribute-based shared keys and access rules
// from entries into the modern custom-data records. The user approves the
// migration once; a marker on the vault prevents repeat prompts.
func (s *Service) MigrateLegacySettings(ctx context.Context) (int, error) {
	startedAt := time.Now()

	migrated, err := s.migrateLegacySettings(ctx)
	s.observeOperation(ctx, startedAt, "migrate_legacy_settings", err, map[string]any{"migrated": migrated})
	return migrated, s.mapError(err)
}

func (s *Service) migrateLegacySettings(ctx context.Context) (int, error) {
	vault, err := s.activeVault()
	if err != nil {
		return 0, err
	}
	if value, ok := vault.CustomDataValue(DataKeyMigrated); ok && value == TrueValue {
		return 0, nil
	}
	if s.config.NoMigrationPrompt {
		return 0, nil
	}

	legacy := collectLegacyEntries(vault)
	if len(legacy) == 0 {
		return 0, nil
	}

	if s.prompter != nil {
		approved, err := s.prompter.AskYesNo(ctx,
			"Migrate legacy settings?",
			"Settings from an older release were found in entry attributes. Move them to the vault's protected records?")
		if err != nil {
			return 0, err
		}
		if !approved {
			return 0, nil
		}
	}

	migrated := 0
	for _, entry := range legacy {
		n, err := migrateLegacyEntry(vault, entry)
		if err != nil {
			return migrated, err
		}
		migrated += n
	}
	if err := vault.SetCustomDataValue(DataKeyMigrated, TrueValue); err != nil {
		return migrated, err
	}
	return migrated, nil
}

func collectLegacyEntries(vault Vault) []Entry {
	var legacy []Entry
	for entry := range vault.EntriesRecursive() {
		if entry.Recycled() {
			continue
		}
		for _, key := range entry.AttributeKeys() {
			if key == LegacyRuleAttribute || strings.HasPrefix(key, LegacyAttributePrefix) {
				legacy = append(legacy, entry)
				break
			}
		}
	}
	return legacy
}

func migrateLegacyEntry(vault Vault, entry Entry) (int, error) {
	migrated := 0
	entry.BeginUpdate()
	defer entry.EndUpdate()
	for _, key := range entry.AttributeKeys() {
		switch {
		case strings.HasPrefix(key, LegacyAttributePrefix):
			label := strings.TrimPrefix(key, LegacyAttributePrefix)
			value, ok := entry.AttributeValue(key)
			if !ok || label == "" {
				continue
			}
			if err := vault.SetCustomDataValue(AssociationKeyPrefix+label, value); err != nil {
				return migrated, err
			}
			if err := entry.RemoveAttribute(key); err != nil {
				return migrated, err
			}
			migrated++
		case key == LegacyRuleAttribute:
			value, ok := entry.AttributeValue(key)
			if !ok {
				continue
			}
			if _, err := policy.DecodeRule(value); err != nil {
				// Unreadable legacy rules are dropped rather than carried
				// over broken.
				if err := entry.RemoveAttribute(key); err != nil {
					return migrated, err
				}
				continue
			}
			if err := entry.SetCustomDataValue(policy.RuleDataKey, value); err != nil {
				return migrated, err
			}
			if err := entry.RemoveAttribute(key); err != nil {
				return migrated, err
			}
			migrated++
		}
	}
	return migrated, nil
}

func (s *Service) activeVault() (Vault, error) {
	if s.vaults == nil {
		return nil, ErrVaultNotFound
	}
	vault, ok := s.vaults.ActiveVault()
	if !ok {
		return nil, ErrVaultNotFound
	}
	if vault.Locked() {
		if !s.config.UnlockVaultOnRequest {
			return nil, ErrVaultLocked
		}
		if unlocker, ok := vault.(interface{ RequestUnlock() bool }); !ok || !unlocker.RequestUnlock() {
			return nil, ErrVaultLocked
		}
	}
	return vault, nil
}
