package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"

	"github.com/goliatone/go-credbroker/policy"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig       Config
	logger              Logger
	loggerProvider      LoggerProvider
	metricsRecorder     MetricsRecorder
	errorFactory        ErrorFactory
	errorMapper         ErrorMapper
	persistenceClient   any
	repositoryFactory   any
	configProvider      ConfigProvider
	optionsResolver     OptionsResolver
	vaultProvider       VaultProvider
	prompter            Prompter
	sessionFactory      SessionFactory
	notifier            ClientNotifier
	searcher            Searcher
	confirmer           Confirmer
	accessPolicy        AccessPolicy
	maintenanceEnqueuer MaintenanceEnqueuer
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithPersistenceClient(client any) Option {
	return func(b *serviceBuilder) {
		b.persistenceClient = client
	}
}

func WithRepositoryFactory(factory any) Option {
	return func(b *serviceBuilder) {
		b.repositoryFactory = factory
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithVaultProvider(provider VaultProvider) Option {
	return func(b *serviceBuilder) {
		b.vaultProvider = provider
	}
}

func WithPrompter(prompter Prompter) Option {
	return func(b *serviceBuilder) {
		b.prompter = prompter
	}
}

func WithSessionFactory(factory SessionFactory) Option {
	return func(b *serviceBuilder) {
		b.sessionFactory = factory
	}
}

func WithClientNotifier(notifier ClientNotifier) Option {
	return func(b *serviceBuilder) {
		b.notifier = notifier
	}
}

func WithSearcher(searcher Searcher) Option {
	return func(b *serviceBuilder) {
		b.searcher = searcher
	}
}

func WithConfirmer(confirmer Confirmer) Option {
	return func(b *serviceBuilder) {
		b.confirmer = confirmer
	}
}

func WithAccessPolicy(accessPolicy AccessPolicy) Option {
	return func(b *serviceBuilder) {
		b.accessPolicy = accessPolicy
	}
}

func WithMaintenanceEnqueuer(enqueuer MaintenanceEnqueuer) Option {
	return func(b *serviceBuilder) {
		b.maintenanceEnqueuer = enqueuer
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve("credbroker", nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return brokerErrorMapper(err)
}

func defaultAccessPolicy(cfg Config) AccessPolicy {
	return &policy.Evaluator{AllowExpired: cfg.Access.AllowExpiredCredentials}
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || strings.TrimSpace(cfg.Locale) != "" {
		layer["locale"] = cfg.Locale
	}

	if includeZero || cfg.Match != (MatchConfig{}) {
		layer["match"] = map[string]any{
			"match_url_scheme":     cfg.Match.MatchURLScheme,
			"search_in_all_vaults": cfg.Match.SearchInAllVaults,
			"sort_by_title":        cfg.Match.SortByTitle,
			"best_match_only":      cfg.Match.BestMatchOnly,
		}
	}
	if includeZero || cfg.Access != (AccessConfig{}) {
		layer["access"] = map[string]any{
			"always_allow_access":       cfg.Access.AlwaysAllowAccess,
			"always_allow_update":       cfg.Access.AlwaysAllowUpdate,
			"http_auth_permission":      cfg.Access.HTTPAuthPermission,
			"allow_expired_credentials": cfg.Access.AllowExpiredCredentials,
		}
	}
	if includeZero || cfg.Session != (SessionConfig{}) {
		layer["session"] = map[string]any{
			"idle_ttl":       cfg.Session.IdleTTL,
			"sweep_interval": cfg.Session.SweepInterval,
		}
	}
	if includeZero || cfg.SupportKPHFields {
		layer["support_kph_fields"] = cfg.SupportKPHFields
	}
	if includeZero || cfg.NoMigrationPrompt {
		layer["no_migration_prompt"] = cfg.NoMigrationPrompt
	}
	if includeZero || cfg.UnlockVaultOnRequest {
		layer["unlock_vault_on_request"] = cfg.UnlockVaultOnRequest
	}
	return layer
}
