package credbroker

import "github.com/goliatone/go-credbroker/core"

type Config = core.Config

type SessionConfig = core.SessionConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type Vault = core.Vault
type VaultProvider = core.VaultProvider
type Prompter = core.Prompter
type ClientSession = core.ClientSession
type SessionFactory = core.SessionFactory
type ClientNotifier = core.ClientNotifier
type Searcher = core.Searcher
type Confirmer = core.Confirmer
type AccessPolicy = core.AccessPolicy
type MaintenanceEnqueuer = core.MaintenanceEnqueuer

type MatchRequest = core.MatchRequest
type AddLoginRequest = core.AddLoginRequest

type UpdateLoginRequest = core.UpdateLoginRequest

type Login = core.Login

type ClientAssociation = core.ClientAssociation
type GroupNode = core.GroupNode
type GroupRef = core.GroupRef

var (
	WithLogger              = core.WithLogger
	WithLoggerProvider      = core.WithLoggerProvider
	WithMetricsRecorder     = core.WithMetricsRecorder
	WithErrorFactory        = core.WithErrorFactory
	WithErrorMapper         = core.WithErrorMapper
	WithPersistenceClient   = core.WithPersistenceClient
	WithRepositoryFactory   = core.WithRepositoryFactory
	WithConfigProvider      = core.WithConfigProvider
	WithOptionsResolver     = core.WithOptionsResolver
	WithVaultProvider       = core.WithVaultProvider
	WithPrompter            = core.WithPrompter
	WithSessionFactory      = core.WithSessionFactory
	WithClientNotifier      = core.WithClientNotifier
	WithSearcher            = core.WithSearcher
	WithConfirmer           = core.WithConfirmer
	WithAccessPolicy        = core.WithAccessPolicy
	WithMaintenanceEnqueuer = core.WithMaintenanceEnqueuer
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
