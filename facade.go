package credbroker

import (
	"fmt"

	brokercommand "github.com/goliatone/go-credbroker/command"
	"github.com/goliatone/go-credbroker/core"
	brokerquery "github.com/goliatone/go-credbroker/query"
)

// CommandQueryService is the surface the facade wraps. *core.Service
// satisfies it.
type CommandQueryService interface {
	brokercommand.MutatingService
	brokerquery.LoginReader
	brokerquery.AssociationReader
	brokerquery.VaultStructureReader
}

type Commands struct {
	AddLogin              *brokercommand.AddLoginCommand
	UpdateLogin           *brokercommand.UpdateLoginCommand
	CreateGroup           *brokercommand.CreateGroupCommand
	Associate             *brokercommand.AssociateCommand
	Route                 *brokercommand.RouteCommand
	MigrateLegacySettings *brokercommand.MigrateLegacySettingsCommand
	EvictIdleSessions     *brokercommand.EvictIdleSessionsCommand
}

type Queries struct {
	FindLogins  *brokerquery.FindLoginsQuery
	LookupKey   *brokerquery.LookupKeyQuery
	VaultGroups *brokerquery.VaultGroupsQuery
	VaultHash   *brokerquery.VaultHashQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	maintenance brokercommand.SessionMaintenanceService
}

// WithSessionMaintenance overrides the service used by the idle-session
// eviction command. By default the wrapped service is used when it
// implements the contract.
func WithSessionMaintenance(service brokercommand.SessionMaintenanceService) FacadeOption {
	return func(options *facadeOptions) {
		options.maintenance = service
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("credbroker: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	maintenance := cfg.maintenance
	if maintenance == nil {
		maintenance, _ = service.(brokercommand.SessionMaintenanceService)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		AddLogin:              brokercommand.NewAddLoginCommand(service),
		UpdateLogin:           brokercommand.NewUpdateLoginCommand(service),
		CreateGroup:           brokercommand.NewCreateGroupCommand(service),
		Associate:             brokercommand.NewAssociateCommand(service),
		Route:                 brokercommand.NewRouteCommand(service),
		MigrateLegacySettings: brokercommand.NewMigrateLegacySettingsCommand(service),
		EvictIdleSessions:     brokercommand.NewEvictIdleSessionsCommand(maintenance),
	}
	facade.queries = Queries{
		FindLogins:  brokerquery.NewFindLoginsQuery(service),
		LookupKey:   brokerquery.NewLookupKeyQuery(service),
		VaultGroups: brokerquery.NewVaultGroupsQuery(service),
		VaultHash:   brokerquery.NewVaultHashQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

var (
	_ CommandQueryService                     = (*core.Service)(nil)
	_ brokercommand.SessionMaintenanceService = (*core.Service)(nil)
)
