package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-credbroker/core"
)

type MutatingService interface {
	AddLogin(ctx context.Context, req core.AddLoginRequest) (core.Login, error)
	UpdateLogin(ctx context.Context, req core.UpdateLoginRequest) (core.Login, error)
	CreateGroup(ctx context.Context, path string) (core.GroupRef, error)
	Associate(ctx context.Context, suggestedLabel, key string) (string, error)
	Route(ctx context.Context, clientID string, raw []byte) ([]byte, error)
	MigrateLegacySettings(ctx context.Context) (int, error)
}

type SessionMaintenanceService interface {
	EvictIdleSessions(ctx context.Context) int
}

type AddLoginCommand struct {
	service MutatingService
}

func NewAddLoginCommand(service MutatingService) *AddLoginCommand {
	return &AddLoginCommand{service: service}
}

func (c *AddLoginCommand) Execute(ctx context.Context, msg AddLoginMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: add login service is required")
	}
	out, err := c.service.AddLogin(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateLoginCommand struct {
	service MutatingService
}

func NewUpdateLoginCommand(service MutatingService) *UpdateLoginCommand {
	return &UpdateLoginCommand{service: service}
}

func (c *UpdateLoginCommand) Execute(ctx context.Context, msg UpdateLoginMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: update login service is required")
	}
	out, err := c.service.UpdateLogin(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CreateGroupCommand struct {
	service MutatingService
}

func NewCreateGroupCommand(service MutatingService) *CreateGroupCommand {
	return &CreateGroupCommand{service: service}
}

func (c *CreateGroupCommand) Execute(ctx context.Context, msg CreateGroupMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: create group service is required")
	}
	out, err := c.service.CreateGroup(ctx, msg.Path)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type AssociateCommand struct {
	service MutatingService
}

func NewAssociateCommand(service MutatingService) *AssociateCommand {
	return &AssociateCommand{service: service}
}

func (c *AssociateCommand) Execute(ctx context.Context, msg AssociateMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: associate service is required")
	}
	label, err := c.service.Associate(ctx, msg.Label, msg.Key)
	if err != nil {
		return err
	}
	storeResult(ctx, label)
	return nil
}

type RouteCommand struct {
	service MutatingService
}

func NewRouteCommand(service MutatingService) *RouteCommand {
	return &RouteCommand{service: service}
}

func (c *RouteCommand) Execute(ctx context.Context, msg RouteMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: route service is required")
	}
	out, err := c.service.Route(ctx, msg.ClientID, msg.Payload)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type MigrateLegacySettingsCommand struct {
	service MutatingService
}

func NewMigrateLegacySettingsCommand(service MutatingService) *MigrateLegacySettingsCommand {
	return &MigrateLegacySettingsCommand{service: service}
}

func (c *MigrateLegacySettingsCommand) Execute(ctx context.Context, msg MigrateLegacySettingsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: migration service is required")
	}
	migrated, err := c.service.MigrateLegacySettings(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, migrated)
	return nil
}

type EvictIdleSessionsCommand struct {
	service SessionMaintenanceService
}

func NewEvictIdleSessionsCommand(service SessionMaintenanceService) *EvictIdleSessionsCommand {
	return &EvictIdleSessionsCommand{service: service}
}

func (c *EvictIdleSessionsCommand) Execute(ctx context.Context, msg EvictIdleSessionsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: session maintenance service is required")
	}
	storeResult(ctx, c.service.EvictIdleSessions(ctx))
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
