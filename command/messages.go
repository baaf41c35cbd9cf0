package command

import (
	"strings"

	"github.com/goliatone/go-credbroker/core"
)

const (
	TypeAddLogin              = "credbroker.command.login.add"
	TypeUpdateLogin           = "credbroker.command.login.update"
	TypeCreateGroup           = "credbroker.command.group.create"
	TypeAssociate             = "credbroker.command.client.associate"
	TypeRoute                 = "credbroker.command.session.route"
	TypeMigrateLegacySettings = "credbroker.command.settings.migrate"
	TypeEvictIdleSessions     = "credbroker.command.session.evict_idle"
)

type AddLoginMessage struct {
	Request core.AddLoginRequest
}

func (AddLoginMessage) Type() string { return TypeAddLogin }

func (m AddLoginMessage) Validate() error {
	if strings.TrimSpace(m.Request.URL) == "" {
		return commandValidationError("url", "url is required")
	}
	if m.Request.Password == "" {
		return commandValidationError("password", "password is required")
	}
	return nil
}

type UpdateLoginMessage struct {
	Request core.UpdateLoginRequest
}

func (UpdateLoginMessage) Type() string { return TypeUpdateLogin }

func (m UpdateLoginMessage) Validate() error {
	if strings.TrimSpace(m.Request.EntryID) == "" {
		return commandValidationError("entry_id", "entry id is required")
	}
	return nil
}

type CreateGroupMessage struct {
	Path string
}

func (CreateGroupMessage) Type() string { return TypeCreateGroup }

func (m CreateGroupMessage) Validate() error {
	if strings.TrimSpace(m.Path) == "" {
		return commandValidationError("path", "group path is required")
	}
	return nil
}

type AssociateMessage struct {
	Label string
	Key   string
}

func (AssociateMessage) Type() string { return TypeAssociate }

func (m AssociateMessage) Validate() error {
	if strings.TrimSpace(m.Key) == "" {
		return commandValidationError("key", "client key is required")
	}
	return nil
}

type RouteMessage struct {
	ClientID string
	Payload  []byte
}

func (RouteMessage) Type() string { return TypeRoute }

func (m RouteMessage) Validate() error {
	if strings.TrimSpace(m.ClientID) == "" {
		return commandValidationError("client_id", "client id is required")
	}
	if len(m.Payload) == 0 {
		return commandValidationError("payload", "payload is required")
	}
	return nil
}

type MigrateLegacySettingsMessage struct{}

func (MigrateLegacySettingsMessage) Type() string { return TypeMigrateLegacySettings }

func (MigrateLegacySettingsMessage) Validate() error { return nil }

type EvictIdleSessionsMessage struct{}

func (EvictIdleSessionsMessage) Type() string { return TypeEvictIdleSessions }

func (EvictIdleSessionsMessage) Validate() error { return nil }
