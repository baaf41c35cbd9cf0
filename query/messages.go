package query

import (
	"strings"

	"github.com/goliatone/go-credbroker/core"
)

const (
	TypeFindLogins  = "credbroker.query.login.find"
	TypeLookupKey   = "credbroker.query.association.lookup"
	TypeVaultGroups = "credbroker.query.vault.groups"
	TypeVaultHash   = "credbroker.query.vault.hash"
)

type FindLoginsMessage struct {
	Request core.MatchRequest
}

func (FindLoginsMessage) Type() string { return TypeFindLogins }

func (m FindLoginsMessage) Validate() error {
	if strings.TrimSpace(m.Request.PageURL) == "" {
		return queryValidationError("page_url", "page url is required")
	}
	return nil
}

type LookupKeyMessage struct {
	Label string
}

func (LookupKeyMessage) Type() string { return TypeLookupKey }

func (m LookupKeyMessage) Validate() error {
	if strings.TrimSpace(m.Label) == "" {
		return queryValidationError("label", "association label is required")
	}
	return nil
}

type VaultGroupsMessage struct{}

func (VaultGroupsMessage) Type() string { return TypeVaultGroups }

func (VaultGroupsMessage) Validate() error { return nil }

type VaultHashMessage struct{}

func (VaultHashMessage) Type() string { return TypeVaultHash }

func (VaultHashMessage) Validate() error { return nil }
