package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-credbroker/core"
)

var (
	_ gocmd.Querier[FindLoginsMessage, []core.Login]          = (*FindLoginsQuery)(nil)
	_ gocmd.Querier[LookupKeyMessage, core.ClientAssociation] = (*LookupKeyQuery)(nil)
	_ gocmd.Querier[VaultGroupsMessage, core.GroupNode]       = (*VaultGroupsQuery)(nil)
	_ gocmd.Querier[VaultHashMessage, string]                 = (*VaultHashQuery)(nil)
)
