package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[AddLoginMessage]              = (*AddLoginCommand)(nil)
	_ gocmd.Commander[UpdateLoginMessage]           = (*UpdateLoginCommand)(nil)
	_ gocmd.Commander[CreateGroupMessage]           = (*CreateGroupCommand)(nil)
	_ gocmd.Commander[AssociateMessage]             = (*AssociateCommand)(nil)
	_ gocmd.Commander[RouteMessage]                 = (*RouteCommand)(nil)
	_ gocmd.Commander[MigrateLegacySettingsMessage] = (*MigrateLegacySettingsCommand)(nil)
	_ gocmd.Commander[EvictIdleSessionsMessage]     = (*EvictIdleSessionsCommand)(nil)
)
