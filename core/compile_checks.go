package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ BrokerService = (*Service)(nil)
	_ Searcher      = (*SearchOrchestrator)(nil)
	_ Confirmer     = (*ConfirmCoordinator)(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
