package sqlstore

import "github.com/goliatone/go-credbroker/core"

var (
	_ core.Vault                  = (*Vault)(nil)
	_ core.Group                  = (*Group)(nil)
	_ core.Entry                  = (*Entry)(nil)
	_ core.VaultProvider          = (*VaultProvider)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
