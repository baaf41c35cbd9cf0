package sqlstore

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-credbroker/core"
)

// VaultProvider resolves the active and open vaults from the vault table.
// One vault carries the active flag; "open" means present and not locked.
type VaultProvider struct {
	backend *vaultBackend
}

func (p *VaultProvider) ActiveVault() (core.Vault, bool) {
	if p == nil || p.backend == nil {
		return nil, false
	}
	records, _, err := p.backend.vaults.List(p.backend.ctx(),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.active = ?", true)
		}),
	)
	if err != nil || len(records) == 0 {
		return nil, false
	}
	return &Vault{record: records[0], backend: p.backend}, true
}

func (p *VaultProvider) OpenVaults() []core.Vault {
	if p == nil || p.backend == nil {
		return nil
	}
	records, _, err := p.backend.vaults.List(p.backend.ctx(),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.locked = ?", false)
		}),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil
	}
	vaults := make([]core.Vault, 0, len(records))
	for _, record := range records {
		vaults = append(vaults, &Vault{record: record, backend: p.backend})
	}
	return vaults
}
