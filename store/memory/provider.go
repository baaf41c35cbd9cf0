package memstore

import (
	"sync"

	"github.com/goliatone/go-credbroker/core"
)

// Provider tracks the open vaults and which one is active.
type Provider struct {
	mu       sync.RWMutex
	vaults   []*Vault
	activeID string
}

func NewProvider(vaults ...*Vault) *Provider {
	provider := &Provider{vaults: vaults}
	if len(vaults) > 0 {
		provider.activeID = vaults[0].ID()
	}
	return provider
}

func (p *Provider) AddVault(vault *Vault) {
	if vault == nil {
		return
	}
	p.mu.Lock()
	p.vaults = append(p.vaults, vault)
	if p.activeID == "" {
		p.activeID = vault.ID()
	}
	p.mu.Unlock()
}

func (p *Provider) SetActive(vaultID string) {
	p.mu.Lock()
	p.activeID = vaultID
	p.mu.Unlock()
}

func (p *Provider) ActiveVault() (core.Vault, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, vault := range p.vaults {
		if vault.ID() == p.activeID {
			return vault, true
		}
	}
	return nil, false
}

func (p *Provider) OpenVaults() []core.Vault {
	p.mu.RLock()
	defer p.mu.RUnlock()
	open := make([]core.Vault, 0, len(p.vaults))
	for _, vault := range p.vaults {
		if !vault.Locked() {
			open = append(open, vault)
		}
	}
	return open
}

var _ core.VaultProvider = (*Provider)(nil)
