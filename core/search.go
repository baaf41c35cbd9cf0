package core

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-credbroker/match"
)

// SearchOrchestrator finds candidate entries for a lookup request. It walks
// the eligible vaults lazily and widens the request host one label at a time
// when a narrow search comes back empty.
type SearchOrchestrator struct {
	vaults VaultProvider
	config func() Config
	logger Logger
}

func NewSearchOrchestrator(vaults VaultProvider, config func() Config, logger Logger) *SearchOrchestrator {
	if config == nil {
		config = func() Config { return DefaultConfig() }
	}
	return &SearchOrchestrator{
		vaults: vaults,
		config: config,
		logger: logger,
	}
}

// FindCandidates returns every entry compatible with the request, deduplicated
// by entry id, in vault traversal order. Ranking happens downstream.
func (o *SearchOrchestrator) FindCandidates(ctx context.Context, req MatchRequest) ([]Entry, error) {
	pageURL, err := url.Parse(strings.TrimSpace(req.PageURL))
	if err != nil {
		return nil, fmt.Errorf("core: invalid page url %q: %w", req.PageURL, err)
	}
	host := pageURL.Hostname()
	if host == "" {
		return nil, fmt.Errorf("core: page url host is required")
	}

	cfg := o.config()
	vaults := o.eligibleVaults(cfg, req)
	if len(vaults) == 0 {
		return nil, nil
	}

	baseHost := match.RegistrableDomain(host)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidates, err := o.collect(ctx, cfg, vaults, rewriteHost(pageURL, host), req)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
		if host == baseHost {
			return nil, nil
		}
		relaxed, ok := match.RelaxHost(host)
		if !ok {
			return nil, nil
		}
		host = relaxed
	}
}

// eligibleVaults resolves which vaults a request may read. A vault is only
// readable when it holds one of the client's shared keys; search-all mode
// widens the scan to every open vault that does. No key match means no
// vaults, the active one included.
func (o *SearchOrchestrator) eligibleVaults(cfg Config, req MatchRequest) []Vault {
	if o.vaults == nil {
		return nil
	}
	if !cfg.Match.SearchInAllVaults {
		active, ok := o.vaults.ActiveVault()
		if !ok || active.Locked() || !vaultHoldsClientKey(active, req.ClientKeys) {
			return nil
		}
		return []Vault{active}
	}

	var matched []Vault
	for _, vault := range o.vaults.OpenVaults() {
		if vault == nil || vault.Locked() {
			continue
		}
		if vaultHoldsClientKey(vault, req.ClientKeys) {
			matched = append(matched, vault)
		}
	}
	return matched
}

func vaultHoldsClientKey(vault Vault, keys []ClientKey) bool {
	for _, ck := range keys {
		if ck.ID == "" || ck.Key == "" {
			continue
		}
		if stored, ok := vault.CustomDataValue(AssociationKeyPrefix + ck.ID); ok && stored == ck.Key {
			return true
		}
	}
	return false
}

func (o *SearchOrchestrator) collect(ctx context.Context, cfg Config, vaults []Vault, pageURL string, req MatchRequest) ([]Entry, error) {
	var results []Entry
	seen := map[string]struct{}{}
	for _, vault := range vaults {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		root, ok := vault.RootGroup()
		if !ok {
			continue
		}
		o.walkGroup(cfg, vault, root, pageURL, req, seen, &results)
	}
	return results, nil
}

func (o *SearchOrchestrator) walkGroup(cfg Config, vault Vault, group Group, pageURL string, req MatchRequest, seen map[string]struct{}, results *[]Entry) {
	if group == nil || group.Recycled() || !group.SearchingEnabled() {
		return
	}
	if group.ID() != "" && group.ID() == vault.RecycleBinID() {
		return
	}
	for _, entry := range group.Entries() {
		if !o.entryMatches(cfg, entry, pageURL, req) {
			continue
		}
		if _, dup := seen[entry.ID()]; dup {
			continue
		}
		seen[entry.ID()] = struct{}{}
		*results = append(*results, entry)
	}
	for _, child := range group.Children() {
		o.walkGroup(cfg, vault, child, pageURL, req, seen, results)
	}
}

func (o *SearchOrchestrator) entryMatches(cfg Config, entry Entry, pageURL string, req MatchRequest) bool {
	if entry == nil || entry.Recycled() {
		return false
	}
	if flagSet(entry, DataKeyHideEntry) {
		return false
	}
	if req.HTTPAuth && flagSet(entry, DataKeyNotHTTPAuth) {
		return false
	}
	if !req.HTTPAuth && flagSet(entry, DataKeyOnlyHTTPAuth) {
		return false
	}

	if match.URLsCompatible(entry.URL(), pageURL, req.SubmitURL, cfg.Match.MatchURLScheme) {
		return true
	}
	for _, alt := range entry.AdditionalURLs() {
		if match.URLsCompatible(alt, pageURL, req.SubmitURL, cfg.Match.MatchURLScheme) {
			return true
		}
	}
	return false
}

func flagSet(entry Entry, key string) bool {
	value, ok := entry.CustomDataValue(key)
	return ok && value == TrueValue
}

func rewriteHost(page *url.URL, host string) string {
	if page.Hostname() == host {
		return page.String()
	}
	rewritten := *page
	if port := page.Port(); port != "" {
		rewritten.Host = host + ":" + port
	} else {
		rewritten.Host = host
	}
	return rewritten.String()
}
