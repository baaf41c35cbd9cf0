package sqlstore

import (
	repository "github.com/goliatone/go-repository-bun"

	"github.com/goliatone/go-credbroker/core"
)

// Group adapts one persisted group record to the broker's group contract.
type Group struct {
	record  *groupRecord
	backend *vaultBackend
}

func (g *Group) ID() string             { return g.record.ID }
func (g *Group) Name() string           { return g.record.Name }
func (g *Group) Recycled() bool         { return g.record.Recycled }
func (g *Group) SearchingEnabled() bool { return g.record.SearchingEnabled }

func (g *Group) Entries() []core.Entry {
	records, _, err := g.backend.entries.List(g.backend.ctx(),
		repository.SelectBy("group_id", "=", g.record.ID),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil
	}
	entries := make([]core.Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, &Entry{record: record, backend: g.backend})
	}
	return entries
}

func (g *Group) Children() []core.Group {
	records, _, err := g.backend.groups.List(g.backend.ctx(),
		repository.SelectBy("parent_id", "=", g.record.ID),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil
	}
	groups := make([]core.Group, 0, len(records))
	for _, record := range records {
		groups = append(groups, &Group{record: record, backend: g.backend})
	}
	return groups
}
