package query

import (
	"context"

	"github.com/goliatone/go-credbroker/core"
)

type LoginReader interface {
	FindLogins(ctx context.Context, req core.MatchRequest) ([]core.Login, error)
}

type AssociationReader interface {
	LookupKey(ctx context.Context, label string) (core.ClientAssociation, error)
}

type VaultStructureReader interface {
	VaultGroups(ctx context.Context) (core.GroupNode, error)
	VaultHash(ctx context.Context) (string, error)
}

type FindLoginsQuery struct {
	reader LoginReader
}

func NewFindLoginsQuery(reader LoginReader) *FindLoginsQuery {
	return &FindLoginsQuery{reader: reader}
}

func (q *FindLoginsQuery) Query(ctx context.Context, msg FindLoginsMessage) ([]core.Login, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: login reader is required")
	}
	return q.reader.FindLogins(ctx, msg.Request)
}

type LookupKeyQuery struct {
	reader AssociationReader
}

func NewLookupKeyQuery(reader AssociationReader) *LookupKeyQuery {
	return &LookupKeyQuery{reader: reader}
}

func (q *LookupKeyQuery) Query(ctx context.Context, msg LookupKeyMessage) (core.ClientAssociation, error) {
	if q == nil || q.reader == nil {
		return core.ClientAssociation{}, queryDependencyError("query: association reader is required")
	}
	return q.reader.LookupKey(ctx, msg.Label)
}

type VaultGroupsQuery struct {
	reader VaultStructureReader
}

func NewVaultGroupsQuery(reader VaultStructureReader) *VaultGroupsQuery {
	return &VaultGroupsQuery{reader: reader}
}

func (q *VaultGroupsQuery) Query(ctx context.Context, msg VaultGroupsMessage) (core.GroupNode, error) {
	if q == nil || q.reader == nil {
		return core.GroupNode{}, queryDependencyError("query: vault structure reader is required")
	}
	return q.reader.VaultGroups(ctx)
}

type VaultHashQuery struct {
	reader VaultStructureReader
}

func NewVaultHashQuery(reader VaultStructureReader) *VaultHashQuery {
	return &VaultHashQuery{reader: reader}
}

func (q *VaultHashQuery) Query(ctx context.Context, msg VaultHashMessage) (string, error) {
	if q == nil || q.reader == nil {
		return "", queryDependencyError("query: vault structure reader is required")
	}
	return q.reader.VaultHash(ctx)
}
