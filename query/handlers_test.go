package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/goliatone/go-credbroker/core"
)

func TestFindLoginsQuery_QueryDelegates(t *testing.T) {
	expected := []core.Login{
		{ID: "entry_1", Name: "example.com", Username: "alice", Group: "Root"},
	}
	called := false
	reader := stubLoginReader{
		findFn: func(_ context.Context, req core.MatchRequest) ([]core.Login, error) {
			called = true
			if req.PageURL != "https://example.com/login" || req.Realm != "corp" {
				t.Fatalf("unexpected match request: %#v", req)
			}
			return expected, nil
		},
	}

	qry := NewFindLoginsQuery(reader)
	result, err := qry.Query(context.Background(), FindLoginsMessage{
		Request: core.MatchRequest{
			PageURL: "https://example.com/login",
			Realm:   "corp",
		},
	})
	if err != nil {
		t.Fatalf("query find logins: %v", err)
	}
	if !called {
		t.Fatalf("expected login reader invocation")
	}
	if len(result) != 1 || result[0].ID != "entry_1" {
		t.Fatalf("unexpected find logins result: %#v", result)
	}
}

func TestLookupKeyQuery_QueryDelegates(t *testing.T) {
	called := false
	reader := stubAssociationReader{
		lookupFn: func(_ context.Context, label string) (core.ClientAssociation, error) {
			called = true
			if label != "Work Laptop" {
				t.Fatalf("unexpected lookup label %q", label)
			}
			return core.ClientAssociation{Label: label, Key: "shared-key"}, nil
		},
	}

	result, err := NewLookupKeyQuery(reader).Query(context.Background(), LookupKeyMessage{Label: "Work Laptop"})
	if err != nil {
		t.Fatalf("query lookup key: %v", err)
	}
	if !called {
		t.Fatalf("expected association reader invocation")
	}
	if result.Key != "shared-key" {
		t.Fatalf("unexpected lookup result: %#v", result)
	}
}

func TestVaultStructureQueries_Delegate(t *testing.T) {
	calledGroups := false
	calledHash := false
	reader := stubVaultStructureReader{
		groupsFn: func(_ context.Context) (core.GroupNode, error) {
			calledGroups = true
			return core.GroupNode{
				Name: "Root",
				ID:   "root_1",
				Children: []core.GroupNode{
					{Name: "Web", ID: "grp_1"},
				},
			}, nil
		},
		hashFn: func(_ context.Context) (string, error) {
			calledHash = true
			return "a1b2c3", nil
		},
	}

	tree, err := NewVaultGroupsQuery(reader).Query(context.Background(), VaultGroupsMessage{})
	if err != nil {
		t.Fatalf("query vault groups: %v", err)
	}
	if !calledGroups || tree.Name != "Root" || len(tree.Children) != 1 {
		t.Fatalf("unexpected groups result: %#v", tree)
	}

	hash, err := NewVaultHashQuery(reader).Query(context.Background(), VaultHashMessage{})
	if err != nil {
		t.Fatalf("query vault hash: %v", err)
	}
	if !calledHash || hash != "a1b2c3" {
		t.Fatalf("unexpected hash result: %q", hash)
	}
}

func TestQueryMessageValidation(t *testing.T) {
	tests := []struct {
		name    string
		msg     interface{ Validate() error }
		wantErr bool
	}{
		{
			name: "find logins valid",
			msg: FindLoginsMessage{Request: core.MatchRequest{
				PageURL: "https://example.com",
			}},
			wantErr: false,
		},
		{
			name:    "find logins missing page url",
			msg:     FindLoginsMessage{},
			wantErr: true,
		},
		{
			name:    "lookup key valid",
			msg:     LookupKeyMessage{Label: "Work Laptop"},
			wantErr: false,
		},
		{
			name:    "lookup key blank label",
			msg:     LookupKeyMessage{Label: "  "},
			wantErr: true,
		},
		{
			name:    "vault groups always valid",
			msg:     VaultGroupsMessage{},
			wantErr: false,
		},
		{
			name:    "vault hash always valid",
			msg:     VaultHashMessage{},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type stubLoginReader struct {
	findFn func(ctx context.Context, req core.MatchRequest) ([]core.Login, error)
}

func (s stubLoginReader) FindLogins(ctx context.Context, req core.MatchRequest) ([]core.Login, error) {
	if s.findFn == nil {
		return nil, fmt.Errorf("find logins not configured")
	}
	return s.findFn(ctx, req)
}

type stubAssociationReader struct {
	lookupFn func(ctx context.Context, label string) (core.ClientAssociation, error)
}

func (s stubAssociationReader) LookupKey(ctx context.Context, label string) (core.ClientAssociation, error) {
	if s.lookupFn == nil {
		return core.ClientAssociation{}, fmt.Errorf("lookup key not configured")
	}
	return s.lookupFn(ctx, label)
}

type stubVaultStructureReader struct {
	groupsFn func(ctx context.Context) (core.GroupNode, error)
	hashFn   func(ctx context.Context) (string, error)
}

func (s stubVaultStructureReader) VaultGroups(ctx context.Context) (core.GroupNode, error) {
	if s.groupsFn == nil {
		return core.GroupNode{}, fmt.Errorf("vault groups not configured")
	}
	return s.groupsFn(ctx)
}

func (s stubVaultStructureReader) VaultHash(ctx context.Context) (string, error) {
	if s.hashFn == nil {
		return "", fmt.Errorf("vault hash not configured")
	}
	return s.hashFn(ctx)
}

var (
	_ LoginReader          = stubLoginReader{}
	_ AssociationReader    = stubAssociationReader{}
	_ VaultStructureReader = stubVaultStructureReader{}
)
