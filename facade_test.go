package credbroker

import (
	"context"
	"testing"

	gocmd "github.com/goliatone/go-command"

	brokercommand "github.com/goliatone/go-credbroker/command"
	"github.com/goliatone/go-credbroker/core"
	brokerquery "github.com/goliatone/go-credbroker/query"
)

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	svc := &stubFacadeService{}

	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.AddLogin == nil || commands.Associate == nil || commands.MigrateLegacySettings == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.FindLogins == nil || queries.VaultHash == nil {
		t.Fatalf("expected query handlers to be wired")
	}
}

func TestFacade_CommandAndQueryDelegation(t *testing.T) {
	svc := &stubFacadeService{}

	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	collector := gocmd.NewResult[core.Login]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	if err := facade.Commands().AddLogin.Execute(ctx, brokercommand.AddLoginMessage{
		Request: core.AddLoginRequest{
			URL:      "https://example.com",
			Username: "alice",
			Password: "s3cret",
		},
	}); err != nil {
		t.Fatalf("execute add login command: %v", err)
	}
	if svc.lastAddURL != "https://example.com" {
		t.Fatalf("unexpected add login delegation payload: %q", svc.lastAddURL)
	}
	if stored, ok := collector.Load(); !ok || stored.ID != "entry_1" {
		t.Fatalf("expected add login result stored, got %#v (%v)", stored, ok)
	}

	logins, err := facade.Queries().FindLogins.Query(context.Background(), brokerquery.FindLoginsMessage{
		Request: core.MatchRequest{PageURL: "https://example.com/login"},
	})
	if err != nil {
		t.Fatalf("query find logins: %v", err)
	}
	if len(logins) != 1 || logins[0].Username != "alice" {
		t.Fatalf("unexpected find logins result: %#v", logins)
	}

	assoc, err := facade.Queries().LookupKey.Query(context.Background(), brokerquery.LookupKeyMessage{
		Label: "Work Laptop",
	})
	if err != nil {
		t.Fatalf("query lookup key: %v", err)
	}
	if assoc.Key != "shared-key" {
		t.Fatalf("unexpected lookup key result: %#v", assoc)
	}
}

func TestFacade_EvictIdleSessionsUsesServiceWhenCapable(t *testing.T) {
	svc := &stubFacadeService{}
	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	collector := gocmd.NewResult[int]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	if err := facade.Commands().EvictIdleSessions.Execute(ctx, brokercommand.EvictIdleSessionsMessage{}); err != nil {
		t.Fatalf("execute evict idle sessions: %v", err)
	}
	if svc.evictCalls != 1 {
		t.Fatalf("expected eviction delegation")
	}
	if stored, ok := collector.Load(); !ok || stored != 2 {
		t.Fatalf("expected evicted count stored, got %d (%v)", stored, ok)
	}
}

func TestNewFacade_RequiresService(t *testing.T) {
	facade, err := NewFacade(nil)
	if err == nil {
		t.Fatalf("expected nil service error")
	}
	if facade != nil {
		t.Fatalf("expected nil facade on error")
	}
}

type stubFacadeService struct {
	lastAddURL string
	evictCalls int
}

func (s *stubFacadeService) AddLogin(_ context.Context, req core.AddLoginRequest) (core.Login, error) {
	s.lastAddURL = req.URL
	return core.Login{ID: "entry_1", Username: req.Username}, nil
}

func (s *stubFacadeService) UpdateLogin(_ context.Context, req core.UpdateLoginRequest) (core.Login, error) {
	return core.Login{ID: req.EntryID}, nil
}

func (s *stubFacadeService) CreateGroup(_ context.Context, path string) (core.GroupRef, error) {
	return core.GroupRef{Name: path, ID: "grp_1"}, nil
}

func (s *stubFacadeService) Associate(_ context.Context, suggestedLabel, _ string) (string, error) {
	return suggestedLabel, nil
}

func (s *stubFacadeService) Route(_ context.Context, _ string, raw []byte) ([]byte, error) {
	return raw, nil
}

func (s *stubFacadeService) MigrateLegacySettings(context.Context) (int, error) {
	return 0, nil
}

func (s *stubFacadeService) FindLogins(context.Context, core.MatchRequest) ([]core.Login, error) {
	return []core.Login{{ID: "entry_1", Username: "alice"}}, nil
}

func (s *stubFacadeService) LookupKey(_ context.Context, label string) (core.ClientAssociation, error) {
	return core.ClientAssociation{Label: label, Key: "shared-key"}, nil
}

func (s *stubFacadeService) VaultGroups(context.Context) (core.GroupNode, error) {
	return core.GroupNode{Name: "Root", ID: "root_1"}, nil
}

func (s *stubFacadeService) VaultHash(context.Context) (string, error) {
	return "a1b2c3", nil
}

func (s *stubFacadeService) EvictIdleSessions(context.Context) int {
	s.evictCalls++
	return 2
}

var _ CommandQueryService = (*stubFacadeService)(nil)
