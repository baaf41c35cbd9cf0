package core

import (
	"context"
	"sync"
	"testing"

	"github.com/goliatone/go-credbroker/policy"
)

func confirmConfig(mutate func(*Config)) func() Config {
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return func() Config { return cfg }
}

func seedRule(t *testing.T, entry *fakeEntry, mutate func(*policy.Rule)) {
	t.Helper()
	rule := policy.NewRule()
	mutate(rule)
	encoded, err := policy.EncodeRule(rule)
	if err != nil {
		t.Fatalf("encode rule: %v", err)
	}
	entry.customData[policy.RuleDataKey] = encoded
}

func TestConfirmCoordinator_PartitionsByVerdict(t *testing.T) {
	granted := newFakeEntry("granted")
	seedRule(t, granted, func(rule *policy.Rule) { rule.Allow("example.com") })

	denied := newFakeEntry("denied")
	seedRule(t, denied, func(rule *policy.Rule) { rule.Deny("example.com") })

	undecided := newFakeEntry("undecided")

	prompter := &fakePrompter{confirmResponse: ConfirmAccessResponse{ApprovedIDs: []string{"undecided"}}}
	coordinator := NewConfirmCoordinator(&policy.Evaluator{}, prompter, confirmConfig(nil), nil)

	allowed, err := coordinator.Resolve(context.Background(), MatchRequest{PageURL: "https://example.com"}, []Entry{granted, denied, undecided})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(allowed) != 2 {
		t.Fatalf("expected grant + approved, got %d entries", len(allowed))
	}
	if allowed[0].ID() != "granted" || allowed[1].ID() != "undecided" {
		t.Fatalf("unexpected order: %s, %s", allowed[0].ID(), allowed[1].ID())
	}
	if prompter.confirmCalls != 1 {
		t.Fatalf("expected one prompt, got %d", prompter.confirmCalls)
	}
}

func TestConfirmCoordinator_AutoAllowSkipsPrompt(t *testing.T) {
	entry := newFakeEntry("e1")
	prompter := &fakePrompter{}
	coordinator := NewConfirmCoordinator(&policy.Evaluator{}, prompter, confirmConfig(func(cfg *Config) {
		cfg.Access.AlwaysAllowAccess = true
	}), nil)

	allowed, err := coordinator.Resolve(context.Background(), MatchRequest{PageURL: "https://example.com"}, []Entry{entry})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(allowed) != 1 {
		t.Fatalf("expected auto-allowed entry, got %d", len(allowed))
	}
	if prompter.confirmCalls != 0 {
		t.Fatalf("expected no prompt, got %d", prompter.confirmCalls)
	}
}

func TestConfirmCoordinator_HTTPAuthUsesOwnSetting(t *testing.T) {
	entry := newFakeEntry("e1")
	prompter := &fakePrompter{confirmResponse: ConfirmAccessResponse{}}
	coordinator := NewConfirmCoordinator(&policy.Evaluator{}, prompter, confirmConfig(func(cfg *Config) {
		cfg.Access.AlwaysAllowAccess = true
	}), nil)

	// AlwaysAllowAccess covers form fills only; HTTP auth still prompts.
	allowed, err := coordinator.Resolve(context.Background(), MatchRequest{PageURL: "https://example.com", HTTPAuth: true}, []Entry{entry})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(allowed) != 0 {
		t.Fatalf("expected nothing approved, got %d", len(allowed))
	}
	if prompter.confirmCalls != 1 {
		t.Fatalf("expected prompt for http auth, got %d", prompter.confirmCalls)
	}
}

func TestConfirmCoordinator_HTTPAuthSendsEveryCandidateToPrompt(t *testing.T) {
	granted := newFakeEntry("granted")
	seedRule(t, granted, func(rule *policy.Rule) { rule.Allow("example.com") })

	denied := newFakeEntry("denied")
	seedRule(t, denied, func(rule *policy.Rule) { rule.Deny("example.com") })

	prompter := &fakePrompter{confirmResponse: ConfirmAccessResponse{ApprovedIDs: []string{"granted"}}}
	coordinator := NewConfirmCoordinator(&policy.Evaluator{}, prompter, confirmConfig(nil), nil)

	req := MatchRequest{PageURL: "https://example.com", HTTPAuth: true}
	allowed, err := coordinator.Resolve(context.Background(), req, []Entry{granted, denied})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if prompter.confirmCalls != 1 {
		t.Fatalf("expected one prompt, got %d", prompter.confirmCalls)
	}
	// Standing grants and denials alike go to the user for basic auth.
	if got := len(prompter.lastConfirm.Candidates); got != 2 {
		t.Fatalf("expected both entries prompted, got %d", got)
	}
	if len(allowed) != 1 || allowed[0].ID() != "granted" {
		t.Fatalf("expected only the approved entry, got %d", len(allowed))
	}
}

func TestConfirmCoordinator_HTTPAuthPermissionStillPromptsUnknown(t *testing.T) {
	entry := newFakeEntry("e1")
	prompter := &fakePrompter{confirmResponse: ConfirmAccessResponse{ApprovedIDs: []string{"e1"}}}
	coordinator := NewConfirmCoordinator(&policy.Evaluator{}, prompter, confirmConfig(func(cfg *Config) {
		cfg.Access.HTTPAuthPermission = true
	}), nil)

	allowed, err := coordinator.Resolve(context.Background(), MatchRequest{PageURL: "https://example.com", HTTPAuth: true}, []Entry{entry})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if prompter.confirmCalls != 1 {
		t.Fatalf("expected undecided entry prompted, got %d calls", prompter.confirmCalls)
	}
	if len(allowed) != 1 {
		t.Fatalf("expected approved entry disclosed, got %d", len(allowed))
	}
}

func TestConfirmCoordinator_RememberPersistsDecisions(t *testing.T) {
	approved := newFakeEntry("approved")
	rejected := newFakeEntry("rejected")

	prompter := &fakePrompter{confirmResponse: ConfirmAccessResponse{
		ApprovedIDs: []string{"approved"},
		RejectedIDs: []string{"rejected"},
		Remember:    true,
	}}
	evaluator := &policy.Evaluator{}
	coordinator := NewConfirmCoordinator(evaluator, prompter, confirmConfig(nil), nil)

	req := MatchRequest{PageURL: "https://example.com", SubmitURL: "https://login.example.com/post", Realm: "corp"}
	allowed, err := coordinator.Resolve(context.Background(), req, []Entry{approved, rejected})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(allowed) != 1 || allowed[0].ID() != "approved" {
		t.Fatalf("expected only approved entry, got %d", len(allowed))
	}

	if got := evaluator.Evaluate(approved, "example.com", "login.example.com", "corp"); got != policy.VerdictAllowed {
		t.Fatalf("expected persisted grant, got %v", got)
	}
	if got := evaluator.Evaluate(rejected, "example.com", "", ""); got != policy.VerdictDenied {
		t.Fatalf("expected persisted denial, got %v", got)
	}
}

func TestConfirmCoordinator_UnselectedWithoutRejectionStaysUndecided(t *testing.T) {
	entry := newFakeEntry("e1")
	prompter := &fakePrompter{confirmResponse: ConfirmAccessResponse{Remember: true}}
	evaluator := &policy.Evaluator{}
	coordinator := NewConfirmCoordinator(evaluator, prompter, confirmConfig(nil), nil)

	allowed, err := coordinator.Resolve(context.Background(), MatchRequest{PageURL: "https://example.com"}, []Entry{entry})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(allowed) != 0 {
		t.Fatalf("expected nothing approved, got %d", len(allowed))
	}
	if got := evaluator.Evaluate(entry, "example.com", "", ""); got != policy.VerdictUnknown {
		t.Fatalf("expected no persisted decision, got %v", got)
	}
}

type blockingPrompter struct {
	started chan struct{}
	release chan ConfirmAccessResponse
}

func (p *blockingPrompter) ConfirmAccess(ctx context.Context, _ ConfirmAccessRequest) (ConfirmAccessResponse, error) {
	close(p.started)
	select {
	case response := <-p.release:
		return response, nil
	case <-ctx.Done():
		return ConfirmAccessResponse{}, ctx.Err()
	}
}

func (p *blockingPrompter) AskYesNo(context.Context, string, string) (bool, error) {
	return false, nil
}

func (p *blockingPrompter) AskLabel(context.Context, string, string) (string, bool, error) {
	return "", false, nil
}

func TestConfirmCoordinator_ConcurrentPromptDisclosesOnlyGrants(t *testing.T) {
	prompter := &blockingPrompter{started: make(chan struct{}), release: make(chan ConfirmAccessResponse)}
	coordinator := NewConfirmCoordinator(&policy.Evaluator{}, prompter, confirmConfig(nil), nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = coordinator.Resolve(context.Background(), MatchRequest{PageURL: "https://example.com"}, []Entry{newFakeEntry("a")})
	}()
	<-prompter.started

	granted := newFakeEntry("granted")
	seedRule(t, granted, func(rule *policy.Rule) { rule.Allow("example.com") })

	// While the first prompt is open a second request gets no error and no
	// second prompt: only its standing grants come back.
	allowed, err := coordinator.Resolve(context.Background(), MatchRequest{PageURL: "https://example.com"}, []Entry{granted, newFakeEntry("b")})
	if err != nil {
		t.Fatalf("concurrent resolve: %v", err)
	}
	if len(allowed) != 1 || allowed[0].ID() != "granted" {
		t.Fatalf("expected only the granted entry, got %d", len(allowed))
	}

	prompter.release <- ConfirmAccessResponse{}
	wg.Wait()
}

func TestConfirmCoordinator_CancelActiveAbortsPrompt(t *testing.T) {
	prompter := &blockingPrompter{started: make(chan struct{}), release: make(chan ConfirmAccessResponse)}
	coordinator := NewConfirmCoordinator(&policy.Evaluator{}, prompter, confirmConfig(nil), nil)

	done := make(chan error, 1)
	go func() {
		_, err := coordinator.Resolve(context.Background(), MatchRequest{PageURL: "https://example.com"}, []Entry{newFakeEntry("a")})
		done <- err
	}()
	<-prompter.started

	coordinator.CancelActive()
	if err := <-done; err == nil {
		t.Fatalf("expected canceled prompt to fail the request")
	}
}
