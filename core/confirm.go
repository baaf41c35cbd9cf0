package core

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/goliatone/go-credbroker/policy"
)

// ConfirmCoordinator resolves the disclosable subset of candidates. Entries
// with a standing grant pass straight through, entries with a standing denial
// drop, and everything else goes to the human collaborator — at most one
// prompt at a time process-wide.
type ConfirmCoordinator struct {
	policy   AccessPolicy
	prompter Prompter
	config   func() Config
	logger   Logger

	mu           sync.Mutex
	promptActive bool
	cancelActive context.CancelFunc
}

func NewConfirmCoordinator(accessPolicy AccessPolicy, prompter Prompter, config func() Config, logger Logger) *ConfirmCoordinator {
	if config == nil {
		config = func() Config { return DefaultConfig() }
	}
	return &ConfirmCoordinator{
		policy:   accessPolicy,
		prompter: prompter,
		config:   config,
		logger:   logger,
	}
}

// Resolve partitions candidates by verdict and prompts for the undecided
// remainder. HTTP Basic Auth without a standing permission sends every
// candidate to the user, policy grants included. While another prompt is
// active the call discloses only the standing grants; the client retries once
// the user has answered the first request.
func (c *ConfirmCoordinator) Resolve(ctx context.Context, req MatchRequest, candidates []Entry) ([]Entry, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	cfg := c.config()
	host := hostOf(req.PageURL)
	submitHost := hostOf(req.SubmitURL)
	realm := strings.TrimSpace(req.Realm)

	forceConfirm := req.HTTPAuth && !cfg.Access.HTTPAuthPermission

	var allowed []Entry
	var pending []Entry
	for _, entry := range candidates {
		if forceConfirm {
			pending = append(pending, entry)
			continue
		}
		switch c.policy.Evaluate(entry, host, submitHost, realm) {
		case policy.VerdictAllowed:
			allowed = append(allowed, entry)
		case policy.VerdictDenied:
			continue
		default:
			if cfg.Access.AlwaysAllowAccess {
				allowed = append(allowed, entry)
				continue
			}
			pending = append(pending, entry)
		}
	}
	if len(pending) == 0 || c.prompter == nil {
		return allowed, nil
	}

	response, prompted, err := c.prompt(ctx, req, host, submitHost, realm, pending)
	if err != nil {
		return nil, err
	}
	if !prompted {
		return allowed, nil
	}

	approved := map[string]struct{}{}
	for _, id := range response.ApprovedIDs {
		approved[id] = struct{}{}
	}
	rejected := map[string]struct{}{}
	for _, id := range response.RejectedIDs {
		rejected[id] = struct{}{}
	}

	for _, entry := range pending {
		if _, ok := approved[entry.ID()]; ok {
			if response.Remember {
				if err := c.remember(entry, host, submitHost, realm, true); err != nil {
					return nil, err
				}
			}
			allowed = append(allowed, entry)
			continue
		}
		if _, ok := rejected[entry.ID()]; ok && response.Remember {
			if err := c.remember(entry, host, submitHost, realm, false); err != nil {
				return nil, err
			}
		}
	}
	return allowed, nil
}

func (c *ConfirmCoordinator) prompt(ctx context.Context, req MatchRequest, host, submitHost, realm string, pending []Entry) (ConfirmAccessResponse, bool, error) {
	promptCtx, cancel, ok := c.acquire(ctx)
	if !ok {
		return ConfirmAccessResponse{}, false, nil
	}
	defer c.release(cancel)

	confirmReq := ConfirmAccessRequest{
		Candidates: make([]ConfirmCandidate, 0, len(pending)),
		Host:       host,
		SubmitHost: submitHost,
		Realm:      realm,
		HTTPAuth:   req.HTTPAuth,
	}
	for _, entry := range pending {
		confirmReq.Candidates = append(confirmReq.Candidates, ConfirmCandidate{
			ID:       entry.ID(),
			Title:    entry.Title(),
			Username: entry.Username(),
			URL:      entry.URL(),
		})
	}
	response, err := c.prompter.ConfirmAccess(promptCtx, confirmReq)
	return response, true, err
}

func (c *ConfirmCoordinator) acquire(ctx context.Context) (context.Context, context.CancelFunc, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.promptActive {
		return nil, nil, false
	}
	promptCtx, cancel := context.WithCancel(ctx)
	c.promptActive = true
	c.cancelActive = cancel
	return promptCtx, cancel, true
}

func (c *ConfirmCoordinator) release(cancel context.CancelFunc) {
	c.mu.Lock()
	c.promptActive = false
	c.cancelActive = nil
	c.mu.Unlock()
	cancel()
}

// CancelActive aborts the in-flight prompt, if any. Vault lock and active
// vault change both invalidate whatever the user was being asked about.
func (c *ConfirmCoordinator) CancelActive() {
	c.mu.Lock()
	cancel := c.cancelActive
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *ConfirmCoordinator) remember(entry Entry, host, submitHost, realm string, allow bool) error {
	entry.BeginUpdate()
	defer entry.EndUpdate()

	mutate := c.policy.Deny
	if allow {
		mutate = c.policy.Allow
	}
	if err := mutate(entry, host); err != nil {
		return err
	}
	if submitHost != "" && submitHost != host {
		if err := mutate(entry, submitHost); err != nil {
			return err
		}
	}
	if allow && realm != "" {
		if err := c.policy.SetRealm(entry, realm); err != nil {
			return err
		}
	}
	return nil
}

func hostOf(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
