// Package policy owns the per-entry allow/deny rule set and the tri-state
// access verdict computed from it. Rules live in an entry's custom-data side
// channel as a compact JSON record; evaluation is pure and persistence is
// confined to the explicit mutators.
package policy

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// RuleDataKey is the custom-data key an entry's access rule is stored under.
const RuleDataKey = "broker.access_rule"

// Rule is a per-entry access policy keyed by host, optionally scoped to an
// authentication realm. A host is a member of at most one of the two sets.
type Rule struct {
	allowed map[string]struct{}
	denied  map[string]struct{}
	realm   string
}

// NewRule returns an empty rule.
func NewRule() *Rule {
	return &Rule{
		allowed: map[string]struct{}{},
		denied:  map[string]struct{}{},
	}
}

// Allow grants host, removing any standing denial for it.
func (r *Rule) Allow(host string) {
	host = normalizeRuleHost(host)
	if host == "" {
		return
	}
	r.ensure()
	delete(r.denied, host)
	r.allowed[host] = struct{}{}
}

// Deny blocks host, removing any standing grant for it.
func (r *Rule) Deny(host string) {
	host = normalizeRuleHost(host)
	if host == "" {
		return
	}
	r.ensure()
	delete(r.allowed, host)
	r.denied[host] = struct{}{}
}

// SetRealm scopes the rule to an authentication realm.
func (r *Rule) SetRealm(realm string) {
	r.realm = strings.TrimSpace(realm)
}

func (r *Rule) Realm() string {
	if r == nil {
		return ""
	}
	return r.realm
}

func (r *Rule) IsAllowed(host string) bool {
	if r == nil {
		return false
	}
	_, ok := r.allowed[normalizeRuleHost(host)]
	return ok
}

func (r *Rule) IsDenied(host string) bool {
	if r == nil {
		return false
	}
	_, ok := r.denied[normalizeRuleHost(host)]
	return ok
}

// AllowedHosts returns the grant set in deterministic order.
func (r *Rule) AllowedHosts() []string {
	return sortedHosts(r.allowed)
}

// DeniedHosts returns the denial set in deterministic order.
func (r *Rule) DeniedHosts() []string {
	return sortedHosts(r.denied)
}

func (r *Rule) ensure() {
	if r.allowed == nil {
		r.allowed = map[string]struct{}{}
	}
	if r.denied == nil {
		r.denied = map[string]struct{}{}
	}
}

type rulePayload struct {
	AllowedHosts []string `json:"allowedHosts,omitempty"`
	DeniedHosts  []string `json:"deniedHosts,omitempty"`
	Realm        string   `json:"realm,omitempty"`
}

// EncodeRule serializes a rule into its custom-data representation.
func EncodeRule(rule *Rule) (string, error) {
	if rule == nil {
		return "", fmt.Errorf("policy: rule is required")
	}
	payload := rulePayload{
		AllowedHosts: rule.AllowedHosts(),
		DeniedHosts:  rule.DeniedHosts(),
		Realm:        rule.Realm(),
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("policy: encode rule: %w", err)
	}
	return string(encoded), nil
}

// DecodeRule parses a stored rule record. Hosts appearing in both sets keep
// only their denial; the most recent write is authoritative and a conflict is
// resolved silently rather than surfaced.
func DecodeRule(raw string) (*Rule, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("policy: rule payload is empty")
	}
	payload := rulePayload{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("policy: decode rule: %w", err)
	}
	rule := NewRule()
	for _, host := range payload.AllowedHosts {
		rule.Allow(host)
	}
	for _, host := range payload.DeniedHosts {
		rule.Deny(host)
	}
	rule.SetRealm(payload.Realm)
	return rule, nil
}

func sortedHosts(set map[string]struct{}) []string {
	hosts := make([]string, 0, len(set))
	for host := range set {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

func normalizeRuleHost(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}
