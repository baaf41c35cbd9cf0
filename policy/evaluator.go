package policy

import "strings"

// Verdict is the tri-state access decision for one entry against one
// request. It is computed fresh per request and never persisted.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictAllowed
	VerdictDenied
)

func (v Verdict) String() string {
	switch v {
	case VerdictAllowed:
		return "allowed"
	case VerdictDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// RuleCarrier is the slice of an entry the evaluator needs: its custom-data
// side channel and expiration state. Writes happen under the carrier's own
// update bracketing.
type RuleCarrier interface {
	CustomDataValue(key string) (string, bool)
	SetCustomDataValue(key, value string) error
	Expired() bool
}

// Evaluator computes verdicts and persists rule mutations for entries.
type Evaluator struct {
	// AllowExpired lets expired entries through instead of denying them.
	AllowExpired bool
}

// Load reads an entry's rule. The second result is false when the entry has
// never been given one.
func (e *Evaluator) Load(entry RuleCarrier) (*Rule, bool) {
	if entry == nil {
		return nil, false
	}
	raw, ok := entry.CustomDataValue(RuleDataKey)
	if !ok {
		return nil, false
	}
	rule, err := DecodeRule(raw)
	if err != nil {
		// A corrupt record degrades to "no rule" rather than failing the
		// request; the next mutation overwrites it.
		return nil, false
	}
	return rule, true
}

// Save writes an entry's rule back to its custom-data record.
func (e *Evaluator) Save(entry RuleCarrier, rule *Rule) error {
	encoded, err := EncodeRule(rule)
	if err != nil {
		return err
	}
	return entry.SetCustomDataValue(RuleDataKey, encoded)
}

// Evaluate loads the entry's rule and decides access for the request hosts.
func (e *Evaluator) Evaluate(entry RuleCarrier, host, submitHost, realm string) Verdict {
	rule, ok := e.Load(entry)
	if !ok {
		return VerdictUnknown
	}
	return e.Decide(rule, entry.Expired(), host, submitHost, realm)
}

// Decide is the pure verdict function. Host grants and denials are checked
// before the realm: an entry allowed for the request hosts stays allowed even
// when the stored realm differs.
func (e *Evaluator) Decide(rule *Rule, expired bool, host, submitHost, realm string) Verdict {
	if rule == nil {
		return VerdictUnknown
	}
	if expired {
		if e != nil && e.AllowExpired {
			return VerdictAllowed
		}
		return VerdictDenied
	}
	if rule.IsAllowed(host) && (submitHost == "" || rule.IsAllowed(submitHost)) {
		return VerdictAllowed
	}
	if rule.IsDenied(host) || (submitHost != "" && rule.IsDenied(submitHost)) {
		return VerdictDenied
	}
	if strings.TrimSpace(realm) != "" && rule.Realm() != strings.TrimSpace(realm) {
		return VerdictDenied
	}
	return VerdictUnknown
}

// Allow persists a grant for host on the entry's rule, creating the rule on
// first use.
func (e *Evaluator) Allow(entry RuleCarrier, host string) error {
	return e.mutate(entry, func(rule *Rule) {
		rule.Allow(host)
	})
}

// Deny persists a denial for host on the entry's rule.
func (e *Evaluator) Deny(entry RuleCarrier, host string) error {
	return e.mutate(entry, func(rule *Rule) {
		rule.Deny(host)
	})
}

// SetRealm persists a realm scope on the entry's rule.
func (e *Evaluator) SetRealm(entry RuleCarrier, realm string) error {
	return e.mutate(entry, func(rule *Rule) {
		rule.SetRealm(realm)
	})
}

func (e *Evaluator) mutate(entry RuleCarrier, apply func(*Rule)) error {
	rule, ok := e.Load(entry)
	if !ok {
		rule = NewRule()
	}
	apply(rule)
	return e.Save(entry, rule)
}
