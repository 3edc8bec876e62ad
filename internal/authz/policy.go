package authz

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Effect is the binary outcome a matched rule asserts.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// ErrPolicyNotFound is returned by UpdatePolicy for an unknown rule id.
var ErrPolicyNotFound = errors.New("authz: policy not found")

// PolicyRule is one ABAC rule. Rules apply to the actions listed in
// Actions ("*" is a wildcard); Resources patterns are stored and surfaced
// through the management API but do not narrow applicability during
// evaluation, so a rule's resource list is scope-widening metadata only.
type PolicyRule struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Effect     Effect      `json:"effect"`
	Conditions []Condition `json:"conditions"`
	Actions    []string    `json:"actions"`
	Resources  []string    `json:"resources"`
	Priority   int         `json:"priority"`
	Enabled    bool        `json:"enabled"`
}

// Validate checks rule shape before it enters the engine.
func (r PolicyRule) Validate() error {
	if r.ID == "" {
		return errors.New("authz: rule id required")
	}
	if r.Effect != EffectAllow && r.Effect != EffectDeny {
		return fmt.Errorf("authz: rule %s: effect must be allow or deny", r.ID)
	}
	return nil
}

// Engine performs the two-phase decision: a coarse RBAC gate through the
// Authority, then prioritized first-match evaluation of the rule set.
// Evaluate is safe for concurrent use; rule mutations take the write lock
// and re-sort, so readers always observe a fully ordered snapshot.
type Engine struct {
	authority *Authority
	logger    *slog.Logger
	metrics   *Metrics

	mu    sync.RWMutex
	rules []PolicyRule
}

// NewEngine constructs the policy engine. Logger and metrics may be nil.
func NewEngine(authority *Authority, logger *slog.Logger, metrics *Metrics) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		authority: authority,
		logger:    logger,
		metrics:   metrics,
	}
}

// Evaluate decides an access request. It never errors and never panics:
// unknown actions, unknown roles and unmatched rule sets all resolve to
// deny.
func (e *Engine) Evaluate(user, resource map[string]any, action string, reqContext map[string]any) bool {
	start := time.Now()

	if reqContext == nil {
		// day_of_week follows time.Weekday numbering: Sunday is 0,
		// so a weekday window is $in [1..5].
		now := time.Now().UTC()
		reqContext = map[string]any{
			"timestamp":   now,
			"hour":        now.Hour(),
			"day_of_week": int(now.Weekday()),
		}
	}
	if user == nil {
		user = map[string]any{}
	}
	if resource == nil {
		resource = map[string]any{}
	}

	// Coarse gate: the cheap RBAC check rejects before any attribute
	// evaluation. ABAC rules are never consulted when it fails.
	if !e.checkCoarse(user, action) {
		e.record("deny", "rbac", time.Since(start))
		return false
	}

	// Snapshot under the read lock. Mutators sort and update rule structs
	// in place in the shared backing array, so iterating the live slice
	// outside the lock would expose a mid-sort, torn rule list.
	e.mu.RLock()
	rules := make([]PolicyRule, len(e.rules))
	copy(rules, e.rules)
	e.mu.RUnlock()

	in := evalInput{user: user, resource: resource, context: reqContext}
	for i := range rules {
		rule := &rules[i]
		if !rule.Enabled {
			continue
		}
		if !ruleAppliesToAction(rule, action) {
			continue
		}
		if !matchConditions(rule.Conditions, in) {
			continue
		}
		allowed := rule.Effect == EffectAllow
		outcome := "deny"
		if allowed {
			outcome = "allow"
		}
		e.record(outcome, "abac", time.Since(start))
		e.logger.Debug("policy decision",
			slog.String("rule", rule.ID),
			slog.String("action", action),
			slog.Bool("allowed", allowed),
		)
		return allowed
	}

	// Default deny: no rule matched.
	e.record("deny", "default", time.Since(start))
	e.logger.Debug("policy decision (default deny)", slog.String("action", action))
	return false
}

// HasPermission exposes the coarse check for callers that have no
// attribute context.
func (e *Engine) HasPermission(roles []Role, permission Permission) bool {
	return e.authority.HasPermission(roles, permission)
}

// AddPolicy validates and inserts a rule, then re-sorts by descending
// priority. A rule with a duplicate id replaces the existing one.
func (e *Engine) AddPolicy(rule PolicyRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	replaced := false
	for i := range e.rules {
		if e.rules[i].ID == rule.ID {
			e.rules[i] = rule
			replaced = true
			break
		}
	}
	if !replaced {
		e.rules = append(e.rules, rule)
	}
	e.sortLocked()
	return nil
}

// RemovePolicy deletes a rule by id. Removing an unknown id is a no-op.
func (e *Engine) RemovePolicy(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.rules[:0]
	for _, rule := range e.rules {
		if rule.ID != id {
			kept = append(kept, rule)
		}
	}
	e.rules = kept
}

// UpdatePolicy mutates only the fields present in the update payload.
// Unknown field names are ignored silently; an unknown rule id is an
// error so callers can detect it.
func (e *Engine) UpdatePolicy(id string, fields map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.rules {
		if e.rules[i].ID != id {
			continue
		}
		applyRuleUpdate(&e.rules[i], fields)
		e.sortLocked()
		return nil
	}
	return ErrPolicyNotFound
}

// Policies returns a snapshot of the rule set in evaluation order.
func (e *Engine) Policies() []PolicyRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]PolicyRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// checkCoarse parses the action as a permission and asks the Authority.
func (e *Engine) checkCoarse(user map[string]any, action string) bool {
	perm, ok := ParsePermission(action)
	if !ok {
		return false
	}
	return e.authority.HasPermission(rolesFromAttributes(user), perm)
}

func (e *Engine) record(outcome, stage string, elapsed time.Duration) {
	if e.metrics != nil {
		e.metrics.RecordDecision(outcome, stage, elapsed)
	}
}

// sortLocked keeps the rule slice ordered by descending priority. The sort
// is stable so equal priorities retain insertion order; partial orderings
// are never visible to readers because callers hold the write lock.
func (e *Engine) sortLocked() {
	sort.SliceStable(e.rules, func(i, j int) bool {
		return e.rules[i].Priority > e.rules[j].Priority
	})
}

func ruleAppliesToAction(rule *PolicyRule, action string) bool {
	for _, a := range rule.Actions {
		if a == "*" || a == action {
			return true
		}
	}
	return false
}

// rolesFromAttributes extracts and parses the subject's roles, dropping
// anything outside the closed role set.
func rolesFromAttributes(user map[string]any) []Role {
	raw, ok := user["roles"]
	if !ok {
		return nil
	}
	var out []Role
	appendRole := func(s string) {
		if role, ok := ParseRole(s); ok {
			out = append(out, role)
		}
	}
	switch list := raw.(type) {
	case []Role:
		for _, r := range list {
			appendRole(string(r))
		}
	case []string:
		for _, s := range list {
			appendRole(s)
		}
	case []any:
		for _, v := range list {
			if s, ok := v.(string); ok {
				appendRole(s)
			}
		}
	}
	return out
}

func applyRuleUpdate(rule *PolicyRule, fields map[string]any) {
	for name, value := range fields {
		switch name {
		case "name":
			if v, ok := value.(string); ok {
				rule.Name = v
			}
		case "effect":
			switch v := value.(type) {
			case Effect:
				rule.Effect = v
			case string:
				rule.Effect = Effect(v)
			}
		case "conditions":
			if v, ok := toConditions(value); ok {
				rule.Conditions = v
			}
		case "actions":
			if v, ok := toStringSlice(value); ok {
				rule.Actions = v
			}
		case "resources":
			if v, ok := toStringSlice(value); ok {
				rule.Resources = v
			}
		case "priority":
			switch v := value.(type) {
			case int:
				rule.Priority = v
			case float64:
				rule.Priority = int(v)
			}
		case "enabled":
			if v, ok := value.(bool); ok {
				rule.Enabled = v
			}
		}
	}
}

// toConditions accepts both typed []Condition and the JSON wire form the
// management API delivers: []any of {"path": ..., "value": ...} objects.
func toConditions(value any) ([]Condition, bool) {
	switch v := value.(type) {
	case []Condition:
		return v, true
	case []any:
		out := make([]Condition, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			path, ok := m["path"].(string)
			if !ok || path == "" {
				return nil, false
			}
			out = append(out, Condition{Path: path, Value: m["value"]})
		}
		return out, true
	default:
		return nil, false
	}
}

func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
