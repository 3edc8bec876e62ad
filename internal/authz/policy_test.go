package authz

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, rules ...PolicyRule) *Engine {
	t.Helper()
	e := NewEngine(NewAuthority(), nil, nil)
	for _, rule := range rules {
		require.NoError(t, e.AddPolicy(rule))
	}
	return e
}

func adminUser() map[string]any {
	return map[string]any{"id": "u-admin", "roles": []string{"admin"}, "role": "admin"}
}

func allowAll(id string, priority int) PolicyRule {
	return PolicyRule{
		ID:       id,
		Name:     id,
		Effect:   EffectAllow,
		Actions:  []string{"*"},
		Priority: priority,
		Enabled:  true,
	}
}

func TestEvaluateCoarseGateDominates(t *testing.T) {
	// A wide-open allow rule must never override a failed RBAC check.
	e := newTestEngine(t, allowAll("open-door", 1000))

	viewer := map[string]any{"id": "u1", "roles": []string{"viewer"}}
	assert.False(t, e.Evaluate(viewer, nil, "claim:approve", nil))

	// Unknown action strings parse to no permission and deny outright.
	assert.False(t, e.Evaluate(adminUser(), nil, "claim:teleport", nil))

	// Subjects with no parseable roles are denied.
	ghost := map[string]any{"id": "u2", "roles": []string{"intruder"}}
	assert.False(t, e.Evaluate(ghost, nil, "claim:view", nil))
}

func TestEvaluateDefaultDeny(t *testing.T) {
	e := newTestEngine(t)

	// RBAC passes, but with no rules configured the terminal outcome is deny.
	assert.False(t, e.Evaluate(adminUser(), nil, "claim:view", nil))
}

func TestEvaluatePriorityOrdering(t *testing.T) {
	deny := allowAll("low-deny", 50)
	deny.Effect = EffectDeny
	e := newTestEngine(t, deny, allowAll("high-allow", 100))

	assert.True(t, e.Evaluate(adminUser(), nil, "claim:view", nil))

	// Flip the priorities: the deny rule now wins.
	require.NoError(t, e.UpdatePolicy("low-deny", map[string]any{"priority": 150}))
	assert.False(t, e.Evaluate(adminUser(), nil, "claim:view", nil))
}

func TestEvaluateDenyRulePrecedesLowerAllow(t *testing.T) {
	deny := PolicyRule{
		ID:       "deny-restricted",
		Effect:   EffectDeny,
		Actions:  []string{"claim:view"},
		Priority: 100,
		Enabled:  true,
		Conditions: []Condition{
			{Path: "resource.data_classification", Value: "restricted"},
		},
	}
	e := newTestEngine(t, deny, allowAll("allow-anything", 50))

	restricted := map[string]any{"data_classification": "restricted"}
	assert.False(t, e.Evaluate(adminUser(), restricted, "claim:view", nil))

	open := map[string]any{"data_classification": "public"}
	assert.True(t, e.Evaluate(adminUser(), open, "claim:view", nil))
}

func TestEvaluateSkipsDisabledRules(t *testing.T) {
	rule := allowAll("toggled", 10)
	rule.Enabled = false
	e := newTestEngine(t, rule)

	assert.False(t, e.Evaluate(adminUser(), nil, "claim:view", nil))

	require.NoError(t, e.UpdatePolicy("toggled", map[string]any{"enabled": true}))
	assert.True(t, e.Evaluate(adminUser(), nil, "claim:view", nil))
}

func TestEvaluateActionFilterWithWildcard(t *testing.T) {
	scoped := PolicyRule{
		ID:       "members-only",
		Effect:   EffectAllow,
		Actions:  []string{"member:view"},
		Priority: 10,
		Enabled:  true,
	}
	e := newTestEngine(t, scoped)

	assert.True(t, e.Evaluate(adminUser(), nil, "member:view", nil))
	assert.False(t, e.Evaluate(adminUser(), nil, "claim:view", nil))
}

func TestEvaluateResourcePatternsDoNotFilter(t *testing.T) {
	// Resource patterns are stored but deliberately not applied as a
	// filter; a rule scoped to member/* still matches claim actions it
	// lists.
	rule := PolicyRule{
		ID:        "member-scoped",
		Effect:    EffectAllow,
		Actions:   []string{"claim:view"},
		Resources: []string{"member/*"},
		Priority:  10,
		Enabled:   true,
	}
	e := newTestEngine(t, rule)

	claim := map[string]any{"type": "claim"}
	assert.True(t, e.Evaluate(adminUser(), claim, "claim:view", nil))
}

func TestAddPolicyValidation(t *testing.T) {
	e := newTestEngine(t)

	err := e.AddPolicy(PolicyRule{Effect: EffectAllow})
	assert.Error(t, err)

	err = e.AddPolicy(PolicyRule{ID: "bad-effect", Effect: Effect("maybe")})
	assert.Error(t, err)
}

func TestAddPolicyReplacesDuplicateID(t *testing.T) {
	e := newTestEngine(t, allowAll("dup", 10))

	replacement := allowAll("dup", 10)
	replacement.Effect = EffectDeny
	require.NoError(t, e.AddPolicy(replacement))

	policies := e.Policies()
	require.Len(t, policies, 1)
	assert.Equal(t, EffectDeny, policies[0].Effect)
}

func TestRemovePolicy(t *testing.T) {
	e := newTestEngine(t, allowAll("keep", 10), allowAll("drop", 20))

	e.RemovePolicy("drop")
	policies := e.Policies()
	require.Len(t, policies, 1)
	assert.Equal(t, "keep", policies[0].ID)

	// Removing an unknown id is a no-op.
	e.RemovePolicy("never-existed")
	assert.Len(t, e.Policies(), 1)
}

func TestUpdatePolicyUnknownID(t *testing.T) {
	e := newTestEngine(t)

	err := e.UpdatePolicy("missing", map[string]any{"priority": 1})
	assert.ErrorIs(t, err, ErrPolicyNotFound)
}

func TestUpdatePolicyIgnoresUnknownFields(t *testing.T) {
	e := newTestEngine(t, allowAll("r1", 10))

	require.NoError(t, e.UpdatePolicy("r1", map[string]any{
		"name":     "renamed",
		"severity": "critical",
		"priority": float64(42),
	}))

	policies := e.Policies()
	require.Len(t, policies, 1)
	assert.Equal(t, "renamed", policies[0].Name)
	assert.Equal(t, 42, policies[0].Priority)
}

func TestUpdatePolicyConditionsFromWirePayload(t *testing.T) {
	e := newTestEngine(t, allowAll("regional", 10))

	// The admin handler decodes PATCH bodies into map[string]any, so
	// conditions arrive as []any of objects, not []Condition.
	var fields map[string]any
	payload := `{"conditions": [{"path": "user.region", "value": "eu-west"}]}`
	require.NoError(t, json.Unmarshal([]byte(payload), &fields))
	require.NoError(t, e.UpdatePolicy("regional", fields))

	rules := e.Policies()
	require.Len(t, rules, 1)
	require.Len(t, rules[0].Conditions, 1)
	assert.Equal(t, "user.region", rules[0].Conditions[0].Path)
	assert.Equal(t, "eu-west", rules[0].Conditions[0].Value)

	euUser := adminUser()
	euUser["region"] = "eu-west"
	assert.True(t, e.Evaluate(euUser, nil, "claim:view", nil))

	usUser := adminUser()
	usUser["region"] = "us-east"
	assert.False(t, e.Evaluate(usUser, nil, "claim:view", nil))
}

func TestPoliciesSortedStable(t *testing.T) {
	e := newTestEngine(t,
		allowAll("first-low", 10),
		allowAll("high", 90),
		allowAll("second-low", 10),
	)

	policies := e.Policies()
	require.Len(t, policies, 3)
	assert.Equal(t, "high", policies[0].ID)
	// Equal priorities retain insertion order.
	assert.Equal(t, "first-low", policies[1].ID)
	assert.Equal(t, "second-low", policies[2].ID)
}

func TestDefaultPoliciesLoad(t *testing.T) {
	e := newTestEngine(t)
	for _, rule := range DefaultPolicies() {
		require.NoError(t, e.AddPolicy(rule))
	}

	policies := e.Policies()
	require.Len(t, policies, 4)
	assert.Equal(t, "compliance-data-access", policies[0].ID)
	assert.Equal(t, "business-hours-access", policies[3].ID)
}

func TestEvaluateConcurrentWithMutations(t *testing.T) {
	e := newTestEngine(t, allowAll("base", 10))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				e.Evaluate(adminUser(), nil, "claim:view", nil)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			_ = e.AddPolicy(allowAll("churn", j%50))
			e.RemovePolicy("churn")
		}
	}()
	// In-place field updates and the re-sort they trigger must also be
	// invisible to concurrent readers.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			_ = e.UpdatePolicy("base", map[string]any{"priority": j % 50, "name": "base"})
		}
	}()
	wg.Wait()

	assert.True(t, e.Evaluate(adminUser(), nil, "claim:view", nil))
}
