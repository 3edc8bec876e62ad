package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalRule(t *testing.T, conditions []Condition, user, resource, reqContext map[string]any) bool {
	t.Helper()
	e := newTestEngine(t, PolicyRule{
		ID:         "under-test",
		Effect:     EffectAllow,
		Conditions: conditions,
		Actions:    []string{"*"},
		Priority:   10,
		Enabled:    true,
	})
	return e.Evaluate(user, resource, "claim:view", reqContext)
}

func TestOperatorRange(t *testing.T) {
	conditions := []Condition{
		{Path: "context.hour", Value: Operators{"$gte": 9, "$lte": 17}},
	}

	assert.True(t, evalRule(t, conditions, adminUser(), nil, map[string]any{"hour": 12}))
	assert.False(t, evalRule(t, conditions, adminUser(), nil, map[string]any{"hour": 18}))
	assert.True(t, evalRule(t, conditions, adminUser(), nil, map[string]any{"hour": 9}))
}

func TestOperatorMembership(t *testing.T) {
	in := []Condition{{Path: "user.region", Value: Operators{"$in": []string{"a", "b"}}}}
	nin := []Condition{{Path: "user.region", Value: Operators{"$nin": []string{"a", "b"}}}}

	userA := map[string]any{"roles": []string{"admin"}, "region": "a"}
	userC := map[string]any{"roles": []string{"admin"}, "region": "c"}

	assert.True(t, evalRule(t, in, userA, nil, nil))
	assert.False(t, evalRule(t, in, userC, nil, nil))
	assert.False(t, evalRule(t, nin, userA, nil, nil))
	assert.True(t, evalRule(t, nin, userC, nil, nil))
}

func TestOperatorAliases(t *testing.T) {
	conditions := []Condition{
		{Path: "context.hour", Value: Operators{">=": 9, "<": 17}},
		{Path: "user.role", Value: Operators{"!=": "viewer"}},
	}

	assert.True(t, evalRule(t, conditions, adminUser(), nil, map[string]any{"hour": 10}))
	assert.False(t, evalRule(t, conditions, adminUser(), nil, map[string]any{"hour": 17}))
}

func TestOperatorTypeMismatchFailsClosed(t *testing.T) {
	conditions := []Condition{
		{Path: "context.hour", Value: Operators{"$gte": 9}},
	}

	// Ordering a string against a number is false, never a panic.
	assert.False(t, evalRule(t, conditions, adminUser(), nil, map[string]any{"hour": "noon"}))
	// Missing attribute resolves to nil, which is not orderable either.
	assert.False(t, evalRule(t, conditions, adminUser(), nil, map[string]any{}))
}

func TestListConditionMembership(t *testing.T) {
	conditions := []Condition{
		{Path: "user.role", Value: []string{"admin", "auditor"}},
	}

	assert.True(t, evalRule(t, conditions, adminUser(), nil, nil))

	viewer := map[string]any{"roles": []string{"admin"}, "role": "viewer"}
	assert.False(t, evalRule(t, conditions, viewer, nil, nil))
}

func TestLiteralNumericCoercion(t *testing.T) {
	// JSON decoding turns numbers into float64; they must still equal
	// native ints.
	conditions := []Condition{{Path: "resource.tier", Value: float64(3)}}
	resource := map[string]any{"tier": 3}

	assert.True(t, evalRule(t, conditions, adminUser(), resource, nil))
}

func TestMalformedPathVacuouslyTrue(t *testing.T) {
	conditions := []Condition{
		{Path: "nodots", Value: "whatever"},
		{Path: "galaxy.field", Value: "whatever"},
	}

	// Both entries are skipped, so the rule matches unconditionally.
	assert.True(t, evalRule(t, conditions, adminUser(), nil, nil))
}

func TestEmptyConditionsMatchUnconditionally(t *testing.T) {
	assert.True(t, evalRule(t, nil, adminUser(), nil, nil))
}

func TestLiteralPathStringIsNotAReference(t *testing.T) {
	// The plain-string form compares against the literal text "user.id";
	// it does not resolve the subject's id.
	literal := []Condition{{Path: "resource.owner_id", Value: "user.id"}}

	owned := map[string]any{"owner_id": "u-admin"}
	assert.False(t, evalRule(t, literal, adminUser(), owned, nil))

	// Only a resource whose owner_id is literally "user.id" matches.
	odd := map[string]any{"owner_id": "user.id"}
	assert.True(t, evalRule(t, literal, adminUser(), odd, nil))
}

func TestRefOperandComparesAttributePaths(t *testing.T) {
	ref := []Condition{{Path: "resource.owner_id", Value: Ref{Path: "user.id"}}}

	owned := map[string]any{"owner_id": "u-admin"}
	assert.True(t, evalRule(t, ref, adminUser(), owned, nil))

	foreign := map[string]any{"owner_id": "someone-else"}
	assert.False(t, evalRule(t, ref, adminUser(), foreign, nil))
}

func TestRefOperandJSONWireForm(t *testing.T) {
	ref := []Condition{{Path: "resource.owner_id", Value: map[string]any{"$ref": "user.id"}}}

	owned := map[string]any{"owner_id": "u-admin"}
	assert.True(t, evalRule(t, ref, adminUser(), owned, nil))
}

func TestActionNamespaceResolvesFromContext(t *testing.T) {
	conditions := []Condition{{Path: "action.name", Value: "claim:view"}}

	// The action string is not injected automatically; callers must put
	// it into the context bucket themselves.
	assert.False(t, evalRule(t, conditions, adminUser(), nil, map[string]any{}))
	assert.True(t, evalRule(t, conditions, adminUser(), nil, map[string]any{"action": "claim:view"}))
}

func TestBusinessHoursRule(t *testing.T) {
	rules := DefaultPolicies()
	var businessHours PolicyRule
	for _, r := range rules {
		if r.ID == "business-hours-access" {
			businessHours = r
		}
	}
	require.NotEmpty(t, businessHours.ID)

	e := newTestEngine(t, businessHours)
	user := map[string]any{"id": "u1", "roles": []string{"user"}, "role": "user"}

	inHours := map[string]any{"hour": 10, "day_of_week": 3}
	assert.True(t, e.Evaluate(user, nil, "claim:view", inHours))

	// Evaluated at hour 20 the rule does not match and the engine falls
	// through to default deny.
	afterHours := map[string]any{"hour": 20, "day_of_week": 3}
	assert.False(t, e.Evaluate(user, nil, "claim:view", afterHours))

	// Day numbering is time.Weekday's: Sunday is 0 and Monday is 1, so
	// the [1..5] window is Monday through Friday.
	sunday := map[string]any{"hour": 10, "day_of_week": 0}
	assert.False(t, e.Evaluate(user, nil, "claim:view", sunday))
	monday := map[string]any{"hour": 10, "day_of_week": 1}
	assert.True(t, e.Evaluate(user, nil, "claim:view", monday))
	friday := map[string]any{"hour": 10, "day_of_week": 5}
	assert.True(t, e.Evaluate(user, nil, "claim:view", friday))
	saturday := map[string]any{"hour": 10, "day_of_week": 6}
	assert.False(t, e.Evaluate(user, nil, "claim:view", saturday))

	// Admins are exempt from the rule, which here means it does not
	// match for them and they fall through to default deny too.
	admin := adminUser()
	assert.False(t, e.Evaluate(admin, nil, "claim:view", inHours))
}

func TestSynthesizedContextShape(t *testing.T) {
	// With a nil context the engine synthesizes hour/day_of_week, so a
	// rule over those fields evaluates without error; the outcome simply
	// depends on wall-clock, which this test does not pin down.
	conditions := []Condition{
		{Path: "context.hour", Value: Operators{"$gte": 0, "$lte": 23}},
	}
	assert.True(t, evalRule(t, conditions, adminUser(), nil, nil))
}

func TestNestedFieldLookupUsesRemainder(t *testing.T) {
	// Paths split on the first dot only; the remainder is a flat key.
	conditions := []Condition{{Path: "user.profile.level", Value: "gold"}}
	user := map[string]any{"roles": []string{"admin"}, "profile.level": "gold"}

	assert.True(t, evalRule(t, conditions, user, nil, nil))
}
