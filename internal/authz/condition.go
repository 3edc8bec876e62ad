package authz

import "strings"

// Condition is one attribute check inside a policy rule. Path is a dotted
// "<namespace>.<field>" where namespace is one of user, resource, context
// or action; Value is a literal (exact equality), a slice (membership), a
// Ref (cross-attribute comparison) or an Operators object.
//
// A plain string value is always compared as a literal, even when it looks
// like another attribute path: {"resource.owner_id": "user.id"} compares
// against the text "user.id", not the subject's id. Use Ref for the
// cross-attribute form.
type Condition struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Ref marks a condition operand as a reference to another attribute path,
// resolved against the same evaluation buckets as condition paths.
type Ref struct {
	Path string `json:"$ref"`
}

// Operators is an operator-object operand: every entry must hold for the
// condition to pass. Supported keys are $eq/=, $ne/!=, $in, $nin/$not_in,
// $gte/>=, $lte/<=, $gt/> and $lt/<. Unknown keys are skipped.
type Operators map[string]any

// refOperand recognizes both the typed Ref operand and its JSON wire form,
// a single-key {"$ref": "<path>"} object.
func refOperand(expected any) (string, bool) {
	switch v := expected.(type) {
	case Ref:
		return v.Path, true
	case map[string]any:
		if len(v) == 1 {
			if path, ok := v["$ref"].(string); ok {
				return path, true
			}
		}
	}
	return "", false
}

// evalInput groups the attribute buckets for one Evaluate call.
type evalInput struct {
	user     map[string]any
	resource map[string]any
	context  map[string]any
}

// matchConditions reports whether every condition holds. An empty condition
// list matches unconditionally.
func matchConditions(conditions []Condition, in evalInput) bool {
	for _, c := range conditions {
		actual, ok := resolvePath(c.Path, in)
		if !ok {
			// Malformed path or unknown namespace: vacuously true.
			continue
		}
		expected := c.Value
		if refPath, isRef := refOperand(expected); isRef {
			refVal, refOK := resolvePath(refPath, in)
			if !refOK {
				return false
			}
			expected = refVal
		}
		if !matchValue(actual, expected) {
			return false
		}
	}
	return true
}

// resolvePath splits a dotted path on its first "." and looks the field up
// in the matching bucket. ok=false means the condition should be skipped,
// not failed: paths without a dot and unknown namespaces are ignored.
// Note the asymmetry inherited from the callers: "action.*" paths resolve
// against context["action"], which Evaluate does not populate on its own.
func resolvePath(path string, in evalInput) (any, bool) {
	parts := strings.SplitN(path, ".", 2)
	if len(parts) != 2 {
		return nil, false
	}
	namespace, field := parts[0], parts[1]
	switch namespace {
	case "user":
		return in.user[field], true
	case "resource":
		return in.resource[field], true
	case "context":
		return in.context[field], true
	case "action":
		return in.context["action"], true
	default:
		return nil, false
	}
}

// matchValue compares a resolved attribute against an expected operand.
func matchValue(actual, expected any) bool {
	switch exp := expected.(type) {
	case Operators:
		return matchOperators(actual, exp)
	case map[string]any:
		return matchOperators(actual, exp)
	case []any:
		return containsValue(exp, actual)
	case []string:
		for _, v := range exp {
			if equalValues(actual, v) {
				return true
			}
		}
		return false
	case []int:
		for _, v := range exp {
			if equalValues(actual, v) {
				return true
			}
		}
		return false
	default:
		return equalValues(actual, expected)
	}
}

// matchOperators applies every operator in the object (logical AND).
func matchOperators(actual any, ops map[string]any) bool {
	for op, operand := range ops {
		switch op {
		case "$eq", "=":
			if !equalValues(actual, operand) {
				return false
			}
		case "$ne", "!=":
			if equalValues(actual, operand) {
				return false
			}
		case "$in":
			if !memberOf(actual, operand) {
				return false
			}
		case "$nin", "$not_in":
			if memberOf(actual, operand) {
				return false
			}
		case "$gte", ">=":
			cmp, ok := compareValues(actual, operand)
			if !ok || cmp < 0 {
				return false
			}
		case "$lte", "<=":
			cmp, ok := compareValues(actual, operand)
			if !ok || cmp > 0 {
				return false
			}
		case "$gt", ">":
			cmp, ok := compareValues(actual, operand)
			if !ok || cmp <= 0 {
				return false
			}
		case "$lt", "<":
			cmp, ok := compareValues(actual, operand)
			if !ok || cmp >= 0 {
				return false
			}
		}
	}
	return true
}

func memberOf(actual, operand any) bool {
	switch list := operand.(type) {
	case []any:
		return containsValue(list, actual)
	case []string:
		for _, v := range list {
			if equalValues(actual, v) {
				return true
			}
		}
	case []int:
		for _, v := range list {
			if equalValues(actual, v) {
				return true
			}
		}
	case []float64:
		for _, v := range list {
			if equalValues(actual, v) {
				return true
			}
		}
	}
	return false
}

func containsValue(list []any, actual any) bool {
	for _, v := range list {
		if equalValues(actual, v) {
			return true
		}
	}
	return false
}

// equalValues compares with numeric coercion so that int(9) equals
// float64(9) regardless of which side came from JSON decoding.
func equalValues(a, b any) bool {
	if af, aOK := toFloat(a); aOK {
		if bf, bOK := toFloat(b); bOK {
			return af == bf
		}
		return false
	}
	if as, aOK := toComparableString(a); aOK {
		if bs, bOK := toComparableString(b); bOK {
			return as == bs
		}
		return false
	}
	if ab, aOK := a.(bool); aOK {
		bb, bOK := b.(bool)
		return bOK && ab == bb
	}
	return a == b
}

// compareValues orders two values of the same kind. Ordering a number
// against a string, or anything non-orderable, reports ok=false so the
// caller fails the condition instead of panicking.
func compareValues(a, b any) (int, bool) {
	if af, aOK := toFloat(a); aOK {
		bf, bOK := toFloat(b)
		if !bOK {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	as, aOK := a.(string)
	bs, bOK := b.(string)
	if aOK && bOK {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func toComparableString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case Role:
		return string(s), true
	case Permission:
		return string(s), true
	default:
		return "", false
	}
}
