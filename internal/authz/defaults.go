package authz

// DefaultPolicies returns the built-in rule set. The composition root
// loads these into a fresh Engine; tests construct engines with exactly
// the rules they need.
func DefaultPolicies() []PolicyRule {
	return []PolicyRule{
		{
			ID:     "compliance-data-access",
			Name:   "Compliance Data Access Policy",
			Effect: EffectAllow,
			Conditions: []Condition{
				{Path: "resource.data_classification", Value: "compliance"},
				{Path: "user.compliance_access", Value: true},
				{Path: "user.role", Value: Operators{"$in": []string{"auditor", "admin"}}},
			},
			Actions:   []string{"claim:view", "member:view", "policy:view"},
			Resources: []string{"*"},
			Priority:  200,
			Enabled:   true,
		},
		{
			ID:     "claim-owner-edit",
			Name:   "Claim Owner Edit Policy",
			Effect: EffectAllow,
			Conditions: []Condition{
				{Path: "resource.owner_id", Value: Ref{Path: "user.id"}},
			},
			Actions:   []string{"claim:edit"},
			Resources: []string{"claim/*"},
			Priority:  100,
			Enabled:   true,
		},
		{
			ID:     "regional-data-access",
			Name:   "Regional Data Access Policy",
			Effect: EffectAllow,
			Conditions: []Condition{
				{Path: "user.region", Value: Ref{Path: "resource.region"}},
			},
			Actions:   []string{"claim:view", "member:view"},
			Resources: []string{"claim/*", "member/*"},
			Priority:  90,
			Enabled:   true,
		},
		{
			ID:     "business-hours-access",
			Name:   "Business Hours Access Policy",
			Effect: EffectAllow,
			Conditions: []Condition{
				{Path: "context.hour", Value: Operators{"$gte": 9, "$lte": 17}},
				{Path: "context.day_of_week", Value: Operators{"$in": []int{1, 2, 3, 4, 5}}},
				{Path: "user.role", Value: Operators{"$ne": "admin"}},
			},
			Actions:   []string{"*"},
			Resources: []string{"*"},
			Priority:  50,
			Enabled:   true,
		},
	}
}
