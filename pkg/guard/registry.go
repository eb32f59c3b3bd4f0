package guard

// Registry holds the ordered set of rules a Verifier runs, partitioned
// by VerificationLevel. Rules run in registration order within a level.
type Registry struct {
	rules []Rule
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a rule to the registry.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// RulesAt returns the registered rules at level, in registration order.
func (r *Registry) RulesAt(level VerificationLevel) []Rule {
	var out []Rule
	for _, rule := range r.rules {
		if rule.Level() == level {
			out = append(out, rule)
		}
	}
	return out
}

// CreateDefaultRegistry returns a Registry pre-loaded with every
// built-in rule (§4.9): diff_exists, all_tests_pass, coverage_threshold,
// lint_clean, type_check, plan_structure at L1, plan_goal_coverage at
// L2.
func CreateDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(diffExistsRule{})
	r.Register(allTestsPassRule{})
	r.Register(coverageThresholdRule{minPercent: 80})
	r.Register(lintCleanRule{})
	r.Register(typeCheckRule{})
	r.Register(planStructureRule{})
	r.Register(planGoalCoverageRule{})
	return r
}
