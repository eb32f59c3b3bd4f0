package ra

// EvaluateGate runs the eight rule-based checks (§4.5.3; checks 7-8
// reserved for future extension, currently vacuously true) against a
// draft, its ambiguity scores, the failure hypotheses surfaced during
// risk challenge, and an optional challenge report.
func EvaluateGate(draft SpecDraft, scores AmbiguityScores, hypotheses []FailureHypothesis, report *ChallengeReport) RAGateResult {
	checks := []GateCheck{
		checkGoalClarity(draft),
		checkSuccessTestability(draft),
		checkConstraintsExplicit(draft),
		checkRisksAddressed(hypotheses),
		checkAmbiguityThreshold(scores),
		checkChallengesResolved(report),
		{Name: "reserved_7", Passed: true, Reason: "reserved for extension"},
		{Name: "reserved_8", Passed: true, Reason: "reserved for extension"},
	}

	passed := true
	var required []string
	for _, c := range checks {
		if !c.Passed {
			passed = false
			required = append(required, c.Reason)
		}
	}

	return RAGateResult{Passed: passed, Checks: checks, RequiredActions: required}
}

func checkGoalClarity(draft SpecDraft) GateCheck {
	goal := draft.Goal
	if len(goal) < 8 {
		return GateCheck{Name: "goal_clarity", Passed: false, Reason: "goal is empty or too trivial"}
	}
	return GateCheck{Name: "goal_clarity", Passed: true}
}

func checkSuccessTestability(draft SpecDraft) GateCheck {
	if len(draft.AcceptanceCriteria) == 0 {
		return GateCheck{Name: "success_testability", Passed: false, Reason: "no acceptance criteria"}
	}
	for _, c := range draft.AcceptanceCriteria {
		if !c.Measurable {
			return GateCheck{Name: "success_testability", Passed: false, Reason: "acceptance criterion not measurable: " + c.Text}
		}
	}
	return GateCheck{Name: "success_testability", Passed: true}
}

func checkConstraintsExplicit(draft SpecDraft) GateCheck {
	if len(draft.Constraints) == 0 {
		return GateCheck{Name: "constraints_explicit", Passed: false, Reason: "no constraints recorded"}
	}
	return GateCheck{Name: "constraints_explicit", Passed: true}
}

func checkRisksAddressed(hypotheses []FailureHypothesis) GateCheck {
	for _, h := range hypotheses {
		if h.Severity == SeverityHigh && h.Mitigation == nil {
			return GateCheck{Name: "risks_addressed", Passed: false, Reason: "unmitigated HIGH-severity risk: " + h.Text}
		}
	}
	return GateCheck{Name: "risks_addressed", Passed: true}
}

func checkAmbiguityThreshold(scores AmbiguityScores) GateCheck {
	if scores.Ambiguity >= 0.5 {
		return GateCheck{Name: "ambiguity_threshold", Passed: false, Reason: "ambiguity above threshold"}
	}
	return GateCheck{Name: "ambiguity_threshold", Passed: true}
}

func checkChallengesResolved(report *ChallengeReport) GateCheck {
	if report != nil && report.Verdict == VerdictBlock {
		return GateCheck{Name: "challenges_resolved", Passed: false, Reason: "challenge report verdict is BLOCK"}
	}
	return GateCheck{Name: "challenges_resolved", Passed: true}
}
