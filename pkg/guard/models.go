// Package guard implements the Guard Bee verifier: evidence-first,
// two-tier (L1 rule / L2 context) verification of a deliverable against
// a pluggable rule registry, producing a GuardBeeReport (§3.4, §4.9).
package guard

import "time"

// Verdict is the verifier's three-valued final judgment.
type Verdict string

const (
	VerdictPass             Verdict = "pass"
	VerdictConditionalPass  Verdict = "conditional_pass"
	VerdictFail             Verdict = "fail"
)

// VerificationLevel distinguishes mechanically-checked rules (L1) from
// rules that weigh design intent and context (L2).
type VerificationLevel string

const (
	LevelL1 VerificationLevel = "L1"
	LevelL2 VerificationLevel = "L2"
)

// EvidenceType classifies the kind of artifact a piece of Evidence
// carries.
type EvidenceType string

const (
	EvidenceDiff             EvidenceType = "diff"
	EvidenceLintResult       EvidenceType = "lint_result"
	EvidenceTestResult       EvidenceType = "test_result"
	EvidenceTestCoverage     EvidenceType = "test_coverage"
	EvidenceTypeCheck        EvidenceType = "type_check"
	EvidenceSecurityScan     EvidenceType = "security_scan"
	EvidencePlanDecomposition EvidenceType = "plan_decomposition"
	EvidenceCustom           EvidenceType = "custom"
)

// Evidence is a single piece of concrete proof a rule can examine.
// Content shapes are conventional per EvidenceType rather than
// strictly typed, since a rule may accept evidence from any tool that
// emits that type.
type Evidence struct {
	EvidenceType EvidenceType
	Source       string
	Content      map[string]any
	CollectedAt  time.Time
}

// RuleResult is the outcome of a single rule's verification.
type RuleResult struct {
	RuleName     string
	Level        VerificationLevel
	Passed       bool
	Message      string
	EvidenceType EvidenceType
	Details      map[string]any
}

// GuardBeeReport is the verifier's final output: the verdict, every
// rule result, and (on a non-pass verdict) the remand reason and
// improvement instructions a worker should act on.
type GuardBeeReport struct {
	ColonyID                string
	TaskID                  string
	RunID                   string
	Verdict                 Verdict
	RuleResults             []RuleResult
	EvidenceCount           int
	L1Passed                bool
	L2Passed                bool
	RemandReason            string
	ImprovementInstructions []string
	VerifiedAt              time.Time
}

// ToEventPayload converts the report to the payload shape recorded on
// the verdict AR event.
func (r GuardBeeReport) ToEventPayload() map[string]any {
	rulesPassed := 0
	for _, res := range r.RuleResults {
		if res.Passed {
			rulesPassed++
		}
	}
	var remand any
	if r.RemandReason != "" {
		remand = r.RemandReason
	}
	return map[string]any{
		"colony_id":                r.ColonyID,
		"task_id":                  r.TaskID,
		"run_id":                   r.RunID,
		"verdict":                  string(r.Verdict),
		"l1_passed":                r.L1Passed,
		"l2_passed":                r.L2Passed,
		"evidence_count":           r.EvidenceCount,
		"rules_total":              len(r.RuleResults),
		"rules_passed":             rulesPassed,
		"remand_reason":            remand,
		"improvement_instructions": r.ImprovementInstructions,
	}
}
