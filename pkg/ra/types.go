// Package ra implements the Requirements Agent orchestrator: a 16-state
// machine that drives a raw requirement from intake through an
// executable, guard-approved specification.
package ra

// AmbiguityScores holds the three pure-function scores driving the
// analysis-path decision (§4.5.1).
type AmbiguityScores struct {
	Ambiguity          float64 `json:"ambiguity"`
	ContextSufficiency float64 `json:"context_sufficiency"`
	ExecutionRisk      float64 `json:"execution_risk"`
}

// NeedsClarification reports whether the analysis path requires a
// clarification round.
func (s AmbiguityScores) NeedsClarification() bool {
	return s.Ambiguity >= 0.3 || s.ContextSufficiency <= 0.8
}

// CanProceedWithAssumptions reports whether assumption-based progress is
// viable without a full clarification cycle.
func (s AmbiguityScores) CanProceedWithAssumptions() bool {
	return s.Ambiguity < 0.7 && s.ExecutionRisk < 0.5
}

// AnalysisPath classifies how much analysis a requirement needs.
type AnalysisPath string

const (
	InstantPass    AnalysisPath = "instant_pass"
	AssumptionPass AnalysisPath = "assumption_pass"
	FullAnalysis   AnalysisPath = "full_analysis"
)

// ClassifyPath applies the three boundary rules (all strict <) in order.
func ClassifyPath(s AmbiguityScores) AnalysisPath {
	if s.Ambiguity < 0.3 && s.ContextSufficiency > 0.8 && s.ExecutionRisk < 0.3 {
		return InstantPass
	}
	if s.Ambiguity < 0.7 && s.ExecutionRisk < 0.5 {
		return AssumptionPass
	}
	return FullAnalysis
}

// IntentGraph is the Intent Miner's structured output.
type IntentGraph struct {
	Goals            []string `json:"goals"`
	SuccessCriteria  []string `json:"success_criteria"`
	Constraints      []string `json:"constraints"`
	NonGoals         []string `json:"non_goals"`
	Unknowns         []string `json:"unknowns"`
}

// AssumptionStatus is the lifecycle of an Assumption Mapper item.
type AssumptionStatus string

const (
	AssumptionPending      AssumptionStatus = "pending"
	AssumptionConfirmed    AssumptionStatus = "confirmed"
	AssumptionRejected     AssumptionStatus = "rejected"
	AssumptionAutoApproved AssumptionStatus = "auto_approved"
)

// Assumption is a single inferred assumption about the requirement.
type Assumption struct {
	ID          string           `json:"id"`
	Text        string           `json:"text"`
	Confidence  float64          `json:"confidence"`
	EvidenceIDs []string         `json:"evidence_ids"`
	Status      AssumptionStatus `json:"status"`
	UserResponse *string         `json:"user_response,omitempty"`
}

// Severity is a failure or challenge severity level.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// FailureHypothesis is a single Risk Challenger Phase A finding.
type FailureHypothesis struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Severity   Severity `json:"severity"`
	Mitigation *string  `json:"mitigation,omitempty"`
	Addressed  bool     `json:"addressed"`
}

// QuestionType is the UI affordance for a clarification question.
type QuestionType string

const (
	QuestionYesNo      QuestionType = "yes_no"
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionMultiChoice  QuestionType = "multi_choice"
	QuestionFreeText     QuestionType = "free_text"
)

// ClarificationQuestion is a single question posed to the user.
type ClarificationQuestion struct {
	ID                 string       `json:"id"`
	Text               string       `json:"text"`
	Type               QuestionType `json:"type"`
	Options            []string     `json:"options,omitempty"`
	Impact             string       `json:"impact,omitempty"`
	RelatedAssumptionIDs []string   `json:"related_assumption_ids,omitempty"`
	Answer             *string      `json:"answer,omitempty"`
}

// ClarificationRound is one round of up to three questions.
type ClarificationRound struct {
	RoundNumber int                     `json:"round_number"`
	Questions   []ClarificationQuestion `json:"questions"`
}

// AcceptanceCriterion is a single, ideally-measurable success condition.
type AcceptanceCriterion struct {
	Text       string   `json:"text"`
	Measurable bool     `json:"measurable"`
	Metric     *string  `json:"metric,omitempty"`
	Threshold  *float64 `json:"threshold,omitempty"`
}

// SpecDraft is the Spec Synthesizer's output and the Guard Gate's input.
type SpecDraft struct {
	DraftID            string        `json:"draft_id"`
	Version            int           `json:"version"`
	Goal               string        `json:"goal"`
	AcceptanceCriteria []AcceptanceCriterion `json:"acceptance_criteria"`
	Constraints        []string      `json:"constraints"`
	NonGoals           []string      `json:"non_goals"`
	OpenItems          []string      `json:"open_items"`
	RiskMitigations    []string      `json:"risk_mitigations"`
	DoorstopID         *string       `json:"doorstop_id,omitempty"`
	FilePath           *string       `json:"file_path,omitempty"`
}

// RequiredAction classifies what a challenge demands of the author.
type RequiredAction string

const (
	ActionClarify      RequiredAction = "clarify"
	ActionSpecRevision RequiredAction = "spec_revision"
	ActionBlock        RequiredAction = "block"
	ActionLogOnly      RequiredAction = "log_only"
)

// Challenge is a single Risk Challenger Phase B objection to a draft.
type Challenge struct {
	ID             string         `json:"id"`
	Claim          string         `json:"claim"`
	Evidence       string         `json:"evidence"`
	Severity       Severity       `json:"severity"`
	RequiredAction RequiredAction `json:"required_action"`
	Counterexample string         `json:"counterexample,omitempty"`
	Addressed      bool           `json:"addressed"`
	Resolution     *string        `json:"resolution,omitempty"`
}

// ChallengeVerdict summarizes a ChallengeReport's outcome.
type ChallengeVerdict string

const (
	VerdictPassWithRisks  ChallengeVerdict = "pass_with_risks"
	VerdictReviewRequired ChallengeVerdict = "review_required"
	VerdictBlock          ChallengeVerdict = "block"
)

// ChallengeReport aggregates up to five challenges against a draft.
type ChallengeReport struct {
	ReportID   string           `json:"report_id"`
	DraftID    string           `json:"draft_id"`
	Challenges []Challenge      `json:"challenges"`
	Verdict    ChallengeVerdict `json:"verdict"`
	Summary    string           `json:"summary"`
}

// GateCheck is a single named Guard Gate rule result.
type GateCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

// RAGateResult is the Guard Gate's overall verdict.
type RAGateResult struct {
	Passed          bool        `json:"passed"`
	Checks          []GateCheck `json:"checks"`
	RequiredActions []string    `json:"required_actions"`
}
