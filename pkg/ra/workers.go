package ra

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hiveforge/hiveforge/pkg/llm"
)

// Workers groups the five LLM-backed stages of the RA pipeline around a
// shared client. Each method sends a fixed system prompt plus the
// relevant context, decodes a structured JSON response, and applies the
// post-processing rules of §4.5.2.
type Workers struct {
	client llm.Client
}

// NewWorkers returns a Workers bound to client.
func NewWorkers(client llm.Client) *Workers {
	return &Workers{client: client}
}

func (w *Workers) chatJSON(ctx context.Context, systemPrompt, userContent string, out any) error {
	resp, err := w.client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userContent},
	}, nil, llm.ToolChoiceNone)
	if err != nil {
		return fmt.Errorf("ra: llm call: %w", err)
	}
	if err := json.Unmarshal([]byte(resp.Content), out); err != nil {
		return fmt.Errorf("ra: decode llm response: %w", err)
	}
	return nil
}

// MineIntent extracts an IntentGraph from the raw requirement text.
func (w *Workers) MineIntent(ctx context.Context, text string) (*IntentGraph, error) {
	var g IntentGraph
	if err := w.chatJSON(ctx, intentMinerPrompt, text, &g); err != nil {
		return nil, err
	}
	if len(g.Goals) == 0 {
		g.Goals = []string{text}
	}
	return &g, nil
}

// MapAssumptions infers assumptions from the intent graph, dropping
// low-confidence items (reported separately as unknowns), promoting
// high-confidence items to auto_approved, and capping the result at 10.
func (w *Workers) MapAssumptions(ctx context.Context, graph IntentGraph) (kept []Assumption, unknowns []string, err error) {
	var raw struct {
		Assumptions []Assumption `json:"assumptions"`
	}
	body, _ := json.Marshal(graph)
	if err := w.chatJSON(ctx, assumptionMapperPrompt, string(body), &raw); err != nil {
		return nil, nil, err
	}

	for _, a := range raw.Assumptions {
		switch {
		case a.Confidence < 0.3:
			unknowns = append(unknowns, a.Text)
		case a.Confidence >= 0.8:
			a.Status = AssumptionAutoApproved
			kept = append(kept, a)
		default:
			if a.Status == "" {
				a.Status = AssumptionPending
			}
			kept = append(kept, a)
		}
	}
	if len(kept) > 10 {
		kept = kept[:10]
	}
	return kept, unknowns, nil
}

// ChallengeRiskPhaseA generates up to five failure hypotheses against the
// intent graph.
func (w *Workers) ChallengeRiskPhaseA(ctx context.Context, graph IntentGraph) ([]FailureHypothesis, error) {
	var raw struct {
		Hypotheses []FailureHypothesis `json:"hypotheses"`
	}
	body, _ := json.Marshal(graph)
	if err := w.chatJSON(ctx, riskChallengerPhaseAPrompt, string(body), &raw); err != nil {
		return nil, err
	}
	if len(raw.Hypotheses) > 5 {
		raw.Hypotheses = raw.Hypotheses[:5]
	}
	return raw.Hypotheses, nil
}

// GenerateClarifications produces up to three questions for roundNumber
// (itself capped at 3 rounds by the caller). A zero-question result
// signals skip_to_spec.
func (w *Workers) GenerateClarifications(ctx context.Context, graph IntentGraph, roundNumber int) (round ClarificationRound, skipToSpec bool, err error) {
	var raw struct {
		Questions []ClarificationQuestion `json:"questions"`
	}
	body, _ := json.Marshal(graph)
	if err := w.chatJSON(ctx, clarificationGeneratorPrompt, string(body), &raw); err != nil {
		return ClarificationRound{}, false, err
	}
	if len(raw.Questions) > 3 {
		raw.Questions = raw.Questions[:3]
	}
	return ClarificationRound{RoundNumber: roundNumber, Questions: raw.Questions}, len(raw.Questions) == 0, nil
}

// SynthesizeSpec produces a SpecDraft from the accumulated intent graph,
// assumptions, and answered clarifications. AcceptanceCriteria entries
// may arrive as raw strings; those are normalized to
// AcceptanceCriterion{Measurable: false}.
func (w *Workers) SynthesizeSpec(ctx context.Context, graph IntentGraph, assumptions []Assumption, round ClarificationRound) (*SpecDraft, error) {
	var raw struct {
		Goal               string `json:"goal"`
		AcceptanceCriteria []json.RawMessage `json:"acceptance_criteria"`
		Constraints        []string `json:"constraints"`
		NonGoals           []string `json:"non_goals"`
		OpenItems          []string `json:"open_items"`
		RiskMitigations    []string `json:"risk_mitigations"`
	}
	body, _ := json.Marshal(struct {
		Intent      IntentGraph          `json:"intent"`
		Assumptions []Assumption         `json:"assumptions"`
		Round       ClarificationRound   `json:"round"`
	}{graph, assumptions, round})
	if err := w.chatJSON(ctx, specSynthesizerPrompt, string(body), &raw); err != nil {
		return nil, err
	}

	criteria := make([]AcceptanceCriterion, 0, len(raw.AcceptanceCriteria))
	for _, rm := range raw.AcceptanceCriteria {
		var structured AcceptanceCriterion
		if err := json.Unmarshal(rm, &structured); err == nil && structured.Text != "" {
			criteria = append(criteria, structured)
			continue
		}
		var text string
		if err := json.Unmarshal(rm, &text); err == nil {
			criteria = append(criteria, AcceptanceCriterion{Text: text})
		}
	}

	return &SpecDraft{
		Version:            1,
		Goal:               raw.Goal,
		AcceptanceCriteria:  criteria,
		Constraints:        raw.Constraints,
		NonGoals:           raw.NonGoals,
		OpenItems:          raw.OpenItems,
		RiskMitigations:    raw.RiskMitigations,
	}, nil
}

// ChallengeRiskPhaseB challenges a synthesized draft and computes a
// verdict from the unaddressed-challenge counts.
func (w *Workers) ChallengeRiskPhaseB(ctx context.Context, draft SpecDraft) (*ChallengeReport, error) {
	var raw struct {
		Challenges []Challenge `json:"challenges"`
		Summary    string      `json:"summary"`
	}
	body, _ := json.Marshal(draft)
	if err := w.chatJSON(ctx, riskChallengerPhaseBPrompt, string(body), &raw); err != nil {
		return nil, err
	}
	if len(raw.Challenges) > 5 {
		raw.Challenges = raw.Challenges[:5]
	}

	var high, medium int
	for _, c := range raw.Challenges {
		if c.Addressed {
			continue
		}
		switch c.Severity {
		case SeverityHigh:
			high++
		case SeverityMedium:
			medium++
		}
	}
	verdict := VerdictPassWithRisks
	switch {
	case high >= 1:
		verdict = VerdictBlock
	case medium >= 2:
		verdict = VerdictReviewRequired
	}

	return &ChallengeReport{DraftID: draft.DraftID, Challenges: raw.Challenges, Verdict: verdict, Summary: raw.Summary}, nil
}

const intentMinerPrompt = `You are the Intent Miner. Given a raw requirement, extract a JSON object {goals, success_criteria, constraints, non_goals, unknowns}, each a list of strings. Respond with JSON only.`

const assumptionMapperPrompt = `You are the Assumption Mapper. Given an intent graph, infer a JSON object {assumptions: [{id, text, confidence, evidence_ids, status}]}. Respond with JSON only.`

const riskChallengerPhaseAPrompt = `You are the Risk Challenger (Phase A). Given an intent graph, produce a JSON object {hypotheses: [{id, text, severity}]} describing plausible failure modes, severity one of LOW, MEDIUM, HIGH. Respond with JSON only.`

const clarificationGeneratorPrompt = `You are the Clarification Generator. Given an intent graph, produce a JSON object {questions: [{id, text, type, options, impact, related_assumption_ids}]}. If no clarification is needed, return an empty list. Respond with JSON only.`

const specSynthesizerPrompt = `You are the Spec Synthesizer. Given the intent graph, assumptions, and clarification answers, produce a JSON object {goal, acceptance_criteria, constraints, non_goals, open_items, risk_mitigations}. acceptance_criteria entries may be plain strings or objects {text, measurable, metric, threshold}. Respond with JSON only.`

const riskChallengerPhaseBPrompt = `You are the Risk Challenger (Phase B). Given a spec draft, produce a JSON object {challenges: [{id, claim, evidence, severity, required_action, counterexample, addressed}], summary}. Respond with JSON only.`
