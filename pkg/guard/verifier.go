package guard

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hiveforge/hiveforge/pkg/ar"
	"github.com/hiveforge/hiveforge/pkg/events"
)

// Verifier runs the L1/L2 rule registry against supplied evidence and
// records the verification request and verdict to the Akashic Record.
type Verifier struct {
	store    *ar.Store
	registry *Registry
}

// NewVerifier returns a Verifier backed by store. A nil registry uses
// CreateDefaultRegistry.
func NewVerifier(store *ar.Store, registry *Registry) *Verifier {
	if registry == nil {
		registry = CreateDefaultRegistry()
	}
	return &Verifier{store: store, registry: registry}
}

// Verify runs the full two-tier verification (§4.9):
//  1. Append guard.verification_requested.
//  2. Run every L1 rule in registration order.
//  3. If all L1 rules passed, run every L2 rule; otherwise skip L2.
//  4. Determine the verdict.
//  5. Append the verdict event.
func (v *Verifier) Verify(colonyID, taskID, runID string, evidence []Evidence, context map[string]any) (GuardBeeReport, error) {
	if context == nil {
		context = map[string]any{}
	}
	actor := fmt.Sprintf("guard-%s", colonyID)

	if _, err := v.store.Append(runID, events.NewGuardVerificationRequested(runID, colonyID, taskID, actor)); err != nil {
		return GuardBeeReport{}, fmt.Errorf("guard: append verification_requested: %w", err)
	}

	l1Rules := v.registry.RulesAt(LevelL1)
	l1Results := make([]RuleResult, 0, len(l1Rules))
	l1Passed := true
	for _, rule := range l1Rules {
		res := rule.Verify(evidence, context)
		l1Results = append(l1Results, res)
		if !res.Passed {
			l1Passed = false
		}
	}

	var l2Results []RuleResult
	l2Passed := true
	if l1Passed {
		for _, rule := range v.registry.RulesAt(LevelL2) {
			res := rule.Verify(evidence, context)
			l2Results = append(l2Results, res)
			if !res.Passed {
				l2Passed = false
			}
		}
	}

	allResults := append(append([]RuleResult{}, l1Results...), l2Results...)
	verdict, remandReason, improvements := determineVerdict(l1Passed, l2Passed, allResults)

	report := GuardBeeReport{
		ColonyID:                colonyID,
		TaskID:                  taskID,
		RunID:                   runID,
		Verdict:                 verdict,
		RuleResults:             allResults,
		EvidenceCount:           len(evidence),
		L1Passed:                l1Passed,
		L2Passed:                l2Passed,
		RemandReason:            remandReason,
		ImprovementInstructions: improvements,
		VerifiedAt:              time.Now().UTC(),
	}

	eventType := verdictEventType(verdict)
	if _, err := v.store.Append(runID, events.NewGuardVerdict(eventType, runID, colonyID, taskID, actor, report.ToEventPayload())); err != nil {
		return GuardBeeReport{}, fmt.Errorf("guard: append verdict: %w", err)
	}

	slog.Info("guard bee verification complete",
		"verdict", verdict, "colony_id", colonyID, "task_id", taskID,
		"l1_passed", l1Passed, "l2_passed", l2Passed)

	return report, nil
}

// determineVerdict applies §4.9 step 4: any L1 failure fails the whole
// verification; an L2-only failure is conditional; a clean sweep passes.
func determineVerdict(l1Passed, l2Passed bool, results []RuleResult) (Verdict, string, []string) {
	var failed []RuleResult
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	if len(failed) == 0 {
		return VerdictPass, "", nil
	}

	var l1Failed []RuleResult
	for _, r := range failed {
		if r.Level == LevelL1 {
			l1Failed = append(l1Failed, r)
		}
	}
	if len(l1Failed) > 0 {
		names := make([]string, len(l1Failed))
		reasons := make([]string, len(l1Failed))
		for i, r := range l1Failed {
			names[i] = r.RuleName
			reasons[i] = fmt.Sprintf("%s: %s", r.RuleName, r.Message)
		}
		remand := fmt.Sprintf("L1 verification failed: %s", strings.Join(names, ", "))
		return VerdictFail, remand, reasons
	}

	var l2Failed []RuleResult
	for _, r := range failed {
		if r.Level == LevelL2 {
			l2Failed = append(l2Failed, r)
		}
	}
	names := make([]string, len(l2Failed))
	reasons := make([]string, len(l2Failed))
	for i, r := range l2Failed {
		names[i] = r.RuleName
		reasons[i] = fmt.Sprintf("%s: %s", r.RuleName, r.Message)
	}
	remand := fmt.Sprintf("L2 verification raised minor issues: %s", strings.Join(names, ", "))
	return VerdictConditionalPass, remand, reasons
}

func verdictEventType(v Verdict) events.EventType {
	switch v {
	case VerdictPass:
		return events.EventGuardPassed
	case VerdictConditionalPass:
		return events.EventGuardConditionalPassed
	default:
		return events.EventGuardFailed
	}
}
