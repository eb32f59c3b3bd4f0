package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveforge/hiveforge/pkg/ar"
	"github.com/hiveforge/hiveforge/pkg/pipeline"
)

func cleanEvidence() []Evidence {
	return []Evidence{
		{EvidenceType: EvidenceDiff, Content: map[string]any{"diff": "+1 -0"}},
		{EvidenceType: EvidenceTestResult, Content: map[string]any{"passed": true, "failed_count": float64(0)}},
		{EvidenceType: EvidenceTestCoverage, Content: map[string]any{"coverage_percent": float64(85)}},
		{EvidenceType: EvidenceLintResult, Content: map[string]any{"issues": []any{}}},
		{EvidenceType: EvidenceTypeCheck, Content: map[string]any{"errors": []any{}}},
	}
}

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	store, err := ar.New(t.TempDir(), nil)
	require.NoError(t, err)
	return NewVerifier(store, CreateDefaultRegistry())
}

func TestVerifyPassesWhenAllRulesPass(t *testing.T) {
	v := newTestVerifier(t)
	report, err := v.Verify("colony-1", "task-1", "run-1", cleanEvidence(), nil)
	require.NoError(t, err)
	assert.Equal(t, VerdictPass, report.Verdict)
	assert.True(t, report.L1Passed)
	assert.True(t, report.L2Passed)
	assert.Empty(t, report.RemandReason)
}

func TestVerifyFailsOnL1Failure(t *testing.T) {
	v := newTestVerifier(t)
	evidence := cleanEvidence()
	evidence[2] = Evidence{EvidenceType: EvidenceTestCoverage, Content: map[string]any{"coverage_percent": float64(40)}}

	report, err := v.Verify("colony-1", "task-1", "run-1", evidence, nil)
	require.NoError(t, err)
	assert.Equal(t, VerdictFail, report.Verdict)
	assert.False(t, report.L1Passed)
	assert.Contains(t, report.RemandReason, "coverage_threshold")
	assert.NotEmpty(t, report.ImprovementInstructions)
}

func TestVerifySkipsL2WhenL1Fails(t *testing.T) {
	v := newTestVerifier(t)
	evidence := []Evidence{} // everything missing: all L1 rules fail immediately

	report, err := v.Verify("colony-1", "task-1", "run-1", evidence, nil)
	require.NoError(t, err)
	assert.Equal(t, VerdictFail, report.Verdict)
	for _, r := range report.RuleResults {
		assert.NotEqual(t, LevelL2, r.Level, "L2 rules must not run when L1 fails")
	}
}

func TestVerifyConditionalPassOnL2OnlyFailure(t *testing.T) {
	v := newTestVerifier(t)
	evidence := cleanEvidence()
	plan := &pipeline.TaskPlan{Tasks: []pipeline.PlannedTask{
		{ID: "T1", Goal: "short enough original goal here"},
		{ID: "T2", Goal: "x"},
	}}
	evidence = append(evidence, NewPlanEvidence(plan, "original goal"))

	report, err := v.Verify("colony-1", "task-1", "run-1", evidence, nil)
	require.NoError(t, err)
	assert.Equal(t, VerdictConditionalPass, report.Verdict)
	assert.True(t, report.L1Passed)
	assert.False(t, report.L2Passed)
	assert.Contains(t, report.RemandReason, "plan_goal_coverage")
}

func TestPlanStructureRuleDetectsCycle(t *testing.T) {
	evidence := []Evidence{{
		EvidenceType: EvidencePlanDecomposition,
		Content: map[string]any{
			"tasks": []any{
				map[string]any{"task_id": "T1", "goal": "a", "depends_on": []any{"T2"}},
				map[string]any{"task_id": "T2", "goal": "b", "depends_on": []any{"T1"}},
			},
		},
	}}
	result := planStructureRule{}.Verify(evidence, nil)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "cycle")
}

func TestPlanStructureRuleDetectsUnknownDependency(t *testing.T) {
	evidence := []Evidence{{
		EvidenceType: EvidencePlanDecomposition,
		Content: map[string]any{
			"tasks": []any{
				map[string]any{"task_id": "T1", "goal": "a", "depends_on": []any{"T99"}},
			},
		},
	}}
	result := planStructureRule{}.Verify(evidence, nil)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "unknown dependency")
}

func TestPlanGoalCoverageRuleSkipsSingleTask(t *testing.T) {
	evidence := []Evidence{{
		EvidenceType: EvidencePlanDecomposition,
		Content: map[string]any{
			"tasks": []any{map[string]any{"task_id": "T1", "goal": "the only task"}},
		},
	}}
	result := planGoalCoverageRule{}.Verify(evidence, nil)
	assert.True(t, result.Passed)
}

func TestPlanGoalCoverageRuleFlagsMajorityRepeat(t *testing.T) {
	evidence := []Evidence{{
		EvidenceType: EvidencePlanDecomposition,
		Content: map[string]any{
			"original_goal": "build the thing",
			"tasks": []any{
				map[string]any{"task_id": "T1", "goal": "build the thing part one"},
				map[string]any{"task_id": "T2", "goal": "build the thing part two"},
				map[string]any{"task_id": "T3", "goal": "write release notes"},
			},
		},
	}}
	result := planGoalCoverageRule{}.Verify(evidence, nil)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "repeat")
}

func TestToEventPayloadShape(t *testing.T) {
	report := GuardBeeReport{
		ColonyID: "c1", TaskID: "t1", RunID: "r1", Verdict: VerdictFail,
		RuleResults:   []RuleResult{{RuleName: "diff_exists", Passed: false}, {RuleName: "lint_clean", Passed: true}},
		EvidenceCount: 2, L1Passed: false, L2Passed: true, RemandReason: "L1 verification failed: diff_exists",
	}
	payload := report.ToEventPayload()
	assert.Equal(t, "fail", payload["verdict"])
	assert.Equal(t, 2, payload["rules_total"])
	assert.Equal(t, 1, payload["rules_passed"])
	assert.Equal(t, "L1 verification failed: diff_exists", payload["remand_reason"])
}
