package guard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hiveforge/hiveforge/pkg/pipeline"
)

// minGoalLength is the shortest a task goal may be before
// planGoalCoverageRule flags it as insufficiently specific.
const minGoalLength = 5

func missingEvidence(ruleName string, level VerificationLevel, typ EvidenceType) RuleResult {
	return RuleResult{
		RuleName:     ruleName,
		Level:        level,
		Passed:       false,
		Message:      "no evidence of the required type was supplied",
		EvidenceType: typ,
	}
}

// diffExistsRule (L1) requires a diff evidence entry with non-empty
// content — a deliverable with no diff has nothing to verify.
type diffExistsRule struct{}

func (diffExistsRule) Name() string               { return "diff_exists" }
func (diffExistsRule) Level() VerificationLevel    { return LevelL1 }
func (diffExistsRule) Verify(evidence []Evidence, _ map[string]any) RuleResult {
	ev := findEvidence(evidence, EvidenceDiff)
	if ev == nil {
		return missingEvidence("diff_exists", LevelL1, EvidenceDiff)
	}
	diff, _ := ev.Content["diff"].(string)
	filesChanged, _ := ev.Content["files_changed"].(float64)
	if diff == "" && filesChanged == 0 {
		return RuleResult{
			RuleName: "diff_exists", Level: LevelL1, Passed: false,
			Message: "diff evidence is empty", EvidenceType: EvidenceDiff,
		}
	}
	return RuleResult{
		RuleName: "diff_exists", Level: LevelL1, Passed: true,
		Message: "diff evidence present", EvidenceType: EvidenceDiff,
	}
}

// allTestsPassRule (L1) requires test_result evidence reporting zero
// failures.
type allTestsPassRule struct{}

func (allTestsPassRule) Name() string            { return "all_tests_pass" }
func (allTestsPassRule) Level() VerificationLevel { return LevelL1 }
func (allTestsPassRule) Verify(evidence []Evidence, _ map[string]any) RuleResult {
	ev := findEvidence(evidence, EvidenceTestResult)
	if ev == nil {
		return missingEvidence("all_tests_pass", LevelL1, EvidenceTestResult)
	}
	failed, _ := ev.Content["failed_count"].(float64)
	passed, _ := ev.Content["passed"].(bool)
	if failed > 0 || !passed {
		return RuleResult{
			RuleName: "all_tests_pass", Level: LevelL1, Passed: false,
			Message:      fmt.Sprintf("%d test(s) failed", int(failed)),
			EvidenceType: EvidenceTestResult,
			Details:      map[string]any{"failed_count": failed},
		}
	}
	return RuleResult{
		RuleName: "all_tests_pass", Level: LevelL1, Passed: true,
		Message: "all tests passed", EvidenceType: EvidenceTestResult,
	}
}

// coverageThresholdRule (L1) requires test_coverage evidence reporting
// at least 80% coverage.
type coverageThresholdRule struct {
	minPercent float64
}

func (r coverageThresholdRule) Name() string            { return "coverage_threshold" }
func (r coverageThresholdRule) Level() VerificationLevel { return LevelL1 }
func (r coverageThresholdRule) Verify(evidence []Evidence, _ map[string]any) RuleResult {
	ev := findEvidence(evidence, EvidenceTestCoverage)
	if ev == nil {
		return missingEvidence("coverage_threshold", LevelL1, EvidenceTestCoverage)
	}
	pct, _ := ev.Content["coverage_percent"].(float64)
	if pct < r.minPercent {
		return RuleResult{
			RuleName: "coverage_threshold", Level: LevelL1, Passed: false,
			Message:      fmt.Sprintf("coverage %.1f%% below threshold %.1f%%", pct, r.minPercent),
			EvidenceType: EvidenceTestCoverage,
			Details:      map[string]any{"coverage_percent": pct},
		}
	}
	return RuleResult{
		RuleName: "coverage_threshold", Level: LevelL1, Passed: true,
		Message: fmt.Sprintf("coverage %.1f%% meets threshold", pct), EvidenceType: EvidenceTestCoverage,
	}
}

// lintCleanRule (L1) requires lint_result evidence with no issues.
type lintCleanRule struct{}

func (lintCleanRule) Name() string            { return "lint_clean" }
func (lintCleanRule) Level() VerificationLevel { return LevelL1 }
func (lintCleanRule) Verify(evidence []Evidence, _ map[string]any) RuleResult {
	ev := findEvidence(evidence, EvidenceLintResult)
	if ev == nil {
		return missingEvidence("lint_clean", LevelL1, EvidenceLintResult)
	}
	issues, _ := ev.Content["issues"].([]any)
	if len(issues) > 0 {
		return RuleResult{
			RuleName: "lint_clean", Level: LevelL1, Passed: false,
			Message:      fmt.Sprintf("%d lint issue(s)", len(issues)),
			EvidenceType: EvidenceLintResult,
			Details:      map[string]any{"issue_count": len(issues)},
		}
	}
	return RuleResult{
		RuleName: "lint_clean", Level: LevelL1, Passed: true,
		Message: "no lint issues", EvidenceType: EvidenceLintResult,
	}
}

// typeCheckRule (L1) requires type_check evidence with no errors.
type typeCheckRule struct{}

func (typeCheckRule) Name() string            { return "type_check" }
func (typeCheckRule) Level() VerificationLevel { return LevelL1 }
func (typeCheckRule) Verify(evidence []Evidence, _ map[string]any) RuleResult {
	ev := findEvidence(evidence, EvidenceTypeCheck)
	if ev == nil {
		return missingEvidence("type_check", LevelL1, EvidenceTypeCheck)
	}
	errs, _ := ev.Content["errors"].([]any)
	if len(errs) > 0 {
		return RuleResult{
			RuleName: "type_check", Level: LevelL1, Passed: false,
			Message:      fmt.Sprintf("%d type error(s)", len(errs)),
			EvidenceType: EvidenceTypeCheck,
			Details:      map[string]any{"error_count": len(errs)},
		}
	}
	return RuleResult{
		RuleName: "type_check", Level: LevelL1, Passed: true,
		Message: "no type errors", EvidenceType: EvidenceTypeCheck,
	}
}

// planTask is the subset of plan_decomposition evidence content needed
// to reconstruct a pipeline.TaskPlan for structural checks.
type planTask struct {
	TaskID    string   `json:"task_id"`
	Goal      string   `json:"goal"`
	DependsOn []string `json:"depends_on"`
}

func decodePlanTasks(raw any) []planTask {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	tasks := make([]planTask, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		t := planTask{}
		t.TaskID, _ = m["task_id"].(string)
		t.Goal, _ = m["goal"].(string)
		if deps, ok := m["depends_on"].([]any); ok {
			for _, d := range deps {
				if s, ok := d.(string); ok {
					t.DependsOn = append(t.DependsOn, s)
				}
			}
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// planStructureRule (L1) verifies a plan_decomposition evidence entry
// is structurally sound: known dependency references, no dependency
// cycle, no duplicate goals.
type planStructureRule struct{}

func (planStructureRule) Name() string            { return "plan_structure" }
func (planStructureRule) Level() VerificationLevel { return LevelL1 }
func (planStructureRule) Verify(evidence []Evidence, _ map[string]any) RuleResult {
	ev := findEvidence(evidence, EvidencePlanDecomposition)
	if ev == nil {
		return missingEvidence("plan_structure", LevelL1, EvidencePlanDecomposition)
	}

	tasks := decodePlanTasks(ev.Content["tasks"])
	taskCount := len(tasks)

	known := make(map[string]struct{}, taskCount)
	for _, t := range tasks {
		known[t.TaskID] = struct{}{}
	}

	var invalidDeps []string
	for _, t := range tasks {
		for _, dep := range t.DependsOn {
			if _, ok := known[dep]; !ok {
				invalidDeps = append(invalidDeps, fmt.Sprintf("%s→%s", t.TaskID, dep))
			}
		}
	}
	if len(invalidDeps) > 0 {
		return RuleResult{
			RuleName: "plan_structure", Level: LevelL1, Passed: false,
			Message:      fmt.Sprintf("unknown dependency references: %s", strings.Join(invalidDeps, ", ")),
			EvidenceType: EvidencePlanDecomposition,
			Details:      map[string]any{"task_count": taskCount, "invalid_deps": invalidDeps},
		}
	}

	plan := &pipeline.TaskPlan{Tasks: make([]pipeline.PlannedTask, len(tasks))}
	for i, t := range tasks {
		plan.Tasks[i] = pipeline.PlannedTask{ID: t.TaskID, Goal: t.Goal, DependsOn: t.DependsOn}
	}
	if _, err := plan.ExecutionOrder(); err != nil {
		return RuleResult{
			RuleName: "plan_structure", Level: LevelL1, Passed: false,
			Message: "dependency cycle detected", EvidenceType: EvidencePlanDecomposition,
			Details: map[string]any{"task_count": taskCount},
		}
	}

	goalCounts := make(map[string]int, taskCount)
	for _, t := range tasks {
		goalCounts[t.Goal]++
	}
	var duplicated []string
	for goal, count := range goalCounts {
		if count > 1 {
			duplicated = append(duplicated, goal)
		}
	}
	if len(duplicated) > 0 {
		sort.Strings(duplicated)
		return RuleResult{
			RuleName: "plan_structure", Level: LevelL1, Passed: false,
			Message:      fmt.Sprintf("duplicate goals: %s", strings.Join(duplicated, ", ")),
			EvidenceType: EvidencePlanDecomposition,
			Details:      map[string]any{"task_count": taskCount, "duplicated_goals": duplicated},
		}
	}

	return RuleResult{
		RuleName: "plan_structure", Level: LevelL1, Passed: true,
		Message:      fmt.Sprintf("structure OK: %d task(s)", taskCount),
		EvidenceType: EvidencePlanDecomposition,
		Details:      map[string]any{"task_count": taskCount},
	}
}

// planGoalCoverageRule (L2) verifies task goals are not a majority
// repeat of the original goal and are at least minGoalLength
// characters long. A single-task plan is assumed already adequate
// (decomposition was judged unnecessary) and always passes.
type planGoalCoverageRule struct{}

func (planGoalCoverageRule) Name() string            { return "plan_goal_coverage" }
func (planGoalCoverageRule) Level() VerificationLevel { return LevelL2 }
func (planGoalCoverageRule) Verify(evidence []Evidence, _ map[string]any) RuleResult {
	ev := findEvidence(evidence, EvidencePlanDecomposition)
	if ev == nil {
		return missingEvidence("plan_goal_coverage", LevelL2, EvidencePlanDecomposition)
	}

	tasks := decodePlanTasks(ev.Content["tasks"])
	originalGoal, _ := ev.Content["original_goal"].(string)
	taskCount := len(tasks)

	if taskCount <= 1 {
		return RuleResult{
			RuleName: "plan_goal_coverage", Level: LevelL2, Passed: true,
			Message:      "single task (decomposition not required)",
			EvidenceType: EvidencePlanDecomposition,
			Details:      map[string]any{"original_goal": originalGoal},
		}
	}

	repeatCount := 0
	var shortGoals []string
	for _, t := range tasks {
		if originalGoal != "" && strings.Contains(t.Goal, originalGoal) {
			repeatCount++
		}
		if len(t.Goal) < minGoalLength {
			shortGoals = append(shortGoals, t.Goal)
		}
	}

	if repeatCount > taskCount/2 {
		return RuleResult{
			RuleName: "plan_goal_coverage", Level: LevelL2, Passed: false,
			Message:      fmt.Sprintf("majority of tasks repeat the original goal (%d/%d)", repeatCount, taskCount),
			EvidenceType: EvidencePlanDecomposition,
			Details:      map[string]any{"original_goal": originalGoal, "repeat_count": repeatCount},
		}
	}
	if len(shortGoals) > 0 {
		return RuleResult{
			RuleName: "plan_goal_coverage", Level: LevelL2, Passed: false,
			Message:      fmt.Sprintf("goals lack specificity: %s", strings.Join(shortGoals, ", ")),
			EvidenceType: EvidencePlanDecomposition,
			Details:      map[string]any{"original_goal": originalGoal, "short_goals": shortGoals},
		}
	}

	return RuleResult{
		RuleName: "plan_goal_coverage", Level: LevelL2, Passed: true,
		Message:      fmt.Sprintf("goal quality OK: %d task(s)", taskCount),
		EvidenceType: EvidencePlanDecomposition,
		Details:      map[string]any{"original_goal": originalGoal},
	}
}
