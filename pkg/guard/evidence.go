package guard

import "github.com/hiveforge/hiveforge/pkg/pipeline"

// NewPlanEvidence builds the plan_decomposition Evidence a caller
// passes to Verifier.Verify after a TaskPlanner produces plan, so
// plan_structure and plan_goal_coverage can examine it.
func NewPlanEvidence(plan *pipeline.TaskPlan, originalGoal string) Evidence {
	tasks := make([]any, len(plan.Tasks))
	for i, t := range plan.Tasks {
		deps := make([]any, len(t.DependsOn))
		for j, d := range t.DependsOn {
			deps[j] = d
		}
		tasks[i] = map[string]any{
			"task_id":    t.ID,
			"goal":       t.Goal,
			"depends_on": deps,
		}
	}
	return Evidence{
		EvidenceType: EvidencePlanDecomposition,
		Source:       "task_planner",
		Content: map[string]any{
			"original_goal": originalGoal,
			"task_count":    len(plan.Tasks),
			"tasks":         tasks,
			"reasoning":     plan.Reasoning,
		},
	}
}
