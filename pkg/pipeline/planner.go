// Package pipeline implements the task pipeline: planning a goal into a
// DAG of tasks, dispatching them to a worker pool, retrying failures, and
// gating irreversible actions behind approval.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hiveforge/hiveforge/pkg/llm"
)

const maxPlanTasks = 10

// PlannedTask is a single node of a TaskPlan.
type PlannedTask struct {
	ID        string   `json:"id"`
	Goal      string   `json:"goal"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// TaskPlan is an acyclic set of tasks with a recorded reasoning trace.
type TaskPlan struct {
	Tasks     []PlannedTask
	Reasoning string
}

// PlanError reports why the planner rejected a candidate plan.
type PlanError struct {
	Reason string
}

func (e *PlanError) Error() string { return "pipeline: invalid plan: " + e.Reason }

// TaskPlanner calls an LLM to decompose a goal into a TaskPlan.
type TaskPlanner struct {
	client llm.Client
}

// NewTaskPlanner returns a planner backed by client.
func NewTaskPlanner(client llm.Client) *TaskPlanner {
	return &TaskPlanner{client: client}
}

const plannerSystemPrompt = `You are the Task Planner. Given a goal, respond with a JSON object {"tasks": [{"id", "goal", "depends_on"}], "reasoning"}. Keep the plan acyclic. Respond with JSON only.`

// Plan decomposes goal into a validated TaskPlan.
func (p *TaskPlanner) Plan(ctx context.Context, goal string) (*TaskPlan, error) {
	resp, err := p.client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: plannerSystemPrompt},
		{Role: llm.RoleUser, Content: goal},
	}, nil, llm.ToolChoiceNone)
	if err != nil {
		return nil, fmt.Errorf("pipeline: planner llm call: %w", err)
	}

	var raw struct {
		Tasks     []PlannedTask `json:"tasks"`
		Reasoning string        `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(resp.Content), &raw); err != nil {
		return nil, fmt.Errorf("pipeline: decode plan: %w", err)
	}

	return ValidatePlan(raw.Tasks, raw.Reasoning, goal)
}

// ValidatePlan applies the planner's invariants to a candidate task list:
// cap at 10 (truncating beyond), id generation for anonymous tasks,
// rejection of unknown dependency references, cycle rejection, duplicate
// goal rejection, and fallback to a single task on an empty plan.
func ValidatePlan(tasks []PlannedTask, reasoning, fallbackGoal string) (*TaskPlan, error) {
	if len(tasks) == 0 {
		return &TaskPlan{Tasks: []PlannedTask{{ID: "T1", Goal: fallbackGoal}}, Reasoning: reasoning}, nil
	}
	if len(tasks) > maxPlanTasks {
		tasks = tasks[:maxPlanTasks]
	}

	ids := make(map[string]struct{}, len(tasks))
	goals := make(map[string]struct{}, len(tasks))
	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].ID = fmt.Sprintf("T%d", i+1)
		}
		if _, dup := ids[tasks[i].ID]; dup {
			return nil, &PlanError{Reason: fmt.Sprintf("duplicate task id %q", tasks[i].ID)}
		}
		ids[tasks[i].ID] = struct{}{}

		if _, dup := goals[tasks[i].Goal]; dup {
			return nil, &PlanError{Reason: fmt.Sprintf("duplicate goal %q", tasks[i].Goal)}
		}
		goals[tasks[i].Goal] = struct{}{}
	}

	for _, t := range tasks {
		for _, dep := range t.DependsOn {
			if _, ok := ids[dep]; !ok {
				return nil, &PlanError{Reason: fmt.Sprintf("task %q depends on unknown id %q", t.ID, dep)}
			}
		}
	}

	plan := &TaskPlan{Tasks: tasks, Reasoning: reasoning}
	if _, err := plan.ExecutionOrder(); err != nil {
		return nil, err
	}
	return plan, nil
}

// ExecutionOrder computes topological layers via Kahn's algorithm: each
// layer is independently dispatchable, and the concatenation of layers is
// a permutation of the plan's tasks. A cycle is reported as a PlanError.
func (p *TaskPlan) ExecutionOrder() ([][]string, error) {
	indegree := make(map[string]int, len(p.Tasks))
	dependents := make(map[string][]string, len(p.Tasks))
	for _, t := range p.Tasks {
		if _, ok := indegree[t.ID]; !ok {
			indegree[t.ID] = 0
		}
		for _, dep := range t.DependsOn {
			indegree[t.ID]++
			dependents[dep] = append(dependents[dep], t.ID)
		}
	}

	var layers [][]string
	remaining := len(indegree)
	for remaining > 0 {
		var layer []string
		for id, deg := range indegree {
			if deg == 0 {
				layer = append(layer, id)
			}
		}
		if len(layer) == 0 {
			return nil, &PlanError{Reason: "dependency cycle detected"}
		}
		sort.Strings(layer)
		for _, id := range layer {
			delete(indegree, id)
			remaining--
			for _, dep := range dependents[id] {
				indegree[dep]--
			}
		}
		layers = append(layers, layer)
	}
	return layers, nil
}
