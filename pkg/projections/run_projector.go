package projections

import (
	"github.com/hiveforge/hiveforge/pkg/events"
)

// RunProjector owns a mutable RunProjection and applies events to it one
// at a time via a type-dispatched handler table (§4.3). Unknown event
// types are ignored.
type RunProjector struct {
	view     *RunProjection
	handlers map[events.EventType]func(*events.Event)
}

// NewRunProjector returns a projector for runID with an empty initial
// view.
func NewRunProjector(runID string) *RunProjector {
	p := &RunProjector{
		view: &RunProjection{
			ID:           runID,
			State:        RunRunning,
			Tasks:        map[string]*TaskProjection{},
			Requirements: map[string]*RequirementProjection{},
		},
	}
	p.handlers = map[events.EventType]func(*events.Event){
		events.EventRunStarted:          p.onRunStarted,
		events.EventRunCompleted:        p.onRunCompleted,
		events.EventRunFailed:           p.onRunFailed,
		events.EventRunAborted:          p.onRunAborted,
		events.EventTaskCreated:         p.onTaskCreated,
		events.EventTaskAssigned:        p.onTaskAssigned,
		events.EventTaskProgressed:      p.onTaskProgressed,
		events.EventTaskCompleted:       p.onTaskCompleted,
		events.EventTaskFailed:          p.onTaskFailed,
		events.EventTaskBlocked:         p.onTaskBlocked,
		events.EventTaskUnblocked:       p.onTaskUnblocked,
		events.EventRequirementCreated:  p.onRequirementCreated,
		events.EventRequirementApproved: p.onRequirementApproved,
		events.EventRequirementRejected: p.onRequirementRejected,
		events.EventSystemHeartbeat:     p.onHeartbeat,
	}
	return p
}

// Apply folds a single event into the view. Calling Apply twice with the
// same event is undefined per §4.3 — the AR's chain guarantees sequence
// uniqueness, so callers must not attempt to enforce idempotence here.
func (p *RunProjector) Apply(e *events.Event) {
	p.view.EventCount++
	if h, ok := p.handlers[e.Type]; ok {
		h(e)
	}
}

// View returns the current projection. Callers must not mutate it.
func (p *RunProjector) View() *RunProjection {
	return p.view
}

func (p *RunProjector) onRunStarted(e *events.Event) {
	p.view.StartedAt = e.Timestamp
	if goal, ok := e.Payload["goal"].(string); ok {
		p.view.Goal = goal
	}
	p.view.State = RunRunning
}

func (p *RunProjector) onRunCompleted(e *events.Event) {
	p.view.State = RunCompleted
	p.view.CompletedAt = e.Timestamp
}

func (p *RunProjector) onRunFailed(e *events.Event) {
	p.view.State = RunFailed
	p.view.CompletedAt = e.Timestamp
}

func (p *RunProjector) onRunAborted(e *events.Event) {
	p.view.State = RunAborted
	p.view.CompletedAt = e.Timestamp
}

func (p *RunProjector) task(id string) *TaskProjection {
	t, ok := p.view.Tasks[id]
	if !ok {
		t = &TaskProjection{ID: id, State: TaskPending}
		p.view.Tasks[id] = t
	}
	return t
}

func (p *RunProjector) onTaskCreated(e *events.Event) {
	t := p.task(e.TaskID)
	if title, ok := e.Payload["title"].(string); ok {
		t.Title = title
	}
	t.CreatedAt = e.Timestamp
	t.State = TaskPending
}

func (p *RunProjector) onTaskAssigned(e *events.Event) {
	t := p.task(e.TaskID)
	if assignee, ok := e.Payload["assignee"].(string); ok {
		t.Assignee = assignee
	}
	t.State = TaskInProgress
	t.UpdatedAt = e.Timestamp
}

func (p *RunProjector) onTaskProgressed(e *events.Event) {
	t := p.task(e.TaskID)
	if prog, ok := asInt(e.Payload["progress"]); ok {
		t.Progress = prog
	}
	t.UpdatedAt = e.Timestamp
}

func (p *RunProjector) onTaskCompleted(e *events.Event) {
	t := p.task(e.TaskID)
	t.State = TaskCompleted
	t.Progress = 100
	t.CompletedAt = e.Timestamp
	t.UpdatedAt = e.Timestamp
}

func (p *RunProjector) onTaskFailed(e *events.Event) {
	t := p.task(e.TaskID)
	t.State = TaskFailed
	if msg, ok := e.Payload["error_message"].(string); ok {
		t.ErrorMessage = msg
	}
	t.UpdatedAt = e.Timestamp
}

func (p *RunProjector) onTaskBlocked(e *events.Event) {
	t := p.task(e.TaskID)
	t.State = TaskBlocked
	t.UpdatedAt = e.Timestamp
}

func (p *RunProjector) onTaskUnblocked(e *events.Event) {
	t := p.task(e.TaskID)
	t.State = TaskInProgress
	t.UpdatedAt = e.Timestamp
}

func (p *RunProjector) requirement(id string) *RequirementProjection {
	r, ok := p.view.Requirements[id]
	if !ok {
		r = &RequirementProjection{ID: id, State: RequirementPending}
		p.view.Requirements[id] = r
	}
	return r
}

func (p *RunProjector) onRequirementCreated(e *events.Event) {
	id, _ := e.Payload["requirement_id"].(string)
	r := p.requirement(id)
	if desc, ok := e.Payload["description"].(string); ok {
		r.Description = desc
	}
	r.CreatedAt = e.Timestamp
}

func (p *RunProjector) onRequirementApproved(e *events.Event) {
	id, _ := e.Payload["requirement_id"].(string)
	r := p.requirement(id)
	r.State = RequirementApproved
	r.DecidedAt = e.Timestamp
	if by, ok := e.Payload["decided_by"].(string); ok {
		r.DecidedBy = by
	}
}

func (p *RunProjector) onRequirementRejected(e *events.Event) {
	id, _ := e.Payload["requirement_id"].(string)
	r := p.requirement(id)
	r.State = RequirementRejected
	r.DecidedAt = e.Timestamp
	if by, ok := e.Payload["decided_by"].(string); ok {
		r.DecidedBy = by
	}
}

func (p *RunProjector) onHeartbeat(e *events.Event) {
	p.view.LastHeartbeat = e.Timestamp
}

// BuildRunProjection applies every event in order to a fresh projector.
// buildProjection(events, id) == replay then fold, per §4.3 — this
// function is that equivalence made concrete.
func BuildRunProjection(evs []*events.Event, runID string) *RunProjection {
	p := NewRunProjector(runID)
	for _, e := range evs {
		p.Apply(e)
	}
	return p.View()
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
