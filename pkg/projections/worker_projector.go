package projections

import "github.com/hiveforge/hiveforge/pkg/events"

// WorkerPoolProjector folds worker.* events across an entire run into a
// WorkerPoolProjection, used by the task pipeline's dispatcher to pick an
// idle worker.
type WorkerPoolProjector struct {
	view *WorkerPoolProjection
}

// NewWorkerPoolProjector returns a projector with an empty initial view.
func NewWorkerPoolProjector() *WorkerPoolProjector {
	return &WorkerPoolProjector{view: &WorkerPoolProjection{Workers: map[string]*WorkerProjection{}}}
}

func (p *WorkerPoolProjector) worker(id string) *WorkerProjection {
	w, ok := p.view.Workers[id]
	if !ok {
		w = &WorkerProjection{WorkerID: id, State: WorkerIdle}
		p.view.Workers[id] = w
	}
	return w
}

// Apply folds a single event into the view.
func (p *WorkerPoolProjector) Apply(e *events.Event) {
	switch e.Type {
	case events.EventWorkerAssigned:
		w := p.worker(e.WorkerID)
		w.State = WorkerWorking
		w.CurrentTaskID = e.TaskID
		w.CurrentRunID = e.RunID
		w.Progress = 0
	case events.EventWorkerProgress:
		w := p.worker(e.WorkerID)
		if prog, ok := asInt(e.Payload["progress"]); ok {
			w.Progress = prog
		}
	case events.EventWorkerCompleted:
		w := p.worker(e.WorkerID)
		w.State = WorkerIdle
		w.CompletedTasks = append(w.CompletedTasks, w.CurrentTaskID)
		w.CurrentTaskID = ""
		w.CurrentRunID = ""
		w.Progress = 0
	case events.EventWorkerFailed:
		w := p.worker(e.WorkerID)
		w.FailedTasks = append(w.FailedTasks, w.CurrentTaskID)
		w.State = WorkerIdle
		w.CurrentTaskID = ""
		w.CurrentRunID = ""
	}
}

// View returns the current projection.
func (p *WorkerPoolProjector) View() *WorkerPoolProjection {
	return p.view
}

// BuildWorkerPoolProjection applies every event in order to a fresh
// projector.
func BuildWorkerPoolProjection(evs []*events.Event) *WorkerPoolProjection {
	p := NewWorkerPoolProjector()
	for _, e := range evs {
		p.Apply(e)
	}
	return p.View()
}
