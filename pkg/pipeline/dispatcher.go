package pipeline

import (
	"fmt"
	"sort"

	"github.com/hiveforge/hiveforge/pkg/ar"
	"github.com/hiveforge/hiveforge/pkg/events"
	"github.com/hiveforge/hiveforge/pkg/projections"
)

// Dispatcher owns a live worker-pool view and assigns tasks to idle
// workers per the experience heuristic (§4.6).
type Dispatcher struct {
	store *ar.Store
	pool  *projections.WorkerPoolProjector
}

// NewDispatcher returns a dispatcher seeded from the pool's current state
// (typically rebuilt via projections.BuildWorkerPoolProjection at
// startup).
func NewDispatcher(store *ar.Store, pool *projections.WorkerPoolProjector) *Dispatcher {
	return &Dispatcher{store: store, pool: pool}
}

// Assign picks a worker for runID/taskID: the preferred worker if named
// and idle; otherwise the idle worker with the most completed tasks,
// ties broken by worker id. Returns ("", false) if no worker is idle.
func (d *Dispatcher) Assign(runID, taskID, preferred string) (string, bool) {
	view := d.pool.View()

	if preferred != "" {
		if w, ok := view.Workers[preferred]; ok && w.State == projections.WorkerIdle {
			return preferred, true
		}
	}

	var candidates []*projections.WorkerProjection
	for _, w := range view.Workers {
		if w.State == projections.WorkerIdle {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i].CompletedTasks) != len(candidates[j].CompletedTasks) {
			return len(candidates[i].CompletedTasks) > len(candidates[j].CompletedTasks)
		}
		return candidates[i].WorkerID < candidates[j].WorkerID
	})
	return candidates[0].WorkerID, true
}

// AssignAndRecord assigns a worker and, on success, appends
// WORKER_ASSIGNED and folds it into the live pool view.
func (d *Dispatcher) AssignAndRecord(runID, taskID, preferred string) (string, error) {
	workerID, ok := d.Assign(runID, taskID, preferred)
	if !ok {
		return "", fmt.Errorf("pipeline: no idle worker available for task %s", taskID)
	}
	e := events.NewWorkerAssigned(workerID, "dispatcher", taskID, runID)
	stamped, err := d.store.Append(runID, e)
	if err != nil {
		return "", fmt.Errorf("pipeline: record assignment: %w", err)
	}
	d.pool.Apply(stamped)
	return workerID, nil
}

// ReassignTask implements S6: given a failed worker, assign a different
// idle worker to the same task and record a second WORKER_ASSIGNED.
func (d *Dispatcher) ReassignTask(runID, taskID, failedWorkerID string) (string, error) {
	view := d.pool.View()
	var candidates []*projections.WorkerProjection
	for id, w := range view.Workers {
		if id == failedWorkerID {
			continue
		}
		if w.State == projections.WorkerIdle {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("pipeline: no alternate idle worker for task %s", taskID)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i].CompletedTasks) != len(candidates[j].CompletedTasks) {
			return len(candidates[i].CompletedTasks) > len(candidates[j].CompletedTasks)
		}
		return candidates[i].WorkerID < candidates[j].WorkerID
	})
	workerID := candidates[0].WorkerID

	e := events.NewWorkerAssigned(workerID, "dispatcher", taskID, runID)
	stamped, err := d.store.Append(runID, e)
	if err != nil {
		return "", fmt.Errorf("pipeline: record reassignment: %w", err)
	}
	d.pool.Apply(stamped)
	return workerID, nil
}
