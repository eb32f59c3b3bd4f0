// Package projections folds Akashic Record event streams into the read
// views the rest of the system consumes: RunProjection, TaskProjection,
// RequirementProjection, HiveAggregate, ColonyView, WorkerProjection, and
// ConferenceProjection. Every projection is a deterministic left-fold of
// a stream — pure, and never the source of truth (§4.3).
package projections

import "time"

// RunState enumerates the lifecycle states of a Run projection.
type RunState string

const (
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
	RunAborted   RunState = "aborted"
)

// TaskState enumerates the lifecycle states of a Task projection.
type TaskState string

const (
	TaskPending    TaskState = "pending"
	TaskInProgress TaskState = "in_progress"
	TaskBlocked    TaskState = "blocked"
	TaskCompleted  TaskState = "completed"
	TaskFailed     TaskState = "failed"
)

// RequirementState enumerates the lifecycle states of a Requirement
// projection.
type RequirementState string

const (
	RequirementPending  RequirementState = "pending"
	RequirementApproved RequirementState = "approved"
	RequirementRejected RequirementState = "rejected"
)

// HiveState enumerates the lifecycle states of a Hive aggregate.
type HiveState string

const (
	HiveActive HiveState = "active"
	HiveIdle   HiveState = "idle"
	HiveClosed HiveState = "closed"
)

// ColonyState enumerates the lifecycle states of a Colony view.
type ColonyState string

const (
	ColonyPending    ColonyState = "pending"
	ColonyInProgress ColonyState = "in_progress"
	ColonyCompleted  ColonyState = "completed"
	ColonyFailed     ColonyState = "failed"
	ColonySuspended  ColonyState = "suspended"
)

// WorkerState enumerates the lifecycle states of a Worker projection.
type WorkerState string

const (
	WorkerIdle      WorkerState = "idle"
	WorkerWorking   WorkerState = "working"
	WorkerCompleted WorkerState = "completed"
	WorkerFailed    WorkerState = "failed"
	WorkerError     WorkerState = "error"
)

// ConferenceState enumerates the lifecycle states of a Conference
// projection.
type ConferenceState string

const (
	ConferenceActive ConferenceState = "active"
	ConferenceEnded  ConferenceState = "ended"
)

// TaskProjection is the fold of a task's events.
type TaskProjection struct {
	ID           string
	Title        string
	State        TaskState
	Assignee     string
	Progress     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  time.Time
	ErrorMessage string
}

// RequirementProjection is the fold of a requirement's events.
type RequirementProjection struct {
	ID         string
	Description string
	State      RequirementState
	CreatedAt  time.Time
	DecidedAt  time.Time
	DecidedBy  string
}

// RunProjection is the fold of a run's events.
type RunProjection struct {
	ID            string
	Goal          string
	State         RunState
	Tasks         map[string]*TaskProjection
	Requirements  map[string]*RequirementProjection
	StartedAt     time.Time
	CompletedAt   time.Time
	LastHeartbeat time.Time
	EventCount    int
}

// CompletedTaskCount returns len(tasks) with State == TaskCompleted.
func (r *RunProjection) CompletedTaskCount() int {
	n := 0
	for _, t := range r.Tasks {
		if t.State == TaskCompleted {
			n++
		}
	}
	return n
}

// ColonyView is the fold of a colony's events, held within a HiveAggregate.
type ColonyView struct {
	ColonyID string
	State    ColonyState
	Goal     string
	Metadata map[string]any
}

// HiveAggregate is the fold of a hive's events.
type HiveAggregate struct {
	HiveID   string
	Name     string
	State    HiveState
	Colonies map[string]*ColonyView
}

// WorkerProjection is the fold of a worker's events.
type WorkerProjection struct {
	WorkerID       string
	State          WorkerState
	CurrentTaskID  string
	CurrentRunID   string
	Progress       int
	CompletedTasks []string
	FailedTasks    []string
}

// WorkerPoolProjection aggregates WorkerProjections for dispatch
// decisions.
type WorkerPoolProjection struct {
	Workers map[string]*WorkerProjection
}

// IdleWorkers returns the ids of all workers currently in WorkerIdle
// state, sorted for deterministic assignment tie-breaking.
func (p *WorkerPoolProjection) IdleWorkers() []string {
	var ids []string
	for id, w := range p.Workers {
		if w.State == WorkerIdle {
			ids = append(ids, id)
		}
	}
	return sortedStrings(ids)
}

// ConferenceProjection is the fold of a conference's events.
type ConferenceProjection struct {
	ConferenceID  string
	HiveID        string
	Topic         string
	Participants  []string
	State         ConferenceState
	StartedAt     time.Time
	EndedAt       time.Time
	Duration      time.Duration
	DecisionsMade []string
	Summary       string
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
