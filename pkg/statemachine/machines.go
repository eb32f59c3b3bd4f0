package statemachine

import "github.com/hiveforge/hiveforge/pkg/events"

// Run states.
const (
	RunRunning   State = "RUNNING"
	RunCompleted State = "COMPLETED"
	RunFailed    State = "FAILED"
	RunAborted   State = "ABORTED"
)

// NewRunMachine returns the Run state machine (§4.4): RUNNING -> one of
// COMPLETED/FAILED/ABORTED.
func NewRunMachine() *Machine {
	m := New(RunRunning)
	m.Register(Transition{From: RunRunning, To: RunCompleted, EventType: events.EventRunCompleted})
	m.Register(Transition{From: RunRunning, To: RunFailed, EventType: events.EventRunFailed})
	m.Register(Transition{From: RunRunning, To: RunAborted, EventType: events.EventRunAborted})
	m.Register(Transition{From: RunRunning, To: RunAborted, EventType: events.EventSystemEmergencyStop})
	return m
}

// Task states.
const (
	TaskPending    State = "PENDING"
	TaskInProgress State = "IN_PROGRESS"
	TaskBlocked    State = "BLOCKED"
	TaskCompleted  State = "COMPLETED"
	TaskFailed     State = "FAILED"
)

// RetryCounter tracks a task's retry_count for the FAILED->PENDING guard.
// It must be monotonically non-decreasing and <= maxRetries (testable
// property #4).
type RetryCounter struct {
	count      int
	maxRetries int
}

// NewRetryCounter returns a counter capped at maxRetries.
func NewRetryCounter(maxRetries int) *RetryCounter {
	return &RetryCounter{maxRetries: maxRetries}
}

// Count returns the current retry count.
func (r *RetryCounter) Count() int { return r.count }

// CanRetry reports whether another retry is permitted.
func (r *RetryCounter) CanRetry() bool { return r.count < r.maxRetries }

// Increment advances the counter after a successful FAILED->PENDING
// transition.
func (r *RetryCounter) Increment() { r.count++ }

// NewTaskMachine returns the Task state machine (§4.4). The
// FAILED->PENDING edge is guarded by retry.CanRetry(); the counter is not
// incremented by the guard itself — callers must call retry.Increment()
// after a successful retry transition, per spec ("counter increments on
// successful retry transition").
func NewTaskMachine(retry *RetryCounter) *Machine {
	m := New(TaskPending)
	m.Register(Transition{From: TaskPending, To: TaskInProgress, EventType: events.EventTaskAssigned})
	m.Register(Transition{From: TaskInProgress, To: TaskBlocked, EventType: events.EventTaskBlocked})
	m.Register(Transition{From: TaskInProgress, To: TaskCompleted, EventType: events.EventTaskCompleted})
	m.Register(Transition{From: TaskInProgress, To: TaskFailed, EventType: events.EventTaskFailed})
	m.Register(Transition{From: TaskBlocked, To: TaskInProgress, EventType: events.EventTaskUnblocked})
	m.Register(Transition{
		From: TaskFailed, To: TaskPending, EventType: events.EventTaskCreated,
		Guard: func(e *events.Event) bool { return retry.CanRetry() },
	})
	return m
}

// Requirement states.
const (
	RequirementPending  State = "PENDING"
	RequirementApproved State = "APPROVED"
	RequirementRejected State = "REJECTED"
)

// NewRequirementMachine returns the Requirement state machine (§4.4).
func NewRequirementMachine() *Machine {
	m := New(RequirementPending)
	m.Register(Transition{From: RequirementPending, To: RequirementApproved, EventType: events.EventRequirementApproved})
	m.Register(Transition{From: RequirementPending, To: RequirementRejected, EventType: events.EventRequirementRejected})
	return m
}

// Hive states.
const (
	HiveActive State = "ACTIVE"
	HiveIdle   State = "IDLE"
	HiveClosed State = "CLOSED"
)

// NewHiveMachine returns the Hive state machine (§4.4): ACTIVE<->IDLE via
// colony lifecycle events, either terminating at CLOSED.
func NewHiveMachine() *Machine {
	m := New(HiveActive)
	m.Register(Transition{From: HiveActive, To: HiveIdle, EventType: events.EventColonyCompleted})
	m.Register(Transition{From: HiveIdle, To: HiveActive, EventType: events.EventColonyCreated})
	m.Register(Transition{From: HiveActive, To: HiveClosed, EventType: events.EventHiveClosed})
	m.Register(Transition{From: HiveIdle, To: HiveClosed, EventType: events.EventHiveClosed})
	return m
}

// Colony states.
const (
	ColonyPending    State = "PENDING"
	ColonyInProgress State = "IN_PROGRESS"
	ColonyCompleted  State = "COMPLETED"
	ColonyFailed     State = "FAILED"
	ColonySuspended  State = "SUSPENDED"
)

// NewColonyMachine returns the Colony state machine (§4.4).
func NewColonyMachine() *Machine {
	m := New(ColonyPending)
	m.Register(Transition{From: ColonyPending, To: ColonyInProgress, EventType: events.EventColonyStarted})
	m.Register(Transition{From: ColonyInProgress, To: ColonyCompleted, EventType: events.EventColonyCompleted})
	m.Register(Transition{From: ColonyInProgress, To: ColonyFailed, EventType: events.EventColonyFailed})
	m.Register(Transition{From: ColonyInProgress, To: ColonySuspended, EventType: events.EventColonySuspended})
	m.Register(Transition{From: ColonySuspended, To: ColonyInProgress, EventType: events.EventColonyStarted})
	m.Register(Transition{From: ColonySuspended, To: ColonyFailed, EventType: events.EventColonyFailed})
	return m
}
