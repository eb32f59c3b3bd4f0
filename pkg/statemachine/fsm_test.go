package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveforge/hiveforge/pkg/events"
)

func TestRunMachineHappyPath(t *testing.T) {
	m := NewRunMachine()
	s, err := m.Transition(events.NewRunCompleted("R1", "user"))
	require.NoError(t, err)
	assert.Equal(t, RunCompleted, s)
}

func TestRunMachineEmergencyStopAborts(t *testing.T) {
	m := NewRunMachine()
	s, err := m.Transition(events.NewSentinelAlertRaised("R1", "sentinel", "runaway", "critical", "", ""))
	// sentinel.alert_raised has no registered edge from RUNNING.
	require.Error(t, err)
	assert.Equal(t, RunRunning, s)

	s, err = m.Transition(&events.Event{Type: events.EventSystemEmergencyStop})
	require.NoError(t, err)
	assert.Equal(t, RunAborted, s)
}

func TestTransitionErrorReportsValidEvents(t *testing.T) {
	m := NewRunMachine()
	_, err := m.Transition(&events.Event{Type: events.EventTaskCreated})
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.False(t, te.GuardFailed)
	assert.ElementsMatch(t, []events.EventType{events.EventRunCompleted, events.EventRunFailed, events.EventRunAborted, events.EventSystemEmergencyStop}, te.ValidEvents)
}

// TestTaskRetryCounterMonotonicAndCapped implements testable property #4:
// retry_count never decreases and never exceeds max_retries, and a retry
// beyond the cap is rejected by the guard.
func TestTaskRetryCounterMonotonicAndCapped(t *testing.T) {
	retry := NewRetryCounter(2)
	m := NewTaskMachine(retry)

	create := &events.Event{Type: events.EventTaskCreated}
	assign := &events.Event{Type: events.EventTaskAssigned}
	fail := &events.Event{Type: events.EventTaskFailed}

	s, err := m.Transition(assign)
	require.NoError(t, err)
	assert.Equal(t, TaskInProgress, s)

	s, err = m.Transition(fail)
	require.NoError(t, err)
	assert.Equal(t, TaskFailed, s)

	// First retry: guard passes (0 < 2).
	s, err = m.Transition(create)
	require.NoError(t, err)
	assert.Equal(t, TaskPending, s)
	retry.Increment()
	assert.Equal(t, 1, retry.Count())

	s, err = m.Transition(assign)
	require.NoError(t, err)
	assert.Equal(t, TaskInProgress, s)

	s, err = m.Transition(fail)
	require.NoError(t, err)
	assert.Equal(t, TaskFailed, s)

	// Second retry: guard passes (1 < 2).
	s, err = m.Transition(create)
	require.NoError(t, err)
	assert.Equal(t, TaskPending, s)
	retry.Increment()
	assert.Equal(t, 2, retry.Count())

	s, err = m.Transition(assign)
	require.NoError(t, err)
	assert.Equal(t, TaskInProgress, s)

	s, err = m.Transition(fail)
	require.NoError(t, err)
	assert.Equal(t, TaskFailed, s)

	// Third retry: guard rejects (2 < 2 is false). State stays FAILED.
	s, err = m.Transition(create)
	require.Error(t, err)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.GuardFailed)
	assert.Equal(t, TaskFailed, s)
	assert.Equal(t, 2, retry.Count())
}

// TestColonyTerminalStatesHaveNoOutgoingTransitions implements testable
// property #5: COMPLETED and FAILED are terminal for the Colony machine —
// no registered event drives a transition out of them.
func TestColonyTerminalStatesHaveNoOutgoingTransitions(t *testing.T) {
	for _, terminal := range []State{ColonyCompleted, ColonyFailed} {
		m := NewColonyMachine()
		m.SetState(terminal)
		assert.Empty(t, m.ValidEvents(), "state %s should have no outgoing transitions", terminal)
	}
}

func TestHiveActiveIdleCycleThenClose(t *testing.T) {
	m := NewHiveMachine()
	s, err := m.Transition(&events.Event{Type: events.EventColonyCompleted})
	require.NoError(t, err)
	assert.Equal(t, HiveIdle, s)

	s, err = m.Transition(&events.Event{Type: events.EventColonyCreated})
	require.NoError(t, err)
	assert.Equal(t, HiveActive, s)

	s, err = m.Transition(&events.Event{Type: events.EventHiveClosed})
	require.NoError(t, err)
	assert.Equal(t, HiveClosed, s)

	assert.Empty(t, m.ValidEvents())
}

// TestOscillationDetectorTripsOnPingPong implements the S3 scenario: a
// task bounces BLOCKED<->IN_PROGRESS repeatedly without making progress.
func TestOscillationDetectorTripsOnPingPong(t *testing.T) {
	d := NewOscillationDetector(3)

	states := []State{TaskInProgress, TaskBlocked, TaskInProgress, TaskBlocked}
	for _, s := range states {
		gerr, tripped := d.Record(s)
		assert.False(t, tripped)
		assert.Nil(t, gerr)
	}

	gerr, tripped := d.Record(TaskInProgress)
	assert.False(t, tripped)
	assert.Nil(t, gerr)

	gerr, tripped = d.Record(TaskBlocked)
	require.True(t, tripped)
	require.NotNil(t, gerr)
	assert.Equal(t, "oscillation", gerr.Kind)
}

func TestOscillationDetectorIgnoresThreeDistinctStates(t *testing.T) {
	d := NewOscillationDetector(2)
	for _, s := range []State{TaskPending, TaskInProgress, TaskBlocked, TaskInProgress} {
		_, tripped := d.Record(s)
		assert.False(t, tripped)
	}
}

func TestOscillationDetectorResetClearsHistory(t *testing.T) {
	d := NewOscillationDetector(1)
	d.Record(TaskInProgress)
	d.Record(TaskBlocked)
	d.Reset()
	gerr, tripped := d.Record(TaskInProgress)
	assert.False(t, tripped)
	assert.Nil(t, gerr)
}
