package projections

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveforge/hiveforge/pkg/ar"
	"github.com/hiveforge/hiveforge/pkg/events"
)

// TestHappyPathRun implements the S1 scenario (§8): append a canonical
// happy-path sequence to a fresh stream and assert the resulting
// projection.
func TestHappyPathRun(t *testing.T) {
	store, err := ar.New(t.TempDir(), nil)
	require.NoError(t, err)

	const runID = "R1"
	seq := []*events.Event{
		events.NewRunStarted(runID, "user", "E2E"),
		events.NewTaskCreated(runID, "T1", "queen", "X", ""),
		events.NewTaskAssigned(runID, "T1", "queen", "W1"),
		events.NewTaskCompleted(runID, "T1", "worker"),
		events.NewRunCompleted(runID, "user"),
	}
	for _, e := range seq {
		_, err := store.Append(runID, e)
		require.NoError(t, err)
	}

	replayed, err := store.Replay(runID, time.Time{}, time.Time{})
	require.NoError(t, err)

	view := BuildRunProjection(replayed, runID)
	assert.Equal(t, RunCompleted, view.State)
	require.Contains(t, view.Tasks, "T1")
	assert.Equal(t, TaskCompleted, view.Tasks["T1"].State)
	assert.Equal(t, 1, view.CompletedTaskCount())

	offending, err := store.VerifyChain(runID)
	require.NoError(t, err)
	assert.Empty(t, offending)
}

// TestBuildProjectionEqualsIterativeApply checks the equivalence property
// from §4.3 / testable property #3: building from a full replay equals
// applying events one at a time to a live projector.
func TestBuildProjectionEqualsIterativeApply(t *testing.T) {
	const runID = "R1"
	seq := []*events.Event{
		events.NewRunStarted(runID, "user", "g"),
		events.NewTaskCreated(runID, "T1", "queen", "X", ""),
		events.NewTaskAssigned(runID, "T1", "queen", "W1"),
		events.NewTaskFailed(runID, "T1", "worker", "boom"),
		events.NewRunFailed(runID, "user", "task failed"),
	}

	built := BuildRunProjection(seq, runID)

	iterative := NewRunProjector(runID)
	for _, e := range seq {
		iterative.Apply(e)
	}

	assert.Equal(t, built.State, iterative.View().State)
	assert.Equal(t, built.Tasks["T1"].State, iterative.View().Tasks["T1"].State)
	assert.Equal(t, built.EventCount, iterative.View().EventCount)
}
