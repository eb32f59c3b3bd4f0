package honeycomb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveforge/hiveforge/pkg/ar"
	"github.com/hiveforge/hiveforge/pkg/events"
)

func newTestRecorder(t *testing.T) (*Recorder, *ar.Store) {
	t.Helper()
	arStore, err := ar.New(t.TempDir(), nil)
	require.NoError(t, err)
	hcStore, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	return NewRecorder(hcStore, arStore), arStore
}

func TestRecordRunEpisodeSuccess(t *testing.T) {
	rec, arStore := newTestRecorder(t)

	runID := "run-1"
	_, err := arStore.Append(runID, events.NewRunStarted(runID, "user", "ship it"))
	require.NoError(t, err)
	_, err = arStore.Append(runID, events.NewTaskCompleted(runID, "T1", "worker"))
	require.NoError(t, err)
	_, err = arStore.Append(runID, events.NewRunCompleted(runID, "system"))
	require.NoError(t, err)

	episode, err := rec.RecordRunEpisode(runID, "col-1", RecordRunOptions{Goal: "ship it"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, episode.Outcome)
	assert.Equal(t, "balanced", episode.TemplateUsed)
	assert.Empty(t, episode.FailureClass)

	replayed, err := rec.store.ReplayColony("col-1")
	require.NoError(t, err)
	require.Len(t, replayed, 1)
	assert.Equal(t, episode.EpisodeID, replayed[0].EpisodeID)
}

func TestRecordRunEpisodeFailureClassifiesByReason(t *testing.T) {
	rec, arStore := newTestRecorder(t)

	runID := "run-2"
	_, err := arStore.Append(runID, events.NewRunStarted(runID, "user", "deploy"))
	require.NoError(t, err)
	_, err = arStore.Append(runID, events.NewTaskFailed(runID, "T1", "worker", "connection timeout to database"))
	require.NoError(t, err)
	_, err = arStore.Append(runID, events.NewRunFailed(runID, "system", "connection timeout to database"))
	require.NoError(t, err)

	episode, err := rec.RecordRunEpisode(runID, "col-2", RecordRunOptions{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailure, episode.Outcome)
	assert.Equal(t, FailureTimeout, episode.FailureClass)
}

func TestRecordRunEpisodePartialWhenMixedTaskOutcomes(t *testing.T) {
	rec, arStore := newTestRecorder(t)

	runID := "run-3"
	_, err := arStore.Append(runID, events.NewRunStarted(runID, "user", "build"))
	require.NoError(t, err)
	_, err = arStore.Append(runID, events.NewTaskCompleted(runID, "T1", "worker"))
	require.NoError(t, err)
	_, err = arStore.Append(runID, events.NewTaskFailed(runID, "T2", "worker", "design mismatch"))
	require.NoError(t, err)
	_, err = arStore.Append(runID, events.NewRunFailed(runID, "system", "design mismatch"))
	require.NoError(t, err)

	episode, err := rec.RecordRunEpisode(runID, "col-3", RecordRunOptions{})
	require.NoError(t, err)

	assert.Equal(t, OutcomePartial, episode.Outcome)
	assert.Equal(t, FailureDesignError, episode.FailureClass)
}
