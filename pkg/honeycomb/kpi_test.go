package honeycomb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateAllEmptyStoreReturnsZeroScores(t *testing.T) {
	s := newTestStore(t)
	calc := NewCalculator(s)

	scores, err := calc.CalculateAll("")
	require.NoError(t, err)
	assert.Nil(t, scores.Correctness)
}

func TestCalculateAllCorrectnessAndIncidentRate(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(sampleEpisode("e1", "col-1", OutcomeSuccess)))
	require.NoError(t, s.Append(sampleEpisode("e2", "col-1", OutcomeSuccess)))
	require.NoError(t, s.Append(sampleEpisode("e3", "col-1", OutcomeFailure)))
	require.NoError(t, s.Append(sampleEpisode("e4", "col-1", OutcomePartial)))

	calc := NewCalculator(s)
	scores, err := calc.CalculateAll("col-1")
	require.NoError(t, err)

	require.NotNil(t, scores.Correctness)
	assert.InDelta(t, 0.5, *scores.Correctness, 1e-9)

	require.NotNil(t, scores.IncidentRate)
	assert.InDelta(t, 0.5, *scores.IncidentRate, 1e-9)
}

func TestCalculateAllLeadTimeIgnoresZeroDurations(t *testing.T) {
	s := newTestStore(t)
	e1 := sampleEpisode("e1", "col-1", OutcomeSuccess)
	e1.DurationSeconds = 10
	e2 := sampleEpisode("e2", "col-1", OutcomeSuccess)
	e2.DurationSeconds = 20
	e3 := sampleEpisode("e3", "col-1", OutcomeSuccess)
	e3.DurationSeconds = 0
	require.NoError(t, s.Append(e1))
	require.NoError(t, s.Append(e2))
	require.NoError(t, s.Append(e3))

	calc := NewCalculator(s)
	scores, err := calc.CalculateAll("col-1")
	require.NoError(t, err)

	require.NotNil(t, scores.LeadTimeSeconds)
	assert.InDelta(t, 15, *scores.LeadTimeSeconds, 1e-9)
}

func TestCalculateAllRecurrenceRate(t *testing.T) {
	s := newTestStore(t)
	e1 := sampleEpisode("e1", "col-1", OutcomeFailure)
	e1.FailureClass = FailureTimeout
	e2 := sampleEpisode("e2", "col-1", OutcomeFailure)
	e2.FailureClass = FailureTimeout
	e3 := sampleEpisode("e3", "col-1", OutcomeFailure)
	e3.FailureClass = FailureDesignError
	require.NoError(t, s.Append(e1))
	require.NoError(t, s.Append(e2))
	require.NoError(t, s.Append(e3))

	calc := NewCalculator(s)
	scores, err := calc.CalculateAll("col-1")
	require.NoError(t, err)

	// timeout recurs once (2-1), design_error never recurs (1-1=0); 1/3.
	require.NotNil(t, scores.RecurrenceRate)
	assert.InDelta(t, 1.0/3.0, *scores.RecurrenceRate, 1e-9)
}

func TestCalculateSummaryBreaksDownOutcomesAndFailures(t *testing.T) {
	s := newTestStore(t)
	e1 := sampleEpisode("e1", "col-1", OutcomeFailure)
	e1.FailureClass = FailureTimeout
	require.NoError(t, s.Append(sampleEpisode("e0", "col-1", OutcomeSuccess)))
	require.NoError(t, s.Append(e1))

	calc := NewCalculator(s)
	summary, err := calc.CalculateSummary("col-1")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalEpisodes)
	assert.Equal(t, 1, summary.Outcomes["success"])
	assert.Equal(t, 1, summary.Outcomes["failure"])
	assert.Equal(t, 1, summary.FailureClasses["timeout"])
}
