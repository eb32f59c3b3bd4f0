package ra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveforge/hiveforge/pkg/ar"
	"github.com/hiveforge/hiveforge/pkg/events"
	"github.com/hiveforge/hiveforge/pkg/statemachine"
)

var zeroTime = time.Time{}

// TestAmbiguityBoundariesAreStrict implements testable property #6: the
// classifier's inequalities are strict, so the boundary value itself
// falls to the next tier.
func TestAmbiguityBoundariesAreStrict(t *testing.T) {
	atBoundary := AmbiguityScores{Ambiguity: 0.3, ContextSufficiency: 0.9, ExecutionRisk: 0.1}
	assert.Equal(t, AssumptionPass, ClassifyPath(atBoundary), "ambiguity=0.3 is NOT instant-pass")

	assumption := AmbiguityScores{Ambiguity: 0.69, ExecutionRisk: 0.49, ContextSufficiency: 0.2}
	assert.Equal(t, AssumptionPass, ClassifyPath(assumption))
}

func TestInstantPassRequiresAllThreeConditions(t *testing.T) {
	instant := AmbiguityScores{Ambiguity: 0.1, ContextSufficiency: 0.95, ExecutionRisk: 0.1}
	assert.Equal(t, InstantPass, ClassifyPath(instant))

	fullByRisk := AmbiguityScores{Ambiguity: 0.8, ContextSufficiency: 0.9, ExecutionRisk: 0.9}
	assert.Equal(t, FullAnalysis, ClassifyPath(fullByRisk))
}

// TestRAInstantPassScenario implements S2: intake with a high explicit
// context_sufficiency override yields INSTANT_PASS and the expected
// event order, ending in TRIAGE.
func TestRAInstantPassScenario(t *testing.T) {
	store, err := ar.New(t.TempDir(), nil)
	require.NoError(t, err)

	orch := NewOrchestrator("R-S2", store, nil, nil)
	ctxSufficiency := 0.9
	require.NoError(t, orch.Intake(nil, "pytest tests/ を実行してください", &ctxSufficiency))

	assert.Equal(t, InstantPass, orch.Path())
	assert.Equal(t, StateTriage, orch.State())

	replayed, err := store.Replay("R-S2", zeroTime, zeroTime)
	require.NoError(t, err)
	require.Len(t, replayed, 2)
	assert.Equal(t, events.EventRAIntakeReceived, replayed[0].Type)
	assert.Equal(t, events.EventRATriageCompleted, replayed[1].Type)
}

// TestRATerminalStatesHaveNoOutgoingTransitions implements testable
// property #5.
func TestRATerminalStatesHaveNoOutgoingTransitions(t *testing.T) {
	for _, terminal := range []statemachine.State{StateExecutionReady, StateExecutionReadyWithRisks, StateAbandoned} {
		m := NewMachine()
		m.SetState(terminal)
		assert.True(t, IsTerminal(terminal))
		assert.Empty(t, m.ValidEvents(), "state %s should have no outgoing transitions", terminal)
	}
}

func TestEvaluateGatePassesWithMeasurableCriteriaAndNoHighRisk(t *testing.T) {
	draft := SpecDraft{
		Goal:               "Add retry support to the task dispatcher",
		AcceptanceCriteria: []AcceptanceCriterion{{Text: "p99 latency stays under 200ms", Measurable: true}},
		Constraints:        []string{"no new third-party dependency"},
	}
	result := EvaluateGate(draft, AmbiguityScores{Ambiguity: 0.2}, nil, nil)
	assert.True(t, result.Passed)
	assert.Empty(t, result.RequiredActions)
}

func TestEvaluateGateFailsOnUnmitigatedHighRisk(t *testing.T) {
	draft := SpecDraft{
		Goal:               "Add retry support to the task dispatcher",
		AcceptanceCriteria: []AcceptanceCriterion{{Text: "p99 latency stays under 200ms", Measurable: true}},
		Constraints:        []string{"no new third-party dependency"},
	}
	hypotheses := []FailureHypothesis{{ID: "H1", Text: "retry storm", Severity: SeverityHigh}}
	result := EvaluateGate(draft, AmbiguityScores{Ambiguity: 0.1}, hypotheses, nil)
	assert.False(t, result.Passed)
	assert.Contains(t, result.RequiredActions, "unmitigated HIGH-severity risk: retry storm")
}

func TestPersisterAssignsMonotonicIDs(t *testing.T) {
	p := NewPersister(t.TempDir(), "REQ-", 4)
	first, err := p.Persist(SpecDraft{Goal: "first goal here", AcceptanceCriteria: []AcceptanceCriterion{{Text: "x", Measurable: true}}})
	require.NoError(t, err)
	assert.Equal(t, "REQ-0001", first.DraftID)

	second, err := p.Persist(SpecDraft{Goal: "second goal here", AcceptanceCriteria: []AcceptanceCriterion{{Text: "x", Measurable: true}}})
	require.NoError(t, err)
	assert.Equal(t, "REQ-0002", second.DraftID)

	items, err := p.ListItems()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"REQ-0001", "REQ-0002"}, items)
}

func TestPersisterUpdateTextResetsReviewed(t *testing.T) {
	p := NewPersister(t.TempDir(), "REQ-", 4)
	reviewed := true
	saved, err := p.Persist(SpecDraft{Goal: "goal needing review", AcceptanceCriteria: []AcceptanceCriterion{{Text: "x", Measurable: true}}})
	require.NoError(t, err)
	saved.Reviewed = &reviewed

	updated, err := p.UpdateText(saved.DraftID, "revised text")
	require.NoError(t, err)
	assert.Nil(t, updated.Reviewed)
	assert.Equal(t, "revised text", updated.Text)
}
