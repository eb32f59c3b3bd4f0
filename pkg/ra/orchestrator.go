package ra

import (
	"context"
	"fmt"

	"github.com/hiveforge/hiveforge/pkg/ar"
	"github.com/hiveforge/hiveforge/pkg/events"
	"github.com/hiveforge/hiveforge/pkg/llm"
	"github.com/hiveforge/hiveforge/pkg/statemachine"
)

// RA states (§4.5). Terminal: the last three.
const (
	StateIntake                   statemachine.State = "INTAKE"
	StateTriage                   statemachine.State = "TRIAGE"
	StateContextEnrich             statemachine.State = "CONTEXT_ENRICH"
	StateWebResearch               statemachine.State = "WEB_RESEARCH"
	StateHypothesisBuild           statemachine.State = "HYPOTHESIS_BUILD"
	StateClarifyGen                statemachine.State = "CLARIFY_GEN"
	StateUserFeedback              statemachine.State = "USER_FEEDBACK"
	StateSpecSynthesis             statemachine.State = "SPEC_SYNTHESIS"
	StateSpecPersist                statemachine.State = "SPEC_PERSIST"
	StateUserEdit                  statemachine.State = "USER_EDIT"
	StateChallengeReview            statemachine.State = "CHALLENGE_REVIEW"
	StateRefereeCompare              statemachine.State = "REFEREE_COMPARE"
	StateGuardGate                 statemachine.State = "GUARD_GATE"
	StateExecutionReady             statemachine.State = "EXECUTION_READY"
	StateExecutionReadyWithRisks     statemachine.State = "EXECUTION_READY_WITH_RISKS"
	StateAbandoned                  statemachine.State = "ABANDONED"
)

// NewMachine builds the 16-state RA transition table (§4.5).
func NewMachine() *statemachine.Machine {
	m := statemachine.New(StateIntake)
	m.Register(statemachine.Transition{From: StateIntake, To: StateTriage, EventType: events.EventRATriageCompleted})
	m.Register(statemachine.Transition{From: StateTriage, To: StateContextEnrich, EventType: events.EventRAContextEnriched})
	m.Register(statemachine.Transition{From: StateContextEnrich, To: StateHypothesisBuild, EventType: events.EventRAHypothesisBuilt})
	m.Register(statemachine.Transition{From: StateContextEnrich, To: StateWebResearch, EventType: events.EventRAWebResearched})
	m.Register(statemachine.Transition{From: StateWebResearch, To: StateHypothesisBuild, EventType: events.EventRAHypothesisBuilt})
	m.Register(statemachine.Transition{From: StateHypothesisBuild, To: StateClarifyGen, EventType: events.EventRAClarifyGenerated})

	m.RegisterFanOut(StateClarifyGen, events.EventRASpecSynthesized, func(e *events.Event) (statemachine.State, error) {
		return StateSpecSynthesis, nil
	})
	m.Register(statemachine.Transition{From: StateClarifyGen, To: StateUserFeedback, EventType: events.EventRAUserResponded})

	m.RegisterFanOut(StateUserFeedback, events.EventRACompleted, func(e *events.Event) (statemachine.State, error) {
		outcome, _ := e.Payload["outcome"].(string)
		switch outcome {
		case "hypothesis_build":
			return StateHypothesisBuild, nil
		case "spec_synthesis":
			return StateSpecSynthesis, nil
		case "abandoned":
			return StateAbandoned, nil
		default:
			return "", fmt.Errorf("ra: unknown USER_FEEDBACK outcome %q", outcome)
		}
	})

	m.Register(statemachine.Transition{From: StateSpecSynthesis, To: StateChallengeReview, EventType: events.EventRAChallengeReviewed})
	m.Register(statemachine.Transition{From: StateChallengeReview, To: StateGuardGate, EventType: events.EventRAGateDecided})
	m.Register(statemachine.Transition{From: StateChallengeReview, To: StateSpecSynthesis, EventType: events.EventRASpecSynthesized})

	m.RegisterFanOut(StateGuardGate, events.EventRACompleted, func(e *events.Event) (statemachine.State, error) {
		outcome, _ := e.Payload["outcome"].(string)
		switch outcome {
		case "execution_ready":
			return StateExecutionReady, nil
		case "execution_ready_with_risks":
			return StateExecutionReadyWithRisks, nil
		case "abandoned":
			return StateAbandoned, nil
		default:
			return "", fmt.Errorf("ra: unknown GUARD_GATE outcome %q", outcome)
		}
	})
	m.Register(statemachine.Transition{From: StateGuardGate, To: StateClarifyGen, EventType: events.EventRAClarifyGenerated})

	return m
}

// IsTerminal reports whether s is one of the three RA terminal states.
func IsTerminal(s statemachine.State) bool {
	switch s {
	case StateExecutionReady, StateExecutionReadyWithRisks, StateAbandoned:
		return true
	}
	return false
}

// Orchestrator drives a single requirement from intake to a terminal
// state, persisting each emitted event to the run's AR stream and
// chaining prev_hash to form a per-run audit trail.
type Orchestrator struct {
	runID        string
	store        *ar.Store
	machine      *statemachine.Machine
	llmClient    llm.Client
	riskKeywords []string

	scores AmbiguityScores
	path   AnalysisPath
}

// NewOrchestrator returns an orchestrator bound to runID's AR stream.
func NewOrchestrator(runID string, store *ar.Store, client llm.Client, riskKeywords []string) *Orchestrator {
	return &Orchestrator{
		runID:     runID,
		store:     store,
		machine:   NewMachine(),
		llmClient: client,
		riskKeywords: riskKeywords,
	}
}

// State returns the orchestrator's current RA state.
func (o *Orchestrator) State() statemachine.State { return o.machine.Current() }

// Scores returns the most recently computed ambiguity scores.
func (o *Orchestrator) Scores() AmbiguityScores { return o.scores }

// Path returns the analysis path chosen at intake.
func (o *Orchestrator) Path() AnalysisPath { return o.path }

// record appends an event to the run's AR stream without driving the
// state machine — used for informational events (e.g. RA_INTAKE_RECEIVED)
// that precede the control event that actually transitions state.
func (o *Orchestrator) record(e *events.Event) (*events.Event, error) {
	stamped, err := o.store.Append(o.runID, e)
	if err != nil {
		return nil, fmt.Errorf("ra: append %s: %w", e.Type, err)
	}
	return stamped, nil
}

// emit appends e and drives the state machine on its type.
func (o *Orchestrator) emit(e *events.Event) (*events.Event, error) {
	stamped, err := o.record(e)
	if err != nil {
		return nil, err
	}
	if _, err := o.machine.Transition(stamped); err != nil {
		return stamped, fmt.Errorf("ra: transition on %s: %w", e.Type, err)
	}
	return stamped, nil
}

// Intake scores the raw text (§4.5.1), optionally overridden by
// contextSufficiency, records RA_INTAKE_RECEIVED then RA_TRIAGE_COMPLETED,
// and transitions INTAKE -> TRIAGE.
func (o *Orchestrator) Intake(ctx context.Context, text string, contextSufficiency *float64) error {
	scores := ScoreText(text, o.riskKeywords)
	if contextSufficiency != nil {
		scores = WithContextSufficiency(scores, *contextSufficiency)
	}
	o.scores = scores
	o.path = ClassifyPath(scores)

	intake := events.New(events.EventRAIntakeReceived, "ra-orchestrator", events.Payload{
		"run_id": o.runID,
		"text":   text,
		"analysis_path": string(o.path),
	})
	intake.RunID = o.runID
	if _, err := o.record(intake); err != nil {
		return err
	}

	triage := events.New(events.EventRATriageCompleted, "ra-orchestrator", events.Payload{"run_id": o.runID})
	triage.RunID = o.runID
	_, err := o.emit(triage)
	return err
}
