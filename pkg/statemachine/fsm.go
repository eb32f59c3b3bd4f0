// Package statemachine implements the generic finite-state-machine
// framework used throughout HiveForge: a transition registry keyed by
// (from_state, event_type), optional guards, and an oscillation
// detector that surfaces ping-pong governance violations without
// blocking transitions.
package statemachine

import (
	"fmt"
	"sort"

	"github.com/hiveforge/hiveforge/pkg/events"
)

// State is a machine-specific state name.
type State string

// Guard evaluates whether a transition may proceed given the triggering
// event. A guard returning false causes transition to raise
// TransitionError.
type Guard func(e *events.Event) bool

// Transition is a single registered edge.
type Transition struct {
	From      State
	To        State
	EventType events.EventType
	Guard     Guard
}

// TransitionError is raised when transition is called with no matching
// registered edge, or with a guard that evaluates false.
type TransitionError struct {
	State       State
	EventType   events.EventType
	ValidEvents []events.EventType
	GuardFailed bool
}

func (e *TransitionError) Error() string {
	if e.GuardFailed {
		return fmt.Sprintf("transition guard rejected %s from state %s", e.EventType, e.State)
	}
	return fmt.Sprintf("no transition for %s from state %s; valid events: %v", e.EventType, e.State, e.ValidEvents)
}

// Machine is a generic FSM: current state plus a registry of
// (from, eventType) -> Transition.
type Machine struct {
	current    State
	registry   map[State]map[events.EventType]Transition
	// fanOut holds GUARD_GATE-style payload-routed transitions: a single
	// (from, eventType) key may route to different target states based on
	// a payload field, inspected by a router function rather than a fixed
	// To state.
	fanOut map[State]map[events.EventType]func(e *events.Event) (State, error)
}

// New returns a machine starting in initial with an empty registry.
func New(initial State) *Machine {
	return &Machine{
		current:  initial,
		registry: map[State]map[events.EventType]Transition{},
		fanOut:   map[State]map[events.EventType]func(e *events.Event) (State, error){},
	}
}

// Register adds a fixed from->to edge.
func (m *Machine) Register(t Transition) {
	if m.registry[t.From] == nil {
		m.registry[t.From] = map[events.EventType]Transition{}
	}
	m.registry[t.From][t.EventType] = t
}

// RegisterFanOut adds a payload-routed edge: canTransition(eventType)
// returns true for this (from, eventType) pair, but the destination state
// is computed by router at transition time (e.g. GUARD_GATE's
// RA_COMPLETED edge, routed by payload.outcome).
func (m *Machine) RegisterFanOut(from State, eventType events.EventType, router func(e *events.Event) (State, error)) {
	if m.fanOut[from] == nil {
		m.fanOut[from] = map[events.EventType]func(e *events.Event) (State, error){}
	}
	m.fanOut[from][eventType] = router
}

// Current returns the current state.
func (m *Machine) Current() State {
	return m.current
}

// CanTransition reports whether eventType has a registered edge (fixed or
// fan-out) from the current state.
func (m *Machine) CanTransition(eventType events.EventType) bool {
	if _, ok := m.registry[m.current][eventType]; ok {
		return true
	}
	_, ok := m.fanOut[m.current][eventType]
	return ok
}

// ValidEvents returns the outgoing edges of the current state.
func (m *Machine) ValidEvents() []events.EventType {
	seen := map[events.EventType]struct{}{}
	for et := range m.registry[m.current] {
		seen[et] = struct{}{}
	}
	for et := range m.fanOut[m.current] {
		seen[et] = struct{}{}
	}
	out := make([]events.EventType, 0, len(seen))
	for et := range seen {
		out = append(out, et)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Transition looks up (current, event.Type); a miss raises
// TransitionError carrying the set of valid events. If a guard is
// present, it is evaluated; false raises TransitionError. On success the
// current state is updated and returned.
func (m *Machine) Transition(e *events.Event) (State, error) {
	if router, ok := m.fanOut[m.current][e.Type]; ok {
		to, err := router(e)
		if err != nil {
			return m.current, &TransitionError{State: m.current, EventType: e.Type, GuardFailed: true}
		}
		m.current = to
		return m.current, nil
	}

	t, ok := m.registry[m.current][e.Type]
	if !ok {
		return m.current, &TransitionError{State: m.current, EventType: e.Type, ValidEvents: m.ValidEvents()}
	}
	if t.Guard != nil && !t.Guard(e) {
		return m.current, &TransitionError{State: m.current, EventType: e.Type, GuardFailed: true}
	}
	m.current = t.To
	return m.current, nil
}

// SetState forcibly sets the current state, bypassing the registry, so a
// machine's state can be reconstructed (for example in test fixtures)
// rather than driven there event by event.
func (m *Machine) SetState(s State) {
	m.current = s
}
