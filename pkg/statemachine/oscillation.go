package statemachine

import "fmt"

// GovernanceError is raised when a bounded-history monitor detects a
// governance violation — currently, state oscillation.
type GovernanceError struct {
	Kind    string
	Detail  string
}

func (e *GovernanceError) Error() string {
	return fmt.Sprintf("governance violation (%s): %s", e.Kind, e.Detail)
}

// OscillationDetector watches a bounded window of recent states for a
// two-state ping-pong pattern (A, B, A, B, ...) and raises GovernanceError
// once the pattern has repeated maxOscillations times. It holds at most
// 2*maxOscillations entries; older history is dropped.
type OscillationDetector struct {
	maxOscillations int
	history         []State
}

// NewOscillationDetector returns a detector that trips after
// maxOscillations full A/B round-trips.
func NewOscillationDetector(maxOscillations int) *OscillationDetector {
	return &OscillationDetector{maxOscillations: maxOscillations}
}

// Record appends a newly-entered state and reports whether the window now
// exhibits a two-state oscillation reaching the configured bound.
func (d *OscillationDetector) Record(s State) (*GovernanceError, bool) {
	d.history = append(d.history, s)
	window := 2 * d.maxOscillations
	if len(d.history) > window {
		d.history = d.history[len(d.history)-window:]
	}
	if len(d.history) < window {
		return nil, false
	}

	distinct := map[State]struct{}{}
	for _, st := range d.history {
		distinct[st] = struct{}{}
	}
	if len(distinct) != 2 {
		return nil, false
	}

	a, b := d.history[0], d.history[1]
	if a == b {
		return nil, false
	}
	for i, st := range d.history {
		want := a
		if i%2 == 1 {
			want = b
		}
		if st != want {
			return nil, false
		}
	}

	return &GovernanceError{
		Kind:   "oscillation",
		Detail: fmt.Sprintf("states %s<->%s repeated %d times, reaching max_oscillations=%d", a, b, d.maxOscillations, d.maxOscillations),
	}, true
}

// Reset clears the recorded history, e.g. after a governance
// intervention resolves the oscillation.
func (d *OscillationDetector) Reset() {
	d.history = nil
}
