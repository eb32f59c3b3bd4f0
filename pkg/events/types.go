// Package events defines the Akashic Record's atomic unit: the immutable,
// hash-chained Event, its closed type enumeration, canonical JSON hashing,
// and the type-discriminated parser that turns a wire-format line back into
// a concrete Event.
//
// ════════════════════════════════════════════════════════════════════════
// EVENT LIFECYCLE
// ════════════════════════════════════════════════════════════════════════
//
// Every event is constructed with New, which stamps an id (time-ordered
// ULID), a timestamp, and leaves PrevHash/Hash empty. The AR store (package
// ar) fills PrevHash from the stream tail and computes Hash immediately
// before append — callers never set Hash themselves.
//
// Payload is a plain map[string]any. New stores it as given; callers that
// build payloads from untrusted values pass them through NormalizePayload
// first, which rejects NaN/Inf floats and unsupported value types.
// Canonicalization renders []byte values as lowercase hex and StringSet
// values as sorted, deduped sequences.
package events

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType is the closed, dotted-string discriminator from spec §6.1.
type EventType string

const (
	EventHiveCreated EventType = "hive.created"
	EventHiveClosed  EventType = "hive.closed"

	EventColonyCreated   EventType = "colony.created"
	EventColonyStarted   EventType = "colony.started"
	EventColonySuspended EventType = "colony.suspended"
	EventColonyCompleted EventType = "colony.completed"
	EventColonyFailed    EventType = "colony.failed"

	EventRunStarted   EventType = "run.started"
	EventRunCompleted EventType = "run.completed"
	EventRunFailed    EventType = "run.failed"
	EventRunAborted   EventType = "run.aborted"

	EventTaskCreated    EventType = "task.created"
	EventTaskAssigned   EventType = "task.assigned"
	EventTaskProgressed EventType = "task.progressed"
	EventTaskCompleted  EventType = "task.completed"
	EventTaskFailed     EventType = "task.failed"
	EventTaskBlocked    EventType = "task.blocked"
	EventTaskUnblocked  EventType = "task.unblocked"

	EventRequirementCreated  EventType = "requirement.created"
	EventRequirementApproved EventType = "requirement.approved"
	EventRequirementRejected EventType = "requirement.rejected"

	EventDecisionRecorded  EventType = "decision.recorded"
	EventProposalCreated   EventType = "proposal.created"
	EventProposalApplied   EventType = "proposal.applied"
	EventProposalSuperseded EventType = "proposal.superseded"

	EventConferenceStarted EventType = "conference.started"
	EventConferenceEnded   EventType = "conference.ended"

	EventConflictDetected EventType = "conflict.detected"
	EventConflictResolved EventType = "conflict.resolved"

	EventOperationTimeout EventType = "operation.timeout"
	EventOperationFailed  EventType = "operation.failed"

	EventInterventionUserDirect       EventType = "intervention.user_direct"
	EventInterventionQueenEscalation  EventType = "intervention.queen_escalation"
	EventInterventionBeekeeperFeedback EventType = "intervention.beekeeper_feedback"

	EventWorkerAssigned EventType = "worker.assigned"
	EventWorkerStarted  EventType = "worker.started"
	EventWorkerProgress EventType = "worker.progress"
	EventWorkerCompleted EventType = "worker.completed"
	EventWorkerFailed   EventType = "worker.failed"

	EventLLMRequest  EventType = "llm.request"
	EventLLMResponse EventType = "llm.response"

	EventSentinelAlertRaised EventType = "sentinel.alert_raised"
	EventSentinelReport      EventType = "sentinel.report"

	EventGuardVerificationRequested EventType = "guard.verification_requested"
	EventGuardPassed                EventType = "guard.passed"
	EventGuardConditionalPassed     EventType = "guard.conditional_passed"
	EventGuardFailed                EventType = "guard.failed"

	EventSystemHeartbeat       EventType = "system.heartbeat"
	EventSystemError           EventType = "system.error"
	EventSystemSilenceDetected EventType = "system.silence_detected"
	EventSystemEmergencyStop   EventType = "system.emergency_stop"

	EventRAIntakeReceived     EventType = "ra.intake_received"
	EventRATriageCompleted    EventType = "ra.triage_completed"
	EventRAContextEnriched    EventType = "ra.context_enriched"
	EventRAWebResearched      EventType = "ra.web_researched"
	EventRAWebSkipped         EventType = "ra.web_skipped"
	EventRAHypothesisBuilt    EventType = "ra.hypothesis_built"
	EventRAClarifyGenerated   EventType = "ra.clarify_generated"
	EventRAUserResponded      EventType = "ra.user_responded"
	EventRASpecSynthesized    EventType = "ra.spec_synthesized"
	EventRAChallengeReviewed  EventType = "ra.challenge_reviewed"
	EventRARefereeCompared    EventType = "ra.referee_compared"
	EventRAGateDecided        EventType = "ra.gate_decided"
	EventRACompleted          EventType = "ra.completed"

	EventGitHubIssueCreated   EventType = "github.issue_created"
	EventGitHubIssueUpdated   EventType = "github.issue_updated"
	EventGitHubIssueClosed    EventType = "github.issue_closed"
	EventGitHubCommentAdded   EventType = "github.comment_added"
	EventGitHubLabelApplied   EventType = "github.label_applied"
	EventGitHubProjectSynced  EventType = "github.project_synced"

	// EventScoutRecommended carries an OptimizationProposal computed by
	// Scout Bee over Honeycomb episode history (§4.14).
	EventScoutRecommended EventType = "scout.recommended"

	// EventUnknown is never written to the wire; it marks a type string the
	// parser did not recognize. See Parse.
	EventUnknown EventType = "unknown"
)

// Payload is an ordered mapping of string to JSON-serializable value.
// "Ordered" refers to canonicalization order (lexicographic by key), not
// iteration order of the underlying map.
type Payload map[string]any

// Event is the atomic, immutable unit of the Akashic Record.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id,omitempty"`
	HiveID    string    `json:"hive_id,omitempty"`
	ColonyID  string    `json:"colony_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	WorkerID  string    `json:"worker_id,omitempty"`
	Actor     string    `json:"actor"`
	Payload   Payload   `json:"payload"`
	PrevHash  string    `json:"prev_hash,omitempty"`
	Parents   []string  `json:"parents,omitempty"`
	Hash      string    `json:"hash,omitempty"`
}

// New constructs an event with a fresh time-ordered id and the current
// timestamp. PrevHash and Hash are left empty; the AR store fills them in
// on append.
func New(typ EventType, actor string, payload Payload) *Event {
	return &Event{
		ID:        ulid.Make().String(),
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		Payload:   payload,
	}
}

// Clone returns a deep-enough copy for safe handoff across goroutines:
// the payload map and parents slice are copied; scalar fields are copied
// by value.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Payload != nil {
		clone.Payload = make(Payload, len(e.Payload))
		for k, v := range e.Payload {
			clone.Payload[k] = v
		}
	}
	if e.Parents != nil {
		clone.Parents = append([]string(nil), e.Parents...)
	}
	return &clone
}

// StreamKey returns the stream this event belongs to: RunID if present,
// otherwise HiveID. Callers that need hive-scoped routing check HiveID
// directly; StreamKey is for AR stream addressing.
func (e *Event) StreamKey() string {
	if e.RunID != "" {
		return e.RunID
	}
	return e.HiveID
}
