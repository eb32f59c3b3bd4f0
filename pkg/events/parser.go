package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// maxUnknownPayloadBytes bounds how much of an unrecognized event's raw
// payload is preserved verbatim. Oversized payloads are replaced by a
// truncation sentinel so a single malformed line cannot blow out memory
// during replay.
const maxUnknownPayloadBytes = 1 << 20 // 1 MiB

// wireEvent mirrors the on-disk record shape (§6.2) for JSON decoding.
type wireEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	RunID     *string         `json:"run_id"`
	HiveID    *string         `json:"hive_id"`
	ColonyID  *string         `json:"colony_id"`
	TaskID    *string         `json:"task_id"`
	WorkerID  *string         `json:"worker_id"`
	Actor     string          `json:"actor"`
	Payload   json.RawMessage `json:"payload"`
	PrevHash  *string         `json:"prev_hash"`
	Parents   []string        `json:"parents"`
	Hash      string          `json:"hash"`
}

// knownEventTypes is the closed enumeration from §6.1, used to recognize a
// wire type string. Unrecognized strings fall back to EventUnknown.
var knownEventTypes = map[EventType]struct{}{
	EventHiveCreated: {}, EventHiveClosed: {},
	EventColonyCreated: {}, EventColonyStarted: {}, EventColonySuspended: {},
	EventColonyCompleted: {}, EventColonyFailed: {},
	EventRunStarted: {}, EventRunCompleted: {}, EventRunFailed: {}, EventRunAborted: {},
	EventTaskCreated: {}, EventTaskAssigned: {}, EventTaskProgressed: {},
	EventTaskCompleted: {}, EventTaskFailed: {}, EventTaskBlocked: {}, EventTaskUnblocked: {},
	EventRequirementCreated: {}, EventRequirementApproved: {}, EventRequirementRejected: {},
	EventDecisionRecorded: {}, EventProposalCreated: {}, EventProposalApplied: {}, EventProposalSuperseded: {},
	EventConferenceStarted: {}, EventConferenceEnded: {},
	EventConflictDetected: {}, EventConflictResolved: {},
	EventOperationTimeout: {}, EventOperationFailed: {},
	EventInterventionUserDirect: {}, EventInterventionQueenEscalation: {}, EventInterventionBeekeeperFeedback: {},
	EventWorkerAssigned: {}, EventWorkerStarted: {}, EventWorkerProgress: {}, EventWorkerCompleted: {}, EventWorkerFailed: {},
	EventLLMRequest: {}, EventLLMResponse: {},
	EventSentinelAlertRaised: {}, EventSentinelReport: {},
	EventGuardVerificationRequested: {}, EventGuardPassed: {}, EventGuardConditionalPassed: {}, EventGuardFailed: {},
	EventSystemHeartbeat: {}, EventSystemError: {}, EventSystemSilenceDetected: {}, EventSystemEmergencyStop: {},
	EventRAIntakeReceived: {}, EventRATriageCompleted: {}, EventRAContextEnriched: {}, EventRAWebResearched: {},
	EventRAWebSkipped: {}, EventRAHypothesisBuilt: {}, EventRAClarifyGenerated: {}, EventRAUserResponded: {},
	EventRASpecSynthesized: {}, EventRAChallengeReviewed: {}, EventRARefereeCompared: {}, EventRAGateDecided: {}, EventRACompleted: {},
	EventGitHubIssueCreated: {}, EventGitHubIssueUpdated: {}, EventGitHubIssueClosed: {},
	EventGitHubCommentAdded: {}, EventGitHubLabelApplied: {}, EventGitHubProjectSynced: {},
}

// IsKnownType reports whether typ is a member of the closed wire
// enumeration.
func IsKnownType(typ EventType) bool {
	_, ok := knownEventTypes[typ]
	return ok
}

// UnknownTypeKey is the payload key under which an EventUnknown event preserves
// the original wire type string, since Type itself is forced to
// EventUnknown.
const UnknownTypeKey = "_original_type"

// UnknownPayloadKey holds the verbatim raw payload bytes (or a truncation
// sentinel) of an unrecognized event, preserved for forward-compatible
// replay: older readers can pass logs written by newer writers through
// unmodified.
const UnknownPayloadKey = "_raw_payload"

// Parse decodes a single wire-format line (the raw bytes of one JSON
// object) into an Event. An unrecognized `type` produces an Event with
// Type EventUnknown whose payload preserves the original type string and
// raw payload bytes, bounded at maxUnknownPayloadBytes.
func Parse(line []byte) (*Event, error) {
	var w wireEvent
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, fmt.Errorf("parse event: %w", err)
	}

	typ := EventType(w.Type)
	e := &Event{
		ID:        w.ID,
		Timestamp: w.Timestamp,
		Actor:     w.Actor,
		RunID:     derefString(w.RunID),
		HiveID:    derefString(w.HiveID),
		ColonyID:  derefString(w.ColonyID),
		TaskID:    derefString(w.TaskID),
		WorkerID:  derefString(w.WorkerID),
		PrevHash:  derefString(w.PrevHash),
		Parents:   w.Parents,
		Hash:      w.Hash,
	}

	if !IsKnownType(typ) {
		e.Type = EventUnknown
		raw := w.Payload
		truncated := false
		if len(raw) > maxUnknownPayloadBytes {
			raw = raw[:maxUnknownPayloadBytes]
			truncated = true
		}
		e.Payload = Payload{
			UnknownTypeKey:    w.Type,
			UnknownPayloadKey: string(raw),
			"_truncated":      truncated,
		}
		return e, nil
	}

	e.Type = typ
	var payload Payload
	if len(w.Payload) > 0 {
		if err := json.Unmarshal(w.Payload, &payload); err != nil {
			return nil, fmt.Errorf("parse payload for %s: %w", w.Type, err)
		}
	}
	e.Payload = payload
	return e, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Marshal renders e as a single wire-format JSON line (without a trailing
// newline). Unlike Canonicalize, this is ordinary JSON for storage and
// transmission — canonical form is only used for hashing.
func Marshal(e *Event) ([]byte, error) {
	w := wireEvent{
		ID:        e.ID,
		Type:      string(e.Type),
		Timestamp: e.Timestamp.UTC(),
		RunID:     optString(e.RunID),
		HiveID:    optString(e.HiveID),
		ColonyID:  optString(e.ColonyID),
		TaskID:    optString(e.TaskID),
		WorkerID:  optString(e.WorkerID),
		Actor:     e.Actor,
		Parents:   e.Parents,
		PrevHash:  optString(e.PrevHash),
		Hash:      e.Hash,
	}
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	w.Payload = payload
	return json.Marshal(w)
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
