// Package honeycomb implements the episode archive Scout Bee learns
// from: an append-only, per-colony JSONL store of execution Episodes,
// a Recorder that derives an Episode from a completed run's AR
// stream, and a Calculator computing the five KPIs over an episode
// set (§3.5, §4.14).
package honeycomb

import "time"

// Outcome is the recorded result of an episode.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomePartial Outcome = "partial"
)

// FailureClass buckets a failed episode by its likely root cause,
// inferred by substring-matching the triggering failure's reason.
type FailureClass string

const (
	FailureSpecificationError FailureClass = "specification_error"
	FailureDesignError        FailureClass = "design_error"
	FailureImplementationError FailureClass = "implementation_error"
	FailureIntegrationError   FailureClass = "integration_error"
	FailureEnvironmentError   FailureClass = "environment_error"
	FailureTimeout            FailureClass = "timeout"
)

// KPIScores holds the five HiveForge KPIs. A nil pointer distinguishes
// "not computed" from a legitimate zero value; all fields are pointers
// for that reason, mirroring the frozen Pydantic model's Optional
// fields in the Python original.
type KPIScores struct {
	Correctness      *float64 `json:"correctness,omitempty"`
	Repeatability    *float64 `json:"repeatability,omitempty"`
	LeadTimeSeconds  *float64 `json:"lead_time_seconds,omitempty"`
	IncidentRate     *float64 `json:"incident_rate,omitempty"`
	RecurrenceRate   *float64 `json:"recurrence_rate,omitempty"`
}

// Episode is one recorded execution: a Run/Colony's outcome, timing,
// token cost, and KPI contribution, used by Scout Bee for template
// recommendation and by the KPI calculator for aggregate reporting.
type Episode struct {
	EpisodeID        string             `json:"episode_id"`
	RunID            string             `json:"run_id"`
	ColonyID         string             `json:"colony_id"`
	TemplateUsed     string             `json:"template_used"`
	TaskFeatures     map[string]float64 `json:"task_features"`
	Outcome          Outcome            `json:"outcome"`
	DurationSeconds  float64            `json:"duration_seconds"`
	TokenCount       int                `json:"token_count"`
	FailureClass     FailureClass       `json:"failure_class,omitempty"`
	KPIScores        KPIScores          `json:"kpi_scores"`
	ParentEpisodeIDs []string           `json:"parent_episode_ids"`
	Goal             string             `json:"goal"`
	Metadata         map[string]any     `json:"metadata"`
	RecordedAt       time.Time          `json:"recorded_at"`
}
