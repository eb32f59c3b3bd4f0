package scout

import "github.com/hiveforge/hiveforge/pkg/events"

// ToEvent converts a recommended proposal into a scout.recommended AR
// event. Callers should not emit an event for VerdictColdStart or
// VerdictNoMatch results: those carry no template decision worth
// recording to the audit chain.
func (r ScoutReport) ToEvent(runID, actor string) *events.Event {
	return events.NewScoutRecommended(runID, actor, r.Proposal.Template, r.Proposal.SuccessRate, r.Proposal.AvgDuration, r.Proposal.Reason, r.Proposal.SimilarCount)
}
