package projections

import "github.com/hiveforge/hiveforge/pkg/events"

// ConferenceProjector folds conference.started / conference.ended /
// decision.recorded events into a ConferenceProjection, per the
// supplemented Beekeeper conference feature.
type ConferenceProjector struct {
	view *ConferenceProjection
}

// NewConferenceProjector returns a projector with an empty initial view.
func NewConferenceProjector(conferenceID string) *ConferenceProjector {
	return &ConferenceProjector{view: &ConferenceProjection{ConferenceID: conferenceID, State: ConferenceActive}}
}

// Apply folds a single event into the view.
func (p *ConferenceProjector) Apply(e *events.Event) {
	cid, _ := e.Payload["conference_id"].(string)
	if cid != "" && cid != p.view.ConferenceID {
		return
	}
	switch e.Type {
	case events.EventConferenceStarted:
		p.view.HiveID = e.HiveID
		p.view.StartedAt = e.Timestamp
		p.view.State = ConferenceActive
		if topic, ok := e.Payload["topic"].(string); ok {
			p.view.Topic = topic
		}
		if participants, ok := e.Payload["participants"].([]string); ok {
			p.view.Participants = participants
		} else if raw, ok := e.Payload["participants"].([]any); ok {
			for _, v := range raw {
				if s, ok := v.(string); ok {
					p.view.Participants = append(p.view.Participants, s)
				}
			}
		}
	case events.EventDecisionRecorded:
		if decision, ok := e.Payload["decision"].(string); ok {
			p.view.DecisionsMade = append(p.view.DecisionsMade, decision)
		}
	case events.EventConferenceEnded:
		p.view.State = ConferenceEnded
		p.view.EndedAt = e.Timestamp
		if !p.view.StartedAt.IsZero() {
			p.view.Duration = p.view.EndedAt.Sub(p.view.StartedAt)
		}
		if summary, ok := e.Payload["summary"].(string); ok {
			p.view.Summary = summary
		}
	}
}

// View returns the current projection.
func (p *ConferenceProjector) View() *ConferenceProjection {
	return p.view
}

// BuildConferenceProjection applies every event in order to a fresh
// projector.
func BuildConferenceProjection(evs []*events.Event, conferenceID string) *ConferenceProjection {
	p := NewConferenceProjector(conferenceID)
	for _, e := range evs {
		p.Apply(e)
	}
	return p.View()
}
