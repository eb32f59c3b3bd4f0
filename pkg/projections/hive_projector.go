package projections

import "github.com/hiveforge/hiveforge/pkg/events"

// HiveProjector folds a hive's events into a HiveAggregate, including its
// nested ColonyViews.
type HiveProjector struct {
	view     *HiveAggregate
	handlers map[events.EventType]func(*events.Event)
}

// NewHiveProjector returns a projector for hiveID with an empty initial
// view.
func NewHiveProjector(hiveID string) *HiveProjector {
	p := &HiveProjector{
		view: &HiveAggregate{
			HiveID:   hiveID,
			State:    HiveActive,
			Colonies: map[string]*ColonyView{},
		},
	}
	p.handlers = map[events.EventType]func(*events.Event){
		events.EventHiveCreated:     p.onHiveCreated,
		events.EventHiveClosed:      p.onHiveClosed,
		events.EventColonyCreated:   p.onColonyCreated,
		events.EventColonyStarted:   p.onColonyStarted,
		events.EventColonySuspended: p.onColonySuspended,
		events.EventColonyCompleted: p.onColonyCompleted,
		events.EventColonyFailed:    p.onColonyFailed,
	}
	return p
}

// Apply folds a single event into the view.
func (p *HiveProjector) Apply(e *events.Event) {
	if h, ok := p.handlers[e.Type]; ok {
		h(e)
	}
}

// View returns the current projection.
func (p *HiveProjector) View() *HiveAggregate {
	return p.view
}

func (p *HiveProjector) onHiveCreated(e *events.Event) {
	if name, ok := e.Payload["name"].(string); ok {
		p.view.Name = name
	}
	p.view.State = HiveActive
}

func (p *HiveProjector) onHiveClosed(e *events.Event) {
	p.view.State = HiveClosed
}

func (p *HiveProjector) colony(id string) *ColonyView {
	c, ok := p.view.Colonies[id]
	if !ok {
		c = &ColonyView{ColonyID: id, State: ColonyPending}
		p.view.Colonies[id] = c
	}
	return c
}

func (p *HiveProjector) onColonyCreated(e *events.Event) {
	c := p.colony(e.ColonyID)
	if goal, ok := e.Payload["goal"].(string); ok {
		c.Goal = goal
	}
	c.State = ColonyPending
	if p.view.State == HiveIdle {
		p.view.State = HiveActive
	}
}

func (p *HiveProjector) onColonyStarted(e *events.Event) {
	p.colony(e.ColonyID).State = ColonyInProgress
}

func (p *HiveProjector) onColonySuspended(e *events.Event) {
	p.colony(e.ColonyID).State = ColonySuspended
}

func (p *HiveProjector) onColonyCompleted(e *events.Event) {
	p.colony(e.ColonyID).State = ColonyCompleted
	if p.view.State != HiveClosed {
		p.view.State = HiveIdle
	}
}

func (p *HiveProjector) onColonyFailed(e *events.Event) {
	p.colony(e.ColonyID).State = ColonyFailed
}

// BuildHiveProjection applies every event in order to a fresh projector.
func BuildHiveProjection(evs []*events.Event, hiveID string) *HiveAggregate {
	p := NewHiveProjector(hiveID)
	for _, e := range evs {
		p.Apply(e)
	}
	return p.View()
}
