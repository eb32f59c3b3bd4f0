package conflict

import "github.com/hiveforge/hiveforge/pkg/events"

// ToDetectedEvent converts c into a conflict.detected event.
func ToDetectedEvent(c Conflict, actor string) *events.Event {
	return events.NewConflictDetected(actor, c.ResourceID, string(c.Type), string(c.Severity), c.ColonyIDs)
}

// ToResolvedEvent converts a resolution result into a conflict.resolved
// event. resourceID is the original conflict's resource id (Result
// itself only carries the conflict id, not the resource).
func ToResolvedEvent(r Result, resourceID, actor string) *events.Event {
	return events.NewConflictResolved(actor, resourceID, string(r.Status), string(r.Strategy))
}
