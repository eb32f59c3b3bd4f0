// Package conflict implements resource-claim conflict detection and
// resolution for concurrent colonies: a registry of claims per resource,
// pairwise conflict inference, and pluggable resolution strategies.
package conflict

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type classifies the kind of resource collision.
type Type string

const (
	TypeFile        Type = "file_conflict"
	TypeResourceLock Type = "resource_lock"
	TypeDependency  Type = "dependency_conflict"
	TypeState       Type = "state_conflict"
	TypePriority    Type = "priority_conflict"
	TypeSemantic    Type = "semantic_conflict"
)

// Severity ranks how disruptive a conflict is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Operation is the kind of access a colony is claiming on a resource.
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpDelete Operation = "delete"
)

// ResourceClaim records one colony's intent to operate on a resource.
type ResourceClaim struct {
	ColonyID     string
	ResourceType string
	ResourceID   string
	Operation    Operation
	Timestamp    time.Time
	Metadata     map[string]any
}

// Conflict is a detected collision between two or more colonies' claims
// on the same resource.
type Conflict struct {
	ConflictID string
	Type       Type
	Severity   Severity
	ResourceID string
	ColonyIDs  []string
	Claims     []ResourceClaim
	Description string
	DetectedAt time.Time
	Resolved   bool
	Resolution string
}

// Listener is notified synchronously whenever a new conflict is
// detected. A panic or no-op failure inside a listener must never
// prevent claim registration or other listeners from running; callers
// of RegisterClaim never see a listener's error.
type Listener func(Conflict)

// Detector tracks claims per resource and raises Conflicts when two
// live claims from different colonies collide. Safe for concurrent use.
type Detector struct {
	mu        sync.Mutex
	claims    map[string][]ResourceClaim // resource_id -> claims
	conflicts map[string]*Conflict       // conflict_id -> conflict
	listeners []Listener
}

// NewDetector returns an empty Detector.
func NewDetector() *Detector {
	return &Detector{
		claims:    make(map[string][]ResourceClaim),
		conflicts: make(map[string]*Conflict),
	}
}

// AddListener registers a callback invoked for every new conflict.
func (d *Detector) AddListener(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// RegisterClaim records claim against its resource and, if it collides
// with an existing claim from a different colony, builds and returns
// the resulting Conflict (nil if no conflict arose). The claim is
// always recorded regardless of outcome.
func (d *Detector) RegisterClaim(claim ResourceClaim) *Conflict {
	d.mu.Lock()

	existing := d.claims[claim.ResourceID]
	var colliding []ResourceClaim
	for _, c := range existing {
		if c.ColonyID == claim.ColonyID {
			continue
		}
		if isConflicting(c.Operation, claim.Operation) {
			colliding = append(colliding, c)
		}
	}
	d.claims[claim.ResourceID] = append(existing, claim)

	if len(colliding) == 0 {
		d.mu.Unlock()
		return nil
	}

	conf := d.createConflict(claim, colliding)
	d.conflicts[conf.ConflictID] = conf
	listeners := append([]Listener(nil), d.listeners...)
	d.mu.Unlock()

	d.notify(*conf, listeners)
	return conf
}

// isConflicting implements the pairwise collision rule: both write, or
// one delete paired with a write, or both delete. Reads never conflict.
func isConflicting(a, b Operation) bool {
	if a == OpWrite && b == OpWrite {
		return true
	}
	if (a == OpDelete && b == OpWrite) || (a == OpWrite && b == OpDelete) {
		return true
	}
	if a == OpDelete && b == OpDelete {
		return true
	}
	return false
}

func (d *Detector) createConflict(claim ResourceClaim, colliding []ResourceClaim) *Conflict {
	all := append(append([]ResourceClaim(nil), colliding...), claim)

	colonySet := map[string]struct{}{}
	hasDelete := false
	for _, c := range all {
		colonySet[c.ColonyID] = struct{}{}
		if c.Operation == OpDelete {
			hasDelete = true
		}
	}
	colonyIDs := make([]string, 0, len(colonySet))
	for id := range colonySet {
		colonyIDs = append(colonyIDs, id)
	}
	sort.Strings(colonyIDs)

	return &Conflict{
		ConflictID:  uuid.NewString(),
		Type:        determineType(claim.ResourceType),
		Severity:    determineSeverity(hasDelete, len(colonyIDs)),
		ResourceID:  claim.ResourceID,
		ColonyIDs:   colonyIDs,
		Claims:      all,
		Description: "conflicting claims on resource " + claim.ResourceID,
		DetectedAt:  time.Now(),
	}
}

func determineType(resourceType string) Type {
	switch resourceType {
	case "file":
		return TypeFile
	case "lock":
		return TypeResourceLock
	default:
		return TypeState
	}
}

func determineSeverity(hasDelete bool, colonyCount int) Severity {
	if hasDelete {
		return SeverityCritical
	}
	if colonyCount > 2 {
		return SeverityHigh
	}
	return SeverityMedium
}

func (d *Detector) notify(c Conflict, listeners []Listener) {
	for _, l := range listeners {
		func() {
			defer func() { recover() }()
			l(c)
		}()
	}
}

// ReleaseClaim removes colonyID's claim(s) on resourceID, e.g. once the
// colony has finished its operation.
func (d *Detector) ReleaseClaim(colonyID, resourceID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	claims := d.claims[resourceID]
	out := claims[:0]
	for _, c := range claims {
		if c.ColonyID != colonyID {
			out = append(out, c)
		}
	}
	d.claims[resourceID] = out
}

// GetConflicts returns detected conflicts, optionally including already
// resolved ones.
func (d *Detector) GetConflicts(includeResolved bool) []Conflict {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Conflict
	for _, c := range d.conflicts {
		if c.Resolved && !includeResolved {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.Before(out[j].DetectedAt) })
	return out
}

// GetConflict returns the conflict with the given id, if any.
func (d *Detector) GetConflict(id string) (Conflict, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.conflicts[id]
	if !ok {
		return Conflict{}, false
	}
	return *c, true
}

// ClaimsForResource returns the live claims on resourceID.
func (d *Detector) ClaimsForResource(resourceID string) []ResourceClaim {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]ResourceClaim(nil), d.claims[resourceID]...)
}

// ClaimsByColony returns every live claim made by colonyID across all
// resources.
func (d *Detector) ClaimsByColony(colonyID string) []ResourceClaim {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []ResourceClaim
	for _, claims := range d.claims {
		for _, c := range claims {
			if c.ColonyID == colonyID {
				out = append(out, c)
			}
		}
	}
	return out
}

// MarkResolved records conflictID's resolution text and flips it
// resolved.
func (d *Detector) MarkResolved(conflictID, resolution string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.conflicts[conflictID]
	if !ok {
		return false
	}
	c.Resolved = true
	c.Resolution = resolution
	return true
}

// Stats summarizes the detector's current state for observability.
type Stats struct {
	TotalResources     int
	TotalClaims        int
	TotalConflicts     int
	UnresolvedConflicts int
	CriticalConflicts  int
}

// Stats computes a snapshot of the detector's counters.
func (d *Detector) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	var s Stats
	s.TotalResources = len(d.claims)
	for _, claims := range d.claims {
		s.TotalClaims += len(claims)
	}
	s.TotalConflicts = len(d.conflicts)
	for _, c := range d.conflicts {
		if !c.Resolved {
			s.UnresolvedConflicts++
		}
		if c.Severity == SeverityCritical {
			s.CriticalConflicts++
		}
	}
	return s
}

// ClearAll discards all claims and conflicts. Intended for test setup
// and process-lifetime resets between runs.
func (d *Detector) ClearAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.claims = make(map[string][]ResourceClaim)
	d.conflicts = make(map[string]*Conflict)
}
