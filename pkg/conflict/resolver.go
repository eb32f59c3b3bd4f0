package conflict

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Strategy names a resolution approach for a Conflict.
type Strategy string

const (
	StrategyFirstCome    Strategy = "first_come"
	StrategyPriority     Strategy = "priority_based"
	StrategyMerge        Strategy = "merge"
	StrategyManual       Strategy = "manual"
	StrategyAbortAll     Strategy = "abort_all"
	StrategyRetryLater   Strategy = "retry_later"
	StrategyLockAndQueue Strategy = "lock_and_queue"
)

// Status is a resolution's lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusFailed     Status = "failed"
	StatusEscalated  Status = "escalated"
)

// Result is the outcome of resolving a Conflict.
type Result struct {
	ResolutionID   string
	ConflictID     string
	Strategy       Strategy
	Status         Status
	WinnerColonyID string
	Message        string
	ResolvedAt     time.Time
	Metadata       map[string]any
}

// MergeRule describes how to combine conflicting claims on resourceType
// when the merge strategy applies.
type MergeRule struct {
	RuleName     string
	ResourceType string
	PriorityField string
	Description  string
}

// ResolutionListener is notified synchronously after every resolution.
type ResolutionListener func(Result)

// defaultStrategies mirrors resolver.py's per-type defaults.
var defaultStrategies = map[Type]Strategy{
	TypeFile:        StrategyFirstCome,
	TypeResourceLock: StrategyLockAndQueue,
	TypeDependency:  StrategyPriority,
	TypeState:       StrategyAbortAll,
	TypePriority:    StrategyPriority,
	TypeSemantic:    StrategyManual,
}

// Resolver applies resolution strategies to Conflicts, optionally
// weighted by configured colony priorities and merge rules.
type Resolver struct {
	mu         sync.Mutex
	strategies map[Type]Strategy
	priorities map[string]int
	mergeRules map[string]MergeRule // keyed by resource_type
	resolutions map[string]*Result
	listeners  []ResolutionListener
}

// NewResolver returns a Resolver seeded with the default per-Type
// strategy table.
func NewResolver() *Resolver {
	strategies := make(map[Type]Strategy, len(defaultStrategies))
	for k, v := range defaultStrategies {
		strategies[k] = v
	}
	return &Resolver{
		strategies:  strategies,
		priorities:  make(map[string]int),
		mergeRules:  make(map[string]MergeRule),
		resolutions: make(map[string]*Result),
	}
}

// SetStrategy overrides the default strategy for conflictType.
func (r *Resolver) SetStrategy(conflictType Type, strategy Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[conflictType] = strategy
}

// SetColonyPriority records colonyID's priority for priority_based
// resolution; higher wins.
func (r *Resolver) SetColonyPriority(colonyID string, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.priorities[colonyID] = priority
}

// AddMergeRule registers a merge rule for resource_type; only one rule
// per resource type is kept (last write wins).
func (r *Resolver) AddMergeRule(rule MergeRule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mergeRules[rule.ResourceType] = rule
}

// AddListener registers a callback invoked after every resolution.
func (r *Resolver) AddListener(l ResolutionListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Resolve applies a strategy to c. If strategy is empty, the Type's
// configured default is used. A panicking strategy implementation
// surfaces as a StatusFailed result rather than propagating.
func (r *Resolver) Resolve(c Conflict, strategy Strategy) (result Result) {
	r.mu.Lock()
	if strategy == "" {
		strategy = r.strategies[c.Type]
	}
	priorities := make(map[string]int, len(r.priorities))
	for k, v := range r.priorities {
		priorities[k] = v
	}
	mergeRule, hasMergeRule := r.mergeRules[firstResourceType(c)]
	r.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			result = Result{
				ResolutionID: uuid.NewString(),
				ConflictID:   c.ConflictID,
				Strategy:     strategy,
				Status:       StatusFailed,
				Message:      "resolution strategy panicked",
				ResolvedAt:   time.Now(),
			}
		}
		r.record(result)
	}()

	switch strategy {
	case StrategyFirstCome:
		result = resolveFirstCome(c)
	case StrategyPriority:
		result = resolvePriority(c, priorities)
	case StrategyMerge:
		result = resolveMerge(c, mergeRule, hasMergeRule)
	case StrategyAbortAll:
		result = resolveAbortAll(c)
	case StrategyLockAndQueue:
		result = resolveLockAndQueue(c)
	case StrategyRetryLater:
		result = resolveRetryLater(c)
	case StrategyManual:
		result = resolveManual(c)
	default:
		result = resolveManual(c)
	}
	result.ConflictID = c.ConflictID
	result.Strategy = strategy
	if result.ResolutionID == "" {
		result.ResolutionID = uuid.NewString()
	}
	return result
}

func firstResourceType(c Conflict) string {
	if len(c.Claims) == 0 {
		return ""
	}
	return c.Claims[0].ResourceType
}

func resolveFirstCome(c Conflict) Result {
	claims := sortedByTimestamp(c.Claims)
	return Result{
		Status:         StatusResolved,
		WinnerColonyID: claims[0].ColonyID,
		Message:        "earliest claim wins",
		ResolvedAt:     time.Now(),
	}
}

func resolvePriority(c Conflict, priorities map[string]int) Result {
	winner := c.ColonyIDs[0]
	best := priorities[winner]
	for _, id := range c.ColonyIDs[1:] {
		if p := priorities[id]; p > best {
			best = p
			winner = id
		}
	}
	return Result{
		Status:         StatusResolved,
		WinnerColonyID: winner,
		Message:        "highest configured priority wins",
		ResolvedAt:     time.Now(),
		Metadata:       map[string]any{"priority": best},
	}
}

func resolveMerge(c Conflict, rule MergeRule, hasRule bool) Result {
	if !hasRule {
		return Result{
			Status:     StatusEscalated,
			Message:    "no merge rule registered for resource type",
			ResolvedAt: time.Now(),
		}
	}
	return Result{
		Status:     StatusResolved,
		Message:    "merged via registered rule " + rule.RuleName,
		ResolvedAt: time.Now(),
		Metadata:   map[string]any{"merge_rule": rule.RuleName},
	}
}

func resolveAbortAll(c Conflict) Result {
	return Result{
		Status:     StatusResolved,
		Message:    "aborted all claimant colonies",
		ResolvedAt: time.Now(),
		Metadata:   map[string]any{"aborted_colonies": append([]string(nil), c.ColonyIDs...)},
	}
}

func resolveLockAndQueue(c Conflict) Result {
	claims := sortedByTimestamp(c.Claims)
	queued := make([]string, 0, len(claims)-1)
	for _, cl := range claims[1:] {
		queued = append(queued, cl.ColonyID)
	}
	return Result{
		Status:         StatusResolved,
		WinnerColonyID: claims[0].ColonyID,
		Message:        "earliest claim holds the lock, rest queued",
		ResolvedAt:     time.Now(),
		Metadata:       map[string]any{"queued_colonies": queued},
	}
}

func resolveRetryLater(c Conflict) Result {
	retryAt := time.Now().Add(30 * time.Second)
	return Result{
		Status:     StatusPending,
		Message:    "deferred for retry",
		Metadata:   map[string]any{"retry_at": retryAt},
	}
}

func resolveManual(c Conflict) Result {
	return Result{
		Status:     StatusEscalated,
		Message:    "escalated for manual resolution",
		ResolvedAt: time.Now(),
	}
}

func sortedByTimestamp(claims []ResourceClaim) []ResourceClaim {
	out := append([]ResourceClaim(nil), claims...)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func (r *Resolver) record(result Result) {
	r.mu.Lock()
	r.resolutions[result.ResolutionID] = &result
	listeners := append([]ResolutionListener(nil), r.listeners...)
	r.mu.Unlock()

	for _, l := range listeners {
		func() {
			defer func() { recover() }()
			l(result)
		}()
	}
}

// GetResolution returns the resolution with the given id, if any.
func (r *Resolver) GetResolution(id string) (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.resolutions[id]
	if !ok {
		return Result{}, false
	}
	return *res, true
}

// GetResolutionsByStatus returns every resolution currently in status.
func (r *Resolver) GetResolutionsByStatus(status Status) []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Result
	for _, res := range r.resolutions {
		if res.Status == status {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResolvedAt.Before(out[j].ResolvedAt) })
	return out
}

// GetPendingResolutions returns resolutions in PENDING or ESCALATED
// status — those still requiring attention.
func (r *Resolver) GetPendingResolutions() []Result {
	pending := r.GetResolutionsByStatus(StatusPending)
	escalated := r.GetResolutionsByStatus(StatusEscalated)
	return append(pending, escalated...)
}

// ResolverStats summarizes the resolver's bookkeeping.
type ResolverStats struct {
	TotalResolutions int
	ByStatus         map[Status]int
}

// Stats computes a snapshot of resolution counters.
func (r *Resolver) Stats() ResolverStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := ResolverStats{TotalResolutions: len(r.resolutions), ByStatus: make(map[Status]int)}
	for _, res := range r.resolutions {
		stats.ByStatus[res.Status]++
	}
	return stats
}
