package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConflict(t Type) Conflict {
	now := time.Now()
	return Conflict{
		ConflictID: "conf-1",
		Type:       t,
		ColonyIDs:  []string{"c1", "c2"},
		Claims: []ResourceClaim{
			{ColonyID: "c1", ResourceType: "file", ResourceID: "r1", Timestamp: now},
			{ColonyID: "c2", ResourceType: "file", ResourceID: "r1", Timestamp: now.Add(time.Second)},
		},
	}
}

func TestResolveFirstComeEarliestWins(t *testing.T) {
	r := NewResolver()
	res := r.Resolve(sampleConflict(TypeFile), StrategyFirstCome)
	assert.Equal(t, StatusResolved, res.Status)
	assert.Equal(t, "c1", res.WinnerColonyID)
}

func TestResolvePriorityHighestWins(t *testing.T) {
	r := NewResolver()
	r.SetColonyPriority("c1", 1)
	r.SetColonyPriority("c2", 5)
	res := r.Resolve(sampleConflict(TypePriority), StrategyPriority)
	assert.Equal(t, "c2", res.WinnerColonyID)
}

func TestResolveMergeEscalatesWithoutRule(t *testing.T) {
	r := NewResolver()
	res := r.Resolve(sampleConflict(TypeFile), StrategyMerge)
	assert.Equal(t, StatusEscalated, res.Status)
}

func TestResolveMergeUsesRegisteredRule(t *testing.T) {
	r := NewResolver()
	r.AddMergeRule(MergeRule{RuleName: "union-diff", ResourceType: "file"})
	res := r.Resolve(sampleConflict(TypeFile), StrategyMerge)
	assert.Equal(t, StatusResolved, res.Status)
	assert.Equal(t, "union-diff", res.Metadata["merge_rule"])
}

func TestResolveLockAndQueueQueuesRest(t *testing.T) {
	r := NewResolver()
	res := r.Resolve(sampleConflict(TypeResourceLock), StrategyLockAndQueue)
	assert.Equal(t, "c1", res.WinnerColonyID)
	assert.Equal(t, []string{"c2"}, res.Metadata["queued_colonies"])
}

func TestDefaultStrategyAppliesByType(t *testing.T) {
	r := NewResolver()
	res := r.Resolve(sampleConflict(TypeSemantic), "")
	assert.Equal(t, StrategyManual, res.Strategy)
	assert.Equal(t, StatusEscalated, res.Status)
}

func TestGetPendingResolutionsIncludesEscalated(t *testing.T) {
	r := NewResolver()
	r.Resolve(sampleConflict(TypeSemantic), "")
	pending := r.GetPendingResolutions()
	require.Len(t, pending, 1)
	assert.Equal(t, StatusEscalated, pending[0].Status)
}
