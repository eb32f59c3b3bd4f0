package sentinel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hiveforge/hiveforge/pkg/events"
)

func TestCheckLoopsFlagsRepeatedTaskFailure(t *testing.T) {
	h := New(Config{MaxLoopCount: 3})
	var evs []*events.Event
	for i := 0; i < 3; i++ {
		e := events.NewTaskFailed("R1", "T1", "worker", "boom")
		evs = append(evs, e)
	}
	alerts := h.CheckEvents(evs, "C1")
	found := false
	for _, a := range alerts {
		if a.AlertType == "loop_detected" {
			found = true
			assert.Equal(t, "C1", a.ColonyID)
			assert.Equal(t, SeverityCritical, a.Severity)
		}
	}
	assert.True(t, found)
}

func TestDetectTypeCycleRequiresAlternatingPattern(t *testing.T) {
	h := New(Config{MaxLoopCount: 2})
	var evs []*events.Event
	for i := 0; i < 4; i++ {
		if i%2 == 0 {
			evs = append(evs, events.NewTaskAssigned("R1", "T1", "d", "w1"))
		} else {
			evs = append(evs, events.NewTaskBlocked("R1", "T1", "d", "waiting"))
		}
	}
	alerts := h.CheckEvents(evs, "C1")
	found := false
	for _, a := range alerts {
		if a.AlertType == "loop_detected" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckCostExceedsCeiling(t *testing.T) {
	h := New(Config{MaxCost: 1.0})
	evs := []*events.Event{
		events.NewLLMResponse("R1", "worker", 0.6, 100),
		events.NewLLMResponse("R1", "worker", 0.6, 100),
	}
	alerts := h.CheckEvents(evs, "C1")
	var found *Alert
	for i, a := range alerts {
		if a.AlertType == "cost_exceeded" {
			found = &alerts[i]
		}
	}
	if assert.NotNil(t, found) {
		assert.Equal(t, SeverityCritical, found.Severity)
	}
}

func TestCheckSecurityFlagsUnconfirmedIrreversible(t *testing.T) {
	h := New(DefaultConfig())
	e := events.NewWorkerStarted("W1", "worker", "deploy", false)
	alerts := h.CheckEvents([]*events.Event{e}, "C1")
	found := false
	for _, a := range alerts {
		if a.AlertType == "security_violation" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckSecurityAllowsConfirmedIrreversible(t *testing.T) {
	h := New(DefaultConfig())
	e := events.NewWorkerStarted("W1", "worker", "deploy", true)
	alerts := h.CheckEvents([]*events.Event{e}, "C1")
	for _, a := range alerts {
		assert.NotEqual(t, "security_violation", a.AlertType)
	}
}

func TestCheckRunawayCountsRecentEvents(t *testing.T) {
	h := New(Config{MaxEventRate: 2, RateWindowSeconds: 60})
	now := time.Now()
	evs := []*events.Event{
		{Type: events.EventWorkerProgress, Timestamp: now},
		{Type: events.EventWorkerProgress, Timestamp: now},
		{Type: events.EventWorkerProgress, Timestamp: now},
	}
	alerts := h.CheckEvents(evs, "C1")
	found := false
	for _, a := range alerts {
		if a.AlertType == "runaway_detected" {
			found = true
			assert.Equal(t, SeverityCritical, a.Severity)
		}
	}
	assert.True(t, found)
}
