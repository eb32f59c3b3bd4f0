// Package sentinel implements the Sentinel Hornet: a stateless anomaly
// detector that scans a colony's recent event window for runaway loops,
// event-rate spikes, cost overruns, and unconfirmed irreversible actions.
package sentinel

import (
	"time"

	"github.com/hiveforge/hiveforge/pkg/events"
	"github.com/hiveforge/hiveforge/pkg/pipeline"
)

// Severity is an alert's urgency.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Alert is a single anomaly finding produced by a Hornet check.
type Alert struct {
	AlertType string
	ColonyID  string
	Severity  Severity
	Details   map[string]any
	Message   string
	RaisedAt  time.Time
}

// Config tunes the four checks. Zero values fall back to the defaults
// used in the original monitor (50 events/minute, window 60s, 5 loop
// repeats, cost ceiling 100.0).
type Config struct {
	MaxEventRate      int
	RateWindowSeconds int
	MaxLoopCount      int
	MaxCost           float64
}

// DefaultConfig returns the monitor's baseline thresholds.
func DefaultConfig() Config {
	return Config{
		MaxEventRate:      50,
		RateWindowSeconds: 60,
		MaxLoopCount:      5,
		MaxCost:           100.0,
	}
}

// Hornet is a stateless detector: it holds no per-colony state of its
// own, operating only on the event slice passed to CheckEvents each
// call. Callers own the window (typically "this colony's events so
// far") and how often to invoke it.
type Hornet struct {
	cfg Config
}

// New returns a Hornet governed by cfg. A zero Config is replaced field
// by field with DefaultConfig's values.
func New(cfg Config) *Hornet {
	def := DefaultConfig()
	if cfg.MaxEventRate <= 0 {
		cfg.MaxEventRate = def.MaxEventRate
	}
	if cfg.RateWindowSeconds <= 0 {
		cfg.RateWindowSeconds = def.RateWindowSeconds
	}
	if cfg.MaxLoopCount <= 0 {
		cfg.MaxLoopCount = def.MaxLoopCount
	}
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = def.MaxCost
	}
	return &Hornet{cfg: cfg}
}

// CheckEvents runs the loop, runaway, cost, and security checks in order
// against evs and returns every alert raised, tagged with colonyID.
func (h *Hornet) CheckEvents(evs []*events.Event, colonyID string) []Alert {
	var alerts []Alert
	alerts = append(alerts, h.checkLoops(evs, colonyID)...)
	alerts = append(alerts, h.checkRunaway(evs, colonyID)...)
	alerts = append(alerts, h.checkCost(evs, colonyID)...)
	alerts = append(alerts, h.checkSecurity(evs, colonyID)...)
	return alerts
}

// checkLoops flags tasks that have failed repeatedly and, separately,
// detects an exact two-state alternating cycle across the last
// 2*MaxLoopCount event types once at least that many events are present.
func (h *Hornet) checkLoops(evs []*events.Event, colonyID string) []Alert {
	var alerts []Alert

	failCounts := make(map[string]int)
	for _, e := range evs {
		if e.Type == events.EventTaskFailed || e.Type == events.EventColonyFailed {
			failCounts[e.TaskID]++
		}
	}
	for taskID, count := range failCounts {
		if taskID == "" {
			continue
		}
		if count >= h.cfg.MaxLoopCount {
			alerts = append(alerts, Alert{
				AlertType: "loop_detected",
				ColonyID:  colonyID,
				Severity:  SeverityCritical,
				Details:   map[string]any{"task_id": taskID, "failure_count": count},
				Message:   "task has failed repeatedly, possible retry loop",
				RaisedAt:  time.Now(),
			})
		}
	}

	windowSize := h.cfg.MaxLoopCount * 2
	if len(evs) >= windowSize {
		if a, ok := h.detectTypeCycle(evs, colonyID, windowSize); ok {
			alerts = append(alerts, a)
		}
	}

	return alerts
}

// detectTypeCycle inspects the last windowSize event types for an exact
// two-state alternating pattern: exactly two distinct types overall, and
// each of the even- and odd-indexed subsequences is a single repeated
// type.
func (h *Hornet) detectTypeCycle(evs []*events.Event, colonyID string, windowSize int) (Alert, bool) {
	tail := evs[len(evs)-windowSize:]
	types := make([]events.EventType, len(tail))
	for i, e := range tail {
		types[i] = e.Type
	}

	distinct := map[events.EventType]struct{}{}
	for _, t := range types {
		distinct[t] = struct{}{}
	}
	if len(distinct) != 2 {
		return Alert{}, false
	}

	even := map[events.EventType]struct{}{}
	odd := map[events.EventType]struct{}{}
	for i, t := range types {
		if i%2 == 0 {
			even[t] = struct{}{}
		} else {
			odd[t] = struct{}{}
		}
	}
	if len(even) != 1 || len(odd) != 1 {
		return Alert{}, false
	}

	return Alert{
		AlertType: "loop_detected",
		ColonyID:  colonyID,
		Severity:  SeverityHigh,
		Details:   map[string]any{"window_size": windowSize},
		Message:   "colony is oscillating between two event types, possible ping-pong loop",
		RaisedAt:  time.Now(),
	}, true
}

// checkRunaway counts events within RateWindowSeconds of now and flags a
// burst above MaxEventRate.
func (h *Hornet) checkRunaway(evs []*events.Event, colonyID string) []Alert {
	cutoff := time.Now().Add(-time.Duration(h.cfg.RateWindowSeconds) * time.Second)
	count := 0
	for _, e := range evs {
		if !e.Timestamp.Before(cutoff) {
			count++
		}
	}
	if count > h.cfg.MaxEventRate {
		return []Alert{{
			AlertType: "runaway_detected",
			ColonyID:  colonyID,
			Severity:  SeverityCritical,
			Details:   map[string]any{"count": count, "window_seconds": h.cfg.RateWindowSeconds},
			Message:   "event rate exceeds configured ceiling, possible runaway colony",
			RaisedAt:  time.Now(),
		}}
	}
	return nil
}

// checkCost sums llm.response cost/tokens_used payload fields and flags
// a colony that has burned through its cost budget.
func (h *Hornet) checkCost(evs []*events.Event, colonyID string) []Alert {
	var totalCost float64
	var totalTokens int
	for _, e := range evs {
		if e.Type != events.EventLLMResponse {
			continue
		}
		if c, ok := e.Payload["cost"].(float64); ok {
			totalCost += c
		}
		if t, ok := e.Payload["tokens_used"].(int); ok {
			totalTokens += t
		} else if t, ok := e.Payload["tokens_used"].(float64); ok {
			totalTokens += int(t)
		}
	}
	if totalCost > h.cfg.MaxCost {
		return []Alert{{
			AlertType: "cost_exceeded",
			ColonyID:  colonyID,
			Severity:  SeverityCritical,
			Details:   map[string]any{"total_cost": totalCost, "total_tokens": totalTokens},
			Message:   "colony has exceeded its configured cost ceiling",
			RaisedAt:  time.Now(),
		}}
	}
	return nil
}

// checkSecurity flags worker.started events whose tool is IRREVERSIBLE
// and not explicitly confirmed. Trust level defaults to REPORT_ONLY when
// the payload's value doesn't parse, which is the conservative side.
func (h *Hornet) checkSecurity(evs []*events.Event, colonyID string) []Alert {
	var alerts []Alert
	for _, e := range evs {
		if e.Type != events.EventWorkerStarted {
			continue
		}
		toolName, _ := e.Payload["tool_name"].(string)
		class := pipeline.ClassifyTool(toolName)
		if class == pipeline.ActionReadOnly {
			continue
		}
		if class != pipeline.ActionIrreversible {
			continue
		}
		confirmed, _ := e.Payload["confirmed"].(bool)
		if confirmed {
			continue
		}
		trust := trustFromPayload(e.Payload)
		alerts = append(alerts, Alert{
			AlertType: "security_violation",
			ColonyID:  colonyID,
			Severity:  SeverityCritical,
			Details:   map[string]any{"tool_name": toolName, "trust_level": int(trust), "worker_id": e.WorkerID},
			Message:   "irreversible action executed without confirmation",
			RaisedAt:  time.Now(),
		})
	}
	return alerts
}

func trustFromPayload(p events.Payload) pipeline.TrustLevel {
	v, ok := p["trust_level"]
	if !ok {
		return pipeline.TrustReportOnly
	}
	switch t := v.(type) {
	case int:
		return pipeline.TrustLevel(t)
	case float64:
		return pipeline.TrustLevel(int(t))
	default:
		return pipeline.TrustReportOnly
	}
}

// AlertCounts tallies alerts by AlertType, for use in a sentinel.report
// event.
func AlertCounts(alerts []Alert) map[string]int {
	counts := make(map[string]int)
	for _, a := range alerts {
		counts[a.AlertType]++
	}
	return counts
}
