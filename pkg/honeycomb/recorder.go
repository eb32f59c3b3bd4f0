package honeycomb

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hiveforge/hiveforge/pkg/ar"
	"github.com/hiveforge/hiveforge/pkg/events"
)

// Recorder derives an Episode from a completed run's Akashic Record
// stream and persists it to a Store (§4.14 "Episode recorder").
type Recorder struct {
	store *Store
	ar    *ar.Store
}

// NewRecorder returns a Recorder that replays runs from ar and persists
// derived episodes to store.
func NewRecorder(store *Store, arStore *ar.Store) *Recorder {
	return &Recorder{store: store, ar: arStore}
}

// RecordRunOptions supplies the context a run's own projection knows but
// its raw event stream does not (template, task features, causal
// lineage) — the pieces of an Episode that Honeycomb needs but the AR
// replay alone cannot recover.
type RecordRunOptions struct {
	Goal             string
	TemplateUsed     string
	TaskFeatures     map[string]float64
	ParentEpisodeIDs []string
	Metadata         map[string]any
}

// RecordRunEpisode replays runID's AR stream, derives outcome, duration,
// failure class, and token usage, and persists the resulting Episode.
func (r *Recorder) RecordRunEpisode(runID, colonyID string, opts RecordRunOptions) (Episode, error) {
	evts, err := r.ar.Replay(runID, time.Time{}, time.Time{})
	if err != nil {
		return Episode{}, err
	}

	outcome := determineOutcome(evts)
	duration := calculateDuration(evts)
	var failureClass FailureClass
	if outcome != OutcomeSuccess {
		failureClass = classifyFailure(evts)
	}

	template := opts.TemplateUsed
	if template == "" {
		template = "balanced"
	}

	episode := Episode{
		EpisodeID:        ulid.Make().String(),
		RunID:            runID,
		ColonyID:         colonyID,
		TemplateUsed:     template,
		TaskFeatures:     copyFloatMap(opts.TaskFeatures),
		Outcome:          outcome,
		DurationSeconds:  duration,
		TokenCount:       countTokens(evts),
		FailureClass:     failureClass,
		KPIScores:        calculateEpisodeKPI(duration),
		ParentEpisodeIDs: append([]string(nil), opts.ParentEpisodeIDs...),
		Goal:             opts.Goal,
		Metadata:         copyAnyMap(opts.Metadata),
		RecordedAt:       latestTimestamp(evts),
	}

	if err := r.store.Append(episode); err != nil {
		return Episode{}, err
	}
	return episode, nil
}

func determineOutcome(evts []*events.Event) Outcome {
	seen := make(map[events.EventType]bool, len(evts))
	for _, e := range evts {
		seen[e.Type] = true
	}

	switch {
	case seen[events.EventRunCompleted]:
		return OutcomeSuccess
	case seen[events.EventRunFailed]:
		var completed, failed int
		for _, e := range evts {
			switch e.Type {
			case events.EventTaskCompleted:
				completed++
			case events.EventTaskFailed:
				failed++
			}
		}
		if completed > 0 && failed > 0 {
			return OutcomePartial
		}
		return OutcomeFailure
	case seen[events.EventRunAborted]:
		return OutcomeFailure
	default:
		return OutcomePartial
	}
}

func calculateDuration(evts []*events.Event) float64 {
	if len(evts) < 2 {
		return 0
	}
	first := evts[0].Timestamp
	last := evts[len(evts)-1].Timestamp
	d := last.Sub(first).Seconds()
	if d < 0 {
		return 0
	}
	return d
}

func latestTimestamp(evts []*events.Event) time.Time {
	if len(evts) == 0 {
		return time.Time{}
	}
	return evts[len(evts)-1].Timestamp
}

func classifyFailure(evts []*events.Event) FailureClass {
	for i := len(evts) - 1; i >= 0; i-- {
		e := evts[i]
		if e.Type != events.EventTaskFailed && e.Type != events.EventRunFailed {
			continue
		}
		reason, _ := e.Payload["reason"].(string)
		reason = strings.ToLower(reason)

		switch {
		case strings.Contains(reason, "timeout") || strings.Contains(reason, "time"):
			return FailureTimeout
		case strings.Contains(reason, "connect") || strings.Contains(reason, "network") || strings.Contains(reason, "environment"):
			return FailureEnvironmentError
		case strings.Contains(reason, "integration") || strings.Contains(reason, "merge"):
			return FailureIntegrationError
		case strings.Contains(reason, "compile") || strings.Contains(reason, "syntax") || strings.Contains(reason, "import"):
			return FailureImplementationError
		case strings.Contains(reason, "design") || strings.Contains(reason, "architecture"):
			return FailureDesignError
		case strings.Contains(reason, "spec") || strings.Contains(reason, "requirement") || strings.Contains(reason, "ambiguous"):
			return FailureSpecificationError
		default:
			return FailureImplementationError
		}
	}
	return ""
}

func countTokens(evts []*events.Event) int {
	total := 0
	for _, e := range evts {
		switch e.Type {
		case events.EventWorkerCompleted:
			total += intFromPayload(e.Payload, "token_count")
		case events.EventWorkerProgress:
			total += intFromPayload(e.Payload, "tokens_used")
		}
	}
	return total
}

func intFromPayload(p events.Payload, key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func calculateEpisodeKPI(duration float64) KPIScores {
	if duration <= 0 {
		return KPIScores{}
	}
	d := duration
	return KPIScores{LeadTimeSeconds: &d}
}

func copyFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
