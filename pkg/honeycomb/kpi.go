package honeycomb

import (
	"math"
	"sort"
)

// Summary is the Calculator's dict-shaped report: aggregate KPI
// scores plus outcome/failure-class breakdowns, suited to direct JSON
// encoding for a status endpoint or CLI report.
type Summary struct {
	TotalEpisodes  int            `json:"total_episodes"`
	Outcomes       map[string]int `json:"outcomes"`
	FailureClasses map[string]int `json:"failure_classes"`
	KPI            KPIScores      `json:"kpi"`
}

// Calculator computes the five HiveForge KPIs (§4.14) over a Store's
// episode history, optionally scoped to a single colony.
type Calculator struct {
	store *Store
}

// NewCalculator returns a Calculator backed by store.
func NewCalculator(store *Store) *Calculator {
	return &Calculator{store: store}
}

// CalculateAll computes every KPI over colonyID's episodes, or over all
// episodes if colonyID is empty.
func (c *Calculator) CalculateAll(colonyID string) (KPIScores, error) {
	episodes, err := c.episodesFor(colonyID)
	if err != nil {
		return KPIScores{}, err
	}
	if len(episodes) == 0 {
		return KPIScores{}, nil
	}
	return scoreAll(episodes), nil
}

// CalculateSummary returns the dict-shaped report including outcome and
// failure-class breakdowns.
func (c *Calculator) CalculateSummary(colonyID string) (Summary, error) {
	episodes, err := c.episodesFor(colonyID)
	if err != nil {
		return Summary{}, err
	}
	if len(episodes) == 0 {
		return Summary{TotalEpisodes: 0, KPI: KPIScores{}}, nil
	}

	outcomes := map[string]int{}
	failures := map[string]int{}
	for _, e := range episodes {
		outcomes[string(e.Outcome)]++
		if e.FailureClass != "" {
			failures[string(e.FailureClass)]++
		}
	}

	return Summary{
		TotalEpisodes:  len(episodes),
		Outcomes:       outcomes,
		FailureClasses: failures,
		KPI:            scoreAll(episodes),
	}, nil
}

func (c *Calculator) episodesFor(colonyID string) ([]Episode, error) {
	if colonyID != "" {
		return c.store.ReplayColony(colonyID)
	}
	return c.store.ReplayAll()
}

func scoreAll(episodes []Episode) KPIScores {
	return KPIScores{
		Correctness:     calcCorrectness(episodes),
		Repeatability:   calcRepeatability(episodes),
		LeadTimeSeconds: calcLeadTime(episodes),
		IncidentRate:    calcIncidentRate(episodes),
		RecurrenceRate:  calcRecurrenceRate(episodes),
	}
}

// calcCorrectness is success_count / total — the first-pass success
// rate (§4.14 "Correctness: Guard Beeの一次合格率", approximated here by
// outcome until Guard Bee verdicts are threaded into the episode
// itself).
func calcCorrectness(episodes []Episode) *float64 {
	if len(episodes) == 0 {
		return nil
	}
	success := 0
	for _, e := range episodes {
		if e.Outcome == OutcomeSuccess {
			success++
		}
	}
	v := float64(success) / float64(len(episodes))
	return &v
}

// calcRepeatability is the sample standard deviation of per-template
// success rates; undefined (nil) for fewer than two episodes, 0.0 when
// only a single template has enough samples to form a rate.
func calcRepeatability(episodes []Episode) *float64 {
	if len(episodes) < 2 {
		return nil
	}

	byTemplate := map[string][]int{}
	for _, e := range episodes {
		outcome := 0
		if e.Outcome == OutcomeSuccess {
			outcome = 1
		}
		byTemplate[e.TemplateUsed] = append(byTemplate[e.TemplateUsed], outcome)
	}

	var rates []float64
	for _, results := range byTemplate {
		if len(results) < 2 {
			continue
		}
		sum := 0
		for _, r := range results {
			sum += r
		}
		rates = append(rates, float64(sum)/float64(len(results)))
	}

	if len(rates) < 2 {
		v := 0.0
		return &v
	}
	v := stdev(rates)
	return &v
}

func calcLeadTime(episodes []Episode) *float64 {
	var durations []float64
	for _, e := range episodes {
		if e.DurationSeconds > 0 {
			durations = append(durations, e.DurationSeconds)
		}
	}
	if len(durations) == 0 {
		return nil
	}
	v := mean(durations)
	return &v
}

// calcIncidentRate is (failure + partial) / total.
func calcIncidentRate(episodes []Episode) *float64 {
	if len(episodes) == 0 {
		return nil
	}
	incidents := 0
	for _, e := range episodes {
		if e.Outcome == OutcomeFailure || e.Outcome == OutcomePartial {
			incidents++
		}
	}
	v := float64(incidents) / float64(len(episodes))
	return &v
}

// calcRecurrenceRate is Σ max(0, count(class)-1) / Σ count(class) over
// every failure class that appears: the fraction of failures in a class
// that are repeats of an earlier failure in the same class.
func calcRecurrenceRate(episodes []Episode) *float64 {
	byClass := map[FailureClass]int{}
	for _, e := range episodes {
		if e.FailureClass != "" {
			byClass[e.FailureClass]++
		}
	}
	if len(byClass) == 0 {
		v := 0.0
		return &v
	}

	var totalFailures, totalRecurrences int
	for _, count := range byClass {
		totalFailures += count
		if count > 1 {
			totalRecurrences += count - 1
		}
	}
	if totalFailures == 0 {
		v := 0.0
		return &v
	}
	v := float64(totalRecurrences) / float64(totalFailures)
	return &v
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdev is the sample (n-1 denominator) standard deviation, matching
// Python's statistics.stdev.
func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	m := mean(xs)
	var sumSq float64
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}
