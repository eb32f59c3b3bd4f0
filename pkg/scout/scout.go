package scout

import (
	"fmt"

	"github.com/hiveforge/hiveforge/pkg/honeycomb"
)

// DefaultTemplate is used whenever Scout Bee cannot recommend from
// history: cold start or no episode crosses the similarity threshold.
const DefaultTemplate = "balanced"

// Config tunes Scout Bee's matching thresholds (§4.14 step 1/3).
type Config struct {
	// MinEpisodes is the episode-count floor below which Scout Bee
	// refuses to match and returns VerdictColdStart.
	MinEpisodes int
	// MinSimilarity is the similarity floor an episode must cross to be
	// considered for the top-k set.
	MinSimilarity float64
	// TopK bounds how many similar episodes feed the template vote.
	TopK int
}

// DefaultConfig returns HiveForge's default Scout Bee tuning.
func DefaultConfig() Config {
	return Config{MinEpisodes: 5, MinSimilarity: 0.5, TopK: 10}
}

// Scout is Scout Bee: it recommends a Colony template by matching a
// target task's feature vector against Honeycomb episode history.
type Scout struct {
	config  Config
	matcher EpisodeMatcher
}

// New returns a Scout tuned by config.
func New(config Config) *Scout {
	return &Scout{config: config, matcher: NewEpisodeMatcher()}
}

// Recommend implements §4.14's five-step algorithm:
//  1. Cold start if there isn't enough history.
//  2. Rank episodes by feature-vector similarity to targetFeatures.
//  3. Keep the top-k above the similarity floor.
//  4. Group the survivors by template and pick the best (success rate,
//     ties broken by lower mean duration).
//  5. Return the resulting proposal.
func (s *Scout) Recommend(targetFeatures map[string]float64, episodes []honeycomb.Episode) ScoutReport {
	if len(episodes) < s.config.MinEpisodes {
		return ScoutReport{
			Verdict: VerdictColdStart,
			Proposal: OptimizationProposal{
				Template: DefaultTemplate,
				Reason:   "insufficient episode history for similarity matching",
			},
		}
	}

	ranked := s.matcher.Rank(targetFeatures, episodes)
	similar := TopK(ranked, s.config.TopK, s.config.MinSimilarity)
	if len(similar) == 0 {
		return ScoutReport{
			Verdict: VerdictNoMatch,
			Proposal: OptimizationProposal{
				Template: DefaultTemplate,
				Reason:   "no episodes met the similarity threshold",
			},
		}
	}

	stats := groupByTemplate(similar)
	best := pickBest(stats)

	return ScoutReport{
		Verdict: VerdictRecommended,
		Proposal: OptimizationProposal{
			Template:     best.Template,
			SuccessRate:  best.SuccessRate,
			AvgDuration:  best.AvgDuration,
			Reason:       fmt.Sprintf("template %q succeeded in %d/%d similar episodes", best.Template, best.SuccessCount, best.TotalCount),
			SimilarCount: len(similar),
		},
	}
}

func groupByTemplate(similar []SimilarEpisode) []TemplateStats {
	byTemplate := map[string]*TemplateStats{}
	order := []string{}
	for _, s := range similar {
		t := s.Episode.TemplateUsed
		stat, ok := byTemplate[t]
		if !ok {
			stat = &TemplateStats{Template: t}
			byTemplate[t] = stat
			order = append(order, t)
		}
		stat.TotalCount++
		stat.AvgDuration += s.Episode.DurationSeconds
		if s.Episode.Outcome == honeycomb.OutcomeSuccess {
			stat.SuccessCount++
		}
	}

	out := make([]TemplateStats, 0, len(order))
	for _, t := range order {
		stat := byTemplate[t]
		if stat.TotalCount > 0 {
			stat.SuccessRate = float64(stat.SuccessCount) / float64(stat.TotalCount)
			stat.AvgDuration = stat.AvgDuration / float64(stat.TotalCount)
		}
		out = append(out, *stat)
	}
	return out
}

// pickBest selects the template with the highest success rate, ties
// broken by the lower mean duration (§4.14 step 4).
func pickBest(stats []TemplateStats) TemplateStats {
	best := stats[0]
	for _, s := range stats[1:] {
		if s.SuccessRate > best.SuccessRate {
			best = s
			continue
		}
		if s.SuccessRate == best.SuccessRate && s.AvgDuration < best.AvgDuration {
			best = s
		}
	}
	return best
}
