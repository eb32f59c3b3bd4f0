package scout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hiveforge/hiveforge/pkg/honeycomb"
)

func TestSimilarityIdenticalVectorsIsOne(t *testing.T) {
	v := map[string]float64{"loc": 120, "files": 3}
	assert.InDelta(t, 1.0, Similarity(v, v), 1e-9)
}

func TestSimilarityNoSharedKeysIsZero(t *testing.T) {
	a := map[string]float64{"loc": 120}
	b := map[string]float64{"files": 3}
	assert.Equal(t, 0.0, Similarity(a, b))
}

func TestSimilarityDecaysWithDistance(t *testing.T) {
	target := map[string]float64{"loc": 100}
	close := Similarity(target, map[string]float64{"loc": 110})
	far := Similarity(target, map[string]float64{"loc": 500})
	assert.Greater(t, close, far)
}

func episodesOf(n int, template string, outcome honeycomb.Outcome, features map[string]float64, duration float64) []honeycomb.Episode {
	out := make([]honeycomb.Episode, n)
	for i := range out {
		out[i] = honeycomb.Episode{
			EpisodeID:       "e",
			TemplateUsed:    template,
			Outcome:         outcome,
			TaskFeatures:    features,
			DurationSeconds: duration,
		}
	}
	return out
}

func TestRecommendColdStartBelowMinEpisodes(t *testing.T) {
	s := New(Config{MinEpisodes: 5, MinSimilarity: 0.5, TopK: 10})
	report := s.Recommend(map[string]float64{"loc": 100}, episodesOf(2, "balanced", honeycomb.OutcomeSuccess, map[string]float64{"loc": 100}, 10))
	assert.Equal(t, VerdictColdStart, report.Verdict)
	assert.Equal(t, DefaultTemplate, report.Proposal.Template)
}

func TestRecommendNoMatchWhenNothingSimilar(t *testing.T) {
	s := New(Config{MinEpisodes: 1, MinSimilarity: 0.999, TopK: 10})
	episodes := episodesOf(5, "balanced", honeycomb.OutcomeSuccess, map[string]float64{"loc": 100}, 10)
	report := s.Recommend(map[string]float64{"loc": 9000}, episodes)
	assert.Equal(t, VerdictNoMatch, report.Verdict)
}

func TestRecommendPicksHighestSuccessRateTemplate(t *testing.T) {
	s := New(Config{MinEpisodes: 1, MinSimilarity: 0.0, TopK: 10})

	features := map[string]float64{"loc": 100}
	var episodes []honeycomb.Episode
	episodes = append(episodes, episodesOf(3, "aggressive", honeycomb.OutcomeFailure, features, 50)...)
	episodes = append(episodes, episodesOf(3, "balanced", honeycomb.OutcomeSuccess, features, 30)...)

	report := s.Recommend(features, episodes)
	assert.Equal(t, VerdictRecommended, report.Verdict)
	assert.Equal(t, "balanced", report.Proposal.Template)
	assert.InDelta(t, 1.0, report.Proposal.SuccessRate, 1e-9)
	assert.Equal(t, 6, report.Proposal.SimilarCount)
}

func TestRecommendTieBreaksOnLowerDuration(t *testing.T) {
	s := New(Config{MinEpisodes: 1, MinSimilarity: 0.0, TopK: 10})

	features := map[string]float64{"loc": 100}
	var episodes []honeycomb.Episode
	episodes = append(episodes, episodesOf(2, "slow", honeycomb.OutcomeSuccess, features, 100)...)
	episodes = append(episodes, episodesOf(2, "fast", honeycomb.OutcomeSuccess, features, 10)...)

	report := s.Recommend(features, episodes)
	assert.Equal(t, "fast", report.Proposal.Template)
}

func TestToEventCarriesProposalFields(t *testing.T) {
	report := ScoutReport{Verdict: VerdictRecommended, Proposal: OptimizationProposal{
		Template: "balanced", SuccessRate: 0.8, AvgDuration: 42, Reason: "x", SimilarCount: 3,
	}}
	e := report.ToEvent("run-1", "scout-bee")
	assert.Equal(t, "balanced", e.Payload["template"])
	assert.Equal(t, 3, e.Payload["similar_count"])
}
