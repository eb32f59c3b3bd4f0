// Package scout implements Scout Bee: a recommender over Honeycomb
// episode history that matches a target task's feature vector against
// past episodes and proposes the Colony template with the best track
// record among similar work (§4.14).
package scout

// Verdict is Scout Bee's recommendation-confidence classification.
type Verdict string

const (
	// VerdictColdStart means there is not yet enough episode history to
	// compute similarity; the caller should use the default template.
	VerdictColdStart Verdict = "cold_start"

	// VerdictNoMatch means episode history exists but nothing crossed
	// the similarity threshold.
	VerdictNoMatch Verdict = "no_match"

	// VerdictRecommended means a template was chosen from similar past
	// episodes.
	VerdictRecommended Verdict = "recommended"
)

// TemplateStats aggregates outcome and timing stats for one Colony
// template across a set of similar episodes.
type TemplateStats struct {
	Template     string
	SuccessCount int
	TotalCount   int
	SuccessRate  float64
	AvgDuration  float64
}

// OptimizationProposal is Scout Bee's recommendation: the template to
// use, its track record among similar episodes, and a human-readable
// reason.
type OptimizationProposal struct {
	Template     string
	SuccessRate  float64
	AvgDuration  float64
	Reason       string
	SimilarCount int
}

// ScoutReport is the full result of a Recommend call: the confidence
// verdict plus the proposal it backs.
type ScoutReport struct {
	Verdict  Verdict
	Proposal OptimizationProposal
}
