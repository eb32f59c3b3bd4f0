package ra

import (
	"regexp"
	"strings"
)

// vagueTokens raise ambiguity; matches of concretePattern lower it. Both are
// deliberately small — the scorer is a heuristic signal, not a classifier.
var vagueTokens = []string{"suitably", "somehow", "nicely", "appropriately", "properly", "as needed", "etc"}

var concretePattern = regexp.MustCompile(`(?:/[\w.\-]+)+|\bline \d+\b|\$\s*[\w.\-]+(?:\s|$)|--?[a-zA-Z][\w-]*\b`)

// defaultRiskKeywords is the built-in execution-risk vocabulary;
// ScoreText accepts an override set for deployments with their own
// sensitive-operation list.
var defaultRiskKeywords = []string{"authentication", "encryption", "payment", "database migration", "credentials", "production"}

// ScoreText maps raw requirement text to AmbiguityScores. contextSufficiency
// defaults to a low pre-foraging value (0.2) unless supplied by the
// caller via WithContextSufficiency, since it cannot be derived from text alone.
func ScoreText(text string, riskKeywords []string) AmbiguityScores {
	if riskKeywords == nil {
		riskKeywords = defaultRiskKeywords
	}
	lower := strings.ToLower(text)

	ambiguity := 0.1
	for _, tok := range vagueTokens {
		if strings.Contains(lower, tok) {
			ambiguity += 0.15
		}
	}
	concreteHits := len(concretePattern.FindAllString(text, -1))
	ambiguity -= float64(concreteHits) * 0.1
	ambiguity = clamp01(ambiguity)

	risk := 0.05
	for _, kw := range riskKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			risk += 0.35
		}
	}
	risk = clamp01(risk)

	return AmbiguityScores{
		Ambiguity:          ambiguity,
		ContextSufficiency: 0.2,
		ExecutionRisk:      risk,
	}
}

// WithContextSufficiency returns a copy of s with context_sufficiency
// overridden, e.g. after context-enrichment or web-research has run.
func WithContextSufficiency(s AmbiguityScores, contextSufficiency float64) AmbiguityScores {
	s.ContextSufficiency = clamp01(contextSufficiency)
	return s
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
