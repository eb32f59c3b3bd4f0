package scout

import (
	"math"
	"sort"

	"github.com/hiveforge/hiveforge/pkg/honeycomb"
)

// SimilarEpisode pairs an Episode with its similarity score against a
// target feature vector.
type SimilarEpisode struct {
	Episode    honeycomb.Episode
	Similarity float64
}

// EpisodeMatcher ranks episodes against a target feature vector using
// an inverse-distance similarity metric (§4.5.1 analog, §4.14 step 2):
// identical vectors score 1.0, and similarity decays monotonically with
// Euclidean distance over the keys the two vectors share.
type EpisodeMatcher struct{}

// NewEpisodeMatcher returns a ready-to-use EpisodeMatcher; it carries no
// state.
func NewEpisodeMatcher() EpisodeMatcher {
	return EpisodeMatcher{}
}

// Rank scores every episode against target and returns them sorted by
// descending similarity.
func (EpisodeMatcher) Rank(target map[string]float64, episodes []honeycomb.Episode) []SimilarEpisode {
	ranked := make([]SimilarEpisode, 0, len(episodes))
	for _, e := range episodes {
		ranked = append(ranked, SimilarEpisode{Episode: e, Similarity: Similarity(target, e.TaskFeatures)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})
	return ranked
}

// TopK returns the first k entries of ranked whose similarity is at
// least minSimilarity.
func TopK(ranked []SimilarEpisode, k int, minSimilarity float64) []SimilarEpisode {
	var out []SimilarEpisode
	for _, r := range ranked {
		if r.Similarity < minSimilarity {
			continue
		}
		out = append(out, r)
		if len(out) == k {
			break
		}
	}
	return out
}

// Similarity computes an inverse-distance similarity between two
// feature vectors over their shared keys: 1 / (1 + euclidean_distance).
// Identical vectors (distance 0) score exactly 1.0; vectors sharing no
// keys score 0.
func Similarity(a, b map[string]float64) float64 {
	var sumSq float64
	shared := 0
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			continue
		}
		shared++
		d := av - bv
		sumSq += d * d
	}
	if shared == 0 {
		return 0
	}
	return 1.0 / (1.0 + math.Sqrt(sumSq))
}
