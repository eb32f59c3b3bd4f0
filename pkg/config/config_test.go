package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hiveforge/hiveforge/pkg/pipeline"
)

func TestRateLimiterConfigConvertsToRatelimitConfig(t *testing.T) {
	cfg := &RateLimiterConfig{RequestsPerMinute: 30, BurstLimit: 5, MaxConcurrent: 2}
	converted := cfg.ToRateLimiterConfig()

	assert.Equal(t, 30, converted.RequestsPerMinute)
	assert.Equal(t, 5, converted.BurstLimit)
	assert.Equal(t, 2, converted.MaxConcurrent)
}

func TestHoneycombConfigConvertsToScoutConfig(t *testing.T) {
	cfg := &HoneycombConfig{MinEpisodes: 3, MinSimilarity: 0.7, TopK: 8}
	converted := cfg.ToScoutConfig()

	assert.Equal(t, 3, converted.MinEpisodes)
	assert.Equal(t, 0.7, converted.MinSimilarity)
	assert.Equal(t, 8, converted.TopK)
}

func TestGovernanceConfigConvertsToRetryPolicy(t *testing.T) {
	cfg := &GovernanceConfig{MaxRetries: 4, MaxOscillations: 6}
	policy := cfg.ToRetryPolicy(pipeline.RetryDifferentWorker, 1.5, 2.0)

	assert.Equal(t, 4, policy.MaxRetries)
	assert.Equal(t, pipeline.RetryDifferentWorker, policy.Strategy)
	assert.Equal(t, 1.5, policy.BackoffSeconds)
	assert.Equal(t, 2.0, policy.BackoffMultiplier)
}
