package config

import (
	"time"

	"github.com/hiveforge/hiveforge/pkg/pipeline"
	"github.com/hiveforge/hiveforge/pkg/ratelimit"
	"github.com/hiveforge/hiveforge/pkg/scout"
)

// Config is the umbrella configuration object returned by Initialize and
// used throughout HiveForge: system-wide defaults plus the external
// integrations (GitHub projection, rate limiter) that need operator
// tuning.
type Config struct {
	configDir string // directory the config file was loaded from, empty if defaulted

	// Defaults holds system-wide behavioral defaults.
	Defaults *Defaults

	// GitHub configures the GitHub projection (§4.13). GitHub.Enabled
	// false means the projection is a no-op.
	GitHub *GitHubConfig

	// RateLimiter configures the token-bucket rate limiter guarding LLM
	// calls (§4.10).
	RateLimiter *RateLimiterConfig

	// Honeycomb configures the episode vault location and Scout Bee
	// matching thresholds (§4.14).
	Honeycomb *HoneycombConfig

	// Governance tunes the task retry manager and the state machine
	// oscillation detector (§4.4, §4.6).
	Governance *GovernanceConfig
}

// ConfigDir returns the directory the active configuration file was
// loaded from, or empty if no file was found and built-in defaults are
// in effect.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// Defaults contains system-wide default configuration values, applied
// when a more specific section does not override them.
type Defaults struct {
	// Actor identifies the system itself in events it originates
	// (heartbeats, internal projections) when no more specific actor
	// applies.
	Actor string `yaml:"actor,omitempty"`

	// HeartbeatInterval is how often the activity bus expects a
	// heartbeat before the silence detector considers a component
	// silent (§4.11).
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval,omitempty"`
}

// RateLimiterConfig tunes the token-bucket rate limiter guarding LLM
// calls (§4.10). Field names and meaning mirror ratelimit.Config; this
// is the YAML-facing shape ratelimit.Config is built from.
type RateLimiterConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute,omitempty"`
	RequestsPerDay    int           `yaml:"requests_per_day,omitempty"`
	TokensPerMinute   int           `yaml:"tokens_per_minute,omitempty"`
	MaxConcurrent     int           `yaml:"max_concurrent,omitempty"`
	BurstLimit        int           `yaml:"burst_limit,omitempty"`
	RetryAfter429     time.Duration `yaml:"retry_after_429,omitempty"`
}

// ToRateLimiterConfig converts the YAML-facing section into the shape
// ratelimit.New expects.
func (r *RateLimiterConfig) ToRateLimiterConfig() ratelimit.Config {
	return ratelimit.Config{
		RequestsPerMinute: r.RequestsPerMinute,
		RequestsPerDay:    r.RequestsPerDay,
		TokensPerMinute:   r.TokensPerMinute,
		MaxConcurrent:     r.MaxConcurrent,
		BurstLimit:        r.BurstLimit,
		RetryAfter429:     r.RetryAfter429,
	}
}

// GovernanceConfig bounds how many times a task may be retried and how
// many times a state machine may flap between two states before the
// oscillation detector trips (§4.4, §4.6).
type GovernanceConfig struct {
	MaxRetries      int `yaml:"max_retries,omitempty"`
	MaxOscillations int `yaml:"max_oscillations,omitempty"`
}

// ToRetryPolicy builds the retry manager policy this governance section
// feeds: MaxRetries comes from config, while strategy and backoff are
// taken from the caller's arguments since those are per-task-pipeline
// concerns, not global config.
func (g *GovernanceConfig) ToRetryPolicy(strategy pipeline.RetryStrategy, backoffSeconds, backoffMultiplier float64) pipeline.RetryPolicy {
	return pipeline.RetryPolicy{
		Strategy:          strategy,
		MaxRetries:        g.MaxRetries,
		BackoffSeconds:    backoffSeconds,
		BackoffMultiplier: backoffMultiplier,
	}
}

// HoneycombConfig locates the episode vault and tunes Scout Bee's
// similarity matching (§4.14).
type HoneycombConfig struct {
	// VaultRoot is the directory Honeycomb's Store writes
	// per-colony and combined episode logs under.
	VaultRoot string `yaml:"vault_root,omitempty"`

	// MinEpisodes is the episode-count floor below which Scout Bee
	// returns a cold-start verdict instead of matching.
	MinEpisodes int `yaml:"min_episodes,omitempty"`

	// MinSimilarity is the similarity floor an episode must cross to
	// be considered in Scout Bee's top-k vote.
	MinSimilarity float64 `yaml:"min_similarity,omitempty"`

	// TopK bounds how many similar episodes feed the template vote.
	TopK int `yaml:"top_k,omitempty"`
}

// ToScoutConfig converts the matching thresholds into the shape
// scout.New expects.
func (h *HoneycombConfig) ToScoutConfig() scout.Config {
	return scout.Config{
		MinEpisodes:   h.MinEpisodes,
		MinSimilarity: h.MinSimilarity,
		TopK:          h.TopK,
	}
}
