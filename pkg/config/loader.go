package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// configFileNames are searched in order in each directory on the search
// path.
var configFileNames = []string{"hiveforge.config.yaml", "hiveforge.config.yml"}

// hiveforgeYAMLConfig mirrors the on-disk hiveforge.config.yaml shape.
type hiveforgeYAMLConfig struct {
	Defaults    *Defaults          `yaml:"defaults"`
	GitHub      *GitHubConfig      `yaml:"github"`
	RateLimiter *RateLimiterConfig `yaml:"rate_limiter"`
	Honeycomb   *HoneycombConfig   `yaml:"honeycomb"`
	Governance  *GovernanceConfig  `yaml:"governance"`
}

// Initialize loads hiveforge.config.yaml (or .yml), searching the
// current working directory first and then $HOME, merges it over
// built-in defaults, and returns ready-to-use configuration. A missing
// file is not an error: Initialize returns the built-in defaults, since
// every section has a usable zero-configuration default (GitHub
// disabled, Scout Bee/rate limiter at their tuned defaults).
func Initialize() (*Config, error) {
	path, data, err := findAndReadConfig()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return nil, err
	}

	var yamlCfg hiveforgeYAMLConfig
	if data != nil {
		data = ExpandEnv(data)
		if uerr := yaml.Unmarshal(data, &yamlCfg); uerr != nil {
			return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, uerr))
		}
	}

	cfg := resolve(&yamlCfg)
	if path != "" {
		cfg.configDir = filepath.Dir(path)
	}

	slog.Info("configuration initialized", "path", path, "github_enabled", cfg.GitHub.Enabled)
	return cfg, nil
}

// resolve merges a parsed YAML config over built-in defaults for every
// section, the same override-merge technique the teacher uses for
// Queue/Defaults resolution in loader.go.
func resolve(yamlCfg *hiveforgeYAMLConfig) *Config {
	defaults := &Defaults{
		Actor:             "system",
		HeartbeatInterval: 30 * time.Second,
	}
	if yamlCfg.Defaults != nil {
		if err := mergo.Merge(defaults, yamlCfg.Defaults, mergo.WithOverride); err != nil {
			slog.Warn("failed to merge defaults section, using built-in defaults", "error", err)
		}
	}

	rateLimiter := DefaultRateLimiterConfig()
	if yamlCfg.RateLimiter != nil {
		if err := mergo.Merge(rateLimiter, yamlCfg.RateLimiter, mergo.WithOverride); err != nil {
			slog.Warn("failed to merge rate_limiter section, using built-in defaults", "error", err)
		}
	}

	honeycomb := DefaultHoneycombConfig()
	if yamlCfg.Honeycomb != nil {
		if err := mergo.Merge(honeycomb, yamlCfg.Honeycomb, mergo.WithOverride); err != nil {
			slog.Warn("failed to merge honeycomb section, using built-in defaults", "error", err)
		}
	}

	governance := DefaultGovernanceConfig()
	if yamlCfg.Governance != nil {
		if err := mergo.Merge(governance, yamlCfg.Governance, mergo.WithOverride); err != nil {
			slog.Warn("failed to merge governance section, using built-in defaults", "error", err)
		}
	}

	return &Config{
		Defaults:    defaults,
		GitHub:      resolveGitHubConfig(yamlCfg.GitHub),
		RateLimiter: rateLimiter,
		Honeycomb:   honeycomb,
		Governance:  governance,
	}
}

// DefaultRateLimiterConfig returns HiveForge's built-in rate limiter
// tuning: one concurrent call, a generous burst, no daily ceiling.
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		MaxConcurrent: 1,
		BurstLimit:    60,
		RetryAfter429: 30 * time.Second,
	}
}

// DefaultHoneycombConfig returns HiveForge's built-in Honeycomb/Scout
// Bee tuning.
func DefaultHoneycombConfig() *HoneycombConfig {
	return &HoneycombConfig{
		VaultRoot:     "honeycomb",
		MinEpisodes:   5,
		MinSimilarity: 0.5,
		TopK:          10,
	}
}

// DefaultGovernanceConfig mirrors the original's governance settings:
// three retries, five oscillations before the detector trips.
func DefaultGovernanceConfig() *GovernanceConfig {
	return &GovernanceConfig{
		MaxRetries:      3,
		MaxOscillations: 5,
	}
}

// findAndReadConfig searches the current working directory and then
// $HOME for a hiveforge.config.{yaml,yml} file, returning the first
// match's path and contents. Returns ErrConfigNotFound (with nil data)
// if neither directory has one.
func findAndReadConfig() (string, []byte, error) {
	dirs := searchPath()
	for _, dir := range dirs {
		for _, name := range configFileNames {
			path := filepath.Join(dir, name)
			data, err := os.ReadFile(path)
			if err == nil {
				return path, data, nil
			}
			if !os.IsNotExist(err) {
				return path, nil, NewLoadError(path, err)
			}
		}
	}
	return "", nil, ErrConfigNotFound
}

func searchPath() []string {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	return dirs
}
