package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withWorkingDir(t *testing.T, dir string) {
	t.Helper()
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(original) })
}

func TestInitializeReturnsBuiltinDefaultsWhenNoFileExists(t *testing.T) {
	withWorkingDir(t, t.TempDir())

	cfg, err := Initialize()
	require.NoError(t, err)

	assert.False(t, cfg.GitHub.Enabled)
	assert.Equal(t, defaultGitHubBaseURL, cfg.GitHub.BaseURL)
	assert.Equal(t, defaultGitHubTokenEnv, cfg.GitHub.TokenEnv)
	assert.Equal(t, 5, cfg.Honeycomb.MinEpisodes)
	assert.Equal(t, 60, cfg.RateLimiter.BurstLimit)
	assert.Equal(t, 3, cfg.Governance.MaxRetries)
	assert.Equal(t, 5, cfg.Governance.MaxOscillations)
}

func TestInitializeLoadsAndMergesYAMLOverCWD(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
github:
  enabled: true
  owner: acme
  repo: hive
  label_prefix: "acme:"
honeycomb:
  min_episodes: 2
governance:
  max_retries: 5
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hiveforge.config.yaml"), content, 0o644))
	withWorkingDir(t, dir)

	cfg, err := Initialize()
	require.NoError(t, err)

	assert.True(t, cfg.GitHub.Enabled)
	assert.Equal(t, "acme", cfg.GitHub.Owner)
	assert.Equal(t, "hive", cfg.GitHub.Repo)
	assert.Equal(t, "acme:", cfg.GitHub.LabelPrefix)
	assert.Equal(t, defaultGitHubBaseURL, cfg.GitHub.BaseURL)
	assert.Equal(t, 2, cfg.Honeycomb.MinEpisodes)
	assert.Equal(t, 0.5, cfg.Honeycomb.MinSimilarity)
	assert.Equal(t, 5, cfg.Governance.MaxRetries)
	assert.Equal(t, 5, cfg.Governance.MaxOscillations)
}

func TestInitializeExpandsEnvironmentVariables(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Setenv("HIVEFORGE_TEST_OWNER", "env-owner"))
	t.Cleanup(func() { _ = os.Unsetenv("HIVEFORGE_TEST_OWNER") })

	content := []byte("github:\n  enabled: true\n  owner: ${HIVEFORGE_TEST_OWNER}\n  repo: hive\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hiveforge.config.yaml"), content, 0o644))
	withWorkingDir(t, dir)

	cfg, err := Initialize()
	require.NoError(t, err)
	assert.Equal(t, "env-owner", cfg.GitHub.Owner)
}

func TestInitializeRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hiveforge.config.yaml"), []byte("github: [this is not a map"), 0o644))
	withWorkingDir(t, dir)

	_, err := Initialize()
	require.Error(t, err)
}
