package config

// GitHubConfig configures the GitHub projection (§4.13) and the
// GitHubClient it drives. A nil *GitHubConfig, or one with Enabled
// false, means the projection must no-op on every event.
type GitHubConfig struct {
	// Enabled turns the projection on. Disabled by default: HiveForge
	// never talks to GitHub unless an operator opts in.
	Enabled bool `yaml:"enabled"`

	// Owner is the GitHub repository owner (user or org).
	Owner string `yaml:"owner,omitempty"`

	// Repo is the GitHub repository name.
	Repo string `yaml:"repo,omitempty"`

	// ProjectNumber optionally scopes synced issues to a GitHub Project
	// (v2) board. Zero means no project association.
	ProjectNumber int `yaml:"project_number,omitempty"`

	// BaseURL is the GitHub API base, overridable for GitHub Enterprise
	// Server. Defaults to "https://api.github.com".
	BaseURL string `yaml:"base_url,omitempty"`

	// LabelPrefix namespaces the labels the projection applies (Sentinel
	// alerts, Guard failures) so they don't collide with a repo's
	// existing label set. Defaults to "hiveforge:".
	LabelPrefix string `yaml:"label_prefix,omitempty"`

	// TokenEnv names the environment variable the GitHubClient reads its
	// access token from. Defaults to "GITHUB_TOKEN".
	TokenEnv string `yaml:"token_env,omitempty"`
}

const (
	defaultGitHubBaseURL     = "https://api.github.com"
	defaultGitHubLabelPrefix = "hiveforge:"
	defaultGitHubTokenEnv    = "GITHUB_TOKEN"
)

// resolveGitHubConfig applies built-in defaults to a (possibly nil or
// partial) YAML-sourced GitHub section, mirroring the teacher's
// resolveGitHubConfig/resolveSlackConfig pattern of a zero-value
// disabled config when nothing is configured.
func resolveGitHubConfig(yamlCfg *GitHubConfig) *GitHubConfig {
	cfg := &GitHubConfig{
		BaseURL:     defaultGitHubBaseURL,
		LabelPrefix: defaultGitHubLabelPrefix,
		TokenEnv:    defaultGitHubTokenEnv,
	}
	if yamlCfg == nil {
		return cfg
	}

	cfg.Enabled = yamlCfg.Enabled
	cfg.Owner = yamlCfg.Owner
	cfg.Repo = yamlCfg.Repo
	cfg.ProjectNumber = yamlCfg.ProjectNumber
	if yamlCfg.BaseURL != "" {
		cfg.BaseURL = yamlCfg.BaseURL
	}
	if yamlCfg.LabelPrefix != "" {
		cfg.LabelPrefix = yamlCfg.LabelPrefix
	}
	if yamlCfg.TokenEnv != "" {
		cfg.TokenEnv = yamlCfg.TokenEnv
	}
	return cfg
}
