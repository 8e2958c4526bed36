package config

// GitHubConfig holds resolved GitHub integration configuration.
type GitHubConfig struct {
	TokenEnv string `yaml:"token_env,omitempty" json:"token_env,omitempty"` // default: "GITHUB_TOKEN"
}

// JiraConfig holds resolved JIRA integration configuration.
type JiraConfig struct {
	BaseURL      string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	APITokenEnv  string `yaml:"api_token_env,omitempty" json:"api_token_env,omitempty"` // default: "JIRA_API_TOKEN"
}

// JenkinsConfig holds resolved Jenkins integration configuration.
type JenkinsConfig struct {
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}

// HistoryConfig configures the optional run-history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	DSN     string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
}
