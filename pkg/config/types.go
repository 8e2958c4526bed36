package config

// Shared types used across configuration structs.

// TransportKind selects how the MCP layer talks to a server.
type TransportKind string

const (
	TransportTypeStdio TransportKind = "stdio"
	TransportTypeHTTP  TransportKind = "http"
	TransportTypeSSE   TransportKind = "sse"
)

// TransportConfig defines MCP server transport configuration.
type TransportConfig struct {
	Type TransportKind `yaml:"type" json:"type" validate:"required"`

	// For stdio transport.
	Command string            `yaml:"command,omitempty" json:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// For http/sse transport.
	URL         string `yaml:"url,omitempty" json:"url,omitempty"`
	Timeout     int    `yaml:"timeout,omitempty" json:"timeout,omitempty"` // seconds
	BearerToken string `yaml:"bearer_token,omitempty" json:"bearer_token,omitempty"`
	VerifySSL   *bool  `yaml:"verify_ssl,omitempty" json:"verify_ssl,omitempty"`
}

// MaskingConfig defines data masking configuration for an MCP server's
// responses, shared with pkg/masking's pattern groups.
type MaskingConfig struct {
	Enabled        bool             `yaml:"enabled" json:"enabled"`
	PatternGroups  []string         `yaml:"pattern_groups,omitempty" json:"pattern_groups,omitempty"`
	Patterns       []string         `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	CustomPatterns []MaskingPattern `yaml:"custom_patterns,omitempty" json:"custom_patterns,omitempty"`
}

// MaskingPattern defines a regex-based masking pattern.
type MaskingPattern struct {
	Pattern     string `yaml:"pattern" json:"pattern" validate:"required"`
	Replacement string `yaml:"replacement" json:"replacement" validate:"required"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// AgentConfig describes one of the five fixed phase agents (A/B/C/D/QE).
type AgentConfig struct {
	Name        string   `yaml:"name" json:"name" validate:"required"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	MCPServers  []string `yaml:"mcp_servers" json:"mcp_servers"`
	Timeout     int      `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
}
