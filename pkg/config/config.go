package config

// Config is the umbrella configuration object returned by Initialize()
// and threaded through the orchestrator, MCP layer, and CLI.
type Config struct {
	configDir string // configuration directory/file path, for reference

	Defaults *Defaults

	AgentRegistry     *AgentRegistry
	MCPServerRegistry *MCPServerRegistry

	GitHub  GitHubConfig
	Jira    JiraConfig
	Jenkins JenkinsConfig
	History HistoryConfig
}

// ConfigStats contains statistics about loaded configuration.
type ConfigStats struct {
	Agents     int
	MCPServers int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		Agents:     len(c.AgentRegistry.GetAll()),
		MCPServers: len(c.MCPServerRegistry.GetAll()),
	}
}

// ConfigDir returns the configuration directory/file path.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetAgent retrieves an agent configuration by name.
func (c *Config) GetAgent(name string) (*AgentConfig, error) {
	return c.AgentRegistry.Get(name)
}

// GetMCPServer retrieves an MCP server configuration by ID.
func (c *Config) GetMCPServer(serverID string) (*MCPServerConfig, error) {
	return c.MCPServerRegistry.Get(serverID)
}
