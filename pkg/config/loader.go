package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// rawMCPDocument mirrors the JSON wire shape of spec §6 exactly.
type rawMCPDocument struct {
	MCPServers map[string]rawServer `json:"mcpServers"`
	Settings   *rawSettings         `json:"settings"`
}

type rawServer struct {
	Type        string            `json:"type"`
	Command     string            `json:"command,omitempty"`
	Args        []string          `json:"args,omitempty"`
	URL         string            `json:"url,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	Description string            `json:"description,omitempty"`
}

type rawSettings struct {
	CacheTTL            float64 `json:"cache_ttl,omitempty"`
	HealthCheckInterval float64 `json:"health_check_interval,omitempty"`
	EnableFallback      *bool   `json:"enable_fallback,omitempty"`
	EnableCache         *bool   `json:"enable_cache,omitempty"`
	MaxRetries          int     `json:"max_retries,omitempty"`
	RetryDelay          float64 `json:"retry_delay,omitempty"`
}

// candidatePaths returns the well-known MCP config discovery order from
// SPEC_FULL §6: ./<prog>.config.json, $XDG_CONFIG_HOME/<prog>/config.json,
// /etc/<prog>/config.json.
func candidatePaths(program, explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	paths := []string{fmt.Sprintf("./%s.config.json", program)}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, program, "config.json"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", program, "config.json"))
	}
	paths = append(paths, filepath.Join("/etc", program, "config.json"))
	return paths
}

// Initialize loads configuration for the given program ("qegen" or
// "pipelinedoc"). configPath overrides discovery when non-empty. Returns
// ErrConfigNotFound if no candidate path exists — callers treat a missing
// config as "use built-in defaults, no MCP servers configured" rather than
// a fatal error, since MCP servers are optional per run.
func Initialize(program, configPath string) (*Config, error) {
	cfg := &Config{
		Defaults:          DefaultDefaults(),
		AgentRegistry:     NewAgentRegistry(DefaultAgents()),
		MCPServerRegistry: NewMCPServerRegistry(map[string]*MCPServerConfig{}),
		GitHub:            GitHubConfig{TokenEnv: "GITHUB_TOKEN"},
		Jira:              JiraConfig{APITokenEnv: "JIRA_API_TOKEN"},
		History:           loadHistoryConfigFromEnv(),
	}

	var found string
	for _, p := range candidatePaths(program, configPath) {
		if _, err := os.Stat(p); err == nil {
			found = p
			break
		}
	}
	if found == "" {
		cfg.configDir = ""
		return cfg, nil
	}
	cfg.configDir = found

	raw, err := os.ReadFile(found)
	if err != nil {
		return nil, NewLoadError(found, err)
	}
	expanded := ExpandEnv(raw)

	if err := ValidateMCPConfigDocument(expanded); err != nil {
		return nil, NewLoadError(found, err)
	}

	var doc rawMCPDocument
	if err := json.Unmarshal(expanded, &doc); err != nil {
		return nil, NewLoadError(found, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	servers := make(map[string]*MCPServerConfig, len(doc.MCPServers))
	for name, s := range doc.MCPServers {
		servers[name] = &MCPServerConfig{
			Transport: TransportConfig{
				Type:    TransportKind(s.Type),
				Command: s.Command,
				Args:    s.Args,
				URL:     s.URL,
				Env:     s.Env,
			},
			Description: s.Description,
		}
	}
	cfg.MCPServerRegistry = NewMCPServerRegistry(servers)

	if doc.Settings != nil {
		applySettings(cfg.Defaults, doc.Settings)
	}

	return cfg, nil
}

func applySettings(d *Defaults, s *rawSettings) {
	if s.CacheTTL > 0 {
		d.CacheTTL = time.Duration(s.CacheTTL * float64(time.Second))
	}
	if s.HealthCheckInterval > 0 {
		d.HealthCheckInterval = time.Duration(s.HealthCheckInterval * float64(time.Second))
	}
	if s.EnableFallback != nil {
		d.EnableFallback = *s.EnableFallback
	}
	if s.EnableCache != nil {
		d.EnableCache = *s.EnableCache
	}
	if s.MaxRetries > 0 {
		d.MaxRetries = s.MaxRetries
	}
	if s.RetryDelay > 0 {
		d.RetryDelay = time.Duration(s.RetryDelay * float64(time.Second))
	}
}

func loadHistoryConfigFromEnv() HistoryConfig {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return HistoryConfig{Enabled: true, DSN: dsn}
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		return HistoryConfig{Enabled: false}
	}
	user := getenvDefault("DB_USER", "qeagentflow")
	pass := os.Getenv("DB_PASSWORD")
	name := getenvDefault("DB_NAME", "qeagentflow")
	port := getenvDefault("DB_PORT", "5432")
	sslmode := getenvDefault("DB_SSLMODE", "disable")
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, name, sslmode)
	return HistoryConfig{Enabled: true, DSN: dsn}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
