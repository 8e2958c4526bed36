package config

import "time"

// Defaults contains system-wide default settings, overridable per server or
// per agent. Mirrors the MCP config "settings" block of spec §6.
type Defaults struct {
	// CacheTTL is how long successful MCP results are cached.
	CacheTTL time.Duration `yaml:"cache_ttl,omitempty" json:"cache_ttl,omitempty"`

	// HealthCheckInterval bounds how often a server's health is re-checked.
	HealthCheckInterval time.Duration `yaml:"health_check_interval,omitempty" json:"health_check_interval,omitempty"`

	EnableFallback bool `yaml:"enable_fallback" json:"enable_fallback"`
	EnableCache    bool `yaml:"enable_cache" json:"enable_cache"`

	MaxRetries int           `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	RetryDelay time.Duration `yaml:"retry_delay,omitempty" json:"retry_delay,omitempty"`

	// AgentTimeout bounds a single agent's wall-clock execution budget.
	AgentTimeout time.Duration `yaml:"agent_timeout,omitempty" json:"agent_timeout,omitempty"`

	// MaxConcurrentAgents caps how many agents a phase may run in parallel.
	MaxConcurrentAgents int `yaml:"max_concurrent_agents,omitempty" json:"max_concurrent_agents,omitempty"`
}

// DefaultDefaults returns the built-in system defaults, used when a config
// file omits the settings block entirely.
func DefaultDefaults() *Defaults {
	return &Defaults{
		CacheTTL:            5 * time.Minute,
		HealthCheckInterval: 60 * time.Second,
		EnableFallback:      true,
		EnableCache:         true,
		MaxRetries:          3,
		RetryDelay:          time.Second,
		AgentTimeout:        3 * time.Minute,
		MaxConcurrentAgents: 4,
	}
}
