package config

import (
	"fmt"
	"sort"
	"sync"
)

// AgentRegistry stores the fixed set of phase agents (A/B/C/D/QE) in memory
// with thread-safe access. Grounded on the teacher's sub-agent registry
// pattern, simplified to the closed set this system dispatches.
type AgentRegistry struct {
	mu     sync.RWMutex
	agents map[string]*AgentConfig
}

// NewAgentRegistry creates a registry from the given agent map.
func NewAgentRegistry(agents map[string]*AgentConfig) *AgentRegistry {
	return &AgentRegistry{agents: agents}
}

// Get retrieves an agent configuration by name (thread-safe).
func (r *AgentRegistry) Get(name string) (*AgentConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}
	return agent, nil
}

// GetAll returns all agent configurations (thread-safe, returns a copy).
func (r *AgentRegistry) GetAll() map[string]*AgentConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*AgentConfig, len(r.agents))
	for k, v := range r.agents {
		result[k] = v
	}
	return result
}

// Names returns agent names in sorted order, for deterministic iteration.
func (r *AgentRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.agents))
	for k := range r.agents {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Fixed agent names used across phases 1 and 2. Exported so the
// orchestrator and agent factory can refer to them without typos.
const (
	AgentJIRA          = "jira-intelligence"
	AgentEnvironment   = "environment-intelligence"
	AgentDocumentation = "documentation-intelligence"
	AgentGitHub        = "github-investigation"
	AgentQE            = "qe-intelligence"
)

// DefaultAgents returns the built-in agent configuration used when a
// config file omits the agents block.
func DefaultAgents() map[string]*AgentConfig {
	return map[string]*AgentConfig{
		AgentJIRA: {
			Name:        AgentJIRA,
			Description: "Extracts requirements, linked issues, and acceptance criteria from the JIRA ticket.",
			MCPServers:  []string{"jira"},
		},
		AgentEnvironment: {
			Name:        AgentEnvironment,
			Description: "Assesses target cluster/environment health and accessibility.",
			MCPServers:  []string{"environment"},
		},
		AgentDocumentation: {
			Name:        AgentDocumentation,
			Description: "Gathers product documentation relevant to the ticket's feature area.",
			MCPServers:  []string{"filesystem"},
		},
		AgentGitHub: {
			Name:        AgentGitHub,
			Description: "Investigates the implementation PR, diff, and related code history.",
			MCPServers:  []string{"github"},
		},
		AgentQE: {
			Name:        AgentQE,
			Description: "Synthesizes prior-art test patterns and coverage gaps for test-case generation.",
			MCPServers:  []string{"filesystem", "github"},
		},
	}
}
