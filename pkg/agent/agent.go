package agent

import (
	"context"
	"time"

	"github.com/codeready-toolchain/qe-agentflow/pkg/hub"
	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

// Agent is one of the five named investigation agents (spec §2): JIRA
// intelligence (A), Documentation intelligence (B), GitHub investigation
// (C), Environment intelligence (D), and QE intelligence. Each agent
// takes a typed input (its own concrete struct, not modeled here) and
// returns an AgentResult; implementations live in their own file.
type Agent interface {
	// ID is the agent's stable identifier, used as the hub's agentID and
	// as AgentResult.AgentID.
	ID() string

	// Name is the agent's human-readable name, used as AgentResult.Name.
	Name() string
}

// ExecutionContext is what an agent needs to do its work: MCP tool
// access, the phase's communication hub, and run identity. It
// deliberately carries none of a chat/session/LLM-chain concept — agents
// here are bounded MCP-tool-calling workers, not conversational loops.
type ExecutionContext struct {
	RunID   string
	Tools   ToolExecutor
	Hub     *hub.Hub
	Timeout time.Duration
}

// Publish sends a status update or finding through the hub, swallowing
// ErrHubNotRunning so agent code doesn't need to special-case a hub that
// was never started (e.g. in unit tests constructing ExecutionContext
// without one).
func (c ExecutionContext) Publish(agentID, msgType string, payload map[string]any) {
	if c.Hub == nil {
		return
	}
	_, _ = c.Hub.Publish(agentID, models.Broadcast, msgType, payload, models.PriorityNormal, false)
}

// callTool executes a named MCP tool with JSON-encoded arguments and
// returns its content, or an error if the executor is nil, the call
// failed, or the tool reported an error result.
func callTool(ctx context.Context, tools ToolExecutor, toolName, callID, argsJSON string) (string, error) {
	if tools == nil {
		return "", errNoToolExecutor
	}
	result, err := tools.Execute(ctx, ToolCall{ID: callID, Name: toolName, Arguments: argsJSON})
	if err != nil {
		return "", err
	}
	if result.IsError {
		return "", &toolError{tool: toolName, content: result.Content}
	}
	return result.Content, nil
}
