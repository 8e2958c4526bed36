package agent

import (
	"context"
	"fmt"
)

// ToolExecutor abstracts MCP tool execution for agents. The real
// implementation is pkg/mcp.ToolExecutor; StubToolExecutor below backs
// tests that don't need a live MCP server.
type ToolExecutor interface {
	// Execute runs a single tool call and returns the result.
	Execute(ctx context.Context, call ToolCall) (*ToolResult, error)

	// ListTools returns available tool definitions for the current execution.
	// Returns nil if no tools are configured.
	ListTools(ctx context.Context) ([]ToolDefinition, error)

	// Close releases resources (MCP transports, subprocesses).
	Close() error
}

// ToolCall is an agent's request to call a tool in "server.tool" form.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON or key:value text, parsed by pkg/mcp.ParseActionInput
}

// ToolResult is the output of a tool execution.
type ToolResult struct {
	CallID  string // Matches the ToolCall.ID
	Name    string // Tool name (server.tool format)
	Content string // Tool output (text)
	IsError bool   // Whether the tool returned an error
}

// ToolDefinition describes a tool available to an agent.
type ToolDefinition struct {
	Name             string
	Description      string
	ParametersSchema string // JSON Schema
}

// StubToolExecutor returns canned responses for testing, without connecting
// to any MCP server.
type StubToolExecutor struct {
	tools     []ToolDefinition
	responses map[string]string // tool name -> canned content
}

// NewStubToolExecutor creates a stub executor with the given tool definitions.
func NewStubToolExecutor(tools []ToolDefinition) *StubToolExecutor {
	return &StubToolExecutor{tools: tools}
}

// WithResponse registers a canned response content for a given tool name.
// Returns the receiver for chaining.
func (s *StubToolExecutor) WithResponse(toolName, content string) *StubToolExecutor {
	if s.responses == nil {
		s.responses = make(map[string]string)
	}
	s.responses[toolName] = content
	return s
}

func (s *StubToolExecutor) Execute(_ context.Context, call ToolCall) (*ToolResult, error) {
	if content, ok := s.responses[call.Name]; ok {
		return &ToolResult{CallID: call.ID, Name: call.Name, Content: content}, nil
	}
	return &ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: fmt.Sprintf("[stub] tool %q called with args: %s", call.Name, call.Arguments),
	}, nil
}

func (s *StubToolExecutor) ListTools(_ context.Context) ([]ToolDefinition, error) {
	return s.tools, nil
}

func (s *StubToolExecutor) Close() error { return nil }
