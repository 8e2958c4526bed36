package servers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codeready-toolchain/qe-agentflow/pkg/agent"
)

// Compile-time check that FallbackExecutor implements agent.ToolExecutor.
var _ agent.ToolExecutor = (*FallbackExecutor)(nil)

// FallbackExecutor implements agent.ToolExecutor directly over the
// concrete adapters in this package, for use when no MCP server is
// configured for a tool the phase agents need. It routes the fixed tool
// names the five agents call (pkg/agent's *Tool constants) to the
// matching adapter's operation.
type FallbackExecutor struct {
	Jenkins     *JenkinsAdapter
	GitHub      *GitHubAdapter
	Jira        *JiraAdapter
	Environment *EnvironmentAdapter
	Filesystem  *FilesystemAdapter
}

func (e *FallbackExecutor) Execute(ctx context.Context, call agent.ToolCall) (*agent.ToolResult, error) {
	args, err := decodeArgs(call.Arguments)
	if err != nil {
		return &agent.ToolResult{CallID: call.ID, Name: call.Name, IsError: true, Content: err.Error()}, nil
	}

	content, callErr := e.dispatch(ctx, call.Name, args)
	if callErr != nil {
		return &agent.ToolResult{CallID: call.ID, Name: call.Name, IsError: true, Content: callErr.Error()}, nil
	}
	return &agent.ToolResult{CallID: call.ID, Name: call.Name, Content: content}, nil
}

func (e *FallbackExecutor) dispatch(ctx context.Context, toolName string, args map[string]any) (string, error) {
	switch toolName {
	case "jira.get_issue":
		if e.Jira == nil {
			return "", fmt.Errorf("fallback executor: no JIRA adapter configured")
		}
		return e.Jira.Call(ctx, "get_issue", args)
	case "environment.assess_cluster":
		if e.Environment == nil {
			return "", fmt.Errorf("fallback executor: no environment adapter configured")
		}
		return e.Environment.Call(ctx, "assess_cluster", args)
	case "docs.search":
		if e.Filesystem == nil {
			return "", fmt.Errorf("fallback executor: no filesystem adapter configured")
		}
		return e.Filesystem.Call(ctx, "search", args)
	case "github.get_pull_request":
		if e.GitHub == nil {
			return "", fmt.Errorf("fallback executor: no GitHub adapter configured")
		}
		return e.GitHub.Call(ctx, "get_pull_request", args)
	case "github.get_pr_files":
		if e.GitHub == nil {
			return "", fmt.Errorf("fallback executor: no GitHub adapter configured")
		}
		return e.GitHub.Call(ctx, "get_pr_files", args)
	case "jenkins.get_build":
		if e.Jenkins == nil {
			return "", fmt.Errorf("fallback executor: no Jenkins adapter configured")
		}
		return e.Jenkins.Call(ctx, "get_build", args)
	case "jenkins.get_console":
		if e.Jenkins == nil {
			return "", fmt.Errorf("fallback executor: no Jenkins adapter configured")
		}
		return e.Jenkins.Call(ctx, "get_console", args)
	case "jenkins.get_test_report":
		if e.Jenkins == nil {
			return "", fmt.Errorf("fallback executor: no Jenkins adapter configured")
		}
		return e.Jenkins.Call(ctx, "get_test_report", args)
	default:
		return "", fmt.Errorf("fallback executor: unknown tool %q", toolName)
	}
}

func (e *FallbackExecutor) ListTools(_ context.Context) ([]agent.ToolDefinition, error) {
	return nil, nil
}

func (e *FallbackExecutor) Close() error { return nil }

func decodeArgs(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("fallback executor: invalid tool arguments: %w", err)
	}
	return args, nil
}
