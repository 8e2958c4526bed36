package servers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/qe-agentflow/pkg/agent"
)

func TestFallbackExecutor_UnknownTool(t *testing.T) {
	e := &FallbackExecutor{}
	result, err := e.Execute(context.Background(), agent.ToolCall{ID: "1", Name: "nope.tool"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestFallbackExecutor_MissingAdapterIsError(t *testing.T) {
	e := &FallbackExecutor{}
	result, err := e.Execute(context.Background(), agent.ToolCall{ID: "1", Name: "jira.get_issue", Arguments: `{"ticket_id":"X-1"}`})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestGitHubAdapter_GetPullRequest_UsesBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer t0k3n", r.Header.Get("Authorization"))
		w.Write([]byte(`{"number":1}`))
	}))
	defer srv.Close()

	adapter := NewGitHubAdapter("t0k3n")
	adapter.BaseURL = srv.URL

	_, err := adapter.Call(context.Background(), "get_pull_request", map[string]any{"repository": "org/repo", "pr_number": 1})
	assert.NoError(t, err)
}

func TestJenkinsAdapter_DetectsHTMLAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>login required</html>"))
	}))
	defer srv.Close()

	adapter := NewJenkinsAdapter(srv.URL, "user", "token")
	_, err := adapter.Call(context.Background(), "get_build", map[string]any{"job_path": "j", "build_number": "1"})
	assert.Error(t, err)
}

func TestEnvironmentAdapter_NoBinaryReturnsUnknownHealth(t *testing.T) {
	adapter := &EnvironmentAdapter{binary: "definitely-not-a-real-binary"}
	out, err := adapter.Call(context.Background(), "assess_cluster", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out, "errors")
}

func TestFilesystemAdapter_SearchNoRoot(t *testing.T) {
	adapter := NewFilesystemAdapter("")
	out, err := adapter.Call(context.Background(), "search", map[string]any{"query": "x"})
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}
