package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

func TestGitHubAgent_Run_CodeChanges(t *testing.T) {
	stub := NewStubToolExecutor(nil).WithResponse(githubGetPRTool,
		`{"number":468,"title":"Add digest-based upgrade support","repository":"stolostron/cluster-curator-controller",
		  "files":[{"path":"pkg/controller/curator.go","additions":120,"deletions":30},{"path":"pkg/controller/curator_test.go","additions":80,"deletions":0}]}`)

	result := NewGitHubAgent().Run(context.Background(), ExecutionContext{Tools: stub}, GitHubInput{Repository: "stolostron/cluster-curator-controller", PRNumber: 468})

	require.Equal(t, models.StatusSuccess, result.Status)
	assert.Equal(t, true, result.Findings["has_tests"])
	assert.Contains(t, []string{"low", "medium", "high"}, result.Findings["change_impact"])
}

func TestGitHubAgent_Run_LargePR(t *testing.T) {
	files := make([]prFile, 0, 120)
	for i := 0; i < 120; i++ {
		files = append(files, prFile{Path: "file.go", Additions: 10, Deletions: 5})
	}
	payload, err := json.Marshal(pullRequestPayload{Number: 999, Title: "Large PR", Repository: "org/repo", Files: files})
	require.NoError(t, err)

	stub := NewStubToolExecutor(nil).WithResponse(githubGetPRTool, string(payload))

	result := NewGitHubAgent().Run(context.Background(), ExecutionContext{Tools: stub}, GitHubInput{Repository: "org/repo", PRNumber: 999})

	assert.Equal(t, "high", result.Findings["change_impact"])
}

func TestGitHubAgent_Run_SecuritySensitive(t *testing.T) {
	stub := NewStubToolExecutor(nil).WithResponse(githubGetPRTool,
		`{"number":666,"title":"RBAC update","repository":"org/repo","files":[{"path":"pkg/auth/rbac.go","additions":10,"deletions":2}]}`)

	result := NewGitHubAgent().Run(context.Background(), ExecutionContext{Tools: stub}, GitHubInput{Repository: "org/repo", PRNumber: 666})

	assert.Equal(t, true, result.Findings["is_security_sensitive"])
}

func TestGitHubAgent_Run_NoPRReference(t *testing.T) {
	result := NewGitHubAgent().Run(context.Background(), ExecutionContext{}, GitHubInput{})

	assert.Equal(t, models.StatusSkipped, result.Status)
}

func TestGitHubAgent_Run_ToolFailure(t *testing.T) {
	result := NewGitHubAgent().Run(context.Background(), ExecutionContext{Tools: nil}, GitHubInput{PRNumber: 1})

	assert.Equal(t, models.StatusFailed, result.Status)
}
