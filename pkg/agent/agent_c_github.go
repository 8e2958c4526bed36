package agent

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

const (
	githubGetPRTool    = "github.get_pull_request"
	githubGetFilesTool = "github.get_pr_files"
)

// securitySensitivePaths are path fragments whose modification flags a
// PR as security-sensitive, regardless of its overall size.
var securitySensitivePaths = []string{"rbac", "auth", "security", "cert", "credential", "secret", "token"}

// GitHubAgent is Agent C: GitHub Investigation. It inspects a PR's
// changed files to estimate change impact, detect test coverage, and
// flag security-sensitive changes.
type GitHubAgent struct{}

// NewGitHubAgent constructs Agent C.
func NewGitHubAgent() *GitHubAgent { return &GitHubAgent{} }

func (a *GitHubAgent) ID() string   { return "agent-c" }
func (a *GitHubAgent) Name() string { return "GitHub Investigation" }

type prFile struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

type pullRequestPayload struct {
	Number     int      `json:"number"`
	Title      string   `json:"title"`
	Repository string   `json:"repository"`
	Files      []prFile `json:"files"`
}

// GitHubInput identifies the PR Agent C should investigate, typically
// extracted from Agent A's findings.
type GitHubInput struct {
	Repository string
	PRNumber   int
}

// Run fetches the PR and its changed files, then derives change impact,
// test coverage, and security sensitivity.
func (a *GitHubAgent) Run(ctx context.Context, ec ExecutionContext, in GitHubInput) models.AgentResult {
	start := time.Now()
	ec.Publish(a.ID(), "agent_started", map[string]any{"repository": in.Repository, "pr_number": in.PRNumber})

	if in.PRNumber == 0 {
		ec.Publish(a.ID(), "agent_skipped", map[string]any{"reason": "no PR reference found"})
		return models.AgentResult{
			AgentID: a.ID(), Name: a.Name(), Status: models.StatusSkipped,
			ExecutionTime: time.Since(start),
		}
	}

	args, _ := json.Marshal(map[string]any{"repository": in.Repository, "pr_number": in.PRNumber})
	content, err := callTool(ctx, ec.Tools, githubGetPRTool, a.ID()+"-pr", string(args))
	if err != nil {
		ec.Publish(a.ID(), "agent_failed", map[string]any{"error": err.Error()})
		return models.AgentResult{
			AgentID: a.ID(), Name: a.Name(), Status: models.StatusFailed,
			ErrorMessage: err.Error(), ExecutionTime: time.Since(start),
		}
	}

	var pr pullRequestPayload
	if unmarshalErr := json.Unmarshal([]byte(content), &pr); unmarshalErr != nil {
		ec.Publish(a.ID(), "agent_partial", map[string]any{"reason": "unparseable PR payload"})
		return models.AgentResult{
			AgentID: a.ID(), Name: a.Name(), Status: models.StatusPartial,
			ErrorMessage: "could not parse PR payload: " + unmarshalErr.Error(),
			Confidence:   0.3, ExecutionTime: time.Since(start),
		}
	}

	filesCount := len(pr.Files)
	totalChanges := 0
	hasTests := false
	securitySensitive := false
	for _, f := range pr.Files {
		totalChanges += f.Additions + f.Deletions
		if isTestFilePath(f.Path) {
			hasTests = true
		}
		if pathIsSecuritySensitive(f.Path) {
			securitySensitive = true
		}
	}

	impact := changeImpact(filesCount, totalChanges)

	findings := map[string]any{
		"pr_details": map[string]any{
			"pr_number":     pr.Number,
			"pr_title":      pr.Title,
			"files_changed": filesCount,
			"repository":    pr.Repository,
		},
		"change_impact":       impact,
		"has_tests":           hasTests,
		"is_security_sensitive": securitySensitive,
		"deployment_components": []string{},
	}

	ec.Publish(a.ID(), "agent_completed", map[string]any{"impact": impact})
	return models.AgentResult{
		AgentID: a.ID(), Name: a.Name(), Status: models.StatusSuccess,
		Findings: findings, Confidence: 0.85, ExecutionTime: time.Since(start),
	}
}

func changeImpact(filesCount, totalChanges int) string {
	switch {
	case filesCount > 50 || totalChanges > 1000:
		return "high"
	case filesCount > 10 || totalChanges > 200:
		return "medium"
	default:
		return "low"
	}
}

func isTestFilePath(path string) bool {
	lower := strings.ToLower(path)
	for _, marker := range []string{"_test.", ".test.", "/test/", "/tests/", "spec."} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func pathIsSecuritySensitive(path string) bool {
	lower := strings.ToLower(path)
	for _, marker := range securitySensitivePaths {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
