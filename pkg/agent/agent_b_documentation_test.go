package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

func completeJiraFindings() map[string]any {
	return map[string]any{
		"jira_info": map[string]any{
			"jira_id": "ACM-22079",
			"title":   "ClusterCurator digest-based upgrades",
		},
		"requirement_analysis": map[string]any{
			"primary_requirements": []string{
				"Digest-based upgrades must complete successfully",
				"Fallback mechanism must trigger on failure",
			},
		},
	}
}

func TestDocumentationAgent_Run_RichData(t *testing.T) {
	jira := completeJiraFindings()
	jira["jira_info"].(map[string]any)["component"] = "ClusterCurator"

	result := NewDocumentationAgent().Run(context.Background(), ExecutionContext{}, jira)

	require.Equal(t, models.StatusSuccess, result.Status)
	workflows := result.Findings["user_workflows"].([]string)
	assert.GreaterOrEqual(t, len(workflows), 2)
	assert.Empty(t, result.Findings["analysis_gaps"])
}

func TestDocumentationAgent_Run_MinimalData(t *testing.T) {
	jira := map[string]any{
		"jira_info": map[string]any{"jira_id": "TEST-123", "title": "Basic feature", "component": "Unknown"},
	}

	result := NewDocumentationAgent().Run(context.Background(), ExecutionContext{}, jira)

	require.Equal(t, models.StatusSuccess, result.Status)
	gaps := result.Findings["analysis_gaps"].([]string)
	assert.NotEmpty(t, gaps)
}

func TestDocumentationAgent_Run_WithExternalDocs(t *testing.T) {
	stub := NewStubToolExecutor(nil).WithResponse(docsSearchTool,
		`[{"title":"ClusterCurator Guide","url":"https://docs.redhat.com/a"},{"title":"Upgrade Procedures","url":"https://docs.redhat.com/b"}]`)

	jira := completeJiraFindings()
	jira["jira_info"].(map[string]any)["component"] = "ClusterCurator"

	result := NewDocumentationAgent().Run(context.Background(), ExecutionContext{Tools: stub}, jira)

	assert.Equal(t, "jira_and_external", result.Findings["documentation_source"])
	docs := result.Findings["discovered_documentation"]
	assert.NotNil(t, docs)
}

func TestDocumentationAgent_Run_DocsUnavailableFallback(t *testing.T) {
	jira := completeJiraFindings()

	result := NewDocumentationAgent().Run(context.Background(), ExecutionContext{}, jira)

	assert.Equal(t, "jira_only", result.Findings["documentation_source"])
}
