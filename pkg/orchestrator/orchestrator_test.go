package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/qe-agentflow/pkg/agent"
	"github.com/codeready-toolchain/qe-agentflow/pkg/cleanup"
	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

const (
	jiraGetIssueTool      = "jira.get_issue"
	environmentAssessTool = "environment.assess_cluster"
	githubGetPRTool       = "github.get_pull_request"
)

func wiredStub() *agent.StubToolExecutor {
	return agent.NewStubToolExecutor(nil).
		WithResponse(jiraGetIssueTool, `{"key":"ACM-22079","title":"ClusterCurator digest-based upgrades",
			"description":"The upgrade must support disconnected environments.\nFallback should trigger on failure.",
			"component":"ClusterCurator","priority":"High","fix_version":"2.15.0"}`).
		WithResponse(environmentAssessTool, `{"health":"Healthy","reachable":true,
			"nodes":[{"name":"n1","status":"Ready"}],"crds_present":["clustercurators.cluster.open-cluster-management.io"],"errors":[]}`).
		WithResponse(githubGetPRTool, `{"number":468,"title":"Add digest-based upgrade support",
			"repository":"stolostron/cluster-curator-controller",
			"files":[{"path":"pkg/controller/curator.go","additions":120,"deletions":30},
			         {"path":"pkg/controller/curator_test.go","additions":80,"deletions":0}]}`)
}

func TestGenerator_Run_FullSuccess(t *testing.T) {
	runDir := t.TempDir()
	gen := NewGenerator(Deps{Tools: wiredStub()})

	result := gen.Run(context.Background(), Input{RunID: "run-1", JiraID: "ACM-22079", RunDir: runDir})

	require.True(t, result.Success)
	assert.Len(t, result.Phases, 4) // P1, P2, P3, P4
	assert.NotEmpty(t, result.TestCases)
	assert.NotEmpty(t, result.AnalysisNotes)
	assert.Equal(t, 1, result.TestCases[0].Number)
}

func TestGenerator_Run_DegradesGracefullyWithNoTools(t *testing.T) {
	gen := NewGenerator(Deps{Tools: nil})

	result := gen.Run(context.Background(), Input{RunID: "run-2", JiraID: "ACM-1"})

	// Every agent fails without a tool executor, but every phase still
	// completes (agents encode failure in AgentResult, never panic/abort),
	// and Phase 4 falls back to the raw JIRA id as the QE service name.
	require.Len(t, result.Phases, 4)
	assert.False(t, result.Success)
}

func TestGenerator_Run_InvokesCleanupPhases(t *testing.T) {
	root := t.TempDir()
	runDir := filepath.Join(root, "runs", "ACM-1", "20260101-000000")
	require.NoError(t, os.MkdirAll(runDir, 0o755))

	cleanupSvc := cleanup.NewService(root, 0)
	gen := NewGenerator(Deps{Tools: wiredStub(), Cleanup: cleanupSvc})

	result := gen.Run(context.Background(), Input{RunID: "run-3", JiraID: "ACM-22079", RunDir: runDir})

	assert.True(t, result.Success)
}

func TestPrReferenceFrom_NoReferences(t *testing.T) {
	repo, number := prReferenceFrom(map[string]any{})
	assert.Empty(t, repo)
	assert.Zero(t, number)
}

func TestPrReferenceFrom_ParsesDigits(t *testing.T) {
	_, number := prReferenceFrom(map[string]any{"pr_references": []string{"#468"}})
	assert.Equal(t, 468, number)
}

func TestComponentOrJiraID_FallsBackWhenUnknown(t *testing.T) {
	phase := models.PhaseResult{Agents: []models.AgentResult{
		{AgentID: "agent-a", Findings: map[string]any{
			"component_analysis": map[string]any{"primary_component": "Unknown"},
		}},
	}}
	assert.Equal(t, "ACM-1", componentOrJiraID(phase, "ACM-1"))
}

func TestComponentOrJiraID_PrefersKnownComponent(t *testing.T) {
	phase := models.PhaseResult{Agents: []models.AgentResult{
		{AgentID: "agent-a", Findings: map[string]any{
			"component_analysis": map[string]any{"primary_component": "ClusterCurator"},
		}},
	}}
	assert.Equal(t, "ClusterCurator", componentOrJiraID(phase, "ACM-1"))
}

func TestExtendPatterns_EmptyWithoutTestPatterns(t *testing.T) {
	cases := extendPatterns(models.StagingBundle{}, models.QEIntelligencePackage{})
	assert.Empty(t, cases)
}

func TestSynthesizeAnalysis_SummarizesEveryAgent(t *testing.T) {
	bundle := models.StagingBundle{Packages: []models.AgentIntelligencePackage{
		{AgentName: "JIRA Intelligence Agent", Status: models.StatusSuccess, Confidence: 0.8},
		{AgentName: "Environment Agent", Status: models.StatusFailed},
	}}
	notes := synthesizeAnalysis(bundle)
	assert.Len(t, notes, 2)
}
