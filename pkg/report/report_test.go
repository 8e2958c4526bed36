package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

func TestRenderTestCases_NormativeFormat(t *testing.T) {
	cases := []models.TestCase{
		{
			Number: 1,
			Title:  "Verify digest-based upgrade",
			Steps: []models.TestStep{
				{Step: 1, Action: "Create ClusterCurator", UIMethod: "Console", CLIMethod: "oc apply -f cc.yaml", ExpectedResult: "Resource created"},
			},
		},
	}

	out := RenderTestCases("ACM-22079", cases)

	require.True(t, strings.HasPrefix(out, "# Test Cases for ACM-22079\n"))
	assert.Contains(t, out, "## TC-001: Verify digest-based upgrade")
	assert.Contains(t, out, "Step")
	assert.Contains(t, out, "Expected Result")
}

func TestRenderTestCases_ZeroPadding(t *testing.T) {
	cases := []models.TestCase{{Number: 12, Title: "X", Steps: []models.TestStep{{Step: 1}}}}
	out := RenderTestCases("TEST-1", cases)
	assert.Contains(t, out, "## TC-012: X")
}

func TestRenderTestCases_EscapesPipeInCells(t *testing.T) {
	cases := []models.TestCase{
		{Number: 1, Title: "T", Steps: []models.TestStep{
			{Step: 1, Action: "Run a|b", ExpectedResult: "OK"},
		}},
	}
	out := RenderTestCases("T-1", cases)
	assert.Contains(t, out, "a&#124;b")
	assert.NotContains(t, out, "a|b")
}

func TestRenderTestCases_MasksClusterHost(t *testing.T) {
	cases := []models.TestCase{
		{Number: 1, Title: "T", Steps: []models.TestStep{
			{Step: 1, Action: "oc login https://console-openshift-console.apps.mycluster.example.com"},
		}},
	}
	out := RenderTestCases("T-1", cases)
	assert.Contains(t, out, "<CLUSTER_CONSOLE_URL>")
	assert.NotContains(t, out, "mycluster.example.com")
}

func TestRenderCompleteAnalysis_IncludesAgentTable(t *testing.T) {
	bundle := models.StagingBundle{
		Packages: []models.AgentIntelligencePackage{
			{AgentName: "JIRA Intelligence", Status: models.StatusSuccess, Confidence: 0.9},
		},
		QEIntelligence: &models.QEIntelligencePackage{CoverageGaps: []string{"no tests found"}},
	}

	out := RenderCompleteAnalysis("ACM-22079", []string{"note one"}, bundle)

	assert.Contains(t, out, "# Complete Analysis for ACM-22079")
	assert.Contains(t, out, "JIRA Intelligence")
	assert.Contains(t, out, "note one")
	assert.Contains(t, out, "no tests found")
}

func TestRenderAnalysisReport_IncludesClassificationCounts(t *testing.T) {
	pkg := models.AggregatedEvidencePackage{
		ClassificationCounts: map[models.Classification]int{models.ClassificationProductBug: 2},
		Tests: []models.TestFailureEvidencePackage{
			{
				Failure:        models.FailureEvidence{TestName: "login test", Category: models.CategoryServerError, ErrorMessage: "500"},
				Classification: models.ClassificationResult{Classification: models.ClassificationProductBug, Reasoning: "server returned 500"},
				Confidence:     models.ConfidenceBreakdown{Level: models.ConfidenceHigh, FinalConfidence: 0.85},
			},
		},
	}

	out := RenderAnalysisReport("https://jenkins.example.com/job/x", 42, pkg)

	assert.Contains(t, out, "# Pipeline Failure Analysis")
	assert.Contains(t, out, "login test")
	assert.Contains(t, out, "product_bug")
}

func TestMaskPlaceholders_AdminUser(t *testing.T) {
	out := MaskPlaceholders("login as kubeadmin")
	assert.Contains(t, out, "<CLUSTER_ADMIN_USER>")
}
