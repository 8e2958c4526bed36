package stage

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/qe-agentflow/pkg/errs"
	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

func fakeReader(files map[string]string) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		if content, ok := files[path]; ok {
			return []byte(content), nil
		}
		return nil, errors.New("file not found")
	}
}

func TestBuilder_Build_PreservesContentVerbatim(t *testing.T) {
	b := &Builder{readFile: fakeReader(map[string]string{
		"/runs/r1/agent_a.md": "## Detailed Analysis\n\nLine one.\nLine two with | a pipe.",
	})}

	bundle, err := b.Build("r1", []models.AgentResult{
		{AgentID: "agent-a", Name: "JIRA Intelligence", Status: models.StatusSuccess, OutputFile: "/runs/r1/agent_a.md", Confidence: 0.8, ExecutionTime: 2 * time.Second},
	}, nil, nil)

	require.NoError(t, err)
	require.Len(t, bundle.Packages, 1)
	assert.Equal(t, "## Detailed Analysis\n\nLine one.\nLine two with | a pipe.", bundle.Packages[0].DetailedContent)
	assert.True(t, bundle.DataPreservationVerified)
}

func TestBuilder_Build_FieldForFieldFallback(t *testing.T) {
	b := &Builder{readFile: fakeReader(nil)}

	bundle, err := b.Build("r1", []models.AgentResult{
		{AgentID: "agent-d", Name: "Environment Intelligence", Status: models.StatusSuccess, Findings: map[string]any{"cluster_healthy": true, "pods_failing": 3}},
	}, nil, nil)

	require.NoError(t, err)
	require.Len(t, bundle.Packages, 1)
	assert.NotEmpty(t, bundle.Packages[0].DetailedContent)
	assert.Contains(t, bundle.Packages[0].DetailedContent, "cluster_healthy")
	assert.True(t, bundle.DataPreservationVerified)
}

func TestBuilder_Build_CombinesBothPhases(t *testing.T) {
	b := &Builder{readFile: fakeReader(map[string]string{
		"a.md": "a content",
		"b.md": "b content",
	})}

	bundle, err := b.Build("r1",
		[]models.AgentResult{{AgentID: "agent-a", Status: models.StatusSuccess, OutputFile: "a.md"}},
		[]models.AgentResult{{AgentID: "agent-c", Status: models.StatusSuccess, OutputFile: "b.md"}},
		nil,
	)

	require.NoError(t, err)
	assert.Len(t, bundle.Packages, 2)
}

func TestBuilder_Build_MissingFileForSuccessfulAgentIsIntegrityError(t *testing.T) {
	b := &Builder{readFile: fakeReader(nil)}

	_, err := b.Build("r1", []models.AgentResult{
		{AgentID: "agent-a", Status: models.StatusSuccess, OutputFile: "missing.md"},
	}, nil, nil)

	require.Error(t, err)
	assert.True(t, errs.IsIntegrity(err))
}

func TestBuilder_Build_FailedAgentMissingContentIsNotAnError(t *testing.T) {
	b := &Builder{readFile: fakeReader(nil)}

	bundle, err := b.Build("r1", []models.AgentResult{
		{AgentID: "agent-a", Status: models.StatusFailed, ErrorMessage: "timed out"},
	}, nil, nil)

	require.NoError(t, err)
	assert.True(t, bundle.DataPreservationVerified)
	assert.Empty(t, bundle.Packages[0].DetailedContent)
}

func TestBuilder_Build_CarriesQEIntelligence(t *testing.T) {
	b := &Builder{readFile: fakeReader(nil)}
	qe := &models.QEIntelligencePackage{ServiceName: "cluster-curator", Status: models.StatusSuccess, TestPatterns: []string{"e2e-provision"}}

	bundle, err := b.Build("r1", nil, nil, qe)

	require.NoError(t, err)
	require.NotNil(t, bundle.QEIntelligence)
	assert.Equal(t, "cluster-curator", bundle.QEIntelligence.ServiceName)
}

func TestBuilder_Build_EmptyRunHasNoPackagesButVerified(t *testing.T) {
	b := &Builder{readFile: fakeReader(nil)}

	bundle, err := b.Build("r1", nil, nil, nil)

	require.NoError(t, err)
	assert.Empty(t, bundle.Packages)
	assert.True(t, bundle.DataPreservationVerified)
}

func TestNewBuilder_UsesOSReadFile(t *testing.T) {
	b := NewBuilder()
	assert.NotNil(t, b.readFile)
}
