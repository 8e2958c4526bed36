package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

func TestMatrix_ServerErrorHealthyEnv_ProductBug(t *testing.T) {
	m := NewMatrix()
	result := m.Classify("server_error", true, true, AdditionalFactors{})

	assert.Equal(t, models.ClassificationProductBug, result.Classification)
	assert.Greater(t, result.Scores.ProductBug, 0.8)
}

func TestMatrix_ElementNotFoundSelectorExists_AutomationBug(t *testing.T) {
	m := NewMatrix()
	result := m.Classify("element_not_found", true, true, AdditionalFactors{})

	assert.Equal(t, models.ClassificationAutomationBug, result.Classification)
	assert.GreaterOrEqual(t, result.Scores.AutomationBug, 0.5)
}

func TestMatrix_ElementNotFoundSelectorMissing_ProductBug(t *testing.T) {
	m := NewMatrix()
	result := m.Classify("element_not_found", true, false, AdditionalFactors{})

	assert.Equal(t, models.ClassificationProductBug, result.Classification)
	assert.GreaterOrEqual(t, result.Scores.ProductBug, 0.5)
}

func TestMatrix_TimeoutHealthyEnv_AutomationBug(t *testing.T) {
	m := NewMatrix()
	result := m.Classify("timeout", true, true, AdditionalFactors{})

	assert.Equal(t, models.ClassificationAutomationBug, result.Classification)
	assert.Equal(t, 0.15, result.Scores.ProductBug)
	assert.Equal(t, 0.70, result.Scores.AutomationBug)
	assert.Equal(t, 0.15, result.Scores.Infrastructure)
}

func TestMatrix_TimeoutHealthyEnv_SelectorFoundIrrelevant(t *testing.T) {
	m := NewMatrix()
	product, automation, infra := m.GetMatrixEntry("timeout", true, false)

	assert.Equal(t, 0.15, product)
	assert.Equal(t, 0.70, automation)
	assert.Equal(t, 0.15, infra)
}

func TestMatrix_TimeoutUnhealthyEnv_Infrastructure(t *testing.T) {
	m := NewMatrix()
	result := m.Classify("timeout", false, true, AdditionalFactors{})

	assert.Equal(t, models.ClassificationInfrastructure, result.Classification)
	assert.Equal(t, 0.10, result.Scores.ProductBug)
	assert.Equal(t, 0.20, result.Scores.AutomationBug)
	assert.Equal(t, 0.70, result.Scores.Infrastructure)
}

func TestMatrix_NetworkErrorUnhealthyEnv_Infrastructure(t *testing.T) {
	m := NewMatrix()
	result := m.Classify("network", false, true, AdditionalFactors{})

	assert.Equal(t, models.ClassificationInfrastructure, result.Classification)
	assert.GreaterOrEqual(t, result.Scores.Infrastructure, 0.7)
}

func TestMatrix_AssertionFailure_ProductBug(t *testing.T) {
	m := NewMatrix()
	result := m.Classify("assertion", true, true, AdditionalFactors{})

	assert.Equal(t, models.ClassificationProductBug, result.Classification)
	assert.GreaterOrEqual(t, result.Scores.ProductBug, 0.5)
}

func TestMatrix_AuthErrorHealthyEnv_AutomationBug(t *testing.T) {
	m := NewMatrix()
	result := m.Classify("auth_error", true, true, AdditionalFactors{})

	assert.Equal(t, models.ClassificationAutomationBug, result.Classification)
	assert.Equal(t, 0.15, result.Scores.ProductBug)
	assert.Equal(t, 0.70, result.Scores.AutomationBug)
	assert.Equal(t, 0.15, result.Scores.Infrastructure)
}

func TestMatrix_AuthErrorUnhealthyEnv_Infrastructure(t *testing.T) {
	m := NewMatrix()
	result := m.Classify("auth_error", false, true, AdditionalFactors{})

	assert.Equal(t, models.ClassificationInfrastructure, result.Classification)
	assert.Equal(t, 0.15, result.Scores.ProductBug)
	assert.Equal(t, 0.25, result.Scores.AutomationBug)
	assert.Equal(t, 0.60, result.Scores.Infrastructure)
}

func TestMatrix_UnknownFailureType_StillClassifies(t *testing.T) {
	m := NewMatrix()
	result := m.Classify("something_random", true, true, AdditionalFactors{})

	assert.Contains(t, []models.Classification{
		models.ClassificationProductBug, models.ClassificationAutomationBug, models.ClassificationInfrastructure,
	}, result.Classification)
}

func TestMatrix_AdditionalFactors_Console500BoostsProduct(t *testing.T) {
	m := NewMatrix()
	result := m.Classify("timeout", true, true, AdditionalFactors{Console500Error: true})

	assert.Greater(t, result.Scores.ProductBug, 0.2)
	assert.NotEmpty(t, result.Adjustments)
}

func TestMatrix_AdditionalFactors_SelectorChangedBoostsAutomation(t *testing.T) {
	m := NewMatrix()
	result := m.Classify("element_not_found", true, true, AdditionalFactors{SelectorRecentlyChanged: true})

	assert.Equal(t, models.ClassificationAutomationBug, result.Classification)
}

func TestMatrix_AdditionalFactors_ConnectionRefusedBoostsInfra(t *testing.T) {
	m := NewMatrix()
	result := m.Classify("element_not_found", true, true, AdditionalFactors{ConsoleConnectionRefused: true})

	assert.Greater(t, result.Scores.Infrastructure, 0.1)
}

func TestMatrix_ReasoningAndEvidencePopulated(t *testing.T) {
	m := NewMatrix()
	result := m.Classify("timeout", true, true, AdditionalFactors{})

	assert.NotEmpty(t, result.Reasoning)
	assert.GreaterOrEqual(t, len(result.Evidence), 3)
}

func TestMatrix_GetMatrixEntry_ServerError(t *testing.T) {
	m := NewMatrix()
	product, automation, infra := m.GetMatrixEntry("server_error", true, true)

	assert.Equal(t, 0.90, product)
	assert.Equal(t, 0.05, automation)
	assert.Equal(t, 0.05, infra)
}

func TestNormalizeFailureType_CaseAndSpaceInsensitive(t *testing.T) {
	assert.Equal(t, FailureServerError, NormalizeFailureType("SERVER_ERROR"))
	assert.Equal(t, FailureElementNotFound, NormalizeFailureType("element not found"))
	assert.Equal(t, FailureUnknown, NormalizeFailureType(""))
	assert.Equal(t, FailureUnknown, NormalizeFailureType("not a real type"))
}
