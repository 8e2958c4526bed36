// Package classify implements the three-stage classification pipeline from
// spec §4.4: a decision matrix lookup, a weighted confidence calculation,
// and a cross-reference validation pass that can correct or flag the
// matrix's verdict against corroborating evidence.
package classify

import (
	"strings"

	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

// FailureType is the normalized failure category fed into the decision
// matrix. Unrecognized or empty input normalizes to FailureTypeUnknown.
type FailureType string

const (
	FailureServerError     FailureType = "server_error"
	FailureElementNotFound FailureType = "element_not_found"
	FailureTimeout         FailureType = "timeout"
	FailureNetwork         FailureType = "network"
	FailureAssertion       FailureType = "assertion"
	FailureAuthError       FailureType = "auth_error"
	FailureUnknown         FailureType = "unknown"
)

// AdditionalFactors carries the optional signals the matrix applies as
// adjustments after the base lookup (spec §4.4.1).
type AdditionalFactors struct {
	Console500Error        bool
	SelectorRecentlyChanged bool
	ConsoleConnectionRefused bool
}

// matrixEntry is a (product, automation, infrastructure) score triple.
type matrixEntry struct {
	product, automation, infra float64
}

// matrixKey identifies one row of the decision matrix.
type matrixKey struct {
	failureType   FailureType
	envHealthy    bool
	selectorFound bool
}

// matrixTable holds the literal entries required by spec §4.4.1. Rows not
// present here fall back to a balanced-but-inconclusive default via
// defaultEntry.
var matrixTable = map[matrixKey]matrixEntry{
	{FailureServerError, true, true}:      {0.90, 0.05, 0.05},
	{FailureServerError, true, false}:     {0.90, 0.05, 0.05},
	{FailureServerError, false, true}:     {0.60, 0.05, 0.35},
	{FailureServerError, false, false}:    {0.60, 0.05, 0.35},
	{FailureElementNotFound, true, true}:  {0.20, 0.70, 0.10},
	{FailureElementNotFound, true, false}: {0.70, 0.20, 0.10},
	{FailureElementNotFound, false, true}: {0.15, 0.35, 0.50},
	{FailureElementNotFound, false, false}: {0.40, 0.20, 0.40},
	{FailureTimeout, true, true}:          {0.15, 0.70, 0.15},
	{FailureTimeout, true, false}:         {0.15, 0.70, 0.15},
	{FailureTimeout, false, true}:         {0.10, 0.20, 0.70},
	{FailureTimeout, false, false}:        {0.10, 0.20, 0.70},
	{FailureNetwork, true, true}:          {0.15, 0.25, 0.60},
	{FailureNetwork, true, false}:         {0.15, 0.25, 0.60},
	{FailureNetwork, false, true}:         {0.05, 0.10, 0.85},
	{FailureNetwork, false, false}:        {0.05, 0.10, 0.85},
	{FailureAssertion, true, true}:        {0.65, 0.25, 0.10},
	{FailureAssertion, true, false}:       {0.65, 0.25, 0.10},
	{FailureAssertion, false, true}:       {0.40, 0.20, 0.40},
	{FailureAssertion, false, false}:      {0.40, 0.20, 0.40},
	{FailureAuthError, true, true}:        {0.15, 0.70, 0.15},
	{FailureAuthError, true, false}:       {0.15, 0.70, 0.15},
	{FailureAuthError, false, true}:       {0.15, 0.25, 0.60},
	{FailureAuthError, false, false}:      {0.15, 0.25, 0.60},
}

// defaultEntry backs unknown failure types with a mild product-bug lean,
// matching the source's "reasonable classification" fallback.
var defaultEntry = matrixEntry{0.40, 0.35, 0.25}

// Matrix is the decision matrix described in spec §4.4.1. It is stateless
// and safe for concurrent use.
type Matrix struct{}

// NewMatrix constructs a decision matrix.
func NewMatrix() *Matrix {
	return &Matrix{}
}

// Classify runs the full matrix lookup, applies additional-factor
// adjustments, and returns a complete result including reasoning and
// evidence strings. Confidence here is the matrix's own separation-derived
// estimate; callers that need the full weighted confidence should use
// Calculator.Calculate instead and keep only Scores/Classification from
// this result.
func (m *Matrix) Classify(rawFailureType string, envHealthy, selectorFound bool, factors AdditionalFactors) models.ClassificationResult {
	ft := NormalizeFailureType(rawFailureType)
	entry, ok := matrixTable[matrixKey{ft, envHealthy, selectorFound}]
	if !ok {
		entry = defaultEntry
	}

	product, automation, infra := entry.product, entry.automation, entry.infra
	var adjustments []string

	if factors.Console500Error {
		product += 0.25
		automation -= 0.10
		infra -= 0.15
		adjustments = append(adjustments, "console_500_error: boosted product_bug (+0.25)")
	}
	if factors.SelectorRecentlyChanged {
		automation += 0.25
		product -= 0.15
		infra -= 0.10
		adjustments = append(adjustments, "selector_recently_changed: boosted automation_bug (+0.25)")
	}
	if factors.ConsoleConnectionRefused {
		infra += 0.30
		automation -= 0.15
		product -= 0.15
		adjustments = append(adjustments, "console_connection_refused: boosted infrastructure (+0.30)")
	}

	scores := models.NewClassificationScores(clampNonNegative(product), clampNonNegative(automation), clampNonNegative(infra))

	return models.ClassificationResult{
		Classification: scores.Primary(),
		Confidence:     0.5 + 0.45*scores.Separation(),
		Reasoning:      reasoningFor(ft, envHealthy, selectorFound),
		Evidence:       evidenceFor(ft, envHealthy, selectorFound),
		Adjustments:    adjustments,
		Scores:         scores,
	}
}

// GetMatrixEntry exposes the raw base-row lookup (pre-adjustment,
// pre-normalization), mirroring the source's get_matrix_entry.
func (m *Matrix) GetMatrixEntry(rawFailureType string, envHealthy, selectorFound bool) (product, automation, infra float64) {
	ft := NormalizeFailureType(rawFailureType)
	entry, ok := matrixTable[matrixKey{ft, envHealthy, selectorFound}]
	if !ok {
		entry = defaultEntry
	}
	return entry.product, entry.automation, entry.infra
}

// NormalizeFailureType lowercases, trims, and space-to-underscore
// normalizes the raw failure type string, falling back to
// FailureUnknown for anything unrecognized.
func NormalizeFailureType(raw string) FailureType {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.ReplaceAll(norm, " ", "_")
	switch FailureType(norm) {
	case FailureServerError, FailureElementNotFound, FailureTimeout, FailureNetwork, FailureAssertion, FailureAuthError:
		return FailureType(norm)
	default:
		return FailureUnknown
	}
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func reasoningFor(ft FailureType, envHealthy, selectorFound bool) string {
	switch ft {
	case FailureServerError:
		return "A 500-range server error during a healthy test run points at the backend, not the test automation."
	case FailureElementNotFound:
		if selectorFound {
			return "The selector exists in the application codebase, so the test's locator logic is most likely stale or mistargeted."
		}
		return "The selector does not exist anywhere in the application codebase, so the UI element itself was likely removed or renamed."
	case FailureTimeout:
		if !envHealthy {
			return "The test environment reported unhealthy at the time of the timeout, so slow infrastructure is the likely cause."
		}
		return "The environment reported healthy, so the timeout most likely reflects a flaky wait condition in the test."
	case FailureNetwork:
		return "Network-level failures against an unhealthy environment point at infrastructure, not product or test code."
	case FailureAssertion:
		return "An assertion mismatch in a healthy environment usually reflects a genuine behavioral regression in the product."
	case FailureAuthError:
		if !envHealthy {
			return "The test environment reported unhealthy at the time of the auth failure, so an infrastructure-level identity or token service outage is the likely cause."
		}
		return "Authentication failures in a healthy environment are typically stale test credentials or tokens, not a product defect."
	default:
		return "Insufficient signal to confidently attribute this failure; defaulting to a balanced classification."
	}
}

func evidenceFor(ft FailureType, envHealthy, selectorFound bool) []string {
	evidence := []string{
		"failure_type=" + string(ft),
		envHealthyEvidence(envHealthy),
		selectorEvidence(ft, selectorFound),
	}
	if ft == FailureTimeout {
		evidence = append(evidence, "test step exceeded its configured wait timeout")
	}
	return evidence
}

func envHealthyEvidence(envHealthy bool) string {
	if envHealthy {
		return "environment health check reported healthy"
	}
	return "environment health check reported unhealthy"
}

func selectorEvidence(ft FailureType, selectorFound bool) string {
	if ft != FailureElementNotFound {
		return "selector lookup not applicable to this failure type"
	}
	if selectorFound {
		return "selector found in repository source"
	}
	return "selector not found anywhere in repository source"
}
