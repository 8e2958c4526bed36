// Package stage implements Phase 2.5 Data-Flow Staging (spec §4.7): it
// collects every agent's result from Phase 1 and Phase 2, wraps each as
// an AgentIntelligencePackage whose detailed content is preserved
// verbatim, and produces the single staging bundle handed to Phase 3.
package stage

import (
	"encoding/json"
	"os"

	"github.com/codeready-toolchain/qe-agentflow/pkg/errs"
	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

// Builder assembles a StagingBundle from raw agent results.
type Builder struct {
	// readFile reads a detailed-analysis artifact from disk. Overridable
	// for tests; defaults to os.ReadFile.
	readFile func(path string) ([]byte, error)
}

// NewBuilder constructs a staging builder backed by the real filesystem.
func NewBuilder() *Builder {
	return &Builder{readFile: os.ReadFile}
}

// Build wraps every Phase 1 and Phase 2 agent result into an
// AgentIntelligencePackage, attaches the QE intelligence package (if
// any), and verifies data preservation. Returns an IntegrityError if an
// OutputFile named by a successful agent cannot be read — the
// byte-for-byte preservation invariant cannot be honored without it.
func (b *Builder) Build(runID string, phase1, phase2 []models.AgentResult, qe *models.QEIntelligencePackage) (models.StagingBundle, error) {
	bundle := models.StagingBundle{RunID: runID, QEIntelligence: qe}

	for _, result := range phase1 {
		pkg, err := b.wrap(result)
		if err != nil {
			return bundle, err
		}
		bundle.Packages = append(bundle.Packages, pkg)
	}
	for _, result := range phase2 {
		pkg, err := b.wrap(result)
		if err != nil {
			return bundle, err
		}
		bundle.Packages = append(bundle.Packages, pkg)
	}

	bundle.Verify()
	if !bundle.DataPreservationVerified {
		return bundle, errs.NewIntegrityError("staging", "one or more successful agents produced no detailed content")
	}
	return bundle, nil
}

// wrap converts one AgentResult into its AgentIntelligencePackage,
// reading the detailed-analysis file verbatim when present. When no
// output file exists, the agent's structured findings are preserved
// field-for-field via a deterministic JSON encoding, satisfying the
// "or field-for-field for structured trees" half of the preservation
// invariant.
func (b *Builder) wrap(result models.AgentResult) (models.AgentIntelligencePackage, error) {
	content := ""

	if result.OutputFile != "" {
		data, err := b.readFile(result.OutputFile)
		switch {
		case err == nil:
			content = string(data)
		case result.Status == models.StatusSuccess:
			return models.AgentIntelligencePackage{}, errs.NewIntegrityError(result.AgentID, "could not read detailed analysis file: "+err.Error())
		}
	}

	if content == "" && len(result.Findings) > 0 {
		encoded, err := json.Marshal(result.Findings)
		if err == nil {
			content = string(encoded)
		}
	}

	return models.AgentIntelligencePackage{
		AgentID:             result.AgentID,
		AgentName:           result.Name,
		Status:              result.Status,
		FindingsSummary:     result.Findings,
		DetailedAnalysisRef: result.OutputFile,
		DetailedContent:     content,
		Confidence:          result.Confidence,
		ExecutionTime:       result.ExecutionTime,
	}, nil
}
