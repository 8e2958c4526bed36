package models

import "time"

// AgentIntelligencePackage is Phase 2.5's per-agent output wrapper. The
// detailed analysis content MUST equal the source agent's emitted content
// verbatim — no truncation between the source agent and Phase 3's input
// (spec §3, §4.7 invariant).
type AgentIntelligencePackage struct {
	AgentID             string
	AgentName           string
	Status              ExecutionStatus
	FindingsSummary     map[string]any
	DetailedAnalysisRef string // path to the detailed artifact, if any
	DetailedContent     string // verbatim detailed content
	Confidence          float64
	ExecutionTime       time.Duration
}

// QEIntelligencePackage summarizes QE-specific findings produced during
// Phase 2.5 (test patterns, coverage gaps, automation insights).
type QEIntelligencePackage struct {
	ServiceName        string
	Status              ExecutionStatus
	TestPatterns       []string
	CoverageGaps       []string
	AutomationInsights []string
	Confidence         float64
}

// StagingBundle is the single input handed from Phase 2.5 to Phase 3.
type StagingBundle struct {
	RunID                    string
	Packages                 []AgentIntelligencePackage
	QEIntelligence           *QEIntelligencePackage
	DataPreservationVerified bool
}

// Verify sets DataPreservationVerified: true only if every package whose
// source agent succeeded carries non-empty detailed content.
func (b *StagingBundle) Verify() {
	for _, p := range b.Packages {
		if p.Status == StatusSuccess && p.DetailedContent == "" {
			b.DataPreservationVerified = false
			return
		}
	}
	b.DataPreservationVerified = true
}
