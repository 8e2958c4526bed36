package models

import "time"

// RunKind distinguishes the two entry points sharing this core.
type RunKind string

const (
	RunKindGenerate RunKind = "generate"
	RunKindAnalyze  RunKind = "analyze"
)

// RunSummary is the run history store's persisted record (SPEC_FULL §4.9).
type RunSummary struct {
	ID             string
	Kind           RunKind
	Subject        string // JIRA id, or Jenkins job name
	StartedAt      time.Time
	FinishedAt     time.Time
	Success        bool
	Classification Classification // analyzer only; empty for generate runs
	Confidence     float64
	TestCaseCount  int // generator only
	RunDir         string
}
