// Package report renders the generator's Test-Cases.md/Complete-Analysis.md
// and the analyzer's report.md from structured phase output (SPEC_FULL
// §4.10), using github.com/jedib0t/go-pretty/v6/table's Markdown writer.
package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/codeready-toolchain/qe-agentflow/pkg/mcp"
	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

// RenderTestCases produces the normative Test-Cases.md document (spec §6):
// a `# Test Cases for <jira_id>` header followed by one `## TC-NNN: <Title>`
// section per test case, each with an exact 5-column procedure table.
func RenderTestCases(jiraID string, cases []models.TestCase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Test Cases for %s\n\n", jiraID)

	for _, tc := range cases {
		fmt.Fprintf(&b, "## TC-%03d: %s\n\n", tc.Number, MaskPlaceholders(tc.Title))
		b.WriteString(renderStepsTable(tc.Steps))
		b.WriteString("\n")
	}
	return b.String()
}

func renderStepsTable(steps []models.TestStep) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Step", "Action", "UI Method", "CLI Method", "Expected Result"})
	for _, s := range steps {
		t.AppendRow(table.Row{
			s.Step,
			escapePipe(MaskPlaceholders(s.Action)),
			escapePipe(MaskPlaceholders(s.UIMethod)),
			escapePipe(MaskPlaceholders(s.CLIMethod)),
			escapePipe(MaskPlaceholders(s.ExpectedResult)),
		})
	}
	return t.RenderMarkdown() + "\n"
}

// RenderCompleteAnalysis produces Complete-Analysis.md: the Phase 3
// synthesis notes plus a per-agent findings summary table, drawn from the
// Phase 2.5 staging bundle.
func RenderCompleteAnalysis(jiraID string, notes []string, bundle models.StagingBundle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Complete Analysis for %s\n\n", jiraID)

	b.WriteString("## Summary\n\n")
	for _, note := range notes {
		fmt.Fprintf(&b, "- %s\n", MaskPlaceholders(mcp.TruncateForSummarization(note)))
	}
	b.WriteString("\n")

	b.WriteString("## Agent Findings\n\n")
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Agent", "Status", "Confidence"})
	for _, pkg := range bundle.Packages {
		t.AppendRow(table.Row{pkg.AgentName, string(pkg.Status), fmt.Sprintf("%.2f", pkg.Confidence)})
	}
	b.WriteString(t.RenderMarkdown())
	b.WriteString("\n")

	if bundle.QEIntelligence != nil {
		b.WriteString("\n## QE Intelligence\n\n")
		for _, gap := range bundle.QEIntelligence.CoverageGaps {
			fmt.Fprintf(&b, "- Gap: %s\n", MaskPlaceholders(mcp.TruncateForSummarization(gap)))
		}
		for _, insight := range bundle.QEIntelligence.AutomationInsights {
			fmt.Fprintf(&b, "- Insight: %s\n", MaskPlaceholders(mcp.TruncateForSummarization(insight)))
		}
	}

	return b.String()
}

// RenderAnalysisReport produces the analyzer's report.md: one section per
// classified test failure, plus a summary table of classification counts.
func RenderAnalysisReport(jenkinsURL string, buildNumber int, pkg models.AggregatedEvidencePackage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Pipeline Failure Analysis\n\n")
	fmt.Fprintf(&b, "Jenkins build: %s #%d\n\n", MaskPlaceholders(jenkinsURL), buildNumber)

	b.WriteString("## Classification Summary\n\n")
	summary := table.NewWriter()
	summary.AppendHeader(table.Row{"Classification", "Count"})
	for _, c := range []models.Classification{
		models.ClassificationProductBug, models.ClassificationAutomationBug, models.ClassificationInfrastructure,
	} {
		summary.AppendRow(table.Row{string(c), pkg.ClassificationCounts[c]})
	}
	b.WriteString(summary.RenderMarkdown())
	b.WriteString("\n\n")

	for _, test := range pkg.Tests {
		fmt.Fprintf(&b, "## %s\n\n", MaskPlaceholders(test.Failure.TestName))
		fmt.Fprintf(&b, "- Category: %s\n", test.Failure.Category)
		fmt.Fprintf(&b, "- Classification: %s (%s confidence, %.2f)\n",
			test.Classification.Classification, test.Confidence.Level, test.Confidence.FinalConfidence)
		fmt.Fprintf(&b, "- Reasoning: %s\n", MaskPlaceholders(test.Classification.Reasoning))
		if test.Failure.ErrorMessage != "" {
			fmt.Fprintf(&b, "- Error: %s\n", escapePipe(MaskPlaceholders(test.Failure.ErrorMessage)))
		}
		b.WriteString("\n")
	}
	return b.String()
}
