package agent

import (
	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

// QEAgent produces the QE Intelligence package during Phase 2.5 (spec
// §4.7): test patterns, coverage gaps, and automation insights drawn
// from Agent C's PR analysis and Agent B's documented workflows, run
// after Phase 1 and Phase 2 complete rather than alongside them.
type QEAgent struct{}

// NewQEAgent constructs the QE intelligence agent.
func NewQEAgent() *QEAgent { return &QEAgent{} }

func (a *QEAgent) ID() string   { return "agent-qe" }
func (a *QEAgent) Name() string { return "QE Intelligence" }

// Run derives test patterns and coverage gaps from Agent B's user
// workflows and Agent C's PR test-coverage signal.
func (a *QEAgent) Run(ec ExecutionContext, serviceName string, docFindings, githubFindings map[string]any) models.QEIntelligencePackage {
	ec.Publish(a.ID(), "agent_started", map[string]any{"service": serviceName})

	workflows := toStringSlice(docFindings["user_workflows"])

	var patterns []string
	for _, w := range workflows {
		patterns = append(patterns, "e2e: "+w)
	}

	var gaps []string
	hasTests, _ := githubFindings["has_tests"].(bool)
	if !hasTests {
		gaps = append(gaps, "no automated tests found in the implementing PR")
	}
	if len(workflows) == 0 {
		gaps = append(gaps, "no documented user workflows to derive test cases from")
	}

	var insights []string
	if impact, ok := githubFindings["change_impact"].(string); ok && impact == "high" {
		insights = append(insights, "high-impact change: prioritize regression coverage across affected components")
	}
	if sensitive, ok := githubFindings["is_security_sensitive"].(bool); ok && sensitive {
		insights = append(insights, "security-sensitive change: include negative/authorization test cases")
	}

	confidence := 0.8
	if len(gaps) > 0 {
		confidence = 0.55
	}

	status := models.StatusSuccess
	if len(patterns) == 0 {
		status = models.StatusPartial
	}

	ec.Publish(a.ID(), "agent_completed", map[string]any{"patterns": len(patterns)})
	return models.QEIntelligencePackage{
		ServiceName:        serviceName,
		Status:             status,
		TestPatterns:       patterns,
		CoverageGaps:       gaps,
		AutomationInsights: insights,
		Confidence:         confidence,
	}
}
