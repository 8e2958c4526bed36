package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

// docsSearchTool is the MCP tool name for fetching Red Hat product
// documentation related to a component, optional — its absence
// degrades to a jira-only analysis rather than failing the agent.
const docsSearchTool = "docs.search"

// DocumentationAgent is Agent B: Documentation Intelligence. It builds a
// feature operation model and user workflows from Agent A's JIRA
// findings, enriched with external documentation when available.
type DocumentationAgent struct{}

// NewDocumentationAgent constructs Agent B.
func NewDocumentationAgent() *DocumentationAgent { return &DocumentationAgent{} }

func (a *DocumentationAgent) ID() string   { return "agent-b" }
func (a *DocumentationAgent) Name() string { return "Documentation Intelligence" }

type docEntry struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Run builds a documentation analysis from Agent A's jira_info and
// requirement_analysis findings. jiraFindings is Agent A's
// AgentResult.Findings, passed through directly since Phase 2 agents
// consume Phase 1 output (spec §4.1).
func (a *DocumentationAgent) Run(ctx context.Context, ec ExecutionContext, jiraFindings map[string]any) models.AgentResult {
	start := time.Now()
	ec.Publish(a.ID(), "agent_started", nil)

	jiraInfo, _ := jiraFindings["jira_info"].(map[string]any)
	component, _ := jiraInfo["component"].(string)
	title, _ := jiraInfo["title"].(string)

	requirementAnalysis, _ := jiraFindings["requirement_analysis"].(map[string]any)
	requirements := toStringSlice(requirementAnalysis["primary_requirements"])

	var workflows []string
	for _, req := range requirements {
		workflows = append(workflows, "Workflow: "+req)
	}

	var gaps []string
	businessLogic := map[string]any{}
	if component != "" && component != "Unknown" {
		businessLogic["primary_flow"] = fmt.Sprintf("%s initialization -> Configuration -> Execution", component)
		businessLogic["validation_flow"] = fmt.Sprintf("%s state validation", component)
	} else {
		gaps = append(gaps, "Component not identified")
	}

	findings := map[string]any{
		"feature_operation_model": "Feature: " + title,
		"business_logic_map":      businessLogic,
		"user_workflows":          workflows,
		"integration_points":      []string{},
		"edge_cases":              []string{},
		"analysis_gaps":           gaps,
	}

	docsArgs, _ := json.Marshal(map[string]string{"component": component})
	if content, err := callTool(ctx, ec.Tools, docsSearchTool, a.ID()+"-docs", string(docsArgs)); err == nil && content != "" {
		var docs []docEntry
		if json.Unmarshal([]byte(content), &docs) == nil && len(docs) > 0 {
			findings["discovered_documentation"] = docs
			findings["documentation_source"] = "jira_and_external"
		} else {
			findings["documentation_source"] = "jira_only"
		}
	} else {
		findings["documentation_source"] = "jira_only"
	}

	confidence := 0.9
	if len(gaps) > 0 {
		confidence = 0.6
	}

	ec.Publish(a.ID(), "agent_completed", nil)
	return models.AgentResult{
		AgentID: a.ID(), Name: a.Name(), Status: models.StatusSuccess,
		Findings: findings, Confidence: confidence, ExecutionTime: time.Since(start),
	}
}

func toStringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
