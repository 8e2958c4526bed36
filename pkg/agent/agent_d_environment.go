package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

// environmentAssessTool is the MCP tool name for cluster health
// assessment, analogous to the original's `oc` wrapper calls.
const environmentAssessTool = "environment.assess_cluster"

// EnvironmentAgent is Agent D: Environment Intelligence. It assesses
// cluster health and whether a feature's CRDs are deployed, running in
// parallel with Agent A in Phase 1 (spec §4.1).
type EnvironmentAgent struct{}

// NewEnvironmentAgent constructs Agent D.
func NewEnvironmentAgent() *EnvironmentAgent { return &EnvironmentAgent{} }

func (a *EnvironmentAgent) ID() string   { return "agent-d" }
func (a *EnvironmentAgent) Name() string { return "Environment Intelligence" }

type nodeStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type clusterAssessmentPayload struct {
	Health      string       `json:"health"`
	Nodes       []nodeStatus `json:"nodes"`
	CRDsPresent []string     `json:"crds_present"`
	Errors      []string     `json:"errors"`
	Reachable   bool         `json:"reachable"`
}

// EnvironmentInput is what Agent D needs to target the right cluster
// and feature.
type EnvironmentInput struct {
	TargetCluster string
	ExpectedCRDs  []string
}

// Run assesses the target cluster's health and feature deployment
// status.
func (a *EnvironmentAgent) Run(ctx context.Context, ec ExecutionContext, in EnvironmentInput) models.AgentResult {
	start := time.Now()
	ec.Publish(a.ID(), "agent_started", map[string]any{"target_cluster": in.TargetCluster})

	args, _ := json.Marshal(map[string]any{"target_cluster": in.TargetCluster, "expected_crds": in.ExpectedCRDs})
	content, err := callTool(ctx, ec.Tools, environmentAssessTool, a.ID()+"-assess", string(args))
	if err != nil {
		// An unreachable cluster is still a successful assessment (the
		// environment IS unhealthy) unless the tool call itself failed,
		// in which case the agent has nothing to report.
		ec.Publish(a.ID(), "agent_failed", map[string]any{"error": err.Error()})
		return models.AgentResult{
			AgentID: a.ID(), Name: a.Name(), Status: models.StatusFailed,
			ErrorMessage: err.Error(), ExecutionTime: time.Since(start),
		}
	}

	var assessment clusterAssessmentPayload
	if unmarshalErr := json.Unmarshal([]byte(content), &assessment); unmarshalErr != nil {
		ec.Publish(a.ID(), "agent_partial", map[string]any{"reason": "unparseable assessment payload"})
		return models.AgentResult{
			AgentID: a.ID(), Name: a.Name(), Status: models.StatusPartial,
			ErrorMessage: "could not parse environment assessment: " + unmarshalErr.Error(),
			Confidence:   0.3, ExecutionTime: time.Since(start),
		}
	}

	deploymentStatus := "not_deployed"
	if len(assessment.CRDsPresent) > 0 {
		deploymentStatus = "deployed"
	}

	healthy := assessment.Health == "Healthy" && assessment.Reachable
	confidence := 0.85
	if !assessment.Reachable {
		confidence = 0.95 // unreachability is itself a confident signal
	}

	findings := map[string]any{
		"cluster_health":     assessment.Health,
		"cluster_healthy":    healthy,
		"cluster_reachable":  assessment.Reachable,
		"nodes":              assessment.Nodes,
		"crds_present":       assessment.CRDsPresent,
		"deployment_status":  deploymentStatus,
		"environment_errors": assessment.Errors,
	}

	ec.Publish(a.ID(), "agent_completed", map[string]any{"health": assessment.Health})
	return models.AgentResult{
		AgentID: a.ID(), Name: a.Name(), Status: models.StatusSuccess,
		Findings: findings, Confidence: confidence, ExecutionTime: time.Since(start),
	}
}
