package servers

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// EnvironmentAdapter assesses a target OpenShift/Kubernetes cluster via
// the `oc` CLI (falling back to `kubectl` if `oc` isn't on PATH), the
// fallback path when no environment MCP server is configured.
type EnvironmentAdapter struct {
	binary string // resolved lazily, "" until first Call
}

// NewEnvironmentAdapter builds an adapter that resolves its CLI binary on
// first use.
func NewEnvironmentAdapter() *EnvironmentAdapter {
	return &EnvironmentAdapter{}
}

type nodeStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type clusterAssessment struct {
	Health      string       `json:"health"`
	Reachable   bool         `json:"reachable"`
	Nodes       []nodeStatus `json:"nodes"`
	CRDsPresent []string     `json:"crds_present"`
	Errors      []string     `json:"errors"`
}

// Call dispatches assess_cluster.
func (e *EnvironmentAdapter) Call(ctx context.Context, operation string, args map[string]any) (string, error) {
	if operation != "assess_cluster" {
		return "", fmt.Errorf("environment adapter: unknown operation %q", operation)
	}
	expectedCRDs, _ := args["expected_crds"].([]string)

	bin := e.resolveBinary(ctx)
	if bin == "" {
		payload := clusterAssessment{Health: "Unknown", Reachable: false, Errors: []string{"no oc or kubectl binary found on PATH"}}
		out, _ := json.Marshal(payload)
		return string(out), nil
	}

	nodes, nodeErr := e.listNodes(ctx, bin)
	crds, crdErr := e.presentCRDs(ctx, bin, expectedCRDs)

	var errs []string
	reachable := true
	if nodeErr != nil {
		reachable = false
		errs = append(errs, nodeErr.Error())
	}
	if crdErr != nil {
		errs = append(errs, crdErr.Error())
	}

	health := "Healthy"
	for _, n := range nodes {
		if n.Status != "Ready" {
			health = "Unhealthy"
		}
	}
	if !reachable {
		health = "Unknown"
	}

	payload := clusterAssessment{Health: health, Reachable: reachable, Nodes: nodes, CRDsPresent: crds, Errors: errs}
	out, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("environment adapter: marshal payload: %w", err)
	}
	return string(out), nil
}

func (e *EnvironmentAdapter) resolveBinary(ctx context.Context) string {
	if e.binary != "" {
		return e.binary
	}
	for _, candidate := range []string{"oc", "kubectl"} {
		if _, err := exec.LookPath(candidate); err == nil {
			e.binary = candidate
			return candidate
		}
	}
	return ""
}

func (e *EnvironmentAdapter) listNodes(ctx context.Context, bin string) ([]nodeStatus, error) {
	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	out, err := exec.CommandContext(cctx, bin, "get", "nodes", "-o",
		`jsonpath={range .items[*]}{.metadata.name}{" "}{.status.conditions[?(@.type=="Ready")].status}{"\n"}{end}`).Output()
	if err != nil {
		return nil, fmt.Errorf("%s get nodes failed: %w", bin, err)
	}

	var nodes []nodeStatus
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		status := "NotReady"
		if fields[1] == "True" {
			status = "Ready"
		}
		nodes = append(nodes, nodeStatus{Name: fields[0], Status: status})
	}
	return nodes, nil
}

func (e *EnvironmentAdapter) presentCRDs(ctx context.Context, bin string, expected []string) ([]string, error) {
	if len(expected) == 0 {
		return nil, nil
	}
	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	out, err := exec.CommandContext(cctx, bin, "get", "crds", "-o", "jsonpath={.items[*].metadata.name}").Output()
	if err != nil {
		return nil, fmt.Errorf("%s get crds failed: %w", bin, err)
	}

	present := make(map[string]bool)
	for _, name := range strings.Fields(string(out)) {
		present[name] = true
	}
	var found []string
	for _, crd := range expected {
		if present[crd] {
			found = append(found, crd)
		}
	}
	return found, nil
}
