package component

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/codeready-toolchain/qe-agentflow/pkg/agent"
)

// knowledgeGraphTool is the MCP tool name exposed by the Neo4j-backed
// dependency graph server (spec §4.6), mirroring the original
// mcp__neo4j-rhacm__read_neo4j_cypher tool.
const knowledgeGraphTool = "neo4j-rhacm.read_neo4j_cypher"

// ComponentInfo is the dependency metadata the knowledge graph holds for
// a single component.
type ComponentInfo struct {
	Name          string
	Subsystem     string
	ComponentType string
	Dependencies  []string
	Dependents    []string
}

// DependencyChain describes the blast radius of a failing component: the
// set of other components that transitively depend on it.
type DependencyChain struct {
	SourceComponent    string
	AffectedComponents []string
	ChainLength        int
	SubsystemsAffected []string
}

// KnowledgeGraphClient queries the Neo4j dependency graph MCP server for
// component relationships. Every method degrades to an empty,
// structurally valid result when the graph is unavailable rather than
// returning an error, since the knowledge graph is an optional
// enrichment, not a hard dependency, for failure classification.
type KnowledgeGraphClient struct {
	tools agent.ToolExecutor
	ext   *Extractor

	mu        sync.Mutex
	available *bool
}

// NewKnowledgeGraphClient constructs a client over an MCP tool executor.
// tools may be nil, in which case the graph is always unavailable.
func NewKnowledgeGraphClient(tools agent.ToolExecutor) *KnowledgeGraphClient {
	return &KnowledgeGraphClient{tools: tools, ext: NewExtractor()}
}

// Available reports whether the knowledge graph server is reachable,
// caching the result after the first check so repeated calls don't
// re-probe the server.
func (c *KnowledgeGraphClient) Available(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.available != nil {
		return *c.available
	}

	ok := c.probe(ctx)
	c.available = &ok
	return ok
}

// ClearCache forgets the cached availability result and any query
// results, forcing the next call to re-probe the server.
func (c *KnowledgeGraphClient) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.available = nil
}

func (c *KnowledgeGraphClient) probe(ctx context.Context) bool {
	if c.tools == nil {
		return false
	}
	_, err := c.query(ctx, "RETURN 1 AS ok")
	return err == nil
}

// query executes a read-only cypher query against the knowledge graph
// and returns the rows of the JSON result, or an error if the server is
// absent or the query failed.
func (c *KnowledgeGraphClient) query(ctx context.Context, cypher string) ([]map[string]any, error) {
	if c.tools == nil {
		return nil, fmt.Errorf("component: no knowledge graph tool executor configured")
	}

	args, err := json.Marshal(map[string]string{"query": cypher})
	if err != nil {
		return nil, err
	}

	result, err := c.tools.Execute(ctx, agent.ToolCall{
		ID:        "kg-query",
		Name:      knowledgeGraphTool,
		Arguments: string(args),
	})
	if err != nil {
		return nil, err
	}
	if result.IsError {
		return nil, fmt.Errorf("component: knowledge graph query failed: %s", result.Content)
	}

	var rows []map[string]any
	if err := json.Unmarshal([]byte(result.Content), &rows); err != nil {
		return nil, fmt.Errorf("component: could not parse knowledge graph response: %w", err)
	}
	return rows, nil
}

// GetDependencies returns the components that name directly depends on.
// Returns an empty slice (never nil-with-error) when the graph is
// unavailable.
func (c *KnowledgeGraphClient) GetDependencies(ctx context.Context, name string) []string {
	if !c.Available(ctx) {
		return []string{}
	}

	rows, err := c.query(ctx, fmt.Sprintf(
		"MATCH (c:Component {name: %q})-[:DEPENDS_ON]->(d:Component) RETURN d.name AS name", name))
	if err != nil {
		return []string{}
	}
	return namesFromRows(rows, "name")
}

// GetDependents returns the components that directly depend on name.
func (c *KnowledgeGraphClient) GetDependents(ctx context.Context, name string) []string {
	if !c.Available(ctx) {
		return []string{}
	}

	rows, err := c.query(ctx, fmt.Sprintf(
		"MATCH (c:Component {name: %q})<-[:DEPENDS_ON]-(d:Component) RETURN d.name AS name", name))
	if err != nil {
		return []string{}
	}
	return namesFromRows(rows, "name")
}

// GetTransitiveDependents returns every component that depends on name,
// directly or through a chain of other components, up to maxDepth hops.
func (c *KnowledgeGraphClient) GetTransitiveDependents(ctx context.Context, name string, maxDepth int) []string {
	if !c.Available(ctx) {
		return []string{}
	}
	if maxDepth <= 0 {
		maxDepth = 5
	}

	rows, err := c.query(ctx, fmt.Sprintf(
		"MATCH (c:Component {name: %q})<-[:DEPENDS_ON*1..%d]-(d:Component) RETURN DISTINCT d.name AS name",
		name, maxDepth))
	if err != nil {
		return []string{}
	}
	return namesFromRows(rows, "name")
}

// GetComponentInfo returns dependency metadata for name, combined with
// the local registry's subsystem classification. Returns nil if the
// graph is unavailable or the component is unknown to both the graph
// and the registry.
func (c *KnowledgeGraphClient) GetComponentInfo(ctx context.Context, name string) *ComponentInfo {
	subsystem := c.ext.GetSubsystem(name)

	if !c.Available(ctx) {
		if subsystem == "" {
			return nil
		}
		return &ComponentInfo{Name: name, Subsystem: subsystem}
	}

	rows, err := c.query(ctx, fmt.Sprintf(
		"MATCH (c:Component {name: %q}) RETURN c.type AS type", name))
	if err != nil || len(rows) == 0 {
		if subsystem == "" {
			return nil
		}
		return &ComponentInfo{Name: name, Subsystem: subsystem}
	}

	componentType, _ := rows[0]["type"].(string)
	return &ComponentInfo{
		Name:          name,
		Subsystem:     subsystem,
		ComponentType: componentType,
		Dependencies:  c.GetDependencies(ctx, name),
		Dependents:    c.GetDependents(ctx, name),
	}
}

// FindCommonDependency returns a component that every name in names
// depends on, if one exists, or "" otherwise.
func (c *KnowledgeGraphClient) FindCommonDependency(ctx context.Context, names []string) string {
	if !c.Available(ctx) || len(names) == 0 {
		return ""
	}

	counts := make(map[string]int)
	for _, name := range names {
		for _, dep := range c.GetDependencies(ctx, name) {
			counts[dep]++
		}
	}
	for dep, count := range counts {
		if count == len(names) {
			return dep
		}
	}
	return ""
}

// GetSubsystemComponents returns every registered component in
// subsystem, falling back to the local registry alone when the graph is
// unavailable.
func (c *KnowledgeGraphClient) GetSubsystemComponents(ctx context.Context, subsystem string) []string {
	return c.ext.GetComponentsBySubsystem(subsystem)
}

// AnalyzeFailureImpact builds the dependency chain of components
// affected by a failure in component name, summarizing which
// subsystems are touched.
func (c *KnowledgeGraphClient) AnalyzeFailureImpact(ctx context.Context, name string) DependencyChain {
	affected := c.GetTransitiveDependents(ctx, name, 5)

	subsystemSet := make(map[string]bool)
	if s := c.ext.GetSubsystem(name); s != "" {
		subsystemSet[s] = true
	}
	for _, dep := range affected {
		if s := c.ext.GetSubsystem(dep); s != "" {
			subsystemSet[s] = true
		}
	}

	subsystems := make([]string, 0, len(subsystemSet))
	for s := range subsystemSet {
		subsystems = append(subsystems, s)
	}

	return DependencyChain{
		SourceComponent:    name,
		AffectedComponents: affected,
		ChainLength:        len(affected),
		SubsystemsAffected: subsystems,
	}
}

func namesFromRows(rows []map[string]any, key string) []string {
	var names []string
	for _, row := range rows {
		if v, ok := row[key].(string); ok && strings.TrimSpace(v) != "" {
			names = append(names, v)
		}
	}
	if names == nil {
		return []string{}
	}
	return names
}
