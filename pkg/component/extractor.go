// Package component extracts ACM/OpenShift component names from failure
// signals (error messages, stack traces, console logs) and, optionally,
// enriches them with dependency data from a Neo4j-backed knowledge graph
// MCP server (spec §4.6).
package component

import (
	"regexp"
	"strings"
)

// registry maps every known component name to the subsystem that owns it.
// Extraction only ever reports names present here, so a word that merely
// looks like a component (e.g. "archive" containing "hive") never
// false-positives.
var registry = buildRegistry()

func buildRegistry() map[string]string {
	subsystems := map[string][]string{
		"Search": {
			"search-api", "search-collector", "search-indexer", "search-aggregator",
			"search-v2-operator", "search-postgres",
		},
		"Governance": {
			"grc-policy-propagator", "config-policy-controller", "cert-policy-controller",
			"governance-policy-framework", "kube-rbac-policy-controller", "grc-ui",
		},
		"ClusterManagement": {
			"cluster-curator", "managedcluster-import-controller", "klusterlet",
			"registration-operator", "work-manager", "cluster-permission", "clusterclaims-controller",
		},
		"Provisioning": {
			"hive", "hypershift", "assisted-service", "cluster-image-set-controller",
			"provisioning-operator", "baremetal-operator",
		},
		"Observability": {
			"thanos-query", "thanos-receive", "thanos-compact", "thanos-store",
			"observability-operator", "grafana", "alertmanager", "rbac-query-proxy",
		},
		"Virtualization": {
			"virt-api", "kubevirt-operator", "virt-controller", "virt-handler",
			"cdi-operator", "hostpath-provisioner",
		},
		"Console": {
			"console", "console-operator", "multicloud-console", "console-chrome",
			"dynamic-plugin-sdk", "nav-extension",
		},
		"ApplicationLifecycle": {
			"multicloud-operators-subscription", "application-ui", "app-lifecycle-backend",
			"multicloud-integrations", "argocd-pull-integration", "gitops-operator",
		},
		"Networking": {
			"submariner", "submariner-addon", "multicluster-global-hub", "cluster-proxy-addon",
			"managed-serviceaccount", "addon-framework",
		},
		"Backup": {
			"cluster-backup-operator", "oadp-operator", "velero", "backup-restore-enabled",
		},
	}

	reg := make(map[string]string)
	for subsystem, components := range subsystems {
		for _, c := range components {
			reg[c] = subsystem
		}
	}
	return reg
}

// matcherPattern matches any registered component name as a whole word,
// case-insensitively, ordered longest-first so "search-collector" is
// preferred over a prefix match on "search-api" when both could apply.
var matcherPattern = buildMatcherPattern()

func buildMatcherPattern() *regexp.Regexp {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, regexp.QuoteMeta(name))
	}
	// Longest-first so overlapping names (none currently, but kept safe
	// for future registry growth) match their most specific form.
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if len(names[j]) > len(names[i]) {
				names[i], names[j] = names[j], names[i]
			}
		}
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(names, "|") + `)\b`)
}

// ExtractedComponent is a component name found in a failure artifact,
// together with where it came from and the surrounding text.
type ExtractedComponent struct {
	Name    string
	Source  string
	Context string
}

// Extractor finds component names in failure text and maps them to the
// ACM/OpenShift subsystem that owns them.
type Extractor struct{}

// NewExtractor constructs a component extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFromError returns every distinct component name found in an
// error message, in first-seen order.
func (e *Extractor) ExtractFromError(errorMessage string) []string {
	if errorMessage == "" {
		return nil
	}
	return dedupeMatches(matcherPattern.FindAllString(errorMessage, -1))
}

// ExtractFromStackTrace returns every distinct component name found
// anywhere in a stack trace.
func (e *Extractor) ExtractFromStackTrace(stackTrace string) []string {
	return e.ExtractFromError(stackTrace)
}

// ExtractFromConsoleLog returns every distinct component name found in a
// console log. When errorLinesOnly is true, only lines containing
// "ERROR" are scanned.
func (e *Extractor) ExtractFromConsoleLog(consoleLog string, errorLinesOnly bool) []string {
	if !errorLinesOnly {
		return e.ExtractFromError(consoleLog)
	}

	var matches []string
	for _, line := range strings.Split(consoleLog, "\n") {
		if strings.Contains(line, "ERROR") {
			matches = append(matches, matcherPattern.FindAllString(line, -1)...)
		}
	}
	return dedupeMatches(matches)
}

// GetSubsystem returns the subsystem that owns component, or "" if the
// component is unknown. Lookup is case-insensitive.
func (e *Extractor) GetSubsystem(component string) string {
	return registry[strings.ToLower(component)]
}

// ExtractWithContext behaves like ExtractFromError but returns
// ExtractedComponent values carrying source and a context window around
// each match. contextChars defaults to 50 when 0 is passed.
func (e *Extractor) ExtractWithContext(text, source string, contextChars int) []ExtractedComponent {
	if contextChars <= 0 {
		contextChars = 50
	}
	if text == "" {
		return nil
	}

	locs := matcherPattern.FindAllStringIndex(text, -1)
	seen := make(map[string]bool)
	var results []ExtractedComponent
	for _, loc := range locs {
		name := strings.ToLower(text[loc[0]:loc[1]])
		if seen[name] {
			continue
		}
		seen[name] = true

		start := loc[0] - contextChars
		if start < 0 {
			start = 0
		}
		end := loc[1] + contextChars
		if end > len(text) {
			end = len(text)
		}
		results = append(results, ExtractedComponent{Name: name, Source: source, Context: text[start:end]})
	}
	return results
}

// ExtractAllFromTestFailure pulls components from all three failure
// artifacts in order (error message, stack trace, console log),
// deduplicating across sources and keeping the first source a component
// was found in.
func (e *Extractor) ExtractAllFromTestFailure(errorMessage, stackTrace, consoleSnippet string) []ExtractedComponent {
	seen := make(map[string]bool)
	var results []ExtractedComponent

	for _, src := range []struct {
		text   string
		source string
	}{
		{errorMessage, "error_message"},
		{stackTrace, "stack_trace"},
		{consoleSnippet, "console_log"},
	} {
		for _, found := range e.ExtractWithContext(src.text, src.source, 0) {
			if seen[found.Name] {
				continue
			}
			seen[found.Name] = true
			results = append(results, found)
		}
	}
	return results
}

// GetComponentList returns every known component name.
func (e *Extractor) GetComponentList() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// GetComponentsBySubsystem returns every component name owned by
// subsystem, or nil if the subsystem is unknown.
func (e *Extractor) GetComponentsBySubsystem(subsystem string) []string {
	var names []string
	for name, s := range registry {
		if s == subsystem {
			names = append(names, name)
		}
	}
	return names
}

func dedupeMatches(matches []string) []string {
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var result []string
	for _, m := range matches {
		lower := strings.ToLower(m)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		result = append(result, lower)
	}
	return result
}
