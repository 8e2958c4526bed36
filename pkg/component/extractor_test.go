package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractor_ExtractFromError_SingleComponent(t *testing.T) {
	e := NewExtractor()
	result := e.ExtractFromError("The search-api service returned a 500 error")
	assert.Equal(t, []string{"search-api"}, result)
}

func TestExtractor_ExtractFromError_MultipleComponents(t *testing.T) {
	e := NewExtractor()
	result := e.ExtractFromError("hive provisioning failed, then hypershift cluster creation timed out")
	assert.Contains(t, result, "hive")
	assert.Contains(t, result, "hypershift")
}

func TestExtractor_ExtractFromError_Dedup(t *testing.T) {
	e := NewExtractor()
	result := e.ExtractFromError("search-api failed. search-api retried. search-api gave up.")
	assert.Equal(t, []string{"search-api"}, result)
}

func TestExtractor_ExtractFromError_CaseInsensitive(t *testing.T) {
	e := NewExtractor()
	result := e.ExtractFromError("SEARCH-API is down")
	assert.Equal(t, []string{"search-api"}, result)
}

func TestExtractor_ExtractFromError_Empty(t *testing.T) {
	e := NewExtractor()
	assert.Empty(t, e.ExtractFromError(""))
}

func TestExtractor_ExtractFromError_NoMatch(t *testing.T) {
	e := NewExtractor()
	assert.Empty(t, e.ExtractFromError("nothing relevant happened here"))
}

func TestExtractor_WholeWordOnly(t *testing.T) {
	e := NewExtractor()
	// "archive" should not match "hive" as a substring.
	result := e.ExtractFromError("the archive process completed")
	assert.Empty(t, result)
}

func TestExtractor_GetSubsystem(t *testing.T) {
	e := NewExtractor()
	assert.Equal(t, "Search", e.GetSubsystem("search-api"))
	assert.Equal(t, "Provisioning", e.GetSubsystem("hive"))
	assert.Equal(t, "Search", e.GetSubsystem("SEARCH-API"))
	assert.Equal(t, "", e.GetSubsystem("not-a-component"))
}

func TestExtractor_ExtractWithContext(t *testing.T) {
	e := NewExtractor()
	text := "before context search-api after context follows here for padding purposes"
	results := e.ExtractWithContext(text, "error_message", 10)

	if assert.Len(t, results, 1) {
		assert.Equal(t, "search-api", results[0].Name)
		assert.Equal(t, "error_message", results[0].Source)
		assert.Contains(t, results[0].Context, "search-api")
	}
}

func TestExtractor_ExtractWithContext_BoundedAtEdges(t *testing.T) {
	e := NewExtractor()
	results := e.ExtractWithContext("hive", "error_message", 50)
	if assert.Len(t, results, 1) {
		assert.Equal(t, "hive", results[0].Context)
	}
}

func TestExtractor_ExtractFromStackTrace(t *testing.T) {
	e := NewExtractor()
	trace := "Error: timeout\n    at thanos-query/handler.go:10\n    at virt-api/server.go:20"
	result := e.ExtractFromStackTrace(trace)
	assert.Contains(t, result, "thanos-query")
	assert.Contains(t, result, "virt-api")
}

func TestExtractor_ExtractFromConsoleLog_ErrorLinesOnly(t *testing.T) {
	e := NewExtractor()
	log := "INFO starting hive controller\nERROR search-api connection refused\nINFO hypershift healthy"
	result := e.ExtractFromConsoleLog(log, true)

	assert.Equal(t, []string{"search-api"}, result)
}

func TestExtractor_ExtractFromConsoleLog_AllLines(t *testing.T) {
	e := NewExtractor()
	log := "INFO starting hive controller\nERROR search-api connection refused"
	result := e.ExtractFromConsoleLog(log, false)

	assert.Contains(t, result, "hive")
	assert.Contains(t, result, "search-api")
}

func TestExtractor_ExtractAllFromTestFailure_DedupAcrossSources(t *testing.T) {
	e := NewExtractor()
	results := e.ExtractAllFromTestFailure(
		"search-api returned an error",
		"at search-api/handler.go:10",
		"ERROR search-api unavailable",
	)

	assert.Len(t, results, 1)
	assert.Equal(t, "error_message", results[0].Source)
}

func TestExtractor_ExtractAllFromTestFailure_MultipleSources(t *testing.T) {
	e := NewExtractor()
	results := e.ExtractAllFromTestFailure(
		"search-api returned an error",
		"at hive/provision.go:5",
		"",
	)

	assert.Len(t, results, 2)
	names := []string{results[0].Name, results[1].Name}
	assert.Contains(t, names, "search-api")
	assert.Contains(t, names, "hive")
}

func TestExtractor_GetComponentList_ExceedsFifty(t *testing.T) {
	e := NewExtractor()
	assert.Greater(t, len(e.GetComponentList()), 50)
}

func TestExtractor_GetComponentsBySubsystem(t *testing.T) {
	e := NewExtractor()
	components := e.GetComponentsBySubsystem("Virtualization")
	assert.Contains(t, components, "virt-api")
	assert.Contains(t, components, "kubevirt-operator")
}

func TestExtractor_GetComponentsBySubsystem_Unknown(t *testing.T) {
	e := NewExtractor()
	assert.Empty(t, e.GetComponentsBySubsystem("NotASubsystem"))
}
