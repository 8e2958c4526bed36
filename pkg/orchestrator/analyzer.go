package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/codeready-toolchain/qe-agentflow/pkg/agent"
	"github.com/codeready-toolchain/qe-agentflow/pkg/cleanup"
	"github.com/codeready-toolchain/qe-agentflow/pkg/evidence"
	"github.com/codeready-toolchain/qe-agentflow/pkg/mcp"
	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

// AnalyzerDeps are the collaborators an Analyzer needs. Tools is expected
// to resolve the jenkins.* tool family (real MCP server or
// pkg/mcp/servers.FallbackExecutor).
type AnalyzerDeps struct {
	Tools   agent.ToolExecutor
	Cleanup *cleanup.Service
	Builder *evidence.Builder
	Clock   func() time.Time
}

// Analyzer implements the Jenkins-pipeline-failure-analysis half of the
// system: fetch a build's test report and console log via MCP, turn every
// failed test into evidence, classify it, and roll the run up into an
// AggregatedEvidencePackage.
type Analyzer struct {
	deps AnalyzerDeps
}

func NewAnalyzer(deps AnalyzerDeps) *Analyzer {
	if deps.Builder == nil {
		deps.Builder = evidence.NewBuilder()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Analyzer{deps: deps}
}

// BuildRef identifies a single Jenkins build to analyze, as parsed from a
// build URL by ParseBuildURL. BaseURL is carried only for display in the
// resulting evidence package — the actual Jenkins API call always goes
// through the configured adapter's own base URL and credentials, mirroring
// jenkins_mcp_client.py's split between "URL the user pasted" (job path and
// build number only) and "URL the MCP server config names" (where to call).
type BuildRef struct {
	BaseURL     string
	JobPath     string
	BuildNumber string
}

var jobSegmentPattern = regexp.MustCompile(`/job/([^/]+)`)

// ParseBuildURL extracts a BuildRef from a Jenkins build URL such as
// "https://jenkins.example.com/job/foo/job/bar/123/".
func ParseBuildURL(raw string) (BuildRef, error) {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "/")

	idx := strings.Index(raw, "/job/")
	if idx < 0 {
		return BuildRef{}, fmt.Errorf("analyzer: %q does not look like a Jenkins job URL (no /job/ segment)", raw)
	}
	base := raw[:idx]
	rest := raw[idx:]

	segments := jobSegmentPattern.FindAllStringSubmatch(rest, -1)
	if len(segments) == 0 {
		return BuildRef{}, fmt.Errorf("analyzer: %q has no job name segments", raw)
	}

	names := make([]string, 0, len(segments))
	for _, seg := range segments {
		names = append(names, seg[1])
	}

	lastSlash := strings.LastIndex(rest, "/")
	buildNumber := rest[lastSlash+1:]
	if _, err := strconv.Atoi(buildNumber); err != nil {
		return BuildRef{}, fmt.Errorf("analyzer: %q does not end in a numeric build number", raw)
	}

	return BuildRef{BaseURL: base, JobPath: strings.Join(names, "/job/"), BuildNumber: buildNumber}, nil
}

// Input configures one analysis run.
type Input struct {
	RunID      string
	JenkinsURL string
	RunDir     string
}

func (a *Analyzer) Run(ctx context.Context, in Input) models.AnalysisResult {
	start := a.deps.Clock()
	logger := slog.With("run_id", in.RunID, "jenkins_url", in.JenkinsURL)
	logger.Info("analyzer run starting")

	result := models.AnalysisResult{RunID: in.RunID, JenkinsURL: in.JenkinsURL, RunDir: in.RunDir}

	if a.deps.Cleanup != nil {
		if _, err := a.deps.Cleanup.RunPhase0(ctx); err != nil {
			logger.Warn("phase 0 cleanup failed, continuing", "error", err)
		}
	}

	ref, err := ParseBuildURL(in.JenkinsURL)
	if err != nil {
		result.ErrorMessage = err.Error()
		result.ExecutionTime = a.deps.Clock().Sub(start)
		logger.Error("analyzer run failed to parse build URL", "error", err)
		return result
	}
	buildNumber, _ := strconv.Atoi(ref.BuildNumber)
	result.BuildNumber = buildNumber

	console, err := a.callJenkins(ctx, "jenkins.get_console", ref)
	if err != nil {
		logger.Warn("console fetch failed, continuing without console evidence", "error", err)
		console = ""
	}
	console = mcp.TruncateForStorage(console)

	testReportRaw, err := a.callJenkins(ctx, "jenkins.get_test_report", ref)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("fetching test report: %v", err)
		result.ExecutionTime = a.deps.Clock().Sub(start)
		logger.Error("analyzer run failed to fetch test report", "error", err)
		return result
	}

	failed, err := parseFailedTests(testReportRaw)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("parsing test report: %v", err)
		result.ExecutionTime = a.deps.Clock().Sub(start)
		logger.Error("analyzer run failed to parse test report", "error", err)
		return result
	}

	env := evidence.NewDefaultEnvironmentInput()
	repo := evidence.RepositoryInput{}
	consoleInput := evidence.ConsoleInput{KeyErrors: extractKeyErrorLines(console)}

	result.Evidence = a.deps.Builder.BuildPackage(ref.BaseURL+"/job/"+ref.JobPath, buildNumber, failed, env, repo, consoleInput)
	result.Success = true

	if a.deps.Cleanup != nil && in.RunDir != "" {
		if report, err := a.deps.Cleanup.RunPhase5(ctx, in.RunDir); err != nil {
			logger.Warn("phase 5 cleanup failed", "error", err)
		} else if !report.ValidationPassed {
			logger.Warn("phase 5 cleanup did not preserve all essential files")
		}
	}

	result.ExecutionTime = a.deps.Clock().Sub(start)
	logger.Info("analyzer run complete", "tests_analyzed", result.Evidence.TotalTests)
	return result
}

var errNoToolExecutor = fmt.Errorf("analyzer: no tool executor configured")

func (a *Analyzer) callJenkins(ctx context.Context, tool string, ref BuildRef) (string, error) {
	if a.deps.Tools == nil {
		return "", errNoToolExecutor
	}
	args, err := json.Marshal(map[string]any{
		"base_url":     ref.BaseURL,
		"job_path":     ref.JobPath,
		"build_number": ref.BuildNumber,
	})
	if err != nil {
		return "", err
	}
	result, err := a.deps.Tools.Execute(ctx, agent.ToolCall{ID: tool, Name: tool, Arguments: string(args)})
	if err != nil {
		return "", err
	}
	if result.IsError {
		return "", fmt.Errorf("%s: %s", tool, result.Content)
	}
	return result.Content, nil
}

type jenkinsTestCase struct {
	ClassName       string `json:"className"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	ErrorDetails    string `json:"errorDetails"`
	ErrorStackTrace string `json:"errorStackTrace"`
}

type jenkinsTestSuite struct {
	Cases []jenkinsTestCase `json:"cases"`
}

type jenkinsTestReport struct {
	Suites []jenkinsTestSuite `json:"suites"`
}

// parseFailedTests decodes a Jenkins testReport/api/json payload and
// returns every case whose status indicates a failure.
func parseFailedTests(raw string) ([]evidence.TestFailureInput, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var report jenkinsTestReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("decode test report: %w", err)
	}

	var failed []evidence.TestFailureInput
	for _, suite := range report.Suites {
		for _, tc := range suite.Cases {
			if tc.Status != "FAILED" && tc.Status != "REGRESSION" {
				continue
			}
			name := tc.Name
			if tc.ClassName != "" {
				name = tc.ClassName + "." + tc.Name
			}
			failed = append(failed, evidence.TestFailureInput{
				TestName:     name,
				ErrorMessage: tc.ErrorDetails,
				ErrorType:    tc.Status,
				StackTrace:   tc.ErrorStackTrace,
			})
		}
	}
	return failed, nil
}

// extractKeyErrorLines scans a console log (already bounded in size by
// mcp.TruncateForStorage) for lines likely to carry classification
// signal, capped at 50 lines so a verbose log doesn't drown the evidence
// package in noise.
func extractKeyErrorLines(console string) []string {
	if console == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(console, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "error") || strings.Contains(lower, "refused") || strings.Contains(lower, "500") {
			lines = append(lines, strings.TrimSpace(line))
			if len(lines) >= 50 {
				break
			}
		}
	}
	return lines
}
