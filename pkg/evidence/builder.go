package evidence

import (
	"strings"

	"github.com/codeready-toolchain/qe-agentflow/pkg/classify"
	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

// EnvironmentInput is the raw environment-health data an agent gathered
// before evidence assembly. Callers that couldn't run an environment
// check should use NewDefaultEnvironmentInput rather than the zero value,
// since an unchecked environment is assumed healthy (spec §4.5), not
// unhealthy.
type EnvironmentInput struct {
	Healthy           bool
	Accessible        bool
	APIAccessible     bool
	TargetClusterUsed string
}

// NewDefaultEnvironmentInput returns the assumed-healthy default used when
// no environment check ran.
func NewDefaultEnvironmentInput() EnvironmentInput {
	return EnvironmentInput{Healthy: true, Accessible: true, APIAccessible: true}
}

// SelectorHistoryEntry is the most recent git change touching a selector's
// file, if the selector was found and blame/log was run against it.
type SelectorHistoryEntry struct {
	Date    string
	SHA     string
	Message string
	DaysAgo int
}

// RepositoryInput is the raw repository-analysis data gathered for a test
// failure: whether the clone succeeded, the selector(s) the failure
// implicates, and any git history found for them.
type RepositoryInput struct {
	Cloned          bool
	Branch          string
	SelectorLookup  map[string][]string // selector -> file paths it was found in
	SelectorHistory map[string]SelectorHistoryEntry
}

// ConsoleInput is the raw console/log data gathered for a test failure.
type ConsoleInput struct {
	KeyErrors []string
}

// recentlyChangedThresholdDays is how recent a selector's last git change
// must be to count as "recently changed" for classification purposes.
const recentlyChangedThresholdDays = 14

// Builder assembles per-test and per-run evidence packages, running the
// classification pipeline (pkg/classify) internally so every package it
// returns already carries its final classification and confidence.
type Builder struct {
	stackParser *StackTraceParser
	matrix      *classify.Matrix
	calculator  *classify.Calculator
	validator   *classify.Validator
}

// NewBuilder constructs an evidence package builder.
func NewBuilder() *Builder {
	return &Builder{
		stackParser: NewStackTraceParser(),
		matrix:      classify.NewMatrix(),
		calculator:  classify.NewCalculator(),
		validator:   classify.NewValidator(),
	}
}

// TestFailureInput is one failed test's raw signals, as gathered by the
// QE intelligence and Jenkins investigation agents.
type TestFailureInput struct {
	TestName     string
	ErrorMessage string
	ErrorType    string
	StackTrace   string
}

// BuildForTest assembles a complete evidence package for a single test
// failure, running failure categorization, selector/repository analysis,
// and the full classify pipeline (matrix, confidence, cross-validation).
func (b *Builder) BuildForTest(
	testName, errorMessage, errorType, stackTrace string,
	env EnvironmentInput,
	repo RepositoryInput,
	console ConsoleInput,
) models.TestFailureEvidencePackage {
	category := determineFailureCategory(errorMessage, errorType)
	parsed := b.stackParser.Parse(stackTrace)

	rootCauseFile, rootCauseLine := "", 0
	if parsed.RootCauseFrame != nil {
		rootCauseFile = parsed.RootCauseFrame.FilePath
		rootCauseLine = parsed.RootCauseFrame.LineNumber
	}

	consoleEvidence := buildConsoleEvidence(console)
	selectorEvidence := b.buildSelectorEvidence(errorMessage, repo)
	repositoryEvidence := models.RepositoryEvidence{
		CloneSucceeded: repo.Cloned,
		Branch:         repo.Branch,
		Selector:       selectorEvidence,
	}

	var selectorFoundPtr *bool
	if category == models.CategoryElementNotFound && selectorEvidence.Selector != "" {
		found := selectorEvidence.FoundInRepo
		selectorFoundPtr = &found
	}

	var gitHistorySupportsPtr *bool
	if selectorEvidence.Selector != "" {
		if _, ok := repo.SelectorHistory[selectorEvidence.Selector]; ok {
			supports := selectorEvidence.RecentlyChanged
			gitHistorySupportsPtr = &supports
		}
	}

	matrixResult := b.matrix.Classify(string(category), env.Healthy, selectorEvidence.FoundInRepo, classify.AdditionalFactors{
		Console500Error:          consoleEvidence.Has500Error,
		SelectorRecentlyChanged:  selectorEvidence.RecentlyChanged,
		ConsoleConnectionRefused: consoleEvidence.HasConnectionRefused,
	})

	completeness := classify.EvidenceCompleteness{
		HasStackTrace:         strings.TrimSpace(stackTrace) != "",
		HasParsedFrames:       len(parsed.Frames) > 0,
		HasRootCauseFile:      rootCauseFile != "",
		HasEnvironmentStatus:  true,
		HasRepositoryAnalysis: repo.Cloned,
		HasSelectorLookup:     repo.SelectorLookup != nil,
		HasGitHistory:         repo.SelectorHistory != nil,
		HasConsoleErrors:      len(console.KeyErrors) > 0,
		HasTestFileContent:    parsed.TestFileFrame != nil,
	}

	confidence := b.calculator.Calculate(
		matrixResult.Scores, completeness, classify.SourceConsistency{},
		selectorFoundPtr, selectorEvidence.RecentlyChanged, gitHistorySupportsPtr,
	)

	validation := b.validator.Validate(classify.ValidationInput{
		Classification:          matrixResult.Classification,
		Confidence:               confidence.FinalConfidence,
		FailureType:              string(category),
		EnvHealthy:               env.Healthy,
		SelectorFound:            selectorFoundPtr,
		SelectorRecentlyChanged:  selectorEvidence.RecentlyChanged,
		ConsoleHas500Errors:      consoleEvidence.Has500Error,
		ConsoleHasNetworkErrors:  consoleEvidence.HasNetworkError,
		ConsoleHasAPIErrors:      consoleEvidence.HasAPIError,
		ClusterAccessible:        env.Accessible,
	})

	finalResult := matrixResult
	finalResult.Classification = validation.FinalClassification
	finalResult.Confidence = validation.FinalConfidence
	for _, vr := range validation.ValidationResults {
		finalResult.Adjustments = append(finalResult.Adjustments, string(vr.Action)+": "+vr.Reason)
	}

	confidence.FinalConfidence = validation.FinalConfidence
	confidence.Level = models.LevelFor(validation.FinalConfidence)

	return models.TestFailureEvidencePackage{
		Failure: models.FailureEvidence{
			TestName:      testName,
			ErrorMessage:  models.TruncateErrorMessage(errorMessage),
			Category:      category,
			RootCauseFile: rootCauseFile,
			RootCauseLine: rootCauseLine,
		},
		Repository:     repositoryEvidence,
		Environment:    models.EnvironmentEvidence{Healthy: env.Healthy, Accessible: env.Accessible, APIAccessible: env.APIAccessible, TargetClusterUsed: env.TargetClusterUsed},
		Console:        consoleEvidence,
		Classification: finalResult,
		Confidence:     confidence,
	}
}

// BuildPackage assembles the run-level evidence rollup across every
// failed test in a Jenkins build.
func (b *Builder) BuildPackage(
	jenkinsURL string,
	buildNumber int,
	failedTests []TestFailureInput,
	env EnvironmentInput,
	repo RepositoryInput,
	console ConsoleInput,
) models.AggregatedEvidencePackage {
	pkg := models.AggregatedEvidencePackage{
		JenkinsURL:           jenkinsURL,
		BuildNumber:          buildNumber,
		ClassificationCounts: make(map[models.Classification]int),
	}

	for _, test := range failedTests {
		result := b.BuildForTest(test.TestName, test.ErrorMessage, test.ErrorType, test.StackTrace, env, repo, console)
		pkg.Tests = append(pkg.Tests, result)
		pkg.ClassificationCounts[result.Classification.Classification]++
	}
	pkg.TotalTests = len(pkg.Tests)

	return pkg
}

func (b *Builder) buildSelectorEvidence(errorMessage string, repo RepositoryInput) models.SelectorEvidence {
	selector := b.stackParser.ExtractFailingSelector(errorMessage)
	if selector == "" {
		return models.SelectorEvidence{}
	}

	paths, found := repo.SelectorLookup[selector]
	evidence := models.SelectorEvidence{Selector: selector, FoundInRepo: found}
	if hist, ok := repo.SelectorHistory[selector]; ok {
		evidence.GitHistoryAgeDays = hist.DaysAgo
		evidence.RecentlyChanged = hist.DaysAgo <= recentlyChangedThresholdDays
	}
	_ = paths
	return evidence
}

func buildConsoleEvidence(console ConsoleInput) models.ConsoleEvidence {
	evidence := models.ConsoleEvidence{KeyErrorSnippets: console.KeyErrors}
	for _, line := range console.KeyErrors {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "500") || strings.Contains(lower, "internal server error") {
			evidence.Has500Error = true
		}
		if strings.Contains(lower, "network") {
			evidence.HasNetworkError = true
		}
		if strings.Contains(lower, "econnrefused") || strings.Contains(lower, "connection refused") {
			evidence.HasConnectionRefused = true
			evidence.HasNetworkError = true
		}
		if strings.Contains(lower, "api") {
			evidence.HasAPIError = true
		}
	}
	return evidence
}

// determineFailureCategory buckets an error message/type into the seven
// categories from spec §4.5, in a fixed precedence order so overlapping
// keywords (e.g. "error" appearing everywhere) don't misclassify.
func determineFailureCategory(errorMessage, errorType string) models.FailureCategory {
	lowerMsg := strings.ToLower(errorMessage)
	lowerType := strings.ToLower(errorType)

	switch {
	case strings.Contains(lowerMsg, "500") || strings.Contains(lowerMsg, "internal server error"):
		return models.CategoryServerError
	case strings.Contains(lowerMsg, "401") || strings.Contains(lowerMsg, "403") ||
		strings.Contains(lowerMsg, "unauthorized") || strings.Contains(lowerMsg, "forbidden"):
		return models.CategoryAuthError
	case strings.Contains(lowerMsg, "timed out") || strings.Contains(lowerMsg, "timeout"):
		return models.CategoryTimeout
	case strings.Contains(lowerMsg, "not found") || strings.Contains(lowerMsg, "never found") ||
		strings.Contains(lowerMsg, "expected to find element"):
		return models.CategoryElementNotFound
	case lowerType == "assertionerror" || (strings.Contains(lowerMsg, "expected") && strings.Contains(lowerMsg, "equal")):
		return models.CategoryAssertion
	case strings.Contains(lowerMsg, "network") || strings.Contains(lowerMsg, "econnrefused") ||
		strings.Contains(lowerMsg, "connection refused"):
		return models.CategoryNetwork
	case errorMessage == "":
		return models.CategoryUnknown
	default:
		return models.CategoryUnknown
	}
}
