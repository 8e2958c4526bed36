// Package evidence builds per-test and per-run evidence packages from raw
// failure signals (error messages, stack traces, environment/console/
// repository data), per spec §4.5.
package evidence

import (
	"regexp"
	"strconv"
	"strings"
)

// StackFrame is one parsed line of a stack trace.
type StackFrame struct {
	FilePath     string
	LineNumber   int
	ColumnNumber int
	FunctionName string
}

// IsTestFile reports whether the frame's file path looks like a test
// spec, rather than support/view code or framework internals.
func (f StackFrame) IsTestFile() bool {
	lower := strings.ToLower(f.FilePath)
	return strings.Contains(lower, "/tests/") ||
		strings.Contains(lower, ".spec.") ||
		strings.Contains(lower, ".cy.")
}

// IsSupportFile reports whether the frame's file path is test-support or
// view/page-object code.
func (f StackFrame) IsSupportFile() bool {
	lower := strings.ToLower(f.FilePath)
	return strings.Contains(lower, "/support/") || strings.Contains(lower, "/views/")
}

// IsFrameworkFile reports whether the frame belongs to a vendored
// dependency rather than the project's own code.
func (f StackFrame) IsFrameworkFile() bool {
	return strings.Contains(f.FilePath, "node_modules")
}

// ParsedStackTrace is the structured result of parsing a raw stack trace
// string.
type ParsedStackTrace struct {
	RawTrace          string
	ErrorType         string
	ErrorMessage      string
	Frames            []StackFrame
	TestFileFrame     *StackFrame
	SupportFileFrame  *StackFrame
	FrameworkFileFrame *StackFrame
	RootCauseFrame    *StackFrame
	TotalFrames       int
	UserCodeFrames    int
}

var (
	errorHeaderPattern = regexp.MustCompile(`^\s*(\w+(?:Error|Exception)?)\s*:\s*(.+)$`)

	// Matches "at webpack://app/./some/path.js:181:11" and similar
	// webpack-bundled paths.
	webpackFramePattern = regexp.MustCompile(`at\s+(?:webpack://[^/]+/\.?/?)([^\s:]+):(\d+):(\d+)`)

	// Matches "at Function.Name (path/to/file.js:42:15)" and
	// "at path/to/file.js:42:15" (no named function).
	namedFramePattern = regexp.MustCompile(`at\s+(?:(async\s+)?([\w.<>]+(?:\.[\w.<>]+)*)\s+)?\(?([^\s():]+\.js):(\d+):(\d+)\)?`)
)

// StackTraceParser parses Cypress/Node-style stack traces into structured
// frames, identifying the test file, support file, framework file, and
// root-cause frame.
type StackTraceParser struct{}

// NewStackTraceParser constructs a stack trace parser.
func NewStackTraceParser() *StackTraceParser {
	return &StackTraceParser{}
}

// Parse extracts the error header and every stack frame from trace,
// deduplicating repeated frames and classifying the first frame of each
// kind (test/support/framework) plus an overall root-cause frame (the
// first frame that isn't a framework frame).
func (p *StackTraceParser) Parse(trace string) ParsedStackTrace {
	result := ParsedStackTrace{RawTrace: trace}
	if strings.TrimSpace(trace) == "" {
		return result
	}

	lines := strings.Split(trace, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if result.ErrorType == "" && !strings.Contains(trimmed, "at ") {
			if m := errorHeaderPattern.FindStringSubmatch(trimmed); m != nil {
				result.ErrorType = m[1]
				result.ErrorMessage = m[2]
			}
		}
	}

	seen := make(map[string]bool)
	for _, match := range webpackFramePattern.FindAllStringSubmatch(trace, -1) {
		line, _ := strconv.Atoi(match[2])
		col, _ := strconv.Atoi(match[3])
		frame := StackFrame{FilePath: match[1], LineNumber: line, ColumnNumber: col}
		appendFrame(&result, &seen, frame)
	}
	for _, match := range namedFramePattern.FindAllStringSubmatch(trace, -1) {
		if strings.Contains(match[3], "webpack://") {
			continue
		}
		line, _ := strconv.Atoi(match[4])
		col, _ := strconv.Atoi(match[5])
		fn := match[2]
		if fn == "" {
			fn = "<anonymous>"
		}
		frame := StackFrame{FilePath: match[3], LineNumber: line, ColumnNumber: col, FunctionName: fn}
		appendFrame(&result, &seen, frame)
	}

	result.TotalFrames = len(result.Frames)
	for i := range result.Frames {
		f := &result.Frames[i]
		switch {
		case f.IsFrameworkFile():
			if result.FrameworkFileFrame == nil {
				result.FrameworkFileFrame = f
			}
		case f.IsTestFile():
			if result.TestFileFrame == nil {
				result.TestFileFrame = f
			}
			result.UserCodeFrames++
		case f.IsSupportFile():
			if result.SupportFileFrame == nil {
				result.SupportFileFrame = f
			}
			result.UserCodeFrames++
		default:
			result.UserCodeFrames++
		}
		if result.RootCauseFrame == nil && !f.IsFrameworkFile() {
			result.RootCauseFrame = f
		}
	}

	return result
}

func appendFrame(result *ParsedStackTrace, seen *map[string]bool, frame StackFrame) {
	key := frame.FilePath + ":" + strconv.Itoa(frame.LineNumber) + ":" + strconv.Itoa(frame.ColumnNumber)
	if (*seen)[key] {
		return
	}
	(*seen)[key] = true
	result.Frames = append(result.Frames, frame)
}

// GetContextRange returns the [start, end] line window around frame's
// line number, clamped so start never drops below 1.
func (p *StackTraceParser) GetContextRange(frame StackFrame, contextLines int) (start, end int) {
	start = frame.LineNumber - contextLines
	if start < 1 {
		start = 1
	}
	end = frame.LineNumber + contextLines
	return start, end
}

var (
	cyGetSelectorPattern    = regexp.MustCompile(`cy\.get\('([^']+)'\)`)
	backtickSelectorPattern = regexp.MustCompile("`([^`]+)`")
)

// ExtractFailingSelector pulls a CSS/data-test selector out of a Cypress
// assertion-failure message, if one is present.
func (p *StackTraceParser) ExtractFailingSelector(errorMessage string) string {
	if m := cyGetSelectorPattern.FindStringSubmatch(errorMessage); m != nil {
		return m[1]
	}
	if m := backtickSelectorPattern.FindStringSubmatch(errorMessage); m != nil {
		return m[1]
	}
	return ""
}
