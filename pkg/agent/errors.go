package agent

import "fmt"

var errNoToolExecutor = fmt.Errorf("agent: no tool executor configured")

// toolError wraps a tool result that came back with IsError set.
type toolError struct {
	tool    string
	content string
}

func (e *toolError) Error() string {
	return fmt.Sprintf("tool %s returned an error: %s", e.tool, e.content)
}
