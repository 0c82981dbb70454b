package transcode

import (
	"fmt"
	"strings"
)

// ExternalToolError reports an external process that exited nonzero or could
// not be started.
type ExternalToolError struct {
	Tool     string // executable as invoked
	Stage    string // e.g. "encode segment 2", "concat"
	ExitCode int    // -1 when the process did not run to completion
	Stderr   string
	Err      error
}

func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("%s failed during %s", e.Tool, e.Stage)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" (exit code %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
