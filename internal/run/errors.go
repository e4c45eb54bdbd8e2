package run

import (
	"errors"
	"fmt"
	"strings"

	"github.com/weftworks/weft/internal/workflow"
)

// ErrUnknownNodeKind is returned when the executor is handed a node
// kind outside the closed set. Compilation rejects these, so seeing
// this error means the graph bypassed Compile.
var ErrUnknownNodeKind = errors.New("unknown node kind")

// ErrStepLimitExceeded aborts a run that exceeded its step budget. It
// is surfaced distinctly from ordinary failure so callers can tell a
// runaway loop from a legitimate error.
var ErrStepLimitExceeded = errors.New("step limit exceeded")

// ErrRunNotFound is returned on run store lookups for unknown run IDs
var ErrRunNotFound = errors.New("run not found")

// BackendErrorKind classifies AI backend failures
type BackendErrorKind string

const (
	BackendTimeout     BackendErrorKind = "timeout"
	BackendRateLimit   BackendErrorKind = "rate_limit"
	BackendUnavailable BackendErrorKind = "unavailable"
	BackendMalformed   BackendErrorKind = "malformed"
)

// BackendError reports a failed or timed-out AI backend call
type BackendError struct {
	Kind BackendErrorKind
	Err  error
}

func (e *BackendError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("backend %s", e.Kind)
	}
	return fmt.Sprintf("backend %s: %v", e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the engine may retry the call. Malformed
// replies are deterministic and never retried.
func (e *BackendError) Retryable() bool {
	switch e.Kind {
	case BackendTimeout, BackendRateLimit, BackendUnavailable:
		return true
	}
	return false
}

// TemplateError reports a prompt template referencing a context key
// that is absent at render time. Fatal to the step, not retried.
type TemplateError struct {
	Node string
	Key  string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("node %q: template references missing context key %q", e.Node, e.Key)
}

// NoRouteError reports a routing dead end: no edge condition matched
// the node output and no default edge exists. Never silently defaulted.
type NoRouteError struct {
	Node   string
	Output string
}

func (e *NoRouteError) Error() string {
	out := e.Output
	if len(out) > 80 {
		out = out[:80] + "..."
	}
	return fmt.Sprintf("node %q: no matching route for output %q", e.Node, out)
}

// CompileError wraps a defect list for callers that compile and run in
// one operation. The run never starts.
type CompileError struct {
	Defects []workflow.Defect
}

func (e *CompileError) Error() string {
	msgs := make([]string, len(e.Defects))
	for i, d := range e.Defects {
		msgs[i] = d.String()
	}
	return fmt.Sprintf("workflow has %d defect(s): %s", len(e.Defects), strings.Join(msgs, "; "))
}
