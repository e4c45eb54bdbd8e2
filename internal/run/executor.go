package run

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/weftworks/weft/internal/tracer"
	"github.com/weftworks/weft/internal/workflow"
)

// Options configure an AI backend invocation
type Options struct {
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Backend is the AI capability the engine depends on: given a prompt,
// return text. Implementations must be safe for concurrent use and are
// treated as fallible and potentially slow.
type Backend interface {
	Invoke(ctx context.Context, prompt string, opts Options) (string, error)
}

// BackendFunc adapts a function to the Backend interface
type BackendFunc func(ctx context.Context, prompt string, opts Options) (string, error)

func (f BackendFunc) Invoke(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}

// Outcome is the result of executing one node
type Outcome struct {
	// Output is the node's produced text, marker-cleaned for ai-prompt
	// nodes. It is untrusted free text; only edge conditions interpret it.
	Output string

	// Input is a snapshot of the rendered text the node consumed,
	// recorded in the trace.
	Input string

	// RouteKey is the routing key extracted from a model reply, "" when
	// the reply carried no marker.
	RouteKey string

	// Terminal signals the engine to stop after this node
	Terminal bool
}

// Executor runs a single node's logic against the current context.
// Dispatch is a closed switch over node kinds.
type Executor struct {
	backend Backend
	opts    Options
	tracer  tracer.ExecutionTracer
}

// NewExecutor creates a node executor. A nil tracer disables tracing.
func NewExecutor(backend Backend, opts Options, tr tracer.ExecutionTracer) *Executor {
	if tr == nil {
		tr = tracer.Nop()
	}
	return &Executor{backend: backend, opts: opts, tracer: tr}
}

// Execute runs one node against the context. routeLabels are the
// declared equality labels on the node's outgoing edges; ai-prompt
// nodes with labels get routing instructions appended to their prompt.
// Execute mutates the context (stores node output) but never writes
// the trace; that is the engine's job.
func (e *Executor) Execute(ctx context.Context, runID string, node *workflow.Node, rc *Context, routeLabels []string) (Outcome, error) {
	switch node.Kind {
	case workflow.KindAIPrompt:
		return e.executeAIPrompt(ctx, runID, node, rc, routeLabels)
	case workflow.KindTransform:
		return e.executeTransform(node, rc)
	case workflow.KindRouter:
		// Routers branch on existing context values; nothing to execute
		return Outcome{}, nil
	case workflow.KindTerminal:
		return e.executeTerminal(node, rc)
	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownNodeKind, node.Kind)
	}
}

func (e *Executor) executeAIPrompt(ctx context.Context, runID string, node *workflow.Node, rc *Context, routeLabels []string) (Outcome, error) {
	prompt, err := renderTemplate(node.Name, node.Prompt, rc)
	if err != nil {
		return Outcome{}, err
	}
	if len(routeLabels) > 0 {
		prompt += routingInstructions(routeLabels)
	}

	reply, err := e.invoke(ctx, runID, prompt)
	if err != nil {
		return Outcome{Input: prompt}, err
	}

	routeKey := extractRouteKey(reply)
	output := stripRouteMarker(reply)
	rc.Set(node.Name, output)

	return Outcome{Output: output, Input: prompt, RouteKey: routeKey}, nil
}

func (e *Executor) executeTransform(node *workflow.Node, rc *Context) (Outcome, error) {
	output, err := renderTemplate(node.Name, node.Prompt, rc)
	if err != nil {
		return Outcome{}, err
	}
	rc.Set(node.Name, output)
	return Outcome{Output: output, Input: output}, nil
}

func (e *Executor) executeTerminal(node *workflow.Node, rc *Context) (Outcome, error) {
	out := Outcome{Terminal: true}
	if node.Prompt != "" {
		rendered, err := renderTemplate(node.Name, node.Prompt, rc)
		if err != nil {
			return out, err
		}
		out.Output = rendered
		out.Input = rendered
	} else if last, ok := rc.GetString(lastOutputKey); ok {
		out.Output = last
	}
	rc.Set(node.Name, out.Output)
	return out, nil
}

// invoke calls the backend with the configured timeout and classifies
// failures into the BackendError taxonomy.
func (e *Executor) invoke(ctx context.Context, runID, prompt string) (string, error) {
	cctx := ctx
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	_ = e.tracer.TraceLLMRequest(ctx, runID, prompt)
	start := time.Now()
	reply, err := e.backend.Invoke(cctx, prompt, e.opts)
	if err != nil {
		return "", classifyBackendError(err)
	}
	_ = e.tracer.TraceLLMResponse(ctx, runID, reply, time.Since(start))
	return reply, nil
}

// classifyBackendError maps backend failures onto the error taxonomy.
// Errors already typed pass through unchanged.
func classifyBackendError(err error) error {
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	// Cancellation is not a backend fault; pass it through untyped so
	// the engine aborts instead of retrying.
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &BackendError{Kind: BackendTimeout, Err: err}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") {
		return &BackendError{Kind: BackendRateLimit, Err: err}
	}
	return &BackendError{Kind: BackendUnavailable, Err: err}
}
