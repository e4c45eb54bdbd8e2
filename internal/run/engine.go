package run

import (
	"context"
	"errors"
	"time"

	"github.com/weftworks/weft/internal/tracer"
	"github.com/weftworks/weft/internal/workflow"
)

// Status is the terminal state of a run
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusAborted   Status = "aborted"
)

// AbortReason distinguishes safety aborts from ordinary failure
type AbortReason string

const (
	AbortStepLimit AbortReason = "step_limit_exceeded"
	AbortCancelled AbortReason = "cancelled"
)

// lastOutputKey is the context key holding the most recent node output.
// Terminal nodes without their own template fall back to it, and prompt
// templates may reference it as {{output}}.
const lastOutputKey = "output"

// Result is the outcome of one run
type Result struct {
	Status      Status
	Reason      AbortReason // set when Status is StatusAborted
	Err         error       // set when Status is StatusFailed or StatusAborted
	FinalOutput string
	Steps       int
	Context     *Context
}

// RetryPolicy bounds backend retries. Attempts is the number of
// retries after the initial call; Backoff doubles per retry.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// Engine drives a compiled workflow from its entry node to a terminal
// state. A run is strictly sequential: one node at a time, one trace
// record per executed node.
type Engine struct {
	executor *Executor
	maxSteps int
	retry    RetryPolicy
	tracer   tracer.ExecutionTracer
}

// NewEngine creates a run engine. maxSteps <= 0 derives the limit from
// the graph size at run time.
func NewEngine(executor *Executor, maxSteps int, retry RetryPolicy, tr tracer.ExecutionTracer) *Engine {
	if tr == nil {
		tr = tracer.Nop()
	}
	return &Engine{executor: executor, maxSteps: maxSteps, retry: retry, tracer: tr}
}

// DefaultMaxSteps is the step budget used when none is configured:
// a base allowance plus a few steps per node, so cyclic workflows get
// room to loop without ever hanging.
func DefaultMaxSteps(nodeCount int) int {
	return 10 + 3*nodeCount
}

// Run executes cg against rc until a terminal node, a failure, or a
// safety abort. Given an identical backend response sequence, a run
// over the same graph and initial context is fully deterministic:
// routing depends only on produced output and declared condition order.
func (e *Engine) Run(ctx context.Context, runID string, cg *workflow.CompiledGraph, rc *Context) Result {
	maxSteps := e.maxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps(cg.Len())
	}

	started := time.Now()
	_ = e.tracer.TraceRunStart(ctx, runID, cg.Entry())

	res := e.loop(ctx, runID, cg, rc, maxSteps)
	res.Context = rc

	_ = e.tracer.TraceRunEnd(ctx, runID, string(res.Status), res.Steps, time.Since(started))
	return res
}

func (e *Engine) loop(ctx context.Context, runID string, cg *workflow.CompiledGraph, rc *Context, maxSteps int) Result {
	current := cg.Entry()
	steps := 0

	for {
		// Cancellation takes effect at step boundaries
		if err := ctx.Err(); err != nil {
			return Result{Status: StatusAborted, Reason: AbortCancelled, Err: err, Steps: steps}
		}
		if steps >= maxSteps {
			_ = e.tracer.TraceError(ctx, runID, current, ErrStepLimitExceeded)
			return Result{Status: StatusAborted, Reason: AbortStepLimit, Err: ErrStepLimitExceeded, Steps: steps}
		}

		node, ok := cg.Node(current)
		if !ok {
			// CompiledGraph invariants make this unreachable from Compile
			err := &NoRouteError{Node: current}
			return Result{Status: StatusFailed, Err: err, Steps: steps}
		}

		_ = e.tracer.TraceNodeStart(ctx, runID, current)
		nodeStart := time.Now()

		labels := routeLabels(node, cg.Edges(current))
		out, err := e.executeWithRetry(ctx, runID, node, rc, labels)
		steps++

		rec := StepRecord{
			Node:      current,
			Input:     out.Input,
			Output:    out.Output,
			Timestamp: time.Now(),
		}

		if err != nil {
			rec.Err = err.Error()
			rc.AppendTrace(rec)
			_ = e.tracer.TraceError(ctx, runID, current, err)
			// Cancellation surfacing through the backend call is still a
			// cancellation, not a workflow failure
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return Result{Status: StatusAborted, Reason: AbortCancelled, Err: err, Steps: steps}
			}
			return Result{Status: StatusFailed, Err: err, Steps: steps}
		}

		_ = e.tracer.TraceNodeEnd(ctx, runID, current, out.Output, time.Since(nodeStart))

		if out.Output != "" {
			rc.Set(lastOutputKey, out.Output)
		}

		if out.Terminal {
			rc.AppendTrace(rec)
			return Result{Status: StatusSucceeded, FinalOutput: out.Output, Steps: steps}
		}

		next, routed := selectEdge(cg.Edges(current), out, rc)
		if !routed {
			routeErr := &NoRouteError{Node: current, Output: out.Output}
			rec.Err = routeErr.Error()
			rc.AppendTrace(rec)
			_ = e.tracer.TraceError(ctx, runID, current, routeErr)
			return Result{Status: StatusFailed, Err: routeErr, Steps: steps}
		}

		rec.Next = next
		rc.AppendTrace(rec)
		current = next
	}
}

// executeWithRetry retries retryable backend failures with exponential
// backoff; all other errors surface immediately.
func (e *Engine) executeWithRetry(ctx context.Context, runID string, node *workflow.Node, rc *Context, labels []string) (Outcome, error) {
	backoff := e.retry.Backoff
	for attempt := 0; ; attempt++ {
		out, err := e.executor.Execute(ctx, runID, node, rc, labels)
		if err == nil {
			return out, nil
		}

		var be *BackendError
		if !errors.As(err, &be) || !be.Retryable() || attempt >= e.retry.Attempts {
			return out, err
		}

		select {
		case <-ctx.Done():
			return out, err
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// routeLabels collects the equality labels declared on an ai-prompt
// node's outgoing edges, used for routing instructions in the prompt.
func routeLabels(node *workflow.Node, edges []*workflow.Edge) []string {
	if node.Kind != workflow.KindAIPrompt {
		return nil
	}
	var labels []string
	for _, e := range edges {
		c := e.Condition
		if c != nil && c.Op == workflow.CondEquals && c.Key == "" {
			labels = append(labels, c.Value)
		}
	}
	return labels
}

// selectEdge picks the first edge whose condition matches, in declared
// order, or the default edge when nothing matched. It never guesses:
// no match and no default means no route.
func selectEdge(edges []*workflow.Edge, out Outcome, rc *Context) (string, bool) {
	var fallback string
	hasFallback := false

	for _, e := range edges {
		c := e.Condition
		if c.IsDefault() {
			if !hasFallback {
				fallback = e.Target
				hasFallback = true
			}
			continue
		}
		if c.Match(conditionSubject(c, out, rc)) {
			return e.Target, true
		}
	}

	if hasFallback {
		return fallback, true
	}
	return "", false
}

// conditionSubject resolves what a condition evaluates against. A
// keyed condition reads the context; otherwise the node output is the
// subject, except that equality checks prefer the extracted routing
// key when the model reply carried one.
func conditionSubject(c *workflow.Condition, out Outcome, rc *Context) string {
	if c.Key != "" {
		s, _ := rc.GetString(c.Key)
		return s
	}
	if out.RouteKey != "" && c.Op == workflow.CondEquals {
		return out.RouteKey
	}
	return out.Output
}
