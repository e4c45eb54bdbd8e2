package tracer

import (
	"context"
	"time"

	"github.com/weftworks/weft/pkg/logger"
)

// ExecutionTracer observes run execution events. Implementations are
// best effort: trace failures never fail the run.
type ExecutionTracer interface {
	// TraceRunStart records the start of a run
	TraceRunStart(ctx context.Context, runID, workflow string) error

	// TraceRunEnd records the terminal status of a run
	TraceRunEnd(ctx context.Context, runID, status string, steps int, duration time.Duration) error

	// TraceNodeStart records when a node starts execution
	TraceNodeStart(ctx context.Context, runID, nodeName string) error

	// TraceNodeEnd records when a node completes execution
	TraceNodeEnd(ctx context.Context, runID, nodeName, output string, duration time.Duration) error

	// TraceLLMRequest records a prompt sent to the AI backend
	TraceLLMRequest(ctx context.Context, runID, prompt string) error

	// TraceLLMResponse records an AI backend reply
	TraceLLMResponse(ctx context.Context, runID, response string, duration time.Duration) error

	// TraceError records an error event
	TraceError(ctx context.Context, runID, nodeName string, err error) error

	// Close closes the tracer and flushes any pending data
	Close() error
}

// Nop returns a tracer that discards all events
func Nop() ExecutionTracer {
	return nopTracer{}
}

type nopTracer struct{}

func (nopTracer) TraceRunStart(ctx context.Context, runID, workflow string) error { return nil }
func (nopTracer) TraceRunEnd(ctx context.Context, runID, status string, steps int, duration time.Duration) error {
	return nil
}
func (nopTracer) TraceNodeStart(ctx context.Context, runID, nodeName string) error { return nil }
func (nopTracer) TraceNodeEnd(ctx context.Context, runID, nodeName, output string, duration time.Duration) error {
	return nil
}
func (nopTracer) TraceLLMRequest(ctx context.Context, runID, prompt string) error { return nil }
func (nopTracer) TraceLLMResponse(ctx context.Context, runID, response string, duration time.Duration) error {
	return nil
}
func (nopTracer) TraceError(ctx context.Context, runID, nodeName string, err error) error {
	return nil
}
func (nopTracer) Close() error { return nil }

// MultiTracer forwards events to all tracers, continuing past
// individual failures.
type MultiTracer struct {
	tracers []ExecutionTracer
}

// NewMultiTracer creates a tracer that fans events out to all tracers
func NewMultiTracer(tracers ...ExecutionTracer) *MultiTracer {
	return &MultiTracer{tracers: tracers}
}

func (m *MultiTracer) each(event string, fn func(t ExecutionTracer) error) error {
	var lastErr error
	for _, t := range m.tracers {
		if err := fn(t); err != nil {
			logger.Warnf("[MultiTracer] Failed to trace %s: tracer=%T, error=%v", event, t, err)
			lastErr = err
		}
	}
	return lastErr
}

func (m *MultiTracer) TraceRunStart(ctx context.Context, runID, workflow string) error {
	return m.each("run start", func(t ExecutionTracer) error {
		return t.TraceRunStart(ctx, runID, workflow)
	})
}

func (m *MultiTracer) TraceRunEnd(ctx context.Context, runID, status string, steps int, duration time.Duration) error {
	return m.each("run end", func(t ExecutionTracer) error {
		return t.TraceRunEnd(ctx, runID, status, steps, duration)
	})
}

func (m *MultiTracer) TraceNodeStart(ctx context.Context, runID, nodeName string) error {
	return m.each("node start", func(t ExecutionTracer) error {
		return t.TraceNodeStart(ctx, runID, nodeName)
	})
}

func (m *MultiTracer) TraceNodeEnd(ctx context.Context, runID, nodeName, output string, duration time.Duration) error {
	return m.each("node end", func(t ExecutionTracer) error {
		return t.TraceNodeEnd(ctx, runID, nodeName, output, duration)
	})
}

func (m *MultiTracer) TraceLLMRequest(ctx context.Context, runID, prompt string) error {
	return m.each("LLM request", func(t ExecutionTracer) error {
		return t.TraceLLMRequest(ctx, runID, prompt)
	})
}

func (m *MultiTracer) TraceLLMResponse(ctx context.Context, runID, response string, duration time.Duration) error {
	return m.each("LLM response", func(t ExecutionTracer) error {
		return t.TraceLLMResponse(ctx, runID, response, duration)
	})
}

func (m *MultiTracer) TraceError(ctx context.Context, runID, nodeName string, err error) error {
	return m.each("error", func(t ExecutionTracer) error {
		return t.TraceError(ctx, runID, nodeName, err)
	})
}

func (m *MultiTracer) Close() error {
	var lastErr error
	for _, t := range m.tracers {
		if err := t.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
