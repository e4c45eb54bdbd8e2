package tracer

import (
	"context"
	"time"

	"github.com/weftworks/weft/pkg/logger"
)

// LogTracer implements ExecutionTracer using structured logging
type LogTracer struct {
	level string // minimal, standard, detailed
}

// NewLogTracer creates a new log tracer
func NewLogTracer(level string) *LogTracer {
	return &LogTracer{level: level}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func (l *LogTracer) TraceRunStart(ctx context.Context, runID, workflow string) error {
	logger.Infof("[Tracer] Run started: run=%s, workflow=%s", runID, workflow)
	return nil
}

func (l *LogTracer) TraceRunEnd(ctx context.Context, runID, status string, steps int, duration time.Duration) error {
	logger.Infof("[Tracer] Run finished: run=%s, status=%s, steps=%d, duration=%v", runID, status, steps, duration)
	return nil
}

func (l *LogTracer) TraceNodeStart(ctx context.Context, runID, nodeName string) error {
	if l.level == "minimal" {
		return nil
	}
	logger.Infof("[Tracer] Node started: run=%s, node=%s", runID, nodeName)
	return nil
}

func (l *LogTracer) TraceNodeEnd(ctx context.Context, runID, nodeName, output string, duration time.Duration) error {
	if l.level == "minimal" {
		return nil
	}
	logger.Infof("[Tracer] Node completed: run=%s, node=%s, duration=%v", runID, nodeName, duration)
	if l.level == "detailed" && output != "" {
		logger.Debugf("[Tracer] Node output: run=%s, node=%s, output=%s", runID, nodeName, truncate(output, 200))
	}
	return nil
}

func (l *LogTracer) TraceLLMRequest(ctx context.Context, runID, prompt string) error {
	if l.level != "detailed" {
		return nil
	}
	logger.Debugf("[Tracer] LLM request: run=%s, prompt=%s", runID, truncate(prompt, 200))
	return nil
}

func (l *LogTracer) TraceLLMResponse(ctx context.Context, runID, response string, duration time.Duration) error {
	if l.level != "detailed" {
		return nil
	}
	logger.Debugf("[Tracer] LLM response: run=%s, duration=%v, response=%s", runID, duration, truncate(response, 200))
	return nil
}

func (l *LogTracer) TraceError(ctx context.Context, runID, nodeName string, err error) error {
	// Always log errors regardless of level
	logger.Errorf("[Tracer] Error occurred: run=%s, node=%s, error=%v", runID, nodeName, err)
	return nil
}

func (l *LogTracer) Close() error {
	return nil
}
