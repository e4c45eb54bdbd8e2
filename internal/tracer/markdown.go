package tracer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// MarkdownTracer writes a per-run execution report to a markdown file
// under the configured output directory. The report is buffered in
// memory and flushed when the run ends.
type MarkdownTracer struct {
	outputDir string

	mu   sync.Mutex
	runs map[string]*strings.Builder
}

// NewMarkdownTracer creates a markdown tracer writing reports to outputDir
func NewMarkdownTracer(outputDir string) (*MarkdownTracer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &MarkdownTracer{
		outputDir: outputDir,
		runs:      make(map[string]*strings.Builder),
	}, nil
}

func (m *MarkdownTracer) buf(runID string) *strings.Builder {
	b, ok := m.runs[runID]
	if !ok {
		b = &strings.Builder{}
		m.runs[runID] = b
	}
	return b
}

func (m *MarkdownTracer) TraceRunStart(ctx context.Context, runID, workflow string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.buf(runID)
	fmt.Fprintf(b, "# Run %s\n\n", runID)
	fmt.Fprintf(b, "- Workflow: `%s`\n", workflow)
	fmt.Fprintf(b, "- Started: %s\n\n", time.Now().Format(time.RFC3339))
	return nil
}

func (m *MarkdownTracer) TraceRunEnd(ctx context.Context, runID, status string, steps int, duration time.Duration) error {
	m.mu.Lock()
	b := m.buf(runID)
	fmt.Fprintf(b, "\n## Result\n\n- Status: **%s**\n- Steps: %d\n- Duration: %v\n", status, steps, duration)
	content := b.String()
	delete(m.runs, runID)
	m.mu.Unlock()

	path := filepath.Join(m.outputDir, runID+".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (m *MarkdownTracer) TraceNodeStart(ctx context.Context, runID, nodeName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(m.buf(runID), "## Node `%s`\n\n", nodeName)
	return nil
}

func (m *MarkdownTracer) TraceNodeEnd(ctx context.Context, runID, nodeName, output string, duration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.buf(runID)
	if output != "" {
		fmt.Fprintf(b, "Output:\n\n```\n%s\n```\n\n", output)
	}
	fmt.Fprintf(b, "Completed in %v.\n\n", duration)
	return nil
}

func (m *MarkdownTracer) TraceLLMRequest(ctx context.Context, runID, prompt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(m.buf(runID), "Prompt:\n\n```\n%s\n```\n\n", prompt)
	return nil
}

func (m *MarkdownTracer) TraceLLMResponse(ctx context.Context, runID, response string, duration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(m.buf(runID), "Model reply (%v):\n\n```\n%s\n```\n\n", duration, response)
	return nil
}

func (m *MarkdownTracer) TraceError(ctx context.Context, runID, nodeName string, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(m.buf(runID), "**Error** at `%s`: %v\n\n", nodeName, err)
	return nil
}

// Close drops any buffered reports for runs that never ended
func (m *MarkdownTracer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = make(map[string]*strings.Builder)
	return nil
}
