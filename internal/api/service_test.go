package api

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftworks/weft/internal/config"
	"github.com/weftworks/weft/internal/run"
	"github.com/weftworks/weft/internal/storage"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LLM.Model = "test-model"
	cfg.LLM.Timeout = time.Second
	cfg.Engine.Retry.Backoff = time.Millisecond
	return cfg
}

func classifierDefinition() *storage.Definition {
	return &storage.Definition{
		Name:  "classifier",
		Entry: "start",
		Nodes: []storage.NodeDef{
			{Name: "start", Kind: "ai-prompt", Prompt: "Classify this message: {{input}}"},
			{Name: "classify", Kind: "router"},
			{Name: "terminal_spam", Kind: "terminal"},
			{Name: "terminal_ham", Kind: "terminal"},
		},
		Edges: []storage.EdgeDef{
			{From: "start", To: "classify"},
			{From: "classify", To: "terminal_spam", Condition: &storage.ConditionDef{Op: "equals", Key: "start", Value: "SPAM"}},
			{From: "classify", To: "terminal_ham", Condition: &storage.ConditionDef{Op: "default"}},
		},
	}
}

func newTestService(t *testing.T, backend run.Backend) *Service {
	t.Helper()
	workflows := storage.NewWorkflowStore(t.TempDir())
	require.NoError(t, workflows.Save(classifierDefinition()))

	runs, err := storage.OpenRunStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = runs.Close() })

	return NewService(testConfig(), workflows, runs, backend, nil)
}

func fixedBackend(reply string) run.Backend {
	return run.BackendFunc(func(ctx context.Context, prompt string, opts run.Options) (string, error) {
		return reply, nil
	})
}

func TestServiceValidate(t *testing.T) {
	svc := newTestService(t, fixedBackend("SPAM"))

	defects, err := svc.Validate("classifier")
	require.NoError(t, err)
	assert.Empty(t, defects)

	_, err = svc.Validate("missing")
	assert.Error(t, err)
}

func TestServiceValidateReportsDefects(t *testing.T) {
	svc := newTestService(t, fixedBackend("SPAM"))

	def := classifierDefinition()
	def.Name = "broken"
	def.Entry = "nope"
	require.NoError(t, svc.workflows.Save(def))

	defects, err := svc.Validate("broken")
	require.NoError(t, err)
	assert.NotEmpty(t, defects)
}

func TestServiceRun(t *testing.T) {
	svc := newTestService(t, fixedBackend("SPAM"))

	rec, err := svc.Run(context.Background(), "classifier", "WIN A FREE CRUISE")
	require.NoError(t, err)

	assert.Equal(t, string(run.StatusSucceeded), rec.Status)
	assert.Equal(t, "SPAM", rec.FinalOutput)
	assert.Len(t, rec.Trace, 3)
	assert.Equal(t, "WIN A FREE CRUISE", rec.Context["input"])

	// The record is persisted as well
	stored, err := svc.GetRun(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Status, stored.Status)
}

func TestServiceRunDefinitionCompileError(t *testing.T) {
	svc := newTestService(t, fixedBackend("SPAM"))

	def := classifierDefinition()
	def.Entry = ""
	_, err := svc.RunDefinition(context.Background(), def, "x")
	require.Error(t, err)

	var ce *run.CompileError
	assert.ErrorAs(t, err, &ce)
}

func TestServiceStart(t *testing.T) {
	svc := newTestService(t, fixedBackend("HAM"))

	runID, err := svc.Start("classifier", "lunch at noon?")
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	assert.Eventually(t, func() bool {
		rec, err := svc.GetRun(runID)
		return err == nil && rec.Status == string(run.StatusSucceeded)
	}, 5*time.Second, 10*time.Millisecond)

	rec, err := svc.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, "HAM", rec.FinalOutput)
	assert.Equal(t, "terminal_ham", rec.Trace[1].Next)
}

func TestServiceStartRejectsBrokenWorkflow(t *testing.T) {
	svc := newTestService(t, fixedBackend("SPAM"))

	def := classifierDefinition()
	def.Name = "broken"
	def.Entry = "nope"
	require.NoError(t, svc.workflows.Save(def))

	_, err := svc.Start("broken", "x")
	var ce *run.CompileError
	assert.ErrorAs(t, err, &ce)
}
