package api

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/weftworks/weft/internal/config"
	"github.com/weftworks/weft/internal/run"
	"github.com/weftworks/weft/internal/storage"
	"github.com/weftworks/weft/internal/tracer"
	"github.com/weftworks/weft/internal/workflow"
	"github.com/weftworks/weft/pkg/logger"
)

// Service is the run invocation surface: it loads definitions,
// compiles them, executes runs, and persists the results.
type Service struct {
	workflows *storage.WorkflowStore
	runs      *storage.RunStore
	backend   run.Backend
	cfg       *config.Config
	tracer    tracer.ExecutionTracer
}

// NewService creates the service. The run store may be nil, in which
// case results are not persisted.
func NewService(cfg *config.Config, workflows *storage.WorkflowStore, runs *storage.RunStore, backend run.Backend, tr tracer.ExecutionTracer) *Service {
	if tr == nil {
		tr = tracer.Nop()
	}
	return &Service{
		workflows: workflows,
		runs:      runs,
		backend:   backend,
		cfg:       cfg,
		tracer:    tr,
	}
}

// Validate compiles the named workflow and returns its defects, nil
// when the workflow is sound.
func (s *Service) Validate(name string) ([]workflow.Defect, error) {
	_, defects, err := s.compile(name)
	if err != nil {
		return nil, err
	}
	return defects, nil
}

// Run executes the named workflow synchronously and returns the
// persisted record.
func (s *Service) Run(ctx context.Context, name, input string) (*storage.RunRecord, error) {
	def, err := s.workflows.Load(name)
	if err != nil {
		return nil, err
	}
	return s.RunDefinition(ctx, def, input)
}

// RunDefinition compiles and executes a workflow definition
// synchronously, returning the persisted record.
func (s *Service) RunDefinition(ctx context.Context, def *storage.Definition, input string) (*storage.RunRecord, error) {
	g, err := def.ToGraph()
	if err != nil {
		return nil, err
	}
	cg, defects := workflow.Compile(g)
	if len(defects) > 0 {
		return nil, &run.CompileError{Defects: defects}
	}
	return s.execute(ctx, def.Name, input, cg), nil
}

// Start executes the named workflow asynchronously, returning the run
// ID immediately. The run completes in the background and its result
// lands in the run store.
func (s *Service) Start(name, input string) (string, error) {
	cg, defects, err := s.compile(name)
	if err != nil {
		return "", err
	}
	if len(defects) > 0 {
		return "", &run.CompileError{Defects: defects}
	}

	runID := uuid.New().String()
	s.saveRecord(&storage.RunRecord{
		ID:        runID,
		Workflow:  name,
		Status:    string(run.StatusRunning),
		StartedAt: time.Now(),
	})

	go func() {
		// Detached from the request context: the run outlives the request
		rec := s.executeAs(context.Background(), runID, name, input, cg)
		if rec.Error != "" {
			logger.Errorf("Run %s failed: %s", runID, rec.Error)
		} else {
			logger.Infof("Run %s completed with status %s", runID, rec.Status)
		}
	}()

	return runID, nil
}

// GetRun returns the persisted record for a run
func (s *Service) GetRun(id string) (*storage.RunRecord, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("%w: %s", run.ErrRunNotFound, id)
	}
	return s.runs.GetRun(id)
}

// ListWorkflows returns the names of stored workflow definitions
func (s *Service) ListWorkflows() ([]string, error) {
	return s.workflows.List()
}

func (s *Service) compile(name string) (*workflow.CompiledGraph, []workflow.Defect, error) {
	def, err := s.workflows.Load(name)
	if err != nil {
		return nil, nil, err
	}
	g, err := def.ToGraph()
	if err != nil {
		return nil, nil, err
	}
	cg, defects := workflow.Compile(g)
	return cg, defects, nil
}

func (s *Service) execute(ctx context.Context, name, input string, cg *workflow.CompiledGraph) *storage.RunRecord {
	return s.executeAs(ctx, uuid.New().String(), name, input, cg)
}

func (s *Service) executeAs(ctx context.Context, runID, name, input string, cg *workflow.CompiledGraph) *storage.RunRecord {
	opts := run.Options{
		Model:       s.cfg.LLM.Model,
		Temperature: s.cfg.LLM.Temperature,
		Timeout:     s.cfg.LLM.Timeout,
	}
	retry := run.RetryPolicy{
		Attempts: s.cfg.Engine.Retry.Attempts,
		Backoff:  s.cfg.Engine.Retry.Backoff,
	}
	executor := run.NewExecutor(s.backend, opts, s.tracer)
	engine := run.NewEngine(executor, s.cfg.Engine.MaxSteps, retry, s.tracer)

	rc := run.NewContext(map[string]any{"input": input})
	started := time.Now()

	res := engine.Run(ctx, runID, cg, rc)

	rec := &storage.RunRecord{
		ID:          runID,
		Workflow:    name,
		Status:      string(res.Status),
		FinalOutput: res.FinalOutput,
		Context:     rc.Values(),
		Trace:       rc.Trace(),
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	s.saveRecord(rec)
	return rec
}

func (s *Service) saveRecord(rec *storage.RunRecord) {
	if s.runs == nil {
		return
	}
	if err := s.runs.SaveRun(rec); err != nil {
		logger.Errorf("Failed to persist run %s: %v", rec.ID, err)
	}
}
