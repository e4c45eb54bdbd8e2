package cmd

import (
	"fmt"

	"github.com/weftworks/weft/internal/api"
	"github.com/weftworks/weft/internal/config"
	"github.com/weftworks/weft/internal/llm"
	"github.com/weftworks/weft/internal/storage"
	"github.com/weftworks/weft/internal/tracer"
)

// initService assembles the run invocation service from configuration:
// workflow store, run store, AI backend, and tracers.
func initService(cfg *config.Config) (*api.Service, func(), error) {
	workflows := storage.NewWorkflowStore(cfg.Storage.WorkflowsDir)

	runs, err := storage.OpenRunStore(cfg.Storage.RunDB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open run store: %w", err)
	}

	backend, err := llm.NewClient(cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.URL, cfg.LLM.Model)
	if err != nil {
		runs.Close()
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	tr, err := initTracer(cfg)
	if err != nil {
		runs.Close()
		return nil, nil, err
	}

	cleanup := func() {
		_ = tr.Close()
		_ = runs.Close()
	}
	return api.NewService(cfg, workflows, runs, backend, tr), cleanup, nil
}

func initTracer(cfg *config.Config) (tracer.ExecutionTracer, error) {
	if !cfg.Tracing.Enabled {
		return tracer.Nop(), nil
	}

	tracers := []tracer.ExecutionTracer{
		tracer.NewLogTracer(cfg.Tracing.Log.Level),
	}
	if cfg.Tracing.Markdown.Enabled {
		md, err := tracer.NewMarkdownTracer(cfg.Tracing.Markdown.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create markdown tracer: %w", err)
		}
		tracers = append(tracers, md)
	}
	return tracer.NewMultiTracer(tracers...), nil
}
