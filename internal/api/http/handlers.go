package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/weftworks/weft/internal/api"
	"github.com/weftworks/weft/internal/run"
	"github.com/weftworks/weft/internal/workflow"
	"github.com/weftworks/weft/pkg/logger"
)

// Handlers contains the HTTP handlers for the run invocation surface
type Handlers struct {
	service *api.Service
	logger  logger.Logger
}

// NewHandlers creates new HTTP handlers
func NewHandlers(service *api.Service, log logger.Logger) *Handlers {
	return &Handlers{service: service, logger: log}
}

// Register mounts the API routes on mux
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/workflows", h.ListWorkflows)
	mux.HandleFunc("/api/workflows/validate", h.ValidateWorkflow)
	mux.HandleFunc("/api/workflows/run", h.RunWorkflow)
	mux.HandleFunc("/api/runs", h.GetRun)
}

// ValidateRequest asks for a compile check of a stored workflow
type ValidateRequest struct {
	Workflow string `json:"workflow"`
}

// ValidateResponse reports compile defects; an empty list means the
// workflow is sound
type ValidateResponse struct {
	Workflow string   `json:"workflow"`
	Valid    bool     `json:"valid"`
	Defects  []string `json:"defects,omitempty"`
}

// RunRequest asks to start a run of a stored workflow
type RunRequest struct {
	Workflow string `json:"workflow"`
	Input    string `json:"input"`
}

// RunResponse acknowledges a started run
type RunResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// ListWorkflows returns the names of stored workflows
func (h *Handlers) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	names, err := h.service.ListWorkflows()
	if err != nil {
		h.logger.Errorf("Failed to list workflows: %v", err)
		http.Error(w, "Failed to list workflows", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflows": names})
}

// ValidateWorkflow compiles a stored workflow and reports its defects
func (h *Handlers) ValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Workflow == "" {
		http.Error(w, "workflow is required", http.StatusBadRequest)
		return
	}

	defects, err := h.service.Validate(req.Workflow)
	if err != nil {
		h.logger.Errorf("Failed to validate workflow %q: %v", req.Workflow, err)
		http.Error(w, "Workflow not found", http.StatusNotFound)
		return
	}

	resp := ValidateResponse{Workflow: req.Workflow, Valid: len(defects) == 0}
	resp.Defects = defectStrings(defects)
	writeJSON(w, http.StatusOK, resp)
}

// RunWorkflow starts a run and returns its ID immediately; the result
// is available from the runs endpoint once the run finishes
func (h *Handlers) RunWorkflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Workflow == "" {
		http.Error(w, "workflow is required", http.StatusBadRequest)
		return
	}

	runID, err := h.service.Start(req.Workflow, req.Input)
	if err != nil {
		var ce *run.CompileError
		if errors.As(err, &ce) {
			writeJSON(w, http.StatusUnprocessableEntity, ValidateResponse{
				Workflow: req.Workflow,
				Valid:    false,
				Defects:  defectStrings(ce.Defects),
			})
			return
		}
		h.logger.Errorf("Failed to start workflow %q: %v", req.Workflow, err)
		http.Error(w, "Workflow not found", http.StatusNotFound)
		return
	}

	h.logger.Infof("Started run %s for workflow %q", runID, req.Workflow)
	writeJSON(w, http.StatusAccepted, RunResponse{RunID: runID, Status: string(run.StatusRunning)})
}

// GetRun returns the persisted record of a run
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	rec, err := h.service.GetRun(id)
	if err != nil {
		if errors.Is(err, run.ErrRunNotFound) {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		h.logger.Errorf("Failed to load run %s: %v", id, err)
		http.Error(w, "Failed to load run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func defectStrings(defects []workflow.Defect) []string {
	if len(defects) == 0 {
		return nil
	}
	out := make([]string, len(defects))
	for i, d := range defects {
		out[i] = d.String()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
