package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"stepflow/internal/config"
	"stepflow/internal/manager"
	"stepflow/internal/types"
)

// Server exposes the workflow manager over HTTP: listing stored
// workflows, triggering runs, and inspecting past executions.
type Server struct {
	mgr    *manager.Manager
	logger *zap.Logger
}

// New creates an HTTP server around the given manager.
func New(mgr *manager.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{mgr: mgr, logger: logger}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/workflows", s.handleListWorkflows)
	mux.HandleFunc("/workflows/", s.handleWorkflow)
	mux.HandleFunc("/executions", s.handleListExecutions)
	mux.HandleFunc("/executions/", s.handleExecution)
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

// ListenAndServe starts the HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.mgr.Store() == nil {
		writeError(w, http.StatusServiceUnavailable, "no config store attached")
		return
	}

	configs, err := s.mgr.Store().LoadAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type workflowInfo struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Version     string `json:"version"`
		Steps       int    `json:"steps"`
		Parallel    bool   `json:"parallel,omitempty"`
	}

	infos := make([]workflowInfo, 0, len(configs))
	for _, cfg := range configs {
		infos = append(infos, workflowInfo{
			Name:        cfg.Name,
			Description: cfg.Description,
			Version:     cfg.Version,
			Steps:       len(cfg.Steps),
			Parallel:    cfg.Settings.Parallel,
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleWorkflow dispatches /workflows/{name}/run.
func (s *Server) handleWorkflow(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/workflows/")
	name, action, _ := strings.Cut(rest, "/")
	if name == "" || action != "run" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var input map[string]any
	if r.Body != nil {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
	}
	if input == nil {
		input = make(map[string]any)
	}

	exec, err := s.mgr.ExecuteByName(r.Context(), name, input, "")
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, config.ErrNotFound) {
			status = http.StatusNotFound
		}
		s.logger.Warn("workflow run rejected", zap.String("workflow", name), zap.Error(err))
		writeError(w, status, err.Error())
		return
	}

	status := http.StatusOK
	if exec.Status == types.WorkflowFailed {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, exec)
}

func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.mgr.Executions())
}

func (s *Server) handleExecution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/executions/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	exec, err := s.mgr.Execution(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, exec)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.mgr.Statistics())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
