package manager

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"stepflow/internal/config"
	"stepflow/internal/engine"
	"stepflow/internal/step"
	"stepflow/internal/types"
)

// ErrFunctionNotFound is returned when a workflow names a function no one
// registered.
var ErrFunctionNotFound = errors.New("workflow function not registered")

// ErrExecutionNotFound is returned when no record matches an execution id.
var ErrExecutionNotFound = errors.New("execution not found")

// DefaultHistoryLimit bounds the in-memory execution history.
const DefaultHistoryLimit = 50

// Manager ties the pieces together: it owns the step factory, the function
// registry, the config store, and a bounded history of past executions. It
// compiles declarative workflow configs into runnable step lists and runs
// them through a per-workflow engine.
type Manager struct {
	logger  *zap.Logger
	factory *step.Factory
	store   *config.Store

	mu        sync.RWMutex
	functions map[string]step.Func
	history   []*types.Execution
	histLimit int
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithHistoryLimit overrides the execution history cap.
func WithHistoryLimit(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.histLimit = n
		}
	}
}

// WithStore attaches a config store for named workflow lookup.
func WithStore(store *config.Store) ManagerOption {
	return func(m *Manager) { m.store = store }
}

// New creates a manager with an empty factory and function registry.
func New(opts ...ManagerOption) *Manager {
	m := &Manager{
		logger:    zap.NewNop(),
		factory:   step.NewFactory(),
		functions: make(map[string]step.Func),
		histLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Factory exposes the step factory for type registration.
func (m *Manager) Factory() *step.Factory { return m.factory }

// Store returns the attached config store, if any.
func (m *Manager) Store() *config.Store { return m.store }

// RegisterStepType registers a step constructor under a type tag.
func (m *Manager) RegisterStepType(typeTag string, ctor step.Constructor) error {
	return m.factory.Register(typeTag, ctor)
}

// RegisterFunction registers a callable for function-type steps.
// Re-registering a name replaces the previous callable.
func (m *Manager) RegisterFunction(name string, fn step.Func) error {
	if name == "" {
		return errors.New("function name must not be empty")
	}
	if fn == nil {
		return errors.Errorf("function %q is nil", name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.functions[name] = fn
	return nil
}

// Functions returns the registered function names, sorted.
func (m *Manager) Functions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.functions))
	for name := range m.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StepTypes returns the registered step type tags, sorted.
func (m *Manager) StepTypes() []string { return m.factory.Types() }

func (m *Manager) lookupFunction(name string) (step.Func, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fn, ok := m.functions[name]
	return fn, ok
}

// Compile turns a workflow config into a runnable step list. Validation
// errors, unknown step types, and unknown functions abort compilation;
// disabled steps are dropped silently.
func (m *Manager) Compile(cfg *config.WorkflowConfig) ([]step.Step, error) {
	report := cfg.Validate()
	if !report.Valid {
		return nil, errors.Wrapf(config.ErrInvalidConfig,
			"workflow %q: %s", cfg.Name, report.Errors[0])
	}

	steps := make([]step.Step, 0, len(cfg.Steps))
	for _, sc := range cfg.Steps {
		if !sc.IsEnabled() {
			m.logger.Debug("step disabled, skipping",
				zap.String("workflow", cfg.Name),
				zap.String("step", sc.Name))
			continue
		}

		s, err := m.buildStep(cfg, sc)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, nil
}

func (m *Manager) buildStep(cfg *config.WorkflowConfig, sc config.StepConfig) (step.Step, error) {
	var (
		s   step.Step
		err error
	)

	if sc.EffectiveType() == config.DefaultStepType {
		fn, ok := m.lookupFunction(sc.Function)
		if !ok {
			return nil, errors.Wrapf(ErrFunctionNotFound,
				"workflow %q step %q: function %q", cfg.Name, sc.Name, sc.Function)
		}
		s = step.NewFuncStep(sc.Name, sc.Description, fn, sc.Config)
	} else {
		s, err = m.factory.Create(sc.EffectiveType(), sc.Name, sc.Description, sc.Config)
		if err != nil {
			return nil, errors.WithMessagef(err, "workflow %q", cfg.Name)
		}
	}

	if sc.TimeoutSeconds > 0 {
		s = step.WithTimeout(s, time.Duration(sc.TimeoutSeconds)*time.Second)
	}
	if sc.RetryCount > 0 {
		s = step.WithRetry(s, sc.RetryCount, 0)
	}
	return s, nil
}

// Execute compiles and runs a workflow config. Configuration problems are
// returned as errors before anything executes; once the run starts the
// outcome is always an execution record, failed steps included. Every
// started run is recorded in history regardless of outcome.
func (m *Manager) Execute(ctx context.Context, cfg *config.WorkflowConfig, input map[string]any, id string) (*types.Execution, error) {
	steps, err := m.Compile(cfg)
	if err != nil {
		return nil, err
	}

	if id == "" {
		id = fmt.Sprintf("%s_%s", cfg.Name, uuid.NewString())
	}

	data := types.NewWorkflowDataFrom(cfg.Variables)
	data.Update(input)
	data.SetMetadata("workflow_name", cfg.Name)
	data.SetMetadata("execution_id", id)

	exec := m.buildEngine(cfg).Execute(ctx, steps, data, id)
	exec.WorkflowName = cfg.Name

	m.record(exec)
	return exec, nil
}

// ExecuteByName loads a stored workflow config and executes it.
func (m *Manager) ExecuteByName(ctx context.Context, name string, input map[string]any, id string) (*types.Execution, error) {
	if m.store == nil {
		return nil, errors.New("no config store attached")
	}
	cfg, err := m.store.ByName(name)
	if err != nil {
		return nil, err
	}
	return m.Execute(ctx, cfg, input, id)
}

// Plan compiles a workflow config and returns the dry-run execution plan.
func (m *Manager) Plan(cfg *config.WorkflowConfig) (*engine.ExecutionPlan, error) {
	steps, err := m.Compile(cfg)
	if err != nil {
		return nil, err
	}
	return m.buildEngine(cfg).Plan(steps), nil
}

// Validate runs both the declarative and the compiled-step checks. When
// compilation fails its error is added to the declarative report instead
// of aborting.
func (m *Manager) Validate(cfg *config.WorkflowConfig) *types.ValidationReport {
	report := cfg.Validate()
	if !report.Valid {
		return report
	}

	steps, err := m.Compile(cfg)
	if err != nil {
		report.AddError(err.Error())
		return report
	}
	report.Merge(engine.Validate(steps))
	return report
}

func (m *Manager) buildEngine(cfg *config.WorkflowConfig) *engine.Engine {
	opts := []engine.Option{engine.WithLogger(m.logger)}
	if cfg.Settings.Parallel {
		opts = append(opts, engine.WithParallel(cfg.Settings.MaxWorkers))
	}
	if cfg.Settings.ContinueOnError {
		opts = append(opts, engine.WithContinueOnError())
	}

	eng := engine.New(opts...)
	eng.OnBeforeStep(func(s step.Step, _ *types.WorkflowData, exec *types.Execution) {
		m.logger.Debug("step starting",
			zap.String("workflow", exec.WorkflowName),
			zap.String("execution_id", exec.ID),
			zap.String("step", s.Name()))
	})
	eng.OnComplete(func(exec *types.Execution) {
		m.logger.Info("workflow run recorded",
			zap.String("execution_id", exec.ID),
			zap.String("status", string(exec.Status)),
			zap.Int("completed_steps", exec.CompletedSteps()),
			zap.Int("total_steps", len(exec.Steps)))
	})
	return eng
}

func (m *Manager) record(exec *types.Execution) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, exec)
	if over := len(m.history) - m.histLimit; over > 0 {
		m.history = append([]*types.Execution(nil), m.history[over:]...)
	}
}

// Execution returns a recorded execution by id.
func (m *Manager) Execution(id string) (*types.Execution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, exec := range m.history {
		if exec.ID == id {
			return exec, nil
		}
	}
	return nil, errors.Wrapf(ErrExecutionNotFound, "id %q", id)
}

// Executions returns the recorded history, oldest first.
func (m *Manager) Executions() []*types.Execution {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*types.Execution, len(m.history))
	copy(out, m.history)
	return out
}

// CleanupHistory drops all but the most recent keepLast records and
// returns how many were removed.
func (m *Manager) CleanupHistory(keepLast int) int {
	if keepLast < 0 {
		keepLast = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := len(m.history) - keepLast
	if removed <= 0 {
		return 0
	}
	m.history = append([]*types.Execution(nil), m.history[removed:]...)
	return removed
}

// Statistics summarizes the recorded history and registry sizes.
type Statistics struct {
	TotalExecutions     int     `json:"total_executions"`
	Completed           int     `json:"completed"`
	Failed              int     `json:"failed"`
	Cancelled           int     `json:"cancelled"`
	SuccessRate         float64 `json:"success_rate"`
	AverageDurationMs   int64   `json:"average_duration_ms"`
	RegisteredFunctions int     `json:"registered_functions"`
	RegisteredStepTypes int     `json:"registered_step_types"`
}

// Statistics computes aggregate numbers over the recorded history.
func (m *Manager) Statistics() Statistics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Statistics{
		TotalExecutions:     len(m.history),
		RegisteredFunctions: len(m.functions),
		RegisteredStepTypes: len(m.factory.Types()),
	}

	var totalMs int64
	for _, exec := range m.history {
		switch exec.Status {
		case types.WorkflowCompleted:
			stats.Completed++
		case types.WorkflowFailed:
			stats.Failed++
		case types.WorkflowCancelled:
			stats.Cancelled++
		}
		totalMs += exec.Duration().Milliseconds()
	}

	if stats.TotalExecutions > 0 {
		stats.SuccessRate = float64(stats.Completed) / float64(stats.TotalExecutions)
		stats.AverageDurationMs = totalMs / int64(stats.TotalExecutions)
	}
	return stats
}
