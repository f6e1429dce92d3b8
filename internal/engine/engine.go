package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"stepflow/internal/step"
	"stepflow/internal/types"
)

// Hook signatures. Hooks are diagnostic observers, never control flow: a
// hook that panics is logged and the run continues.
type (
	BeforeStepHook func(s step.Step, data *types.WorkflowData, exec *types.Execution)
	AfterStepHook  func(s step.Step, result *types.StepResult, exec *types.Execution)
	ErrorHook      func(exec *types.Execution, err error)
	CompleteHook   func(exec *types.Execution)
)

// Engine runs an ordered list of steps against a shared data bag and
// records per-step results into an Execution. Step failures and panics are
// converted into failed results; Execute never returns an error and never
// panics.
type Engine struct {
	logger          *zap.Logger
	parallel        bool
	maxWorkers      int
	continueOnError bool
	markSkipped     bool

	beforeStep []BeforeStepHook
	afterStep  []AfterStepHook
	onError    []ErrorHook
	onComplete []CompleteHook
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithParallel switches the engine to parallel dispatch with a bounded
// worker pool. Parallel mode provides no ordering and no mutual exclusion
// on the data bag beyond map integrity; it is only safe for workflows
// whose steps touch disjoint keys.
func WithParallel(maxWorkers int) Option {
	return func(e *Engine) {
		e.parallel = true
		e.maxWorkers = maxWorkers
	}
}

// WithContinueOnError keeps sequential execution going past failed steps.
// The execution still ends up failed; later results are recorded as usual.
func WithContinueOnError() Option {
	return func(e *Engine) { e.continueOnError = true }
}

// WithoutSkipMarking disables recording trailing steps as skipped after a
// sequential halt.
func WithoutSkipMarking() Option {
	return func(e *Engine) { e.markSkipped = false }
}

// New creates an engine. The default is sequential execution, halt on
// first failure, trailing steps marked skipped, and a no-op logger.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:      zap.NewNop(),
		maxWorkers:  1,
		markSkipped: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnBeforeStep registers a hook fired before each step executes.
func (e *Engine) OnBeforeStep(h BeforeStepHook) { e.beforeStep = append(e.beforeStep, h) }

// OnAfterStep registers a hook fired after each step's result is recorded.
func (e *Engine) OnAfterStep(h AfterStepHook) { e.afterStep = append(e.afterStep, h) }

// OnError registers a hook fired when the run loop itself fails.
func (e *Engine) OnError(h ErrorHook) { e.onError = append(e.onError, h) }

// OnComplete registers a hook fired once per run after the last step.
func (e *Engine) OnComplete(h CompleteHook) { e.onComplete = append(e.onComplete, h) }

// Execute runs the steps against data and returns the execution record.
// A nil data bag is replaced with an empty one; an empty id gets a
// timestamp-based fallback. The returned execution is always complete and
// well-formed, even when the run failed.
func (e *Engine) Execute(ctx context.Context, steps []step.Step, data *types.WorkflowData, id string) *types.Execution {
	if id == "" {
		id = fmt.Sprintf("workflow_%d", time.Now().UnixNano())
	}
	if data == nil {
		data = types.NewWorkflowData()
	}

	exec := types.NewExecution(id, "")
	exec.Status = types.WorkflowRunning

	e.logger.Info("workflow started",
		zap.String("execution_id", id),
		zap.Int("steps", len(steps)),
		zap.Bool("parallel", e.parallel))

	panicked := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				err := fmt.Errorf("workflow run loop panic: %v", r)
				exec.Status = types.WorkflowFailed
				exec.Error = err.Error()
				e.logger.Error("workflow run loop failed", zap.String("execution_id", id), zap.Error(err))
				e.fireError(exec, err)
			}
		}()

		if e.parallel && len(steps) > 1 {
			e.runParallel(ctx, steps, data, exec)
		} else {
			e.runSequential(ctx, steps, data, exec)
		}
	}()

	if !panicked {
		e.fireComplete(exec)
	}
	exec.Complete()

	e.logger.Info("workflow finished",
		zap.String("execution_id", id),
		zap.String("status", string(exec.Status)),
		zap.Duration("duration", exec.Duration()))
	return exec
}

func (e *Engine) runSequential(ctx context.Context, steps []step.Step, data *types.WorkflowData, exec *types.Execution) {
	for i, s := range steps {
		exec.CurrentStep = i

		if ctx.Err() != nil {
			exec.Status = types.WorkflowCancelled
			exec.Error = ctx.Err().Error()
			e.markRemaining(steps[i:], exec, "workflow cancelled")
			return
		}

		e.fireBefore(s, data, exec)

		if !safeCanExecute(s, data) {
			res := skippedResult(s, "condition not met")
			exec.AddStepResult(res)
			e.fireAfter(s, res, exec)
			e.logger.Info("step skipped", zap.String("step", s.Name()), zap.String("execution_id", exec.ID))
			continue
		}

		res := e.executeStep(ctx, s, data)
		exec.AddStepResult(res)
		e.fireAfter(s, res, exec)

		if res.Failed() {
			e.logger.Error("step failed",
				zap.String("step", s.Name()),
				zap.String("execution_id", exec.ID),
				zap.String("error", res.Error))
			if !e.continueOnError {
				if e.markSkipped {
					e.markRemaining(steps[i+1:], exec, "upstream failure")
				}
				return
			}
			continue
		}

		e.logger.Info("step completed",
			zap.String("step", s.Name()),
			zap.String("execution_id", exec.ID),
			zap.Int64("duration_ms", res.DurationMs))
	}
}

func (e *Engine) runParallel(ctx context.Context, steps []step.Step, data *types.WorkflowData, exec *types.Execution) {
	workers := e.maxWorkers
	if workers <= 0 || workers > len(steps) {
		workers = len(steps)
	}

	byName := make(map[string]step.Step, len(steps))
	for _, s := range steps {
		byName[s.Name()] = s
	}

	sem := make(chan struct{}, workers)
	results := make(chan *types.StepResult, len(steps))
	var wg sync.WaitGroup

	for _, s := range steps {
		e.fireBefore(s, data, exec)

		wg.Add(1)
		go func(s step.Step) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if !safeCanExecute(s, data) {
				results <- skippedResult(s, "condition not met")
				return
			}
			results <- e.executeStep(ctx, s, data)
		}(s)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// Results are recorded in completion order, not submission order.
	for res := range results {
		exec.AddStepResult(res)
		if s, ok := byName[res.StepName]; ok {
			e.fireAfter(s, res, exec)
		}
		if res.Failed() {
			e.logger.Error("step failed",
				zap.String("step", res.StepName),
				zap.String("execution_id", exec.ID),
				zap.String("error", res.Error))
		}
	}
}

// executeStep is the exception barrier: whatever a step does, the caller
// gets back a well-formed result.
func (e *Engine) executeStep(ctx context.Context, s step.Step, data *types.WorkflowData) (res *types.StepResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = &types.StepResult{
				StepName:   s.Name(),
				Status:     types.StepFailed,
				Error:      fmt.Sprintf("step panic: %v", r),
				DurationMs: time.Since(start).Milliseconds(),
			}
		}
	}()

	res = s.Execute(ctx, data)
	if res == nil {
		return &types.StepResult{
			StepName:   s.Name(),
			Status:     types.StepFailed,
			Error:      "step returned no result",
			DurationMs: time.Since(start).Milliseconds(),
		}
	}
	if res.StepName == "" {
		res.StepName = s.Name()
	}
	if res.Status == types.StepFailed && res.Error == "" {
		res.Error = "step failed"
	}
	return res
}

func (e *Engine) markRemaining(steps []step.Step, exec *types.Execution, reason string) {
	for _, s := range steps {
		exec.AddStepResult(skippedResult(s, reason))
	}
}

func (e *Engine) fireBefore(s step.Step, data *types.WorkflowData, exec *types.Execution) {
	for _, h := range e.beforeStep {
		e.runHook("before_step", func() { h(s, data, exec) })
	}
}

func (e *Engine) fireAfter(s step.Step, res *types.StepResult, exec *types.Execution) {
	for _, h := range e.afterStep {
		e.runHook("after_step", func() { h(s, res, exec) })
	}
}

func (e *Engine) fireError(exec *types.Execution, err error) {
	for _, h := range e.onError {
		e.runHook("on_error", func() { h(exec, err) })
	}
}

func (e *Engine) fireComplete(exec *types.Execution) {
	for _, h := range e.onComplete {
		e.runHook("on_complete", func() { h(exec) })
	}
}

func (e *Engine) runHook(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("hook panicked", zap.String("hook", kind), zap.Any("panic", r))
		}
	}()
	fn()
}

func safeCanExecute(s step.Step, data *types.WorkflowData) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return s.CanExecute(data)
}

func skippedResult(s step.Step, reason string) *types.StepResult {
	return &types.StepResult{
		StepName: s.Name(),
		Status:   types.StepSkipped,
		Message:  reason,
		Metadata: map[string]any{"reason": reason},
	}
}
