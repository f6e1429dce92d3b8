package step

import (
	"context"
	"fmt"
	"time"

	"stepflow/internal/types"
)

// Step is one unit of work in a workflow. Implementations read and write
// the shared data bag and report their outcome as a StepResult; they must
// signal failure through the result, not by panicking (the engine converts
// escaped panics into failed results as a last resort).
type Step interface {
	// Name returns the step identifier, unique within its workflow.
	Name() string

	// Description returns a human-readable summary of the step.
	Description() string

	// Execute runs the step against the shared data bag.
	Execute(ctx context.Context, data *types.WorkflowData) *types.StepResult

	// CanExecute is a cheap guard checked before Execute. Returning false
	// skips the step without failing the workflow.
	CanExecute(data *types.WorkflowData) bool
}

// InputDeclarer is optionally implemented by steps that can name the data
// keys they require. The validator uses it for a best-effort static check.
type InputDeclarer interface {
	RequiredInputs() []string
}

// OutputDeclarer is optionally implemented by steps that can name the data
// keys they produce.
type OutputDeclarer interface {
	OutputKeys() []string
}

// Base carries the fields every concrete step shares. Embed it and
// implement Execute.
type Base struct {
	StepName        string
	StepDescription string
	Config          map[string]any
}

// NewBase creates a Base with a non-nil config map.
func NewBase(name, description string, config map[string]any) Base {
	if config == nil {
		config = make(map[string]any)
	}
	return Base{StepName: name, StepDescription: description, Config: config}
}

func (b *Base) Name() string        { return b.StepName }
func (b *Base) Description() string { return b.StepDescription }

// CanExecute defaults to true; steps with guards override it.
func (b *Base) CanExecute(*types.WorkflowData) bool { return true }

// ConfigString returns a string config value or the fallback.
func (b *Base) ConfigString(key, fallback string) string {
	if v, ok := b.Config[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// Completed builds a successful result for this step.
func (b *Base) Completed(message string, elapsed time.Duration) *types.StepResult {
	return &types.StepResult{
		StepName:   b.StepName,
		Status:     types.StepCompleted,
		Message:    message,
		DurationMs: elapsed.Milliseconds(),
	}
}

// Failed builds a failed result for this step.
func (b *Base) Failed(err error, elapsed time.Duration) *types.StepResult {
	return &types.StepResult{
		StepName:   b.StepName,
		Status:     types.StepFailed,
		Error:      err.Error(),
		DurationMs: elapsed.Milliseconds(),
	}
}

// Skipped builds a skipped result for this step with a reason.
func (b *Base) Skipped(reason string) *types.StepResult {
	return &types.StepResult{
		StepName: b.StepName,
		Status:   types.StepSkipped,
		Message:  reason,
		Metadata: map[string]any{"reason": reason},
	}
}

// Func is the signature of a callable a function step invokes: it receives
// the shared data bag plus the bound parameters from the step's
// configuration and returns an arbitrary value.
type Func func(ctx context.Context, data *types.WorkflowData, params map[string]any) (any, error)

// Condition guards step execution; it must be cheap and side-effect free.
type Condition func(data *types.WorkflowData) bool

// FuncStep adapts a named callable into a Step. On success the callable's
// return value is stored in the data bag under the step's name (unless the
// callable returned nil, e.g. because it wrote the bag itself).
type FuncStep struct {
	Base
	fn        Func
	condition Condition
	inputs    []string
	outputs   []string
}

// FuncStepOption customizes a FuncStep.
type FuncStepOption func(*FuncStep)

// WithCondition attaches a guard evaluated by CanExecute.
func WithCondition(cond Condition) FuncStepOption {
	return func(s *FuncStep) { s.condition = cond }
}

// WithInputs declares the data keys the callable requires.
func WithInputs(keys ...string) FuncStepOption {
	return func(s *FuncStep) { s.inputs = keys }
}

// WithOutputs declares the data keys the callable produces.
func WithOutputs(keys ...string) FuncStepOption {
	return func(s *FuncStep) { s.outputs = keys }
}

// NewFuncStep creates a function step bound to fn with the given
// configuration parameters.
func NewFuncStep(name, description string, fn Func, params map[string]any, opts ...FuncStepOption) *FuncStep {
	s := &FuncStep{Base: NewBase(name, description, params), fn: fn}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CanExecute evaluates the attached condition, if any. A condition that
// panics counts as false rather than aborting the workflow.
func (s *FuncStep) CanExecute(data *types.WorkflowData) (ok bool) {
	if s.condition == nil {
		return true
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return s.condition(data)
}

// Execute invokes the callable and wraps its return value in a result.
func (s *FuncStep) Execute(ctx context.Context, data *types.WorkflowData) *types.StepResult {
	start := time.Now()

	if s.fn == nil {
		return s.Failed(fmt.Errorf("step %q has no function bound", s.StepName), time.Since(start))
	}

	value, err := s.fn(ctx, data, s.Config)
	elapsed := time.Since(start)
	if err != nil {
		return s.Failed(err, elapsed)
	}

	if value != nil {
		data.Set(s.StepName, value)
	}
	return s.Completed("", elapsed)
}

func (s *FuncStep) RequiredInputs() []string { return s.inputs }
func (s *FuncStep) OutputKeys() []string     { return s.outputs }

// ConditionalStep wraps a target step behind a condition: when the
// condition does not hold the target is skipped instead of executed.
type ConditionalStep struct {
	Base
	condition Condition
	target    Step
}

// NewConditionalStep creates a conditional wrapper around target.
func NewConditionalStep(name string, cond Condition, target Step, description string) *ConditionalStep {
	return &ConditionalStep{
		Base:      NewBase(name, description, nil),
		condition: cond,
		target:    target,
	}
}

// CanExecute evaluates the wrapped condition; a panicking condition counts
// as false.
func (s *ConditionalStep) CanExecute(data *types.WorkflowData) (ok bool) {
	if s.condition == nil {
		return true
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return s.condition(data)
}

// Execute delegates to the target step.
func (s *ConditionalStep) Execute(ctx context.Context, data *types.WorkflowData) *types.StepResult {
	if !s.CanExecute(data) {
		return s.Skipped("condition not met")
	}
	return s.target.Execute(ctx, data)
}
