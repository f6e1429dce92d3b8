package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepflow/internal/step"
	"stepflow/internal/types"
)

func okStep(name string) step.Step {
	return step.NewFuncStep(name, "", func(_ context.Context, _ *types.WorkflowData, _ map[string]any) (any, error) {
		return name + " done", nil
	}, nil)
}

func failStep(name string) step.Step {
	return step.NewFuncStep(name, "", func(_ context.Context, _ *types.WorkflowData, _ map[string]any) (any, error) {
		return nil, errors.New(name + " broke")
	}, nil)
}

func countingStep(name string, counter *atomic.Int32) step.Step {
	return step.NewFuncStep(name, "", func(_ context.Context, _ *types.WorkflowData, _ map[string]any) (any, error) {
		counter.Add(1)
		return name, nil
	}, nil)
}

func TestExecuteSequentialSuccess(t *testing.T) {
	eng := New()
	steps := []step.Step{okStep("a"), okStep("b"), okStep("c")}

	data := types.NewWorkflowData()
	exec := eng.Execute(context.Background(), steps, data, "run-1")

	assert.Equal(t, types.WorkflowCompleted, exec.Status)
	require.Len(t, exec.Steps, 3)
	for i, name := range []string{"a", "b", "c"} {
		assert.Equal(t, name, exec.Steps[i].StepName)
		assert.True(t, exec.Steps[i].Completed())
	}
	assert.Equal(t, "a done", data.GetString("a", ""))
	assert.False(t, exec.CompletedAt.IsZero())
}

func TestExecuteHaltsOnFailure(t *testing.T) {
	var after atomic.Int32
	eng := New()
	steps := []step.Step{
		okStep("a"),
		failStep("b"),
		countingStep("c", &after),
		countingStep("d", &after),
	}

	exec := eng.Execute(context.Background(), steps, types.NewWorkflowData(), "run-2")

	assert.Equal(t, types.WorkflowFailed, exec.Status)
	assert.Equal(t, "b broke", exec.Error)
	assert.Zero(t, after.Load())

	require.Len(t, exec.Steps, 4)
	assert.Equal(t, types.StepFailed, exec.Steps[1].Status)
	assert.Equal(t, types.StepSkipped, exec.Steps[2].Status)
	assert.Equal(t, types.StepSkipped, exec.Steps[3].Status)
	assert.Equal(t, "upstream failure", exec.Steps[2].Message)
}

func TestExecuteContinueOnError(t *testing.T) {
	var after atomic.Int32
	eng := New(WithContinueOnError())
	steps := []step.Step{failStep("a"), countingStep("b", &after)}

	exec := eng.Execute(context.Background(), steps, types.NewWorkflowData(), "run-3")

	assert.Equal(t, types.WorkflowFailed, exec.Status)
	assert.Equal(t, int32(1), after.Load())
	require.Len(t, exec.Steps, 2)
	assert.True(t, exec.Steps[1].Completed())
}

func TestExecuteSkipsGuardedStep(t *testing.T) {
	guarded := step.NewFuncStep("guarded", "", func(_ context.Context, _ *types.WorkflowData, _ map[string]any) (any, error) {
		return "never", nil
	}, nil, step.WithCondition(func(*types.WorkflowData) bool { return false }))

	eng := New()
	exec := eng.Execute(context.Background(), []step.Step{guarded, okStep("after")}, types.NewWorkflowData(), "run-4")

	// A skip never fails the workflow and later steps still run.
	assert.Equal(t, types.WorkflowCompleted, exec.Status)
	require.Len(t, exec.Steps, 2)
	assert.Equal(t, types.StepSkipped, exec.Steps[0].Status)
	assert.True(t, exec.Steps[1].Completed())
}

func TestExecuteConvertsPanicToFailedResult(t *testing.T) {
	bomb := step.NewFuncStep("bomb", "", func(_ context.Context, _ *types.WorkflowData, _ map[string]any) (any, error) {
		panic("kaboom")
	}, nil)

	eng := New()
	exec := eng.Execute(context.Background(), []step.Step{bomb}, types.NewWorkflowData(), "run-5")

	assert.Equal(t, types.WorkflowFailed, exec.Status)
	require.Len(t, exec.Steps, 1)
	assert.Contains(t, exec.Steps[0].Error, "kaboom")
}

func TestExecuteNilResultBecomesFailed(t *testing.T) {
	eng := New()
	exec := eng.Execute(context.Background(), []step.Step{nilResultStep{}}, types.NewWorkflowData(), "run-6")

	assert.Equal(t, types.WorkflowFailed, exec.Status)
	require.Len(t, exec.Steps, 1)
	assert.Equal(t, "step returned no result", exec.Steps[0].Error)
	assert.Equal(t, "nil-result", exec.Steps[0].StepName)
}

type nilResultStep struct{}

func (nilResultStep) Name() string                                                  { return "nil-result" }
func (nilResultStep) Description() string                                           { return "" }
func (nilResultStep) Execute(context.Context, *types.WorkflowData) *types.StepResult { return nil }
func (nilResultStep) CanExecute(*types.WorkflowData) bool                           { return true }

func TestExecuteCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := New()
	exec := eng.Execute(ctx, []step.Step{okStep("a"), okStep("b")}, types.NewWorkflowData(), "run-7")

	assert.Equal(t, types.WorkflowCancelled, exec.Status)
	require.Len(t, exec.Steps, 2)
	assert.Equal(t, types.StepSkipped, exec.Steps[0].Status)
}

func TestExecuteEmptyIDGetsFallback(t *testing.T) {
	eng := New()
	exec := eng.Execute(context.Background(), nil, nil, "")
	assert.NotEmpty(t, exec.ID)
	assert.Equal(t, types.WorkflowCompleted, exec.Status)
}

func TestExecuteParallelDisjointKeys(t *testing.T) {
	eng := New(WithParallel(2))

	steps := make([]step.Step, 0, 4)
	for i := 0; i < 4; i++ {
		key := fmt.Sprintf("k%d", i)
		steps = append(steps, step.NewFuncStep(key, "", func(_ context.Context, data *types.WorkflowData, _ map[string]any) (any, error) {
			return "v-" + key, nil
		}, nil))
	}

	data := types.NewWorkflowData()
	exec := eng.Execute(context.Background(), steps, data, "run-8")

	assert.Equal(t, types.WorkflowCompleted, exec.Status)
	assert.Len(t, exec.Steps, 4)
	for i := 0; i < 4; i++ {
		key := fmt.Sprintf("k%d", i)
		assert.Equal(t, "v-"+key, data.GetString(key, ""))
	}
}

func TestExecuteParallelFailureDoesNotCancelSiblings(t *testing.T) {
	var done atomic.Int32
	eng := New(WithParallel(4))

	steps := []step.Step{
		failStep("bad"),
		countingStep("s1", &done),
		countingStep("s2", &done),
	}

	exec := eng.Execute(context.Background(), steps, types.NewWorkflowData(), "run-9")

	assert.Equal(t, types.WorkflowFailed, exec.Status)
	assert.Equal(t, int32(2), done.Load())
	assert.Len(t, exec.Steps, 3)
}

func TestHooksFireInOrder(t *testing.T) {
	var events []string
	eng := New()
	eng.OnBeforeStep(func(s step.Step, _ *types.WorkflowData, _ *types.Execution) {
		events = append(events, "before:"+s.Name())
	})
	eng.OnAfterStep(func(s step.Step, res *types.StepResult, _ *types.Execution) {
		events = append(events, "after:"+s.Name())
	})
	eng.OnComplete(func(_ *types.Execution) {
		events = append(events, "complete")
	})

	eng.Execute(context.Background(), []step.Step{okStep("a"), okStep("b")}, types.NewWorkflowData(), "run-10")

	assert.Equal(t, []string{"before:a", "after:a", "before:b", "after:b", "complete"}, events)
}

func TestPanickingHookDoesNotAffectRun(t *testing.T) {
	eng := New()
	eng.OnBeforeStep(func(step.Step, *types.WorkflowData, *types.Execution) {
		panic("bad hook")
	})

	exec := eng.Execute(context.Background(), []step.Step{okStep("a")}, types.NewWorkflowData(), "run-11")

	assert.Equal(t, types.WorkflowCompleted, exec.Status)
	require.Len(t, exec.Steps, 1)
	assert.True(t, exec.Steps[0].Completed())
}

func TestExecuteWithTimeoutDecorator(t *testing.T) {
	slow := step.NewFuncStep("slow", "", func(ctx context.Context, _ *types.WorkflowData, _ map[string]any) (any, error) {
		select {
		case <-time.After(5 * time.Second):
			return "late", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, nil)

	eng := New()
	exec := eng.Execute(context.Background(), []step.Step{step.WithTimeout(slow, 20*time.Millisecond)}, types.NewWorkflowData(), "run-12")

	assert.Equal(t, types.WorkflowFailed, exec.Status)
	assert.Contains(t, exec.Steps[0].Error, "timed out")
}
