package step

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepflow/internal/types"
)

func TestWithTimeoutPassesFastSteps(t *testing.T) {
	s := NewFuncStep("fast", "", func(_ context.Context, _ *types.WorkflowData, _ map[string]any) (any, error) {
		return "ok", nil
	}, nil)

	wrapped := WithTimeout(s, time.Second)
	res := wrapped.Execute(context.Background(), types.NewWorkflowData())
	assert.True(t, res.Completed())
}

func TestWithTimeoutFailsSlowSteps(t *testing.T) {
	s := NewFuncStep("slow", "", func(ctx context.Context, _ *types.WorkflowData, _ map[string]any) (any, error) {
		select {
		case <-time.After(5 * time.Second):
			return "too late", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, nil)

	wrapped := WithTimeout(s, 20*time.Millisecond)
	res := wrapped.Execute(context.Background(), types.NewWorkflowData())

	require.True(t, res.Failed())
	assert.Contains(t, res.Error, "timed out")
	assert.Equal(t, "slow", res.StepName)
}

func TestWithTimeoutZeroIsNoop(t *testing.T) {
	s := NewFuncStep("plain", "", nil, nil)
	assert.Same(t, Step(s), WithTimeout(s, 0))
}

func TestWithRetryEventualSuccess(t *testing.T) {
	calls := 0
	s := NewFuncStep("flaky", "", func(_ context.Context, _ *types.WorkflowData, _ map[string]any) (any, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	}, nil)

	wrapped := WithRetry(s, 3, 0)
	res := wrapped.Execute(context.Background(), types.NewWorkflowData())

	require.True(t, res.Completed())
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, res.Metadata["attempts"])
}

func TestWithRetryExhaustion(t *testing.T) {
	calls := 0
	s := NewFuncStep("hopeless", "", func(_ context.Context, _ *types.WorkflowData, _ map[string]any) (any, error) {
		calls++
		return nil, errors.New("always")
	}, nil)

	wrapped := WithRetry(s, 2, 0)
	res := wrapped.Execute(context.Background(), types.NewWorkflowData())

	require.True(t, res.Failed())
	// 1 initial attempt plus 2 retries.
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, res.Metadata["attempts"])
}

func TestWithRetryRespectsCancellation(t *testing.T) {
	s := NewFuncStep("hopeless", "", func(_ context.Context, _ *types.WorkflowData, _ map[string]any) (any, error) {
		return nil, errors.New("always")
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wrapped := WithRetry(s, 5, time.Minute)
	res := wrapped.Execute(ctx, types.NewWorkflowData())

	require.True(t, res.Failed())
	assert.Contains(t, res.Error, "context canceled")
}

func TestDecoratorsPreserveDeclarations(t *testing.T) {
	s := NewFuncStep("declared", "", nil, nil, WithInputs("in"), WithOutputs("out"))

	timed := WithTimeout(s, time.Second)
	retried := WithRetry(s, 1, 0)

	for _, wrapped := range []Step{timed, retried} {
		in, ok := wrapped.(InputDeclarer)
		require.True(t, ok)
		assert.Equal(t, []string{"in"}, in.RequiredInputs())

		out, ok := wrapped.(OutputDeclarer)
		require.True(t, ok)
		assert.Equal(t, []string{"out"}, out.OutputKeys())
	}
}
