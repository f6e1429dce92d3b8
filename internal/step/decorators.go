package step

import (
	"context"
	"fmt"
	"time"

	"stepflow/internal/types"
)

// WithTimeout wraps a step so its execution runs under a deadline. An
// overrun is converted into a failed result; the underlying goroutine is
// abandoned, not killed, so timeouts are cooperative only.
func WithTimeout(s Step, d time.Duration) Step {
	if d <= 0 {
		return s
	}
	return &timeoutStep{Step: s, timeout: d}
}

type timeoutStep struct {
	Step
	timeout time.Duration
}

func (t *timeoutStep) Execute(ctx context.Context, data *types.WorkflowData) *types.StepResult {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan *types.StepResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- &types.StepResult{
					StepName:   t.Name(),
					Status:     types.StepFailed,
					Error:      fmt.Sprintf("step panic: %v", r),
					DurationMs: time.Since(start).Milliseconds(),
				}
			}
		}()
		done <- t.Step.Execute(ctx, data)
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return &types.StepResult{
			StepName:   t.Name(),
			Status:     types.StepFailed,
			Error:      fmt.Sprintf("step %q timed out after %s", t.Name(), t.timeout),
			DurationMs: time.Since(start).Milliseconds(),
			Metadata:   map[string]any{"timeout": t.timeout.String()},
		}
	}
}

func (t *timeoutStep) RequiredInputs() []string { return declaredInputs(t.Step) }
func (t *timeoutStep) OutputKeys() []string     { return declaredOutputs(t.Step) }

// WithRetry wraps a step so a failed result is retried up to attempts
// extra times, sleeping backoff between tries. The attempt count is
// recorded in the final result's metadata.
func WithRetry(s Step, attempts int, backoff time.Duration) Step {
	if attempts <= 0 {
		return s
	}
	return &retryStep{Step: s, attempts: attempts, backoff: backoff}
}

type retryStep struct {
	Step
	attempts int
	backoff  time.Duration
}

func (r *retryStep) Execute(ctx context.Context, data *types.WorkflowData) *types.StepResult {
	var res *types.StepResult
	tries := 0
	for attempt := 0; attempt <= r.attempts; attempt++ {
		if attempt > 0 && r.backoff > 0 {
			select {
			case <-time.After(r.backoff):
			case <-ctx.Done():
				return &types.StepResult{
					StepName: r.Name(),
					Status:   types.StepFailed,
					Error:    ctx.Err().Error(),
					Metadata: map[string]any{"attempts": tries},
				}
			}
		}
		res = r.Step.Execute(ctx, data)
		tries++
		if res == nil || !res.Failed() {
			break
		}
	}
	if res != nil {
		if res.Metadata == nil {
			res.Metadata = make(map[string]any)
		}
		res.Metadata["attempts"] = tries
	}
	return res
}

func (r *retryStep) RequiredInputs() []string { return declaredInputs(r.Step) }
func (r *retryStep) OutputKeys() []string     { return declaredOutputs(r.Step) }

func declaredInputs(s Step) []string {
	if d, ok := s.(InputDeclarer); ok {
		return d.RequiredInputs()
	}
	return nil
}

func declaredOutputs(s Step) []string {
	if d, ok := s.(OutputDeclarer); ok {
		return d.OutputKeys()
	}
	return nil
}
