package builtin

import (
	"context"
	"fmt"
	"time"

	"stepflow/internal/step"
	"stepflow/internal/types"
)

// SleepStep pauses the workflow for a fixed duration. Config keys:
//
//	duration: Go duration string, e.g. "250ms" or "2s" (required)
type SleepStep struct {
	step.Base
	duration time.Duration
}

// NewSleepStep is the factory constructor for the "sleep" step type.
func NewSleepStep(name, description string, config map[string]any) (step.Step, error) {
	raw, _ := config["duration"].(string)
	if raw == "" {
		return nil, fmt.Errorf("sleep step %q: missing required config key \"duration\"", name)
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return nil, fmt.Errorf("sleep step %q: invalid duration %q: %w", name, raw, err)
	}
	return &SleepStep{Base: step.NewBase(name, description, config), duration: d}, nil
}

func (s *SleepStep) Execute(ctx context.Context, _ *types.WorkflowData) *types.StepResult {
	start := time.Now()

	select {
	case <-time.After(s.duration):
		return s.Completed(fmt.Sprintf("slept %s", s.duration), time.Since(start))
	case <-ctx.Done():
		return s.Failed(ctx.Err(), time.Since(start))
	}
}
