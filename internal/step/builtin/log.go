package builtin

import (
	"context"
	"fmt"
	"time"

	"stepflow/internal/step"
	"stepflow/internal/types"
)

// LogStep prints a message for debugging workflows. Config keys:
//
//	message: text to print (required)
type LogStep struct {
	step.Base
}

// NewLogStep is the factory constructor for the "log" step type.
func NewLogStep(name, description string, config map[string]any) (step.Step, error) {
	if _, ok := config["message"]; !ok {
		return nil, fmt.Errorf("log step %q: missing required config key \"message\"", name)
	}
	return &LogStep{Base: step.NewBase(name, description, config)}, nil
}

func (s *LogStep) Execute(_ context.Context, _ *types.WorkflowData) *types.StepResult {
	start := time.Now()

	message := fmt.Sprintf("%v", s.Config["message"])
	fmt.Println("[log]", message)

	return s.Completed(message, time.Since(start))
}
