package builtin

import (
	"context"
	"fmt"
	"time"

	"stepflow/internal/step"
	"stepflow/internal/types"
)

// EchoStep writes a configured value into the data bag. Config keys:
//
//	key:   bag key to write (defaults to the step name)
//	value: the value to write (required)
type EchoStep struct {
	step.Base
}

// NewEchoStep is the factory constructor for the "echo" step type.
func NewEchoStep(name, description string, config map[string]any) (step.Step, error) {
	if _, ok := config["value"]; !ok {
		return nil, fmt.Errorf("echo step %q: missing required config key \"value\"", name)
	}
	return &EchoStep{Base: step.NewBase(name, description, config)}, nil
}

func (s *EchoStep) Execute(_ context.Context, data *types.WorkflowData) *types.StepResult {
	start := time.Now()

	key := s.ConfigString("key", s.StepName)
	data.Set(key, s.Config["value"])

	return s.Completed(fmt.Sprintf("wrote %q", key), time.Since(start))
}

func (s *EchoStep) OutputKeys() []string {
	return []string{s.ConfigString("key", s.StepName)}
}
