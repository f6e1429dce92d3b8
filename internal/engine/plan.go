package engine

import (
	"fmt"

	"stepflow/internal/step"
)

// StepPlan describes one step of an execution plan.
type StepPlan struct {
	Index          int      `json:"index"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Type           string   `json:"type"`
	RequiredInputs []string `json:"required_inputs,omitempty"`
	OutputKeys     []string `json:"output_keys,omitempty"`
}

// ExecutionPlan is a dry-run view of what Execute would do: the step
// order, dispatch mode, and declared data flow. Nothing executes.
type ExecutionPlan struct {
	TotalSteps int        `json:"total_steps"`
	Mode       string     `json:"mode"`
	MaxWorkers int        `json:"max_workers,omitempty"`
	Steps      []StepPlan `json:"steps"`
}

// Plan builds the execution plan the engine would follow for steps.
func (e *Engine) Plan(steps []step.Step) *ExecutionPlan {
	plan := &ExecutionPlan{
		TotalSteps: len(steps),
		Mode:       "sequential",
		Steps:      make([]StepPlan, 0, len(steps)),
	}
	if e.parallel {
		plan.Mode = "parallel"
		plan.MaxWorkers = e.maxWorkers
	}

	for i, s := range steps {
		plan.Steps = append(plan.Steps, StepPlan{
			Index:          i + 1,
			Name:           s.Name(),
			Description:    s.Description(),
			Type:           fmt.Sprintf("%T", s),
			RequiredInputs: declaredInputs(s),
			OutputKeys:     declaredOutputs(s),
		})
	}
	return plan
}
