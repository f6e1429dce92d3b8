package builtin

import (
	"context"
	"fmt"
	"time"

	"stepflow/internal/step"
	"stepflow/internal/types"
)

// TransformStep mutates the data bag without external side effects.
// Config keys, all optional:
//
//	set:    map of key -> value written into the bag
//	rename: map of old key -> new key
//	remove: list of keys deleted from the bag
type TransformStep struct {
	step.Base
}

// NewTransformStep is the factory constructor for the "transform" step type.
func NewTransformStep(name, description string, config map[string]any) (step.Step, error) {
	return &TransformStep{Base: step.NewBase(name, description, config)}, nil
}

func (s *TransformStep) Execute(_ context.Context, data *types.WorkflowData) *types.StepResult {
	start := time.Now()

	changed := 0
	if set, ok := s.Config["set"].(map[string]any); ok {
		data.Update(set)
		changed += len(set)
	}

	if rename, ok := s.Config["rename"].(map[string]any); ok {
		for from, to := range rename {
			target, ok := to.(string)
			if !ok {
				return s.Failed(fmt.Errorf("rename target for %q must be a string", from), time.Since(start))
			}
			if v, ok := data.Remove(from); ok {
				data.Set(target, v)
				changed++
			}
		}
	}

	if remove, ok := s.Config["remove"].([]any); ok {
		for _, k := range remove {
			if key, ok := k.(string); ok {
				if _, removed := data.Remove(key); removed {
					changed++
				}
			}
		}
	}

	return s.Completed(fmt.Sprintf("%d key(s) changed", changed), time.Since(start))
}

func (s *TransformStep) OutputKeys() []string {
	set, ok := s.Config["set"].(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return keys
}
