package engine

import (
	"fmt"

	"stepflow/internal/step"
	"stepflow/internal/types"
)

// Validate inspects a compiled step list before execution. An empty list
// is a hard error; duplicate names and undeclared inputs are warnings,
// since steps may read keys seeded into the initial data bag.
func Validate(steps []step.Step) *types.ValidationReport {
	report := types.NewValidationReport(len(steps))

	if len(steps) == 0 {
		report.AddError("workflow has no steps to execute")
		return report
	}

	seen := make(map[string]int, len(steps))
	produced := make(map[string]bool)

	for i, s := range steps {
		name := s.Name()
		if name == "" {
			report.AddError(fmt.Sprintf("step %d has no name", i+1))
		} else if first, dup := seen[name]; dup {
			report.AddWarning(fmt.Sprintf("duplicate step name %q (steps %d and %d)", name, first+1, i+1))
		} else {
			seen[name] = i
		}

		if i > 0 {
			for _, key := range declaredInputs(s) {
				if !produced[key] {
					report.AddWarning(fmt.Sprintf("step %q requires input %q not produced by any earlier step", name, key))
				}
			}
		}
		for _, key := range declaredOutputs(s) {
			produced[key] = true
		}
	}

	return report
}

func declaredInputs(s step.Step) []string {
	if d, ok := s.(step.InputDeclarer); ok {
		return d.RequiredInputs()
	}
	return nil
}

func declaredOutputs(s step.Step) []string {
	if d, ok := s.(step.OutputDeclarer); ok {
		return d.OutputKeys()
	}
	return nil
}
