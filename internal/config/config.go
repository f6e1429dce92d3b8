package config

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"stepflow/internal/types"
)

// ErrInvalidConfig marks a workflow configuration rejected before any step
// executed.
var ErrInvalidConfig = errors.New("invalid workflow config")

var structValidator = validator.New()

// DefaultVersion is assigned to configs that do not declare one.
const DefaultVersion = "1.0.0"

// DefaultStepType is assumed when a step declares no type.
const DefaultStepType = "function"

// StepConfig declares one step of a workflow: which registered type to
// instantiate, its parameters, and advisory ordering metadata.
// Dependencies are validation hints, not an enforced schedule — sequential
// execution order is the config order.
type StepConfig struct {
	Name           string         `yaml:"name" json:"name" validate:"required"`
	Type           string         `yaml:"type,omitempty" json:"type,omitempty"`
	Description    string         `yaml:"description,omitempty" json:"description,omitempty"`
	Function       string         `yaml:"function,omitempty" json:"function,omitempty"`
	Config         map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
	Dependencies   []string       `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Enabled        *bool          `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	TimeoutSeconds int            `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	RetryCount     int            `yaml:"retry_count,omitempty" json:"retry_count,omitempty"`
}

// IsEnabled reports whether the step takes part in execution. Steps are
// enabled unless explicitly disabled.
func (s *StepConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// EffectiveType returns the declared type or the default.
func (s *StepConfig) EffectiveType() string {
	if s.Type == "" {
		return DefaultStepType
	}
	return s.Type
}

// Settings are workflow-level execution knobs.
type Settings struct {
	Parallel        bool `yaml:"parallel,omitempty" json:"parallel,omitempty"`
	MaxWorkers      int  `yaml:"max_workers,omitempty" json:"max_workers,omitempty"`
	ContinueOnError bool `yaml:"continue_on_error,omitempty" json:"continue_on_error,omitempty"`
	TimeoutSeconds  int  `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// WorkflowConfig is the declarative, serializable description of a
// workflow: an ordered list of step declarations plus global settings.
// The engine never mutates it; execution state lives in the Execution
// record and the runtime step instances.
type WorkflowConfig struct {
	Name         string         `yaml:"name" json:"name" validate:"required"`
	Description  string         `yaml:"description,omitempty" json:"description,omitempty"`
	Version      string         `yaml:"version,omitempty" json:"version,omitempty"`
	Steps        []StepConfig   `yaml:"steps" json:"steps" validate:"dive"`
	Settings     Settings       `yaml:"settings,omitempty" json:"settings,omitempty"`
	Variables    map[string]any `yaml:"variables,omitempty" json:"variables,omitempty"`
	GlobalConfig map[string]any `yaml:"global_config,omitempty" json:"global_config,omitempty"`
	Metadata     map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// New creates a named workflow config with defaults applied.
func New(name, description string) *WorkflowConfig {
	return &WorkflowConfig{
		Name:        name,
		Description: description,
		Version:     DefaultVersion,
		Steps:       make([]StepConfig, 0),
	}
}

// AddStep appends a step declaration.
func (c *WorkflowConfig) AddStep(step StepConfig) {
	c.Steps = append(c.Steps, step)
}

// GetStep returns the declaration with the given name.
func (c *WorkflowConfig) GetStep(name string) (*StepConfig, bool) {
	for i := range c.Steps {
		if c.Steps[i].Name == name {
			return &c.Steps[i], true
		}
	}
	return nil, false
}

// RemoveStep deletes the declaration with the given name.
func (c *WorkflowConfig) RemoveStep(name string) bool {
	for i := range c.Steps {
		if c.Steps[i].Name == name {
			c.Steps = append(c.Steps[:i], c.Steps[i+1:]...)
			return true
		}
	}
	return false
}

// Normalize fills in defaulted fields in place.
func (c *WorkflowConfig) Normalize() {
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	for i := range c.Steps {
		if c.Steps[i].Type == "" {
			c.Steps[i].Type = DefaultStepType
		}
	}
}

// Clone returns a deep copy of the config under a new name.
func (c *WorkflowConfig) Clone(newName string) (*WorkflowConfig, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, errors.WithMessagef(err, "cloning workflow %q", c.Name)
	}
	var out WorkflowConfig
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.WithMessagef(err, "cloning workflow %q", c.Name)
	}
	out.Name = newName
	return &out, nil
}

// Validate checks the declaration for structural problems. Hard errors
// (missing names, empty step list, function steps without a function)
// block execution; ordering oddities in dependency hints are warnings.
func (c *WorkflowConfig) Validate() *types.ValidationReport {
	report := types.NewValidationReport(len(c.Steps))

	if err := structValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				report.AddError(fmt.Sprintf("field %s failed %q validation", fe.Namespace(), fe.Tag()))
			}
		} else {
			report.AddError(err.Error())
		}
	}

	if len(c.Steps) == 0 {
		report.AddError("workflow must declare at least one step")
	}

	seen := make(map[string]int, len(c.Steps))
	for i, sc := range c.Steps {
		if sc.Name == "" {
			report.AddError(fmt.Sprintf("step %d: name is required", i+1))
			continue
		}
		if first, dup := seen[sc.Name]; dup {
			report.AddWarning(fmt.Sprintf("duplicate step name %q (steps %d and %d)", sc.Name, first+1, i+1))
		} else {
			seen[sc.Name] = i
		}

		if sc.EffectiveType() == DefaultStepType && sc.Function == "" {
			report.AddError(fmt.Sprintf("step %q: function steps must name a function", sc.Name))
		}
		if sc.RetryCount < 0 {
			report.AddError(fmt.Sprintf("step %q: retry_count must not be negative", sc.Name))
		}
		if sc.TimeoutSeconds < 0 {
			report.AddError(fmt.Sprintf("step %q: timeout must not be negative", sc.Name))
		}

		for _, dep := range sc.Dependencies {
			at, known := seen[dep]
			switch {
			case !known:
				report.AddWarning(fmt.Sprintf("step %q: dependency %q does not match any earlier step", sc.Name, dep))
			case at == i:
				report.AddWarning(fmt.Sprintf("step %q: depends on itself", sc.Name))
			}
		}
	}

	return report
}
