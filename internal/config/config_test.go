package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestStepConfigDefaults(t *testing.T) {
	sc := StepConfig{Name: "a"}
	assert.True(t, sc.IsEnabled())
	assert.Equal(t, "function", sc.EffectiveType())

	sc.Enabled = boolPtr(false)
	assert.False(t, sc.IsEnabled())

	sc.Type = "echo"
	assert.Equal(t, "echo", sc.EffectiveType())
}

func TestNewAppliesDefaults(t *testing.T) {
	cfg := New("demo", "a demo")
	assert.Equal(t, DefaultVersion, cfg.Version)
	assert.NotNil(t, cfg.Steps)
}

func TestAddGetRemoveStep(t *testing.T) {
	cfg := New("demo", "")
	cfg.AddStep(StepConfig{Name: "one", Type: "echo"})
	cfg.AddStep(StepConfig{Name: "two", Type: "log"})

	sc, ok := cfg.GetStep("two")
	require.True(t, ok)
	assert.Equal(t, "log", sc.Type)

	assert.True(t, cfg.RemoveStep("one"))
	assert.False(t, cfg.RemoveStep("one"))
	assert.Len(t, cfg.Steps, 1)
}

func TestNormalize(t *testing.T) {
	cfg := &WorkflowConfig{
		Name:  "demo",
		Steps: []StepConfig{{Name: "a"}, {Name: "b", Type: "echo"}},
	}
	cfg.Normalize()

	assert.Equal(t, DefaultVersion, cfg.Version)
	assert.Equal(t, DefaultStepType, cfg.Steps[0].Type)
	assert.Equal(t, "echo", cfg.Steps[1].Type)
}

func TestCloneIsDeep(t *testing.T) {
	cfg := New("demo", "")
	cfg.AddStep(StepConfig{Name: "a", Type: "echo", Config: map[string]any{"value": "x"}})

	clone, err := cfg.Clone("copy")
	require.NoError(t, err)
	assert.Equal(t, "copy", clone.Name)

	clone.Steps[0].Config["value"] = "changed"
	assert.Equal(t, "x", cfg.Steps[0].Config["value"])
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	cfg := New("demo", "")
	cfg.AddStep(StepConfig{Name: "a", Type: "echo", Config: map[string]any{"value": 1}})
	cfg.AddStep(StepConfig{Name: "b", Type: "log", Dependencies: []string{"a"}})

	report := cfg.Validate()
	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
}

func TestValidateRejectsEmptyWorkflow(t *testing.T) {
	cfg := New("demo", "")
	report := cfg.Validate()
	assert.False(t, report.Valid)
}

func TestValidateRejectsMissingName(t *testing.T) {
	cfg := &WorkflowConfig{Steps: []StepConfig{{Name: "a", Type: "echo"}}}
	report := cfg.Validate()
	assert.False(t, report.Valid)
}

func TestValidateFunctionStepNeedsFunction(t *testing.T) {
	cfg := New("demo", "")
	cfg.AddStep(StepConfig{Name: "a"})

	report := cfg.Validate()
	assert.False(t, report.Valid)

	cfg.Steps[0].Function = "pkg.do"
	report = cfg.Validate()
	assert.True(t, report.Valid)
}

func TestValidateDuplicateNamesWarn(t *testing.T) {
	cfg := New("demo", "")
	cfg.AddStep(StepConfig{Name: "a", Type: "echo"})
	cfg.AddStep(StepConfig{Name: "a", Type: "log"})

	report := cfg.Validate()
	assert.True(t, report.Valid)
	assert.NotEmpty(t, report.Warnings)
}

func TestValidateNegativeKnobs(t *testing.T) {
	cfg := New("demo", "")
	cfg.AddStep(StepConfig{Name: "a", Type: "echo", RetryCount: -1, TimeoutSeconds: -5})

	report := cfg.Validate()
	assert.False(t, report.Valid)
	assert.Len(t, report.Errors, 2)
}

func TestValidateDependencyHints(t *testing.T) {
	cfg := New("demo", "")
	cfg.AddStep(StepConfig{Name: "a", Type: "echo", Dependencies: []string{"later"}})
	cfg.AddStep(StepConfig{Name: "later", Type: "echo"})

	report := cfg.Validate()
	// Forward references are warnings, not errors.
	assert.True(t, report.Valid)
	assert.NotEmpty(t, report.Warnings)
}
