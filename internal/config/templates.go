package config

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrTemplateNotFound is returned for an unknown template name.
var ErrTemplateNotFound = errors.New("workflow template not found")

// templates are ready-to-run workflow configs built entirely from builtin
// step types, so a fresh installation has something to execute.
var templates = map[string]func() *WorkflowConfig{
	"content-pipeline": contentPipelineTemplate,
	"fanout-demo":      fanoutDemoTemplate,
}

// TemplateNames lists the built-in template names, sorted.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Template builds a fresh config from a built-in template.
func Template(name string) (*WorkflowConfig, error) {
	build, ok := templates[name]
	if !ok {
		return nil, errors.Wrapf(ErrTemplateNotFound, "template %q", name)
	}
	return build(), nil
}

func contentPipelineTemplate() *WorkflowConfig {
	cfg := New("content-pipeline", "Sequential demo: prepare, render, publish")
	cfg.Steps = []StepConfig{
		{
			Name:        "prepare",
			Type:        "transform",
			Description: "Seed default values into the data bag",
			Config: map[string]any{
				"set": map[string]any{
					"topic":  "daily digest",
					"format": "markdown",
				},
			},
		},
		{
			Name:         "render",
			Type:         "echo",
			Description:  "Render the headline",
			Config:       map[string]any{"key": "headline", "value": "Daily Digest"},
			Dependencies: []string{"prepare"},
		},
		{
			Name:         "publish",
			Type:         "log",
			Description:  "Announce the result",
			Config:       map[string]any{"message": "content pipeline finished"},
			Dependencies: []string{"render"},
		},
	}
	cfg.Variables = map[string]any{"topic": "", "format": "markdown"}
	return cfg
}

func fanoutDemoTemplate() *WorkflowConfig {
	cfg := New("fanout-demo", "Parallel demo: independent steps writing disjoint keys")
	cfg.Settings = Settings{Parallel: true, MaxWorkers: 4}
	cfg.Steps = []StepConfig{
		{
			Name:   "fetch-a",
			Type:   "echo",
			Config: map[string]any{"key": "a", "value": "alpha"},
		},
		{
			Name:   "fetch-b",
			Type:   "echo",
			Config: map[string]any{"key": "b", "value": "bravo"},
		},
		{
			Name:   "fetch-c",
			Type:   "echo",
			Config: map[string]any{"key": "c", "value": "charlie"},
		},
	}
	return cfg
}
