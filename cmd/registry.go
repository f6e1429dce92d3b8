package cmd

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"stepflow/internal/config"
	"stepflow/internal/manager"
	"stepflow/internal/step"
	"stepflow/internal/step/builtin"
	"stepflow/internal/types"
)

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		return zap.NewNop()
	}
	return logger
}

// defaultManager builds a manager with the builtin step types, the stock
// demo functions, and a store rooted at the configs directory.
func defaultManager(logger *zap.Logger) (*manager.Manager, error) {
	store, err := config.NewStore(configsDir)
	if err != nil {
		return nil, err
	}

	mgr := manager.New(
		manager.WithLogger(logger),
		manager.WithStore(store),
	)

	for tag, ctor := range map[string]step.Constructor{
		"echo":      builtin.NewEchoStep,
		"log":       builtin.NewLogStep,
		"transform": builtin.NewTransformStep,
		"http":      builtin.NewHTTPStep,
		"sleep":     builtin.NewSleepStep,
	} {
		if err := mgr.RegisterStepType(tag, ctor); err != nil {
			return nil, err
		}
	}

	for name, fn := range map[string]step.Func{
		"builtin.uppercase": uppercaseFunc,
		"builtin.greet":     greetFunc,
	} {
		if err := mgr.RegisterFunction(name, fn); err != nil {
			return nil, err
		}
	}

	return mgr, nil
}

func uppercaseFunc(_ context.Context, data *types.WorkflowData, params map[string]any) (any, error) {
	key, _ := params["key"].(string)
	if key == "" {
		return nil, fmt.Errorf("uppercase: missing required parameter \"key\"")
	}
	value, ok := data.Get(key)
	if !ok {
		return nil, fmt.Errorf("uppercase: data key %q not set", key)
	}
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("uppercase: data key %q is not a string", key)
	}

	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out), nil
}

func greetFunc(_ context.Context, data *types.WorkflowData, params map[string]any) (any, error) {
	name := data.GetString("name", "world")
	if n, ok := params["name"].(string); ok && n != "" {
		name = n
	}
	return fmt.Sprintf("hello, %s", name), nil
}
