package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stepflow/internal/config"
	"stepflow/internal/types"
)

var (
	inputJSON string
	runFile   string
	runID     string
)

var runCmd = &cobra.Command{
	Use:   "run <workflow-name>",
	Short: "Execute a workflow with JSON input",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWorkflow,
}

func init() {
	runCmd.Flags().StringVar(&inputJSON, "input", "{}", "JSON input seeded into the workflow data")
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "run a config file directly instead of a stored workflow")
	runCmd.Flags().StringVar(&runID, "id", "", "execution id (generated when empty)")
	rootCmd.AddCommand(runCmd)
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync()

	mgr, err := defaultManager(logger)
	if err != nil {
		return err
	}

	var cfg *config.WorkflowConfig
	switch {
	case runFile != "":
		cfg, err = config.LoadFile(runFile)
		if err != nil {
			return err
		}
	case len(args) == 1:
		cfg, err = mgr.Store().ByName(args[0])
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("either a workflow name or --file is required")
	}

	var input map[string]any
	if err := json.Unmarshal([]byte(inputJSON), &input); err != nil {
		return fmt.Errorf("parsing input JSON: %w", err)
	}

	exec, err := mgr.Execute(context.Background(), cfg, input, runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exec); err != nil {
		return err
	}

	if exec.Status != types.WorkflowCompleted {
		return fmt.Errorf("workflow %q finished with status %s", cfg.Name, exec.Status)
	}
	return nil
}
