package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stepflow/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate <config-file>",
	Short: "Validate a workflow config file",
	Args:  cobra.ExactArgs(1),
	RunE:  validateWorkflow,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateWorkflow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFile(args[0])
	if err != nil {
		return err
	}

	mgr, err := defaultManager(newLogger())
	if err != nil {
		return err
	}
	report := mgr.Validate(cfg)

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		for _, msg := range report.Errors {
			fmt.Printf("error: %s\n", msg)
		}
		for _, msg := range report.Warnings {
			fmt.Printf("warning: %s\n", msg)
		}
		if report.Valid {
			fmt.Printf("Workflow %q is valid (%d steps).\n", cfg.Name, report.StepCount)
		}
	}

	if !report.Valid {
		return fmt.Errorf("workflow %q is invalid", cfg.Name)
	}
	return nil
}
