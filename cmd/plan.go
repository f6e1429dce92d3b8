package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stepflow/internal/config"
)

var planFile string

var planCmd = &cobra.Command{
	Use:   "plan <workflow-name>",
	Short: "Show what a workflow would execute, without running it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  planWorkflow,
}

func init() {
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "plan a config file directly instead of a stored workflow")
	rootCmd.AddCommand(planCmd)
}

func planWorkflow(cmd *cobra.Command, args []string) error {
	mgr, err := defaultManager(newLogger())
	if err != nil {
		return err
	}

	var cfg *config.WorkflowConfig
	switch {
	case planFile != "":
		cfg, err = config.LoadFile(planFile)
	case len(args) == 1:
		cfg, err = mgr.Store().ByName(args[0])
	default:
		return fmt.Errorf("either a workflow name or --file is required")
	}
	if err != nil {
		return err
	}

	plan, err := mgr.Plan(cfg)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}

	fmt.Printf("Workflow:    %s\n", cfg.Name)
	fmt.Printf("Mode:        %s\n", plan.Mode)
	if plan.MaxWorkers > 0 {
		fmt.Printf("Max workers: %d\n", plan.MaxWorkers)
	}
	fmt.Printf("Steps:       %d\n\n", plan.TotalSteps)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tTYPE\tINPUTS\tOUTPUTS")
	for _, sp := range plan.Steps {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			sp.Index, sp.Name, sp.Type, listLabel(sp.RequiredInputs), listLabel(sp.OutputKeys))
	}
	return w.Flush()
}

func listLabel(keys []string) string {
	if len(keys) == 0 {
		return "-"
	}
	return strings.Join(keys, ",")
}
