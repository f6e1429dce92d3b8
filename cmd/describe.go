package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe <workflow-name>",
	Short: "Show details of a stored workflow",
	Args:  cobra.ExactArgs(1),
	RunE:  describeWorkflow,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func describeWorkflow(cmd *cobra.Command, args []string) error {
	mgr, err := defaultManager(newLogger())
	if err != nil {
		return err
	}

	cfg, err := mgr.Store().ByName(args[0])
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	fmt.Printf("Name:        %s\n", cfg.Name)
	fmt.Printf("Version:     %s\n", cfg.Version)
	fmt.Printf("Description: %s\n", cfg.Description)
	fmt.Printf("Mode:        %s\n", modeLabel(cfg.Settings.Parallel))
	if cfg.Settings.Parallel && cfg.Settings.MaxWorkers > 0 {
		fmt.Printf("Max workers: %d\n", cfg.Settings.MaxWorkers)
	}

	if len(cfg.Variables) > 0 {
		fmt.Println("\nVariables:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  KEY\tDEFAULT")
		for key, value := range cfg.Variables {
			fmt.Fprintf(w, "  %s\t%v\n", key, value)
		}
		w.Flush()
	}

	fmt.Println("\nSteps:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  #\tNAME\tTYPE\tENABLED\tTIMEOUT\tRETRIES")
	for i, sc := range cfg.Steps {
		timeout := "-"
		if sc.TimeoutSeconds > 0 {
			timeout = fmt.Sprintf("%ds", sc.TimeoutSeconds)
		}
		fmt.Fprintf(w, "  %d\t%s\t%s\t%v\t%s\t%d\n", i+1, sc.Name, sc.EffectiveType(), sc.IsEnabled(), timeout, sc.RetryCount)
	}
	return w.Flush()
}
