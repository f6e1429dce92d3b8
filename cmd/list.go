package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored workflows",
	Args:  cobra.NoArgs,
	RunE:  listWorkflows,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func listWorkflows(cmd *cobra.Command, args []string) error {
	mgr, err := defaultManager(newLogger())
	if err != nil {
		return err
	}

	configs, err := mgr.Store().LoadAll()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	if outputFormat == "json" {
		type workflowSummary struct {
			Name        string `json:"name"`
			Version     string `json:"version"`
			Description string `json:"description"`
			Steps       int    `json:"steps"`
			Mode        string `json:"mode"`
		}
		summaries := make([]workflowSummary, 0, len(names))
		for _, name := range names {
			cfg := configs[name]
			summaries = append(summaries, workflowSummary{
				Name:        cfg.Name,
				Version:     cfg.Version,
				Description: cfg.Description,
				Steps:       len(cfg.Steps),
				Mode:        modeLabel(cfg.Settings.Parallel),
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tDESCRIPTION\tSTEPS\tMODE")
	for _, name := range names {
		cfg := configs[name]
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", cfg.Name, cfg.Version, cfg.Description, len(cfg.Steps), modeLabel(cfg.Settings.Parallel))
	}
	return w.Flush()
}

func modeLabel(parallel bool) string {
	if parallel {
		return "parallel"
	}
	return "sequential"
}
