package cmd

import (
	"github.com/spf13/cobra"
)

var (
	configsDir   string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "stepflow",
	Short: "Stepflow — configurable step-based workflow engine",
	Long:  "A workflow engine that runs ordered or parallel steps against a shared data bag, driven by JSON/YAML workflow configs.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configsDir, "configs-dir", "./workflows", "directory containing workflow config files")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func Execute() error {
	return rootCmd.Execute()
}
