package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stepflow/internal/config"
)

var initFormat string

var initCmd = &cobra.Command{
	Use:   "init [template-name]",
	Short: "Write a template workflow into the configs directory",
	Long:  "Without arguments, lists the available templates. With a template name, writes it as a ready-to-run workflow config.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  initWorkflow,
}

func init() {
	initCmd.Flags().StringVar(&initFormat, "format", "yaml", "config file format: yaml or json")
	rootCmd.AddCommand(initCmd)
}

func initWorkflow(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println("Available templates:")
		for _, name := range config.TemplateNames() {
			fmt.Printf("  %s\n", name)
		}
		return nil
	}

	cfg, err := config.Template(args[0])
	if err != nil {
		return err
	}

	var ext string
	switch strings.ToLower(initFormat) {
	case "yaml", "yml":
		ext = ".yaml"
	case "json":
		ext = ".json"
	default:
		return fmt.Errorf("unsupported format %q, want yaml or json", initFormat)
	}

	store, err := config.NewStore(configsDir)
	if err != nil {
		return err
	}
	path, err := store.Save(cfg, cfg.Name+ext)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote workflow %q to %s\n", cfg.Name, path)
	return nil
}
