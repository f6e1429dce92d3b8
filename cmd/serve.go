package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"stepflow/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workflow HTTP server",
	Args:  cobra.NoArgs,
	RunE:  serveWorkflows,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func serveWorkflows(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync()

	mgr, err := defaultManager(logger)
	if err != nil {
		return err
	}

	configs, err := mgr.Store().LoadAll()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", servePort)
	fmt.Printf("Starting workflow server on %s\n", addr)
	fmt.Printf("Loaded %d workflow(s)\n", len(configs))
	for name := range configs {
		fmt.Printf("  POST /workflows/%s/run\n", name)
	}

	return server.New(mgr, logger).ListenAndServe(addr)
}
