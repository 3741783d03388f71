package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orchestrator-cli",
		Short: "CLI for interacting with the agent orchestrator API",
		Long:  "A command-line tool for submitting and inspecting workflows and jobs via the orchestrator's HTTP API.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadCLIConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().String("config", "", "Config file path")
	cmd.PersistentFlags().String("api-url", "http://localhost:8080", "Orchestrator API base URL")
	cmd.PersistentFlags().String("api-key", "", "Orchestrator API key (X-API-Key header)")

	if err := bindCLIFlags(cmd); err != nil {
		cmd.PrintErrln(fmt.Sprintf("failed to bind flags: %v", err))
	}

	cmd.AddCommand(newWorkflowCommand())
	cmd.AddCommand(newNodesCommand())
	cmd.AddCommand(newJobsCommand())
	cmd.AddCommand(newHealthCommand())

	return cmd
}
