package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	cliapi "github.com/flowforge/orchestrator/internal/cli"
)

func newJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage submitted jobs",
	}

	cmd.AddCommand(newJobsCancelCommand())
	return cmd
}

func newJobsCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job_id>",
		Short: "Cancel a queued or processing job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := cliapi.NewClient(cfg.APIURL, cfg.APIKey)
			result, err := client.CancelJob(context.Background(), args[0])
			if err != nil {
				return err
			}

			cmd.Println(successStyle.Render(fmt.Sprintf("Job %s cancelled", result.JobID)))
			return nil
		},
	}
}
