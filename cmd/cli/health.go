package main

import (
	"context"

	"github.com/spf13/cobra"

	cliapi "github.com/flowforge/orchestrator/internal/cli"
)

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show service health and job counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := cliapi.NewClient(cfg.APIURL, cfg.APIKey)
			resp, err := client.Health(context.Background())
			if err != nil {
				return err
			}

			cmd.Println(headerStyle.Render("Orchestrator health"))
			cmd.Println(renderHealth(*resp))
			return nil
		},
	}
}
