package main

import (
	"context"

	"github.com/spf13/cobra"

	cliapi "github.com/flowforge/orchestrator/internal/cli"
)

func newNodesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Inspect registered node types",
	}

	cmd.AddCommand(newNodesListCommand())
	return cmd
}

func newNodesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every registered node type with its port schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := cliapi.NewClient(cfg.APIURL, cfg.APIKey)
			nodes, err := client.ListNodes(context.Background())
			if err != nil {
				return err
			}

			cmd.Println(headerStyle.Render("Registered node types"))
			cmd.Println(renderNodeList(nodes))
			return nil
		},
	}
}
