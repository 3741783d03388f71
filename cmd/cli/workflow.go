package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cliapi "github.com/flowforge/orchestrator/internal/cli"
	"github.com/flowforge/orchestrator/internal/api/models"
)

func newWorkflowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Execute and inspect standalone workflow executions",
	}

	cmd.AddCommand(newWorkflowExecuteCommand())
	cmd.AddCommand(newWorkflowStatusCommand())
	cmd.AddCommand(newWorkflowCancelCommand())

	return cmd
}

func newWorkflowExecuteCommand() *cobra.Command {
	var webhookURL string

	command := &cobra.Command{
		Use:   "execute <file.json>",
		Short: "Execute a raw workflow graph definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read workflow file: %w", err)
			}

			var workflow map[string]any
			if err := json.Unmarshal(raw, &workflow); err != nil {
				return fmt.Errorf("parse workflow file: %w", err)
			}

			client := cliapi.NewClient(cfg.APIURL, cfg.APIKey)
			result, err := client.ExecuteWorkflow(context.Background(), models.ExecuteWorkflowRequest{
				Workflow:   workflow,
				WebhookURL: webhookURL,
			})
			if err != nil {
				return err
			}

			cmd.Println(successStyle.Render("Workflow accepted"))
			cmd.Printf("%s %s\n", labelStyle.Render("Task ID:"), result.TaskID)
			return nil
		},
	}

	command.Flags().StringVar(&webhookURL, "webhook-url", "", "Webhook URL notified on completion")
	return command
}

func newWorkflowStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <task_id>",
		Short: "Poll a standalone workflow task's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := cliapi.NewClient(cfg.APIURL, cfg.APIKey)
			status, err := client.WorkflowStatus(context.Background(), args[0])
			if err != nil {
				return err
			}

			cmd.Println(headerStyle.Render("Workflow status"))
			cmd.Println(renderWorkflowStatus(*status))
			return nil
		},
	}
}

func newWorkflowCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <task_id>",
		Short: "Cancel a standalone workflow execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := cliapi.NewClient(cfg.APIURL, cfg.APIKey)
			result, err := client.CancelWorkflow(context.Background(), args[0])
			if err != nil {
				return err
			}

			cmd.Println(successStyle.Render(fmt.Sprintf("Task %s cancelled", result.TaskID)))
			return nil
		},
	}
}
