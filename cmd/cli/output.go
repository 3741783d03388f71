package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/flowforge/orchestrator/internal/api/models"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
)

func renderWorkflowStatus(status models.WorkflowStatusResponse) string {
	lines := []string{
		fmt.Sprintf("%s %s", labelStyle.Render("Status:"), formatTaskStatus(status.Status)),
	}
	if status.Error != "" {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Error:"), status.Error))
	}
	if len(status.Result) > 0 {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Result:"), formatMap(status.Result)))
	}
	return strings.Join(lines, "\n")
}

func renderNodeList(nodes []models.NodeDescriptorResponse) string {
	headers := []string{"Type", "Category", "Inputs", "Outputs", "Null-tolerant"}
	rows := make([][]string, 0, len(nodes))

	for _, n := range nodes {
		rows = append(rows, []string{
			n.TypeName,
			n.Category,
			fmt.Sprintf("%d", len(n.InputPorts)),
			fmt.Sprintf("%d", len(n.OutputPorts)),
			fmt.Sprintf("%t", n.NullTolerant),
		})
	}

	widths := columnWidths(headers, rows)
	var lines []string
	lines = append(lines, headerStyle.Render(formatRow(headers, widths)))
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths))
	}
	return strings.Join(lines, "\n")
}

func renderHealth(resp models.HealthResponse) string {
	lines := []string{
		fmt.Sprintf("%s %s", labelStyle.Render("Status:"), resp.Status),
		fmt.Sprintf("%s %d", labelStyle.Render("Completed:"), resp.Jobs.Completed),
		fmt.Sprintf("%s %d", labelStyle.Render("Failed:"), resp.Jobs.Failed),
		fmt.Sprintf("%s %d", labelStyle.Render("In progress:"), resp.Jobs.InProgress),
		fmt.Sprintf("%s %d", labelStyle.Render("In queue:"), resp.Jobs.InQueue),
	}
	return strings.Join(lines, "\n")
}

func formatTaskStatus(status string) string {
	switch status {
	case "completed":
		return successStyle.Render(status)
	case "error", "cancelled":
		return errorStyle.Render(status)
	default:
		return status
	}
}

func formatMap(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, 0, len(cells))
	for i, cell := range cells {
		parts = append(parts, padRight(cell, widths[i]+2))
	}
	return strings.TrimRight(strings.Join(parts, ""), " ")
}

func padRight(value string, width int) string {
	if len(value) >= width {
		return value
	}
	return fmt.Sprintf("%-*s", width, value)
}
