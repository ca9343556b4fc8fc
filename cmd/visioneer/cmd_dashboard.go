package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/visioneer/core/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "launch a live terminal dashboard for a project",
	Long: `dashboard opens a read-only bubbletea view onto a running
project's tick, active goal, task queue, coherence warnings, and
activity feed, updated live over the event bus. Run "visioneer run"
for the same project in another terminal to see it move.`,
	RunE: runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	r, err := openRuntime(true)
	if err != nil {
		return err
	}
	defer r.Close()

	model := dashboard.New(r.bus, r.projectID)
	program := tea.NewProgram(model)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard exited with error: %w", err)
	}
	return nil
}
