package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "print a project's current tick, active goal, tasks, and open questions",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	r, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx := context.Background()

	tick, err := r.clock.Current(ctx)
	if err != nil {
		return fmt.Errorf("failed to read tick: %w", err)
	}
	fmt.Printf("project:  %s (%s)\n", flagProject, r.projectID)
	fmt.Printf("tick:     %d\n", tick)

	goal, err := r.store.GetActiveGoal(ctx, r.projectID)
	if err != nil {
		fmt.Println("goal:     (none active)")
	} else {
		fmt.Printf("goal:     [%s] %s\n", goal.Status, goal.GoalText)
	}

	orient, err := r.store.GetOrientation(ctx, r.projectID)
	if err == nil {
		fmt.Printf("phase:    %s\n", orient.CurrentPhase)
		if len(orient.ActivePriorities) > 0 {
			fmt.Println("priorities:")
			for _, p := range orient.ActivePriorities {
				fmt.Printf("  - %s\n", p)
			}
		}
	}

	ready, _ := r.store.ListTasks(ctx, store.TaskFilter{ProjectID: r.projectID, Status: chunkmodel.TaskReady})
	blocked, _ := r.store.ListTasks(ctx, store.TaskFilter{ProjectID: r.projectID, Status: chunkmodel.TaskBlocked})
	inProgress, _ := r.store.ListTasks(ctx, store.TaskFilter{ProjectID: r.projectID, Status: chunkmodel.TaskInProgress})
	fmt.Printf("tasks:    %d ready, %d in progress, %d blocked\n", len(ready), len(inProgress), len(blocked))
	for _, t := range ready {
		fmt.Printf("  ready      %s  %s\n", shortenID(t.ID), t.Title)
	}
	for _, t := range blocked {
		fmt.Printf("  blocked    %s  %s\n", shortenID(t.ID), t.Title)
	}

	questions, err := r.store.ListOpenQuestions(ctx, r.projectID)
	if err == nil && len(questions) > 0 {
		fmt.Println("open questions:")
		for _, q := range questions {
			fmt.Printf("  %s  %s\n", shortenID(q.ID), q.Question)
		}
	}

	warnings, err := r.store.ListPendingWarnings(ctx, r.projectID)
	if err == nil && len(warnings) > 0 {
		fmt.Println("coherence warnings:")
		for _, w := range warnings {
			fmt.Printf("  %s  %s\n", shortenID(w.ID), w.Concern)
		}
	}

	return nil
}

func shortenID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
