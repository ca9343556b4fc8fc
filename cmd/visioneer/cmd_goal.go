package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/verrors"
)

var goalCmd = &cobra.Command{
	Use:   "goal <goal text>",
	Short: "set or queue a project's goal",
	Long: `goal sets the project's active goal if none is set yet, or
queues goal text to replace the current one at the next safe cycle
boundary (the end-of-cycle step supersedes the old goal and activates
the queued one) if a goal is already active.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGoal,
}

func init() {
	goalCmd.AddCommand(goalShowCmd)
}

var goalShowCmd = &cobra.Command{
	Use:   "show",
	Short: "print the project's active goal",
	RunE:  runGoalShow,
}

func runGoal(cmd *cobra.Command, args []string) error {
	r, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx := context.Background()
	goalText := joinArgs(args)

	_, err = r.store.GetActiveGoal(ctx, r.projectID)
	switch {
	case err == nil:
		if _, err := r.store.QueuePendingGoal(ctx, r.projectID, goalText); err != nil {
			return fmt.Errorf("failed to queue pending goal: %w", err)
		}
		fmt.Println("goal queued; it activates at the end of the next agent cycle")
	case verrors.IsNotFound(err):
		if _, err := r.store.CreateGoal(ctx, r.projectID, goalText, chunkmodel.GoalActive); err != nil {
			return fmt.Errorf("failed to create goal: %w", err)
		}
		fmt.Println("goal set")
	default:
		return fmt.Errorf("failed to check for an active goal: %w", err)
	}
	return nil
}

func runGoalShow(cmd *cobra.Command, args []string) error {
	r, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer r.Close()

	goal, err := r.store.GetActiveGoal(context.Background(), r.projectID)
	if err != nil {
		if verrors.IsNotFound(err) {
			fmt.Println("(no active goal)")
			return nil
		}
		return fmt.Errorf("failed to load active goal: %w", err)
	}
	fmt.Printf("[%s] %s\n", goal.Status, goal.GoalText)
	return nil
}
