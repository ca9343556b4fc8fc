package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visioneer/core/internal/agent"
	"github.com/visioneer/core/internal/chunkmodel"
)

var warningsCmd = &cobra.Command{
	Use:   "warnings",
	Short: "list pending coherence warnings",
	RunE:  runWarnings,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <warning-id> <task-id> <exec|skip|edit> [note]",
	Short: "resolve a coherence warning",
	Long: `resolve records a human decision on a coherence warning:
"exec" leaves the task ready as it is (it still passes through the
coherence gate on the next cycle; the gate is not bypassed), "skip"
dismisses the task with a note, "edit" keeps the task ready after the
caller has already applied a description edit.`,
	Args: cobra.MinimumNArgs(3),
	RunE: runResolve,
}

func init() {
	warningsCmd.AddCommand(resolveCmd)
}

func runWarnings(cmd *cobra.Command, args []string) error {
	r, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer r.Close()

	warnings, err := r.store.ListPendingWarnings(context.Background(), r.projectID)
	if err != nil {
		return fmt.Errorf("failed to list warnings: %w", err)
	}
	if len(warnings) == 0 {
		fmt.Println("no pending coherence warnings")
		return nil
	}
	for _, w := range warnings {
		fmt.Printf("%s  task=%s\n  concern:    %s\n  suggestion: %s\n", w.ID, w.TaskID, w.Concern, w.Suggestion)
	}
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	r, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer r.Close()

	warningID, taskID, action := args[0], args[1], args[2]
	note := ""
	if len(args) > 3 {
		note = joinArgs(args[3:])
	}

	var resolution agent.WarningResolution
	switch action {
	case "exec":
		resolution = agent.ResolveExecute
	case "skip":
		resolution = agent.ResolveDismiss
	case "edit":
		resolution = agent.ResolveModify
	default:
		return fmt.Errorf("unknown resolution %q: expected exec, skip, or edit", action)
	}

	ctx := context.Background()
	if err := r.driver.ResolveWarning(ctx, warningID, taskID, resolution, note); err != nil {
		return fmt.Errorf("failed to resolve warning: %w", err)
	}
	if err := r.store.ResolveWarning(ctx, warningID, chunkmodel.CoherenceWarningStatus(resolution)); err != nil {
		return fmt.Errorf("failed to mark warning resolved: %w", err)
	}
	fmt.Printf("warning %s resolved as %s\n", warningID, action)
	return nil
}
