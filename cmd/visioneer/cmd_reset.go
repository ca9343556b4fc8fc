package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var flagResetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "delete a project's stored state and start over",
	Long: `reset deletes the project's SQLite database (orientation,
goals, tasks, questions, activity log, chunks, and relationship graph)
so the next command recreates it from scratch at tick 0. This is
irreversible; pass --force to skip the confirmation prompt.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&flagResetForce, "force", false, "skip the confirmation prompt")
}

func runReset(cmd *cobra.Command, args []string) error {
	dbPath := filepath.Join(flagDataDir, flagProject+".db")

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Printf("project %q has no stored state\n", flagProject)
		return nil
	}

	if !flagResetForce {
		fmt.Printf("this deletes all stored state for project %q at %s.\ntype the project name to confirm: ", flagProject, dbPath)
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != flagProject {
			return fmt.Errorf("confirmation did not match project name, aborting")
		}
	}

	for _, suffix := range []string{"", "-wal", "-shm"} {
		path := dbPath + suffix
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	fmt.Printf("project %q reset\n", flagProject)
	return nil
}
