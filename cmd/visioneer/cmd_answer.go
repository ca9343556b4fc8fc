package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var answerCmd = &cobra.Command{
	Use:   "answer <question-id> <answer text>",
	Short: "answer an open question, unblocking any task waiting on it",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAnswer,
}

func runAnswer(cmd *cobra.Command, args []string) error {
	r, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer r.Close()

	questionID := args[0]
	answer := joinArgs(args[1:])

	ctx := context.Background()
	if err := r.store.AnswerQuestion(ctx, questionID, answer); err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}
	fmt.Printf("recorded answer for question %s\n", questionID)
	fmt.Println("it will be absorbed and any blocked tasks unblocked on the next \"visioneer run\" cycle")
	return nil
}

func joinArgs(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += " " + p
	}
	return out
}
