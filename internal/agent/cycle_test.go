package agent

import (
	"context"
	"testing"
	"time"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/executor"
)

func TestRunCycleLogsStartingAndCompletedActivity(t *testing.T) {
	stub := &executor.StubExecutor{
		Respond: func(req executor.Request) (executor.Result, error) {
			return executor.Result{Status: executor.ResultComplete, OutcomeText: "done"}, nil
		},
	}
	d, s, projectID := setupDriver(t, stub)
	ctx := context.Background()

	if _, err := s.Store.CreateTask(ctx, &chunkmodel.Task{ProjectID: projectID, Title: "ship it"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if _, err := d.RunCycle(ctx, time.Time{}); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	activities, err := s.Store.RecentActivities(ctx, projectID, 50)
	if err != nil {
		t.Fatalf("RecentActivities failed: %v", err)
	}

	var sawStarting, sawCompleted bool
	for _, a := range activities {
		if a.Action == "task_starting" {
			sawStarting = true
		}
		if a.Action == "task_complete" {
			sawCompleted = true
		}
	}
	if !sawStarting {
		t.Error("expected a task_starting activity to be logged before execution")
	}
	if !sawCompleted {
		t.Error("expected a task_complete activity to be logged after execution")
	}
}
