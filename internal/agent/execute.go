package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/executor"
)

// Execute implements §4.7's execute step: claim the task, retrieve
// context for it, and dispatch it to the external executor. A context
// deadline expiry (§5) surfaces as a failed result with
// failure_reason="timeout" rather than an error, so callers always get
// a Result to feed into result handling.
func (d *Driver) Execute(ctx context.Context, task *chunkmodel.Task, goal *chunkmodel.Goal, orient *chunkmodel.Orientation, currentTick chunkmodel.Tick, sessionID string) (executor.Result, error) {
	claimed, err := d.store.ClaimTask(ctx, task.ID)
	if err != nil {
		return executor.Result{}, fmt.Errorf("failed to claim task %s: %w", task.ID, err)
	}

	var scored []executor.ScoredChunk
	if d.retrieval != nil {
		rc := RetrievalContext{
			Tick:      currentTick,
			TaskID:    claimed.ID,
			SkillArea: claimed.SkillArea,
			Query:     claimed.Title + " " + claimed.Description,
			SessionID: sessionID,
		}
		if goal != nil {
			rc.GoalID = goal.ID
		}
		if orient != nil {
			rc.Phase = string(orient.CurrentPhase)
		}
		scored, err = d.retrieval.Retrieve(ctx, d.cfg.ProjectID, rc)
		if err != nil {
			d.log.Warn("retrieval failed for task execution, proceeding with empty context")
		}
	}

	req := executor.Request{Task: *claimed, Context: scored}
	if goal != nil {
		req.Goal = *goal
	}
	if orient != nil {
		req.Orientation = *orient
	}

	result, err := d.executor.Execute(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return executor.Result{
				Status:        executor.ResultFailed,
				FailureReason: "timeout",
			}, nil
		}
		return executor.Result{}, fmt.Errorf("executor call failed for task %s: %w", task.ID, err)
	}
	return result, nil
}
