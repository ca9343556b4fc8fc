package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/executor"
	"github.com/visioneer/core/internal/memory"
)

// HandleResult implements §5/§4.7's per-status result handling: persist
// any learnings, then branch on status.
func (d *Driver) HandleResult(ctx context.Context, task *chunkmodel.Task, result executor.Result, currentTick chunkmodel.Tick, taskContextIDs []string) error {
	if err := d.persistLearnings(ctx, result.Learnings, currentTick, task, taskContextIDs); err != nil {
		d.log.Warn("failed to persist one or more learnings", zap.String("task_id", task.ID), zap.Error(err))
	}

	switch result.Status {
	case executor.ResultComplete:
		return d.handleComplete(ctx, task, result)
	case executor.ResultBlocked:
		return d.handleBlocked(ctx, task, result)
	case executor.ResultPartial:
		return d.handlePartial(ctx, task, result)
	case executor.ResultFailed:
		return d.handleFailed(ctx, task, result)
	default:
		return fmt.Errorf("unknown executor result status %q for task %s", result.Status, task.ID)
	}
}

func (d *Driver) persistLearnings(ctx context.Context, learnings []executor.Learning, currentTick chunkmodel.Tick, task *chunkmodel.Task, relatedChunks []string) error {
	if d.memory == nil {
		return nil
	}
	var firstErr error
	for _, l := range learnings {
		_, err := d.memory.WriteChunk(ctx, memory.WriteChunkInput{
			ProjectID:  d.cfg.ProjectID,
			Content:    l.Content,
			Type:       l.Type,
			Tags:       l.Tags,
			Confidence: l.Confidence,
			Source:     chunkmodel.SourceDeduction,
			LearningContext: chunkmodel.LearningContext{
				Tick:          currentTick,
				TaskID:        task.ID,
				SkillArea:     task.SkillArea,
				QueryContext:  task.Title,
				RelatedChunks: append(append([]string{}, relatedChunks...), l.RelatedChunks...),
			},
			CurrentTick: currentTick,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		d.logActivity(ctx, currentTick, "learning_stored", l.Content)
	}
	return firstErr
}

// handleComplete persists the outcome and completes the task; any
// dependents become eligible for the next ready-task listing once the
// Store's own readiness query re-evaluates them (no explicit unblock
// call needed since completion, unlike answering a question, isn't a
// BlockedBy relation).
func (d *Driver) handleComplete(ctx context.Context, task *chunkmodel.Task, result executor.Result) error {
	if err := d.store.CompleteTask(ctx, task.ID, result.OutcomeText); err != nil {
		return fmt.Errorf("failed to complete task %s: %w", task.ID, err)
	}
	return d.queueFollowUps(ctx, result.FollowUpTasks)
}

// handleBlocked raises each new question (naming this task as one it
// blocks) and transitions the task to blocked.
func (d *Driver) handleBlocked(ctx context.Context, task *chunkmodel.Task, result executor.Result) error {
	var questionIDs []string
	for _, nq := range result.NewQuestions {
		q, err := d.store.CreateQuestion(ctx, &chunkmodel.Question{
			ProjectID:   d.cfg.ProjectID,
			Question:    nq.Question,
			Context:     nq.Context,
			BlocksTasks: []string{task.ID},
		})
		if err != nil {
			return fmt.Errorf("failed to raise blocking question for task %s: %w", task.ID, err)
		}
		questionIDs = append(questionIDs, q.ID)
	}
	if err := d.store.BlockTask(ctx, task.ID, questionIDs); err != nil {
		return fmt.Errorf("failed to mark task %s blocked: %w", task.ID, err)
	}
	return nil
}

// handlePartial leaves the task ready for a later cycle (its learnings
// are already persisted above) and queues any follow-ups the executor
// identified along the way.
func (d *Driver) handlePartial(ctx context.Context, task *chunkmodel.Task, result executor.Result) error {
	return d.queueFollowUps(ctx, result.FollowUpTasks)
}

// handleFailed records the failure and resolves it per the
// retry-vs-done policy: a transient failure (currently just a timeout)
// goes back to ready for a later cycle; anything else is marked done
// with the failure recorded as its outcome.
func (d *Driver) handleFailed(ctx context.Context, task *chunkmodel.Task, result executor.Result) error {
	reason := result.FailureReason
	if reason == "" {
		reason = "unspecified"
	}
	retry := reason == "timeout"
	if err := d.store.FailTask(ctx, task.ID, reason, result.OutcomeText, retry); err != nil {
		return fmt.Errorf("failed to record failure for task %s: %w", task.ID, err)
	}
	return nil
}

// queueFollowUps creates each follow-up in ready status; dependencyReadiness
// (prioritize.go) scores a task with unmet DependsOn at 0 rather than
// excluding it outright, since depends_on here tracks soft ordering
// hints rather than the question-blocking the blocked_by column models.
func (d *Driver) queueFollowUps(ctx context.Context, followUps []executor.FollowUpTask) error {
	for _, f := range followUps {
		_, err := d.store.CreateTask(ctx, &chunkmodel.Task{
			ProjectID:   d.cfg.ProjectID,
			Title:       f.Title,
			Description: f.Description,
			SkillArea:   f.SkillArea,
			DependsOn:   f.DependsOn,
			Status:      chunkmodel.TaskReady,
		})
		if err != nil {
			return fmt.Errorf("failed to queue follow-up task %q: %w", f.Title, err)
		}
	}
	return nil
}
