package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/memory"
)

// WakeUp implements §4.7's wake-up sequence: load orientation, open
// tasks/questions/active goal, detect questions answered since the
// previous wake and persist their answers as verified user_input chunks,
// unblock any tasks whose only blocker was one of those questions, and
// assemble the resulting AgentState. since is the timestamp of the
// previous wake-up (zero value on a project's very first wake).
func (d *Driver) WakeUp(ctx context.Context, since time.Time) (AgentState, error) {
	o, err := d.store.GetOrientation(ctx, d.cfg.ProjectID)
	if err != nil {
		return AgentState{}, fmt.Errorf("failed to load orientation: %w", err)
	}

	currentTick, err := d.clock.Current(ctx)
	if err != nil {
		return AgentState{}, fmt.Errorf("failed to read current tick: %w", err)
	}

	ready, err := d.store.ListTasks(ctx, TaskFilter{ProjectID: d.cfg.ProjectID, Status: chunkmodel.TaskReady})
	if err != nil {
		return AgentState{}, fmt.Errorf("failed to list ready tasks: %w", err)
	}
	blocked, err := d.store.ListTasks(ctx, TaskFilter{ProjectID: d.cfg.ProjectID, Status: chunkmodel.TaskBlocked})
	if err != nil {
		return AgentState{}, fmt.Errorf("failed to list blocked tasks: %w", err)
	}

	openQuestions, err := d.store.ListOpenQuestions(ctx, d.cfg.ProjectID)
	if err != nil {
		return AgentState{}, fmt.Errorf("failed to list open questions: %w", err)
	}

	if err := d.absorbAnsweredQuestions(ctx, currentTick, blocked, since); err != nil {
		return AgentState{}, err
	}

	// Re-list blocked/ready tasks: absorbing answers may have unblocked some.
	ready, err = d.store.ListTasks(ctx, TaskFilter{ProjectID: d.cfg.ProjectID, Status: chunkmodel.TaskReady})
	if err != nil {
		return AgentState{}, fmt.Errorf("failed to re-list ready tasks: %w", err)
	}

	status := StatusIdle
	switch {
	case len(ready) > 0:
		status = StatusReady
	case anyQuestionBlocksTasks(openQuestions):
		status = StatusWaitingForUser
	}

	return AgentState{
		Orientation:   o,
		TaskQueue:     ready,
		OpenQuestions: openQuestions,
		Status:        status,
	}, nil
}

// absorbAnsweredQuestions persists each newly-answered question's answer
// as a verified user_input chunk and unblocks tasks whose only remaining
// blocker was that question, one question at a time but atomically per
// question: the chunk write and its dependent unblocks either both land
// or neither does (§4.1's atomicity example).
func (d *Driver) absorbAnsweredQuestions(ctx context.Context, currentTick chunkmodel.Tick, blockedTasks []*chunkmodel.Task, since time.Time) error {
	answered, err := d.store.ListAnsweredSince(ctx, d.cfg.ProjectID, since)
	if err != nil {
		return fmt.Errorf("failed to list recently answered questions: %w", err)
	}

	for _, q := range answered {
		var unblockIDs []string
		for _, t := range blockedTasks {
			if !containsID(t.BlockedBy, q.ID) {
				continue
			}
			if remainingBlockers(t.BlockedBy, answered) > 0 {
				continue
			}
			unblockIDs = append(unblockIDs, t.ID)
		}

		if d.memory == nil {
			for _, id := range unblockIDs {
				if err := d.store.UnblockTask(ctx, id); err != nil {
					d.log.Warn("failed to unblock task", zap.String("task_id", id), zap.Error(err))
				}
			}
			continue
		}

		c, embedErr := d.memory.BuildChunk(ctx, memory.WriteChunkInput{
			ProjectID:  d.cfg.ProjectID,
			Content:    q.Answer,
			Type:       chunkmodel.ChunkUserInput,
			Confidence: chunkmodel.ConfidenceVerified,
			Source:     chunkmodel.SourceUser,
			LearningContext: chunkmodel.LearningContext{
				Tick:         currentTick,
				QueryContext: q.Question,
			},
			CurrentTick: currentTick,
		})
		if embedErr != nil {
			d.log.Warn("embedding failed for answered-question chunk, persisting anyway", zap.String("question_id", q.ID), zap.Error(embedErr))
		}
		if err := d.store.AbsorbAnsweredQuestion(ctx, c, unblockIDs); err != nil {
			d.log.Warn("failed to absorb answered question", zap.String("question_id", q.ID), zap.Error(err))
		}
	}
	return nil
}

func containsID(ids []string, id string) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}

func remainingBlockers(blockedBy []string, resolved []*chunkmodel.Question) int {
	resolvedSet := make(map[string]bool, len(resolved))
	for _, q := range resolved {
		resolvedSet[q.ID] = true
	}
	remaining := 0
	for _, id := range blockedBy {
		if !resolvedSet[id] {
			remaining++
		}
	}
	return remaining
}

func anyQuestionBlocksTasks(qs []*chunkmodel.Question) bool {
	for _, q := range qs {
		if len(q.BlocksTasks) > 0 {
			return true
		}
	}
	return false
}
