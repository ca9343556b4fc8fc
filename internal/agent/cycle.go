package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/orientation"
	"github.com/visioneer/core/internal/verrors"
)

// CycleResult summarizes one RunCycle invocation for the caller (CLI
// or dashboard).
type CycleResult struct {
	State          AgentState
	ExecutedTaskID string
	ExecutedStatus string
	Warnings       int
	Pivoted        bool
	Tick           chunkmodel.Tick
}

// RunCycle implements §4.7's full cycle: wake-up, prioritise, coherence
// gate, execute, result handling, end-of-cycle bookkeeping (goal
// activation, orientation rewrite, clock advance, scheduled
// decay/consolidation), and pivot detection. since is the timestamp of
// the previous cycle's wake-up (zero value on the project's first
// cycle).
func (d *Driver) RunCycle(ctx context.Context, since time.Time) (CycleResult, error) {
	state, err := d.WakeUp(ctx, since)
	if err != nil {
		return CycleResult{}, fmt.Errorf("wake-up failed: %w", err)
	}

	currentTick, err := d.clock.Current(ctx)
	if err != nil {
		return CycleResult{}, fmt.Errorf("failed to read current tick: %w", err)
	}

	goal, err := d.store.GetActiveGoal(ctx, d.cfg.ProjectID)
	if err != nil && !verrors.IsNotFound(err) {
		return CycleResult{}, fmt.Errorf("failed to load active goal: %w", err)
	}

	result := CycleResult{State: state, Tick: currentTick}

	if state.Status == StatusReady {
		sessionID := fmt.Sprintf("%s-%d", d.cfg.ProjectID, currentTick)
		ready := append([]*chunkmodel.Task{}, state.TaskQueue...)
		skip := make(map[string]bool)

		for attempts := 0; attempts < max(1, d.cfg.MaxTasksPerSession); attempts++ {
			candidates := filterTasks(ready, skip)
			task := Prioritize(candidates, goal, orientationPriorities(state.Orientation), nil, orientationPhase(state.Orientation), candidates)
			if task == nil {
				break
			}

			ok, gateErr := d.GateTask(ctx, task, goal)
			if gateErr != nil {
				d.log.Warn("coherence gate failed", zap.String("task_id", task.ID), zap.Error(gateErr))
				skip[task.ID] = true
				continue
			}
			if !ok {
				result.Warnings++
				skip[task.ID] = true
				continue
			}

			d.logActivity(ctx, currentTick, "task_starting", task.Title)

			execResult, execErr := d.Execute(ctx, task, goal, state.Orientation, currentTick, sessionID)
			if execErr != nil {
				return result, fmt.Errorf("execute failed for task %s: %w", task.ID, execErr)
			}
			if err := d.HandleResult(ctx, task, execResult, currentTick, nil); err != nil {
				d.log.Warn("result handling failed", zap.String("task_id", task.ID), zap.Error(err))
			}
			if d.bus != nil {
				if t, err := d.store.GetTask(ctx, task.ID); err == nil {
					if err := d.bus.PublishTaskStatus(d.cfg.ProjectID, t.ID, t.Title, t.Status); err != nil {
						d.log.Warn("failed to publish task status event", zap.Error(err))
					}
				}
			}

			d.logActivity(ctx, currentTick, "task_"+string(execResult.Status), task.Title)
			result.ExecutedTaskID = task.ID
			result.ExecutedStatus = string(execResult.Status)
			break
		}
	}

	pivoted, err := d.checkPivot(ctx, since, currentTick)
	if err != nil {
		d.log.Warn("pivot check failed", zap.Error(err))
	}
	result.Pivoted = pivoted

	if err := d.endOfCycle(ctx, currentTick, state.Orientation, pivoted); err != nil {
		return result, fmt.Errorf("end-of-cycle bookkeeping failed: %w", err)
	}

	return result, nil
}

// endOfCycle implements §4.7's end-of-cycle step: activate any pending
// goal (atomically superseding the current one), evaluate orientation
// rewrite triggers, advance the clock, and run decay/consolidation on
// their configured schedule.
func (d *Driver) endOfCycle(ctx context.Context, currentTick chunkmodel.Tick, orient *chunkmodel.Orientation, forceRewrite bool) error {
	if pending, err := d.store.NextPendingGoal(ctx, d.cfg.ProjectID); err == nil && pending != nil {
		if active, aerr := d.store.GetActiveGoal(ctx, d.cfg.ProjectID); aerr == nil && active != nil {
			if err := d.store.SupersedeGoal(ctx, active.ID); err != nil {
				return fmt.Errorf("failed to supersede goal %s: %w", active.ID, err)
			}
		}
		if _, err := d.store.CreateGoal(ctx, d.cfg.ProjectID, pending.GoalText, chunkmodel.GoalActive); err != nil {
			return fmt.Errorf("failed to activate pending goal: %w", err)
		}
		if err := d.store.ConsumePendingGoal(ctx, pending.ID); err != nil {
			return fmt.Errorf("failed to consume pending goal %s: %w", pending.ID, err)
		}
		if d.bus != nil {
			if err := d.bus.PublishGoal(d.cfg.ProjectID, pending.ID, pending.GoalText, chunkmodel.GoalActive); err != nil {
				d.log.Warn("failed to publish goal activation event", zap.Error(err))
			}
		}
	}

	if d.orientation != nil && orient != nil {
		shouldRewrite := forceRewrite
		if !shouldRewrite {
			var rewriteErr error
			shouldRewrite, _, rewriteErr = d.orientation.ShouldRewrite(ctx, d.cfg.ProjectID, orientation.TriggerInputs{
				// Orientation carries no tick of its own last rewrite,
				// only a wall-clock timestamp; 0 makes the activity-count
				// precautionary trigger count every activity the project
				// has recorded after tick 0 rather than just those since
				// the last rewrite, so once that total reaches the
				// threshold the trigger fires on every later cycle.
				LastRewriteTick: 0,
				CurrentTick:     currentTick,
				LastRewriteAt:   orient.LastRewritten,
				Now:             time.Now().UTC(),
			}, orient.SkillMap)
			if rewriteErr != nil {
				d.log.Warn("failed to evaluate orientation rewrite triggers", zap.Error(rewriteErr))
			}
		}
		if shouldRewrite {
			if _, err := d.orientation.Rewrite(ctx, orientation.RewriteInput{
				ProjectID:        d.cfg.ProjectID,
				VisionSummary:    orient.VisionSummary,
				SuccessCriteria:  orient.SuccessCriteria,
				Constraints:      orient.Constraints,
				SkillMap:         orient.SkillMap,
				CurrentPhase:     orient.CurrentPhase,
				ActivePriorities: orient.ActivePriorities,
				ProgressSnapshot: orient.ProgressSnapshot,
				CurrentTick:      currentTick,
			}); err != nil {
				d.log.Warn("orientation rewrite failed", zap.Error(err))
			}
		}
	}

	next, err := d.clock.Advance(ctx)
	if err != nil {
		return fmt.Errorf("failed to advance clock: %w", err)
	}
	if d.bus != nil {
		if err := d.bus.PublishTick(d.cfg.ProjectID, next); err != nil {
			d.log.Warn("failed to publish tick event", zap.Error(err))
		}
	}

	if d.memory != nil {
		if shouldDecay, tick, err := d.clock.ShouldRunDecay(ctx, d.cfg.DecayIntervalTicks); err == nil && shouldDecay {
			if _, err := d.memory.RunDecay(ctx, d.cfg.ProjectID, next, tick); err != nil {
				d.log.Warn("decay pass failed", zap.Error(err))
			} else if err := d.clock.MarkDecayRan(ctx, next); err != nil {
				d.log.Warn("failed to record decay tick", zap.Error(err))
			}
		}
		if shouldConsolidate, _, err := d.clock.ShouldRunConsolidation(ctx, d.cfg.ConsolidationIntervalTicks); err == nil && shouldConsolidate {
			if _, err := d.memory.RunConsolidation(ctx, d.cfg.ProjectID, next, d.cfg.Consolidation); err != nil {
				d.log.Warn("consolidation pass failed", zap.Error(err))
			} else if err := d.clock.MarkConsolidationRan(ctx, next); err != nil {
				d.log.Warn("failed to record consolidation tick", zap.Error(err))
			}
		}
	}

	return nil
}

// checkPivot scans answers recorded since the previous wake for
// direction-change signals. On a pivot it cancels every ready (queued)
// task, marking it done with a cancellation note, and signals the caller
// to force an orientation rewrite.
func (d *Driver) checkPivot(ctx context.Context, since time.Time, currentTick chunkmodel.Tick) (bool, error) {
	if len(d.cfg.PivotKeywords) == 0 {
		return false, nil
	}
	answered, err := d.store.ListAnsweredSince(ctx, d.cfg.ProjectID, since)
	if err != nil {
		return false, fmt.Errorf("failed to list answers for pivot check: %w", err)
	}

	pivoted := false
	for _, q := range answered {
		if DetectPivot(q.Answer, d.cfg.PivotKeywords) {
			pivoted = true
			break
		}
	}
	if !pivoted {
		return false, nil
	}

	queued, err := d.store.ListTasks(ctx, TaskFilter{ProjectID: d.cfg.ProjectID, Status: chunkmodel.TaskReady})
	if err != nil {
		return true, fmt.Errorf("failed to list queued tasks for pivot cancellation: %w", err)
	}
	for _, t := range queued {
		if err := d.store.CompleteTask(ctx, t.ID, "cancelled: direction pivot detected"); err != nil {
			d.log.Warn("failed to cancel queued task on pivot", zap.String("task_id", t.ID), zap.Error(err))
		}
	}
	d.logActivity(ctx, currentTick, "pivot_detected", fmt.Sprintf("cancelled %d queued tasks", len(queued)))
	return true, nil
}

func filterTasks(tasks []*chunkmodel.Task, skip map[string]bool) []*chunkmodel.Task {
	out := make([]*chunkmodel.Task, 0, len(tasks))
	for _, t := range tasks {
		if !skip[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

func orientationPriorities(o *chunkmodel.Orientation) []string {
	if o == nil {
		return nil
	}
	return o.ActivePriorities
}

func orientationPhase(o *chunkmodel.Orientation) chunkmodel.Phase {
	if o == nil {
		return ""
	}
	return o.CurrentPhase
}
