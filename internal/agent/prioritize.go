package agent

import (
	"strings"

	"github.com/visioneer/core/internal/chunkmodel"
)

// Six-factor weights (§4.7); goal alignment dominates per "weight high".
const (
	weightGoalAlignment     = 0.35
	weightActivePriority    = 0.20
	weightDependencyReady   = 0.15
	weightSkillAreaBalance  = 0.10
	weightPhaseAlignment    = 0.10
	weightBlockerUnlock     = 0.10
)

// recentActivityWindow bounds how far back "the last few activities"
// looks for the skill-area-balance penalty.
const recentActivityWindow = 5

// taskScore is one candidate's six-factor breakdown, retained for
// observability alongside the winning task.
type taskScore struct {
	Task  *chunkmodel.Task
	Total float64
}

// Prioritize implements §4.7's six-factor task prioritiser: returns the
// top-scoring ready task, breaking ties by insertion order (ready is
// already ordered by created_at ASC from the Store).
func Prioritize(ready []*chunkmodel.Task, goal *chunkmodel.Goal, activePriorities []string, recentActivities []*chunkmodel.Activity, currentPhase chunkmodel.Phase, allTasks []*chunkmodel.Task) *chunkmodel.Task {
	if len(ready) == 0 {
		return nil
	}

	best := ready[0]
	bestScore := scoreTask(ready[0], goal, activePriorities, recentActivities, currentPhase, allTasks)
	for _, t := range ready[1:] {
		s := scoreTask(t, goal, activePriorities, recentActivities, currentPhase, allTasks)
		if s > bestScore {
			best = t
			bestScore = s
		}
	}
	return best
}

func scoreTask(t *chunkmodel.Task, goal *chunkmodel.Goal, activePriorities []string, recentActivities []*chunkmodel.Activity, currentPhase chunkmodel.Phase, allTasks []*chunkmodel.Task) float64 {
	return weightGoalAlignment*goalAlignment(t, goal) +
		weightActivePriority*activePriorityMatch(t, activePriorities) +
		weightDependencyReady*dependencyReadiness(t) +
		weightSkillAreaBalance*skillAreaBalance(t, recentActivities) +
		weightPhaseAlignment*phaseAlignment(t, currentPhase) +
		weightBlockerUnlock*blockerUnlockPotential(t, allTasks)
}

// goalAlignment is the string/tag overlap between the task's title plus
// description and the active goal's text.
func goalAlignment(t *chunkmodel.Task, goal *chunkmodel.Goal) float64 {
	if goal == nil || goal.GoalText == "" {
		return 0
	}
	goalWords := wordSet(goal.GoalText)
	taskWords := wordSet(t.Title + " " + t.Description)
	if len(goalWords) == 0 || len(taskWords) == 0 {
		return 0
	}
	overlap := 0
	for w := range taskWords {
		if goalWords[w] {
			overlap++
		}
	}
	return float64(overlap) / float64(len(goalWords))
}

// activePriorityMatch scores higher the earlier the task's skill area
// appears in the active-priorities list.
func activePriorityMatch(t *chunkmodel.Task, activePriorities []string) float64 {
	for i, p := range activePriorities {
		if strings.EqualFold(p, t.SkillArea) {
			return 1.0 - float64(i)/float64(len(activePriorities))
		}
	}
	return 0
}

// dependencyReadiness bonuses tasks with no dependencies at all.
func dependencyReadiness(t *chunkmodel.Task) float64 {
	if len(t.DependsOn) == 0 {
		return 1.0
	}
	return 0
}

// skillAreaBalance penalizes a task whose skill area repeats in the
// last few activities, to spread work across skill areas.
func skillAreaBalance(t *chunkmodel.Task, recentActivities []*chunkmodel.Activity) float64 {
	window := recentActivities
	if len(window) > recentActivityWindow {
		window = window[len(window)-recentActivityWindow:]
	}
	for _, a := range window {
		if strings.Contains(strings.ToLower(a.Details), strings.ToLower(t.SkillArea)) {
			return -1.0
		}
	}
	return 0
}

// phaseAlignment bonuses tasks whose skill area/title matches the
// current phase's nature (research tasks during research, execution
// tasks during execution).
func phaseAlignment(t *chunkmodel.Task, phase chunkmodel.Phase) float64 {
	lower := strings.ToLower(t.SkillArea + " " + t.Title)
	switch phase {
	case chunkmodel.PhaseResearch:
		if strings.Contains(lower, "research") || strings.Contains(lower, "learn") || strings.Contains(lower, "study") {
			return 1.0
		}
	case chunkmodel.PhaseExecution:
		if strings.Contains(lower, "implement") || strings.Contains(lower, "build") || strings.Contains(lower, "execute") {
			return 1.0
		}
	case chunkmodel.PhasePlanning:
		if strings.Contains(lower, "plan") || strings.Contains(lower, "design") {
			return 1.0
		}
	}
	return 0
}

// blockerUnlockPotential bonuses proportional to the number of other
// tasks that depend on t.
func blockerUnlockPotential(t *chunkmodel.Task, allTasks []*chunkmodel.Task) float64 {
	unlocks := 0
	for _, other := range allTasks {
		for _, dep := range other.DependsOn {
			if dep == t.ID {
				unlocks++
			}
		}
	}
	if unlocks == 0 {
		return 0
	}
	if unlocks > 5 {
		return 1.0
	}
	return float64(unlocks) / 5.0
}

func wordSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		out[w] = true
	}
	return out
}
