package eventbus

import (
	"fmt"
	"time"

	"github.com/visioneer/core/internal/chunkmodel"
)

// Subject patterns, scoped per project so a single embedded server
// could in principle host more than one project's events without
// cross-talk.
const (
	subjectTick       = "project.%s.tick"
	subjectTaskStatus = "project.%s.task"
	subjectWarning    = "project.%s.warning"
	subjectGoal       = "project.%s.goal"
	subjectActivity   = "project.%s.activity"
)

func tickSubject(projectID string) string     { return fmt.Sprintf(subjectTick, projectID) }
func taskSubject(projectID string) string     { return fmt.Sprintf(subjectTaskStatus, projectID) }
func warningSubject(projectID string) string  { return fmt.Sprintf(subjectWarning, projectID) }
func goalSubject(projectID string) string     { return fmt.Sprintf(subjectGoal, projectID) }
func activitySubject(projectID string) string { return fmt.Sprintf(subjectActivity, projectID) }

// TickEvent announces that the project's logical clock advanced.
type TickEvent struct {
	ProjectID string         `json:"project_id"`
	Tick      chunkmodel.Tick `json:"tick"`
	Timestamp time.Time      `json:"timestamp"`
}

// TaskStatusEvent announces a task's status transition.
type TaskStatusEvent struct {
	ProjectID string                `json:"project_id"`
	TaskID    string                `json:"task_id"`
	Title     string                `json:"title"`
	Status    chunkmodel.TaskStatus `json:"status"`
	Timestamp time.Time             `json:"timestamp"`
}

// WarningEvent announces a coherence warning raised by the cycle
// driver's coherence gate.
type WarningEvent struct {
	ProjectID string    `json:"project_id"`
	TaskID    string    `json:"task_id"`
	Concern   string    `json:"concern"`
	Timestamp time.Time `json:"timestamp"`
}

// GoalEvent announces a goal activation or supersession.
type GoalEvent struct {
	ProjectID string                `json:"project_id"`
	GoalID    string                `json:"goal_id"`
	GoalText  string                `json:"goal_text"`
	Status    chunkmodel.GoalStatus `json:"status"`
	Timestamp time.Time             `json:"timestamp"`
}

// ActivityEvent mirrors an activity log append, for a dashboard's
// scrolling activity feed.
type ActivityEvent struct {
	ProjectID string    `json:"project_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}
