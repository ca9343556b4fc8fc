// Package agent implements the Agent Cycle Driver of §4.7: wake-up,
// task prioritisation, the coherence gate, execution against the
// external executor collaborator, result handling, and end-of-cycle
// bookkeeping.
package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/clock"
	"github.com/visioneer/core/internal/eventbus"
	"github.com/visioneer/core/internal/executor"
	"github.com/visioneer/core/internal/memory"
	"github.com/visioneer/core/internal/orientation"
)

// Store is the subset of store.Store the cycle driver depends on.
type Store interface {
	GetOrientation(ctx context.Context, projectID string) (*chunkmodel.Orientation, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]*chunkmodel.Task, error)
	GetTask(ctx context.Context, id string) (*chunkmodel.Task, error)
	ClaimTask(ctx context.Context, id string) (*chunkmodel.Task, error)
	CompleteTask(ctx context.Context, id, outcome string) error
	FailTask(ctx context.Context, id, reason, failureContext string, retry bool) error
	BlockTask(ctx context.Context, id string, questionIDs []string) error
	UnblockTask(ctx context.Context, id string) error
	CreateTask(ctx context.Context, t *chunkmodel.Task) (*chunkmodel.Task, error)
	AbsorbAnsweredQuestion(ctx context.Context, c *chunkmodel.Chunk, unblockTaskIDs []string) error

	ListOpenQuestions(ctx context.Context, projectID string) ([]*chunkmodel.Question, error)
	CreateQuestion(ctx context.Context, q *chunkmodel.Question) (*chunkmodel.Question, error)
	AnswerQuestion(ctx context.Context, id, answer string) error
	ListAnsweredSince(ctx context.Context, projectID string, since time.Time) ([]*chunkmodel.Question, error)

	GetActiveGoal(ctx context.Context, projectID string) (*chunkmodel.Goal, error)
	SupersedeGoal(ctx context.Context, id string) error
	NextPendingGoal(ctx context.Context, projectID string) (*chunkmodel.PendingGoal, error)
	ConsumePendingGoal(ctx context.Context, id string) error
	CreateGoal(ctx context.Context, projectID, goalText string, status chunkmodel.GoalStatus) (*chunkmodel.Goal, error)

	CreateCoherenceWarning(ctx context.Context, w *chunkmodel.CoherenceWarning) (*chunkmodel.CoherenceWarning, error)
	RecordActivity(ctx context.Context, a *chunkmodel.Activity) (*chunkmodel.Activity, error)
}

// TaskFilter mirrors store.TaskFilter so this package's Store interface
// doesn't force every caller to import internal/store directly.
type TaskFilter struct {
	ProjectID string
	Status    chunkmodel.TaskStatus
	SkillArea string
}

// Retriever is the subset of retrieval.Retriever the driver depends on.
type Retriever interface {
	Retrieve(ctx context.Context, projectID string, rc RetrievalContext) ([]executor.ScoredChunk, error)
}

// RetrievalContext mirrors retrieval.RetrievalContext for the same
// import-boundary reason as TaskFilter.
type RetrievalContext struct {
	Tick      chunkmodel.Tick
	TaskID    string
	GoalID    string
	Phase     string
	SkillArea string
	Query     string
	SessionID string
}

// Status is the AgentState's overall readiness.
type Status string

const (
	StatusReady         Status = "ready"
	StatusWaitingForUser Status = "waiting_for_user"
	StatusIdle          Status = "idle"
)

// AgentState is §4.7's wake-up return value.
type AgentState struct {
	Orientation   *chunkmodel.Orientation
	CurrentTask   *chunkmodel.Task
	TaskQueue     []*chunkmodel.Task
	OpenQuestions []*chunkmodel.Question
	Status        Status
}

// Driver is the Agent Cycle Driver.
type Driver struct {
	store       Store
	clock       *clock.Clock
	memory      *memory.Engine
	retrieval   Retriever
	orientation *orientation.Manager
	executor    executor.Executor
	bus         *eventbus.Bus
	log         *zap.Logger
	cfg         Config
}

// Config bundles the cycle-level knobs derived from config.Config.
type Config struct {
	ProjectID                 string
	MaxTasksPerSession        int
	PivotKeywords             []string
	PivotSimilarityThreshold  float64
	DecayIntervalTicks        int
	ConsolidationIntervalTicks int
	Consolidation             memory.ConsolidationConfig
}

// NewDriver builds an Agent Cycle Driver. bus may be nil if no live
// dashboard is attached this run.
func NewDriver(s Store, c *clock.Clock, mem *memory.Engine, ret Retriever, orient *orientation.Manager, exec executor.Executor, bus *eventbus.Bus, log *zap.Logger, cfg Config) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{store: s, clock: c, memory: mem, retrieval: ret, orientation: orient, executor: exec, bus: bus, log: log, cfg: cfg}
}

func (d *Driver) logActivity(ctx context.Context, tick chunkmodel.Tick, action, details string) {
	a := &chunkmodel.Activity{ProjectID: d.cfg.ProjectID, Action: action, Details: details, Tick: tick}
	if _, err := d.store.RecordActivity(ctx, a); err != nil {
		d.log.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
		return
	}
	if d.bus != nil {
		if err := d.bus.PublishActivity(d.cfg.ProjectID, action, details); err != nil {
			d.log.Warn("failed to publish activity event", zap.Error(err))
		}
	}
}
