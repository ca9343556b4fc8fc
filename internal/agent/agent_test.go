package agent

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/clock"
	"github.com/visioneer/core/internal/executor"
	"github.com/visioneer/core/internal/memory"
	"github.com/visioneer/core/internal/orientation"
	"github.com/visioneer/core/internal/store"
)

// storeAdapter narrows *store.Store to this package's Store interface,
// mirroring the adapter cmd/visioneer wires in production.
type storeAdapter struct {
	*store.Store
}

func (a storeAdapter) ListTasks(ctx context.Context, filter TaskFilter) ([]*chunkmodel.Task, error) {
	return a.Store.ListTasks(ctx, store.TaskFilter{
		ProjectID: filter.ProjectID,
		Status:    filter.Status,
		SkillArea: filter.SkillArea,
	})
}

type nilRetriever struct{}

func (nilRetriever) Retrieve(ctx context.Context, projectID string, rc RetrievalContext) ([]executor.ScoredChunk, error) {
	return nil, nil
}

func setupDriver(t *testing.T, exec executor.Executor) (*Driver, storeAdapter, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	p, err := s.CreateProject(context.Background(), "agent-test")
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	adapted := storeAdapter{s}
	clk := clock.New(s, p.ID)
	mem := memory.NewEngine(s, &executor.StubEmbeddingProvider{Dims: 8})
	orient := orientation.NewManager(s, mem, orientation.TriggerConfig{})

	d := NewDriver(adapted, clk, mem, nilRetriever{}, orient, exec, nil, nil, Config{
		ProjectID:          p.ID,
		MaxTasksPerSession: 5,
	})
	return d, adapted, p.ID
}

func TestWakeUpFreshProjectIsIdle(t *testing.T) {
	d, _, _ := setupDriver(t, &executor.StubExecutor{})

	state, err := d.WakeUp(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("WakeUp failed: %v", err)
	}
	if state.Status != StatusIdle {
		t.Errorf("expected a fresh project with no tasks to be idle, got %s", state.Status)
	}
}

func TestWakeUpReportsReadyTasks(t *testing.T) {
	d, s, projectID := setupDriver(t, &executor.StubExecutor{})
	ctx := context.Background()

	if _, err := s.Store.CreateTask(ctx, &chunkmodel.Task{ProjectID: projectID, Title: "do a thing"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	state, err := d.WakeUp(ctx, time.Time{})
	if err != nil {
		t.Fatalf("WakeUp failed: %v", err)
	}
	if state.Status != StatusReady {
		t.Fatalf("expected status ready with one ready task, got %s", state.Status)
	}
	if len(state.TaskQueue) != 1 {
		t.Fatalf("expected 1 ready task in queue, got %d", len(state.TaskQueue))
	}
}

func TestExecuteAndHandleResultComplete(t *testing.T) {
	stub := &executor.StubExecutor{
		Respond: func(req executor.Request) (executor.Result, error) {
			return executor.Result{Status: executor.ResultComplete, OutcomeText: "done"}, nil
		},
	}
	d, s, projectID := setupDriver(t, stub)
	ctx := context.Background()

	task, err := s.Store.CreateTask(ctx, &chunkmodel.Task{ProjectID: projectID, Title: "ship it"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	result, err := d.Execute(ctx, task, nil, nil, 1, "session-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Status != executor.ResultComplete {
		t.Fatalf("expected complete result, got %s", result.Status)
	}

	if err := d.HandleResult(ctx, task, result, 1, nil); err != nil {
		t.Fatalf("HandleResult failed: %v", err)
	}

	stored, err := s.Store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if stored.Status != chunkmodel.TaskDone {
		t.Errorf("expected task to be complete, got %s", stored.Status)
	}
}

func TestHandleResultBlockedRaisesQuestionAndBlocksTask(t *testing.T) {
	d, s, projectID := setupDriver(t, &executor.StubExecutor{})
	ctx := context.Background()

	task, _ := s.Store.CreateTask(ctx, &chunkmodel.Task{ProjectID: projectID, Title: "needs input"})

	result := executor.Result{
		Status:       executor.ResultBlocked,
		NewQuestions: []executor.NewQuestion{{Question: "which region?", Context: "deployment"}},
	}
	if err := d.HandleResult(ctx, task, result, 1, nil); err != nil {
		t.Fatalf("HandleResult failed: %v", err)
	}

	stored, err := s.Store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if stored.Status != chunkmodel.TaskBlocked {
		t.Errorf("expected task to be blocked, got %s", stored.Status)
	}
	if len(stored.BlockedBy) != 1 {
		t.Fatalf("expected the task to be blocked by the new question, got %v", stored.BlockedBy)
	}

	open, err := s.Store.ListOpenQuestions(ctx, projectID)
	if err != nil {
		t.Fatalf("ListOpenQuestions failed: %v", err)
	}
	if len(open) != 1 || open[0].Question != "which region?" {
		t.Fatalf("expected the raised question to be open, got %+v", open)
	}
}

func TestHandleResultFailedTimeoutRetriesAsReady(t *testing.T) {
	d, s, projectID := setupDriver(t, &executor.StubExecutor{})
	ctx := context.Background()

	task, _ := s.Store.CreateTask(ctx, &chunkmodel.Task{ProjectID: projectID, Title: "will fail"})

	result := executor.Result{Status: executor.ResultFailed, FailureReason: "timeout", OutcomeText: "gave up"}
	if err := d.HandleResult(ctx, task, result, 1, nil); err != nil {
		t.Fatalf("HandleResult failed: %v", err)
	}

	stored, err := s.Store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if stored.FailureReason != "timeout" {
		t.Errorf("expected failure reason to be recorded, got %q", stored.FailureReason)
	}
	if stored.Status != chunkmodel.TaskReady {
		t.Errorf("expected a timed-out task to retry as ready, got %s", stored.Status)
	}
}

func TestHandleResultFailedNonRetryableMarksDone(t *testing.T) {
	d, s, projectID := setupDriver(t, &executor.StubExecutor{})
	ctx := context.Background()

	task, _ := s.Store.CreateTask(ctx, &chunkmodel.Task{ProjectID: projectID, Title: "will fail hard"})

	result := executor.Result{Status: executor.ResultFailed, FailureReason: "unrecoverable", OutcomeText: "gave up"}
	if err := d.HandleResult(ctx, task, result, 1, nil); err != nil {
		t.Fatalf("HandleResult failed: %v", err)
	}

	stored, err := s.Store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if stored.Status != chunkmodel.TaskDone {
		t.Errorf("expected a non-retryable failure to resolve as done, got %s", stored.Status)
	}
	if stored.FailureReason != "unrecoverable" {
		t.Errorf("expected failure reason to be recorded, got %q", stored.FailureReason)
	}
}

func TestPersistLearningsLogsOneActivityPerLearning(t *testing.T) {
	d, s, projectID := setupDriver(t, &executor.StubExecutor{})
	ctx := context.Background()

	task, _ := s.Store.CreateTask(ctx, &chunkmodel.Task{ProjectID: projectID, Title: "learn things"})

	result := executor.Result{
		Status: executor.ResultComplete,
		Learnings: []executor.Learning{
			{Content: "first insight", Type: chunkmodel.ChunkInsight, Confidence: chunkmodel.ConfidenceInferred},
			{Content: "second insight", Type: chunkmodel.ChunkInsight, Confidence: chunkmodel.ConfidenceInferred},
			{Content: "third insight", Type: chunkmodel.ChunkInsight, Confidence: chunkmodel.ConfidenceInferred},
		},
	}
	if err := d.HandleResult(ctx, task, result, 1, nil); err != nil {
		t.Fatalf("HandleResult failed: %v", err)
	}

	activities, err := s.Store.RecentActivities(ctx, projectID, 50)
	if err != nil {
		t.Fatalf("RecentActivities failed: %v", err)
	}
	count := 0
	for _, a := range activities {
		if a.Action == "learning_stored" {
			count++
		}
	}
	if count != 3 {
		t.Errorf("expected one activity logged per stored learning, got %d", count)
	}
}

func TestHandleResultPartialQueuesFollowUps(t *testing.T) {
	d, s, projectID := setupDriver(t, &executor.StubExecutor{})
	ctx := context.Background()

	task, _ := s.Store.CreateTask(ctx, &chunkmodel.Task{ProjectID: projectID, Title: "partial work"})

	result := executor.Result{
		Status:        executor.ResultPartial,
		FollowUpTasks: []executor.FollowUpTask{{Title: "finish the rest", SkillArea: "backend"}},
	}
	if err := d.HandleResult(ctx, task, result, 1, nil); err != nil {
		t.Fatalf("HandleResult failed: %v", err)
	}

	tasks, err := s.Store.ListTasks(ctx, store.TaskFilter{ProjectID: projectID, Status: chunkmodel.TaskReady})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	found := false
	for _, tk := range tasks {
		if tk.Title == "finish the rest" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the follow-up task to be queued as ready, got %+v", tasks)
	}
}
