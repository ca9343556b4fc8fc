package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/verrors"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateProjectSeedsClockAndOrientation(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	p, err := s.CreateProject(ctx, "demo")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	cs, err := s.GetClockState(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetClockState failed: %v", err)
	}
	if cs.CurrentTick != 0 {
		t.Errorf("expected tick 0 on a new project, got %d", cs.CurrentTick)
	}

	o, err := s.GetOrientation(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetOrientation failed: %v", err)
	}
	if o.CurrentPhase != chunkmodel.PhaseIntake {
		t.Errorf("expected new project to start in intake phase, got %s", o.CurrentPhase)
	}
}

func TestClaimTaskIsRaceSafe(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	p, _ := s.CreateProject(ctx, "race")

	task, err := s.CreateTask(ctx, &chunkmodel.Task{ProjectID: p.ID, Title: "do a thing"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.Status != chunkmodel.TaskReady {
		t.Fatalf("expected CreateTask to default status to ready, got %s", task.Status)
	}

	first, err := s.ClaimTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("first ClaimTask failed: %v", err)
	}
	if first.Status != chunkmodel.TaskInProgress {
		t.Errorf("expected claimed task to move to in_progress, got %s", first.Status)
	}

	if _, err := s.ClaimTask(ctx, task.ID); err == nil {
		t.Error("expected a second claim on an already-claimed task to fail")
	}
}

func TestGoalSupersessionLifecycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	p, _ := s.CreateProject(ctx, "goals")

	if _, err := s.GetActiveGoal(ctx, p.ID); !verrors.IsNotFound(err) {
		t.Fatalf("expected NotFound before any goal exists, got %v", err)
	}

	g1, err := s.CreateGoal(ctx, p.ID, "ship v1", chunkmodel.GoalActive)
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	active, err := s.GetActiveGoal(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetActiveGoal failed: %v", err)
	}
	if active.ID != g1.ID {
		t.Fatalf("expected active goal %s, got %s", g1.ID, active.ID)
	}

	if _, err := s.QueuePendingGoal(ctx, p.ID, "ship v2"); err != nil {
		t.Fatalf("QueuePendingGoal failed: %v", err)
	}

	pending, err := s.NextPendingGoal(ctx, p.ID)
	if err != nil {
		t.Fatalf("NextPendingGoal failed: %v", err)
	}
	if pending.GoalText != "ship v2" {
		t.Fatalf("expected queued goal text, got %q", pending.GoalText)
	}

	if err := s.SupersedeGoal(ctx, active.ID); err != nil {
		t.Fatalf("SupersedeGoal failed: %v", err)
	}
	if _, err := s.GetActiveGoal(ctx, p.ID); !verrors.IsNotFound(err) {
		t.Fatalf("expected no active goal after supersession, got %v", err)
	}

	if err := s.ConsumePendingGoal(ctx, pending.ID); err != nil {
		t.Fatalf("ConsumePendingGoal failed: %v", err)
	}
	if next, err := s.NextPendingGoal(ctx, p.ID); err != nil || next != nil {
		t.Fatalf("expected no pending goal left after consumption, got %+v, %v", next, err)
	}
}

func TestAnswerQuestionLeavesOtherOpenQuestionsUntouched(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	p, _ := s.CreateProject(ctx, "questions")

	q1, _ := s.CreateQuestion(ctx, &chunkmodel.Question{ProjectID: p.ID, Question: "which auth provider?"})
	q2, _ := s.CreateQuestion(ctx, &chunkmodel.Question{ProjectID: p.ID, Question: "which region?"})

	task, _ := s.CreateTask(ctx, &chunkmodel.Task{ProjectID: p.ID, Title: "wire up auth"})
	if err := s.BlockTask(ctx, task.ID, []string{q1.ID, q2.ID}); err != nil {
		t.Fatalf("BlockTask failed: %v", err)
	}

	blocked, err := s.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if blocked.Status != chunkmodel.TaskBlocked {
		t.Fatalf("expected task to be blocked, got %s", blocked.Status)
	}

	if err := s.AnswerQuestion(ctx, q1.ID, "okta"); err != nil {
		t.Fatalf("AnswerQuestion failed: %v", err)
	}

	open, err := s.ListOpenQuestions(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListOpenQuestions failed: %v", err)
	}
	if len(open) != 1 || open[0].ID != q2.ID {
		t.Fatalf("expected only q2 still open, got %+v", open)
	}
}
