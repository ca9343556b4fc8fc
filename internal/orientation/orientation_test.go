package orientation

import (
	"context"
	"testing"
	"time"

	"github.com/visioneer/core/internal/chunkmodel"
)

type fakeStore struct {
	orientation   *chunkmodel.Orientation
	activityCount int
	puts          []*chunkmodel.Orientation
}

func (f *fakeStore) GetOrientation(ctx context.Context, projectID string) (*chunkmodel.Orientation, error) {
	return f.orientation, nil
}

func (f *fakeStore) PutOrientation(ctx context.Context, o *chunkmodel.Orientation) error {
	f.puts = append(f.puts, o)
	f.orientation = o
	return nil
}

func (f *fakeStore) CountActivitiesSince(ctx context.Context, projectID string, sinceTick chunkmodel.Tick) (int, error) {
	return f.activityCount, nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orientation: &chunkmodel.Orientation{
			ProjectID:     "p1",
			CurrentPhase:  chunkmodel.PhaseIntake,
			VisionSummary: "build the thing",
			Version:       1,
		},
	}
}

func TestShouldRewriteCompletedTaskMatchingSkill(t *testing.T) {
	s := newFakeStore()
	m := NewManager(s, nil, TriggerConfig{})
	skillMap := []chunkmodel.SkillNode{{Skill: "auth"}}

	should, reason, err := m.ShouldRewrite(context.Background(), "p1", TriggerInputs{CompletedTaskSkillArea: "auth"}, skillMap)
	if err != nil {
		t.Fatalf("ShouldRewrite failed: %v", err)
	}
	if !should {
		t.Fatal("expected a completed task touching a top-level skill node to trigger rewrite")
	}
	if reason == "" {
		t.Error("expected a non-empty reason")
	}
}

func TestShouldRewriteIgnoresNonTopLevelSkill(t *testing.T) {
	s := newFakeStore()
	m := NewManager(s, nil, TriggerConfig{})
	skillMap := []chunkmodel.SkillNode{{Skill: "oauth", Parent: "auth"}}

	should, _, err := m.ShouldRewrite(context.Background(), "p1", TriggerInputs{CompletedTaskSkillArea: "oauth"}, skillMap)
	if err != nil {
		t.Fatalf("ShouldRewrite failed: %v", err)
	}
	if should {
		t.Fatal("expected a non-top-level skill match to not trigger a rewrite")
	}
}

func TestShouldRewritePhaseTransition(t *testing.T) {
	s := newFakeStore()
	m := NewManager(s, nil, TriggerConfig{})

	should, _, err := m.ShouldRewrite(context.Background(), "p1", TriggerInputs{PhaseTransitioned: true}, nil)
	if err != nil {
		t.Fatalf("ShouldRewrite failed: %v", err)
	}
	if !should {
		t.Fatal("expected an explicit phase transition to always trigger a rewrite")
	}
}

func TestShouldRewriteThreeQuestionsAnswered(t *testing.T) {
	s := newFakeStore()
	m := NewManager(s, nil, TriggerConfig{})

	should, _, err := m.ShouldRewrite(context.Background(), "p1", TriggerInputs{QuestionsAnsweredSinceRewrite: 3}, nil)
	if err != nil {
		t.Fatalf("ShouldRewrite failed: %v", err)
	}
	if !should {
		t.Fatal("expected three answered questions to trigger a rewrite")
	}

	should, _, err = m.ShouldRewrite(context.Background(), "p1", TriggerInputs{QuestionsAnsweredSinceRewrite: 2}, nil)
	if err != nil {
		t.Fatalf("ShouldRewrite failed: %v", err)
	}
	if should {
		t.Fatal("expected two answered questions to not yet trigger a rewrite")
	}
}

func TestShouldRewriteActivityThreshold(t *testing.T) {
	s := newFakeStore()
	s.activityCount = 50
	m := NewManager(s, nil, TriggerConfig{ActivityTriggerCount: 50})

	should, reason, err := m.ShouldRewrite(context.Background(), "p1", TriggerInputs{}, nil)
	if err != nil {
		t.Fatalf("ShouldRewrite failed: %v", err)
	}
	if !should {
		t.Fatal("expected activity count at threshold to trigger a rewrite")
	}
	if reason == "" {
		t.Error("expected a non-empty reason")
	}
}

func TestShouldRewriteMaxAgeRequiresActivity(t *testing.T) {
	s := newFakeStore()
	m := NewManager(s, nil, TriggerConfig{MaxAge: time.Hour})

	now := time.Now().UTC()
	should, _, err := m.ShouldRewrite(context.Background(), "p1", TriggerInputs{
		LastRewriteAt: now.Add(-2 * time.Hour),
		Now:           now,
	}, nil)
	if err != nil {
		t.Fatalf("ShouldRewrite failed: %v", err)
	}
	if should {
		t.Fatal("expected max age to not trigger a rewrite when no activity occurred in the interval")
	}

	s.activityCount = 1
	should, _, err = m.ShouldRewrite(context.Background(), "p1", TriggerInputs{
		LastRewriteAt: now.Add(-2 * time.Hour),
		Now:           now,
	}, nil)
	if err != nil {
		t.Fatalf("ShouldRewrite failed: %v", err)
	}
	if !should {
		t.Fatal("expected max age exceeded with activity present to trigger a rewrite")
	}
}

func TestShouldRewriteFalseWhenNothingFires(t *testing.T) {
	s := newFakeStore()
	m := NewManager(s, nil, TriggerConfig{ActivityTriggerCount: 50})

	should, reason, err := m.ShouldRewrite(context.Background(), "p1", TriggerInputs{}, nil)
	if err != nil {
		t.Fatalf("ShouldRewrite failed: %v", err)
	}
	if should {
		t.Fatalf("expected no trigger to fire, got reason %q", reason)
	}
}

func TestRewriteArchivesAndIncrementsVersion(t *testing.T) {
	s := newFakeStore()
	m := NewManager(s, nil, TriggerConfig{})

	next, err := m.Rewrite(context.Background(), RewriteInput{
		ProjectID:     "p1",
		VisionSummary: "",
		CurrentPhase:  chunkmodel.PhaseExecution,
		CurrentTick:   10,
	})
	if err != nil {
		t.Fatalf("Rewrite failed: %v", err)
	}
	if next.Version != 2 {
		t.Errorf("expected version to increment to 2, got %d", next.Version)
	}
	if next.VisionSummary != "build the thing" {
		t.Errorf("expected empty vision summary to fall back to the prior one, got %q", next.VisionSummary)
	}
	if next.CurrentPhase != chunkmodel.PhaseExecution {
		t.Errorf("expected new phase to apply, got %s", next.CurrentPhase)
	}
}

func TestMergeKeyDecisionsCapsAtMax(t *testing.T) {
	existing := make([]chunkmodel.Decision, chunkmodel.MaxKeyDecisions)
	for i := range existing {
		existing[i] = chunkmodel.Decision{Summary: "old"}
	}
	fresh := []chunkmodel.Decision{{Summary: "new"}}

	merged := mergeKeyDecisions(existing, fresh)
	if len(merged) != chunkmodel.MaxKeyDecisions {
		t.Fatalf("expected merged decisions capped at %d, got %d", chunkmodel.MaxKeyDecisions, len(merged))
	}
	if merged[len(merged)-1].Summary != "new" {
		t.Errorf("expected the freshest decision to survive truncation, got %q", merged[len(merged)-1].Summary)
	}
}
