package agent

import (
	"testing"

	"github.com/visioneer/core/internal/chunkmodel"
)

func TestPrioritizeEmptyReadyReturnsNil(t *testing.T) {
	if got := Prioritize(nil, nil, nil, nil, chunkmodel.PhaseExecution, nil); got != nil {
		t.Errorf("expected nil for an empty ready queue, got %+v", got)
	}
}

func TestPrioritizeFavorsGoalAlignment(t *testing.T) {
	goal := &chunkmodel.Goal{GoalText: "wire up okta authentication"}
	aligned := &chunkmodel.Task{ID: "a", Title: "wire up okta authentication flow"}
	unrelated := &chunkmodel.Task{ID: "b", Title: "polish the marketing page"}

	got := Prioritize([]*chunkmodel.Task{unrelated, aligned}, goal, nil, nil, "", nil)
	if got == nil || got.ID != "a" {
		t.Fatalf("expected the goal-aligned task to win, got %+v", got)
	}
}

func TestPrioritizeFavorsActivePriorityOrder(t *testing.T) {
	a := &chunkmodel.Task{ID: "a", SkillArea: "billing"}
	b := &chunkmodel.Task{ID: "b", SkillArea: "auth"}

	got := Prioritize([]*chunkmodel.Task{a, b}, nil, []string{"auth", "billing"}, nil, "", nil)
	if got == nil || got.ID != "b" {
		t.Fatalf("expected the higher-ranked active priority skill area to win, got %+v", got)
	}
}

func TestPrioritizePenalizesRepeatedSkillArea(t *testing.T) {
	a := &chunkmodel.Task{ID: "a", SkillArea: "auth"}
	b := &chunkmodel.Task{ID: "b", SkillArea: "billing"}
	recent := []*chunkmodel.Activity{{Details: "completed task in auth"}}

	got := Prioritize([]*chunkmodel.Task{a, b}, nil, nil, recent, "", nil)
	if got == nil || got.ID != "b" {
		t.Fatalf("expected the non-repeated skill area to win, got %+v", got)
	}
}

func TestPrioritizeFavorsPhaseAlignment(t *testing.T) {
	research := &chunkmodel.Task{ID: "a", Title: "research the vendor landscape"}
	other := &chunkmodel.Task{ID: "b", Title: "unrelated housekeeping"}

	got := Prioritize([]*chunkmodel.Task{other, research}, nil, nil, nil, chunkmodel.PhaseResearch, nil)
	if got == nil || got.ID != "a" {
		t.Fatalf("expected the phase-aligned task to win during research, got %+v", got)
	}
}

func TestPrioritizeFavorsBlockerUnlockPotential(t *testing.T) {
	blocker := &chunkmodel.Task{ID: "a"}
	leaf := &chunkmodel.Task{ID: "b"}
	dependents := []*chunkmodel.Task{
		{ID: "c", DependsOn: []string{"a"}},
		{ID: "d", DependsOn: []string{"a"}},
	}
	all := append([]*chunkmodel.Task{blocker, leaf}, dependents...)

	got := Prioritize([]*chunkmodel.Task{leaf, blocker}, nil, nil, nil, "", all)
	if got == nil || got.ID != "a" {
		t.Fatalf("expected the task unlocking others to win, got %+v", got)
	}
}

func TestDependencyReadinessBonusesNoDeps(t *testing.T) {
	withDeps := &chunkmodel.Task{DependsOn: []string{"x"}}
	withoutDeps := &chunkmodel.Task{}
	if dependencyReadiness(withDeps) != 0 {
		t.Error("expected a task with dependencies to score 0")
	}
	if dependencyReadiness(withoutDeps) != 1.0 {
		t.Error("expected a task with no dependencies to score 1.0")
	}
}
