package retrieval

import (
	"testing"

	"github.com/visioneer/core/internal/chunkmodel"
)

func TestContextMatchSumsMatchingDimensionWeights(t *testing.T) {
	stored := chunkmodel.LearningContext{GoalID: "g1", TaskID: "t1", Phase: "execution", SkillArea: "auth"}
	current := RetrievalContext{GoalID: "g1", TaskID: "t1", Phase: "execution", SkillArea: "auth"}

	got := ContextMatch(stored, current)
	want := contextWeightGoal + contextWeightTask + contextWeightPhase + contextWeightSkillArea
	if got != want {
		t.Errorf("got %f, want %f", got, want)
	}
}

func TestContextMatchZeroWhenAllDimensionsMismatch(t *testing.T) {
	stored := chunkmodel.LearningContext{GoalID: "g1", TaskID: "t1", Phase: "execution", SkillArea: "auth"}
	current := RetrievalContext{GoalID: "g2", TaskID: "t2", Phase: "planning", SkillArea: "billing"}

	if got := ContextMatch(stored, current); got != 0 {
		t.Errorf("expected 0 when all dimensions mismatch, got %f", got)
	}
}

func TestContextMatchBothEmptyIsNotAMatch(t *testing.T) {
	stored := chunkmodel.LearningContext{}
	current := RetrievalContext{}

	if got := ContextMatch(stored, current); got != 0 {
		t.Errorf("expected empty/empty to not count as a match, got %f", got)
	}
}

func TestContextMatchPartialOverlap(t *testing.T) {
	stored := chunkmodel.LearningContext{GoalID: "g1", Phase: "execution"}
	current := RetrievalContext{GoalID: "g1", Phase: "execution", TaskID: "t1"}

	got := ContextMatch(stored, current)
	want := contextWeightGoal + contextWeightPhase
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("got %f, want %f", got, want)
	}
}

func TestApplyContextBoostStrongMatch(t *testing.T) {
	score, reason := ApplyContextBoost(1.0, 1.0, 0.8, 0.8)
	if reason != boostStrongMatch {
		t.Errorf("expected strong_context_match, got %s", reason)
	}
	if score <= 1.0 {
		t.Errorf("expected a strong match to boost score above baseline, got %f", score)
	}
}

func TestApplyContextBoostModerateMatch(t *testing.T) {
	_, reason := ApplyContextBoost(1.0, 1.0, 0.8, 0.5)
	if reason != boostModerateMatch {
		t.Errorf("expected moderate_context_match, got %s", reason)
	}
}

func TestApplyContextBoostNoneBelowThresholds(t *testing.T) {
	score, reason := ApplyContextBoost(1.0, 1.0, 0.8, 0.2)
	if reason != boostNone {
		t.Errorf("expected no boost, got %s", reason)
	}
	if score != 1.0 {
		t.Errorf("expected unmodified baseline score, got %f", score)
	}
}

func TestApplyContextBoostWeakMemoryReactivation(t *testing.T) {
	score, reason := ApplyContextBoost(0.1, 0.5, 0.1, 0.65)
	if reason != boostWeakReactivated {
		t.Errorf("expected weak_memory_reactivation, got %s", reason)
	}
	want := 0.65 * 0.5 * 0.7
	if diff := score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("got %f, want %f", score, want)
	}
}

func TestConfidenceWeightDispatchesByTier(t *testing.T) {
	if got := ConfidenceWeight(chunkmodel.ConfidenceVerified, 1.0, 0.7, 0.4); got != 1.0 {
		t.Errorf("verified: got %f", got)
	}
	if got := ConfidenceWeight(chunkmodel.ConfidenceInferred, 1.0, 0.7, 0.4); got != 0.7 {
		t.Errorf("inferred: got %f", got)
	}
	if got := ConfidenceWeight(chunkmodel.ConfidenceSpeculative, 1.0, 0.7, 0.4); got != 0.4 {
		t.Errorf("speculative: got %f", got)
	}
}
