package agent

import (
	"testing"

	"github.com/visioneer/core/internal/chunkmodel"
)

func TestCoherenceCheckNoGoalIsAlwaysOnTrack(t *testing.T) {
	task := &chunkmodel.Task{Title: "anything at all"}
	offTrack, concern, suggestion := CoherenceCheck(task, nil)
	if offTrack {
		t.Fatal("expected no active goal to never flag off-track")
	}
	if concern != "" || suggestion != "" {
		t.Error("expected empty concern/suggestion when on track")
	}
}

func TestCoherenceCheckFlagsUnrelatedTask(t *testing.T) {
	goal := &chunkmodel.Goal{GoalText: "ship the okta integration"}
	task := &chunkmodel.Task{Title: "repaint office breakroom", Description: "pick a color"}

	offTrack, concern, suggestion := CoherenceCheck(task, goal)
	if !offTrack {
		t.Fatal("expected a task sharing no terms with the goal to be flagged off-track")
	}
	if concern == "" || suggestion == "" {
		t.Error("expected a non-empty concern and suggestion")
	}
}

func TestCoherenceCheckPassesOverlappingTask(t *testing.T) {
	goal := &chunkmodel.Goal{GoalText: "ship the okta integration"}
	task := &chunkmodel.Task{Title: "wire up okta login"}

	offTrack, _, _ := CoherenceCheck(task, goal)
	if offTrack {
		t.Fatal("expected a task sharing terms with the goal to pass the coherence check")
	}
}

func TestDetectPivotMatchesKeyword(t *testing.T) {
	if !DetectPivot("actually let's pivot to a mobile-first approach", []string{"pivot", "scrap this"}) {
		t.Fatal("expected a keyword match to detect a pivot")
	}
}

func TestDetectPivotIsCaseInsensitive(t *testing.T) {
	if !DetectPivot("PIVOT NOW", []string{"pivot"}) {
		t.Fatal("expected a case-insensitive keyword match")
	}
}

func TestDetectPivotNoMatch(t *testing.T) {
	if DetectPivot("continuing as planned", []string{"pivot", "scrap this"}) {
		t.Fatal("expected no keyword match to not detect a pivot")
	}
}
