package dashboard

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/eventbus"
)

func newTestModel() *Model {
	m := New(nil, "proj-1")
	m.events = make(chan tea.Msg, 16)
	return m
}

func TestUpdateTickAdvancesState(t *testing.T) {
	m := newTestModel()
	updated, cmd := m.Update(tickMsg(eventbus.TickEvent{Tick: chunkmodel.Tick(7)}))
	mm := updated.(*Model)
	if mm.tick != 7 {
		t.Errorf("expected tick 7, got %d", mm.tick)
	}
	if cmd == nil {
		t.Error("expected Update to reschedule a wait for the next event")
	}
}

func TestUpdateTaskStatusTracksByID(t *testing.T) {
	m := newTestModel()
	updated, _ := m.Update(taskMsg(eventbus.TaskStatusEvent{TaskID: "t1", Title: "ship it", Status: chunkmodel.TaskReady}))
	mm := updated.(*Model)
	row, ok := mm.tasks["t1"]
	if !ok {
		t.Fatal("expected task t1 to be tracked")
	}
	if row.Title != "ship it" || row.Status != chunkmodel.TaskReady {
		t.Errorf("unexpected task row: %+v", row)
	}
}

func TestUpdateWarningsCapAtActivityFeedLimit(t *testing.T) {
	m := newTestModel()
	var updated tea.Model = m
	for i := 0; i < activityFeedLimit+5; i++ {
		updated, _ = updated.(*Model).Update(warningMsg(eventbus.WarningEvent{TaskID: "t1", Concern: "drifting"}))
	}
	mm := updated.(*Model)
	if len(mm.warnings) != activityFeedLimit {
		t.Errorf("expected warnings capped at %d, got %d", activityFeedLimit, len(mm.warnings))
	}
}

func TestUpdateGoalTracksTextAndStatus(t *testing.T) {
	m := newTestModel()
	updated, _ := m.Update(goalMsg(eventbus.GoalEvent{GoalText: "ship v1", Status: chunkmodel.GoalActive}))
	mm := updated.(*Model)
	if mm.goalText != "ship v1" || mm.goalStatus != chunkmodel.GoalActive {
		t.Errorf("unexpected goal state: text=%q status=%s", mm.goalText, mm.goalStatus)
	}
}

func TestUpdateActivityFeedCapsAtLimit(t *testing.T) {
	m := newTestModel()
	var updated tea.Model = m
	for i := 0; i < activityFeedLimit+3; i++ {
		updated, _ = updated.(*Model).Update(activityMsg(eventbus.ActivityEvent{Action: "tick", Details: "advanced"}))
	}
	mm := updated.(*Model)
	if len(mm.activity) != activityFeedLimit {
		t.Errorf("expected activity capped at %d, got %d", activityFeedLimit, len(mm.activity))
	}
}

func TestUpdateKeyQuits(t *testing.T) {
	m := newTestModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected pressing q to issue a command")
	}
}

func TestUpdateWindowSizeStored(t *testing.T) {
	m := newTestModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	mm := updated.(*Model)
	if mm.width != 120 || mm.height != 40 {
		t.Errorf("expected window size stored, got %dx%d", mm.width, mm.height)
	}
}

func TestWindowSizeInitializesScrollableFeed(t *testing.T) {
	m := newTestModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	mm := updated.(*Model)
	if !mm.feedReady {
		t.Fatal("expected the first window size message to initialize the activity viewport")
	}
	if mm.feed.Width != 98 {
		t.Errorf("expected feed width sized to the window minus panel padding, got %d", mm.feed.Width)
	}
}

func TestActivityAppendScrollsFeedToBottom(t *testing.T) {
	m := newTestModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	mm := updated.(*Model)

	updated, _ = mm.Update(activityMsg(eventbus.ActivityEvent{Action: "tick", Details: "advanced"}))
	mm = updated.(*Model)
	if mm.feed.View() == "" {
		t.Error("expected the feed viewport to render non-empty content after an activity event")
	}
	if !mm.feed.AtBottom() {
		t.Error("expected the feed viewport to be scrolled to the bottom after an activity event")
	}
}

func TestViewRendersWithoutPanicOnEmptyModel(t *testing.T) {
	m := newTestModel()
	out := m.View()
	if out == "" {
		t.Error("expected a non-empty rendered view even with no events yet")
	}
}
