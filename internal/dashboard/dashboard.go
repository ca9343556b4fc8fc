// Package dashboard is a read-only bubbletea terminal view of a running
// project: current tick, active goal, the ready task queue, pending
// coherence warnings, and a scrolling activity feed. It subscribes to
// internal/eventbus rather than polling the Store, the way the teacher's
// TUI (internal/tui in the reference "lattice" pack) drives its own
// status board off a periodic snapshot.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/visioneer/core/internal/chunkmodel"
	"github.com/visioneer/core/internal/eventbus"
)

const activityFeedLimit = 12

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

// Model is the dashboard's bubbletea model.
type Model struct {
	bus       *eventbus.Bus
	projectID string

	tick        chunkmodel.Tick
	goalText    string
	goalStatus  chunkmodel.GoalStatus
	tasks       map[string]taskRow
	warnings    []eventbus.WarningEvent
	activity    []eventbus.ActivityEvent
	width       int
	height      int

	// feed is a scrollable viewport wrapping the rendered activity
	// panel so a long-running session's feed can be paged with the
	// arrow keys instead of always showing only the last lines.
	feed      viewport.Model
	feedReady bool

	events chan tea.Msg
}

type taskRow struct {
	Title  string
	Status chunkmodel.TaskStatus
}

// tickMsg, taskMsg, warningMsg, goalMsg and activityMsg wrap each
// subscribed event type so Update can dispatch on it.
type tickMsg eventbus.TickEvent
type taskMsg eventbus.TaskStatusEvent
type warningMsg eventbus.WarningEvent
type goalMsg eventbus.GoalEvent
type activityMsg eventbus.ActivityEvent

// New builds a dashboard Model over an already-connected bus.
func New(bus *eventbus.Bus, projectID string) *Model {
	return &Model{bus: bus, projectID: projectID, tasks: make(map[string]taskRow)}
}

// Init subscribes to every event channel for the project. Each
// subscription's handler feeds a channel-backed tea.Cmd relay since
// NATS callbacks run outside bubbletea's own event loop.
func (m *Model) Init() tea.Cmd {
	m.events = make(chan tea.Msg, 256)
	events := m.events

	subscribe := func() {
		m.bus.SubscribeTicks(m.projectID, func(e eventbus.TickEvent) { events <- tickMsg(e) })
		m.bus.SubscribeTaskStatus(m.projectID, func(e eventbus.TaskStatusEvent) { events <- taskMsg(e) })
		m.bus.SubscribeWarnings(m.projectID, func(e eventbus.WarningEvent) { events <- warningMsg(e) })
		m.bus.SubscribeGoals(m.projectID, func(e eventbus.GoalEvent) { events <- goalMsg(e) })
		m.bus.SubscribeActivity(m.projectID, func(e eventbus.ActivityEvent) { events <- activityMsg(e) })
	}

	return tea.Batch(
		func() tea.Msg { subscribe(); return nil },
		waitForEvent(events),
	)
}

func waitForEvent(events chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// Update handles incoming events and key presses. The dashboard is
// read-only: it records state but never issues Store writes.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch ev := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = ev.Width, ev.Height
		feedHeight := ev.Height - 10
		if feedHeight < 3 {
			feedHeight = 3
		}
		if !m.feedReady {
			m.feed = viewport.New(ev.Width-2, feedHeight)
			m.feedReady = true
		} else {
			m.feed.Width = ev.Width - 2
			m.feed.Height = feedHeight
		}
		m.feed.SetContent(m.renderActivity())
		return m, nil

	case tea.KeyMsg:
		switch ev.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.feed, cmd = m.feed.Update(ev)
		return m, cmd

	case tickMsg:
		m.tick = ev.Tick
		return m, waitForEvent(m.events)

	case taskMsg:
		m.tasks[ev.TaskID] = taskRow{Title: ev.Title, Status: ev.Status}
		return m, waitForEvent(m.events)

	case warningMsg:
		m.warnings = append(m.warnings, eventbus.WarningEvent(ev))
		if len(m.warnings) > activityFeedLimit {
			m.warnings = m.warnings[len(m.warnings)-activityFeedLimit:]
		}
		return m, waitForEvent(m.events)

	case goalMsg:
		m.goalText = ev.GoalText
		m.goalStatus = ev.Status
		return m, waitForEvent(m.events)

	case activityMsg:
		m.activity = append(m.activity, eventbus.ActivityEvent(ev))
		if len(m.activity) > activityFeedLimit {
			m.activity = m.activity[len(m.activity)-activityFeedLimit:]
		}
		if m.feedReady {
			m.feed.SetContent(m.renderActivity())
			m.feed.GotoBottom()
		}
		return m, waitForEvent(m.events)
	}
	return m, nil
}

// View renders the current snapshot.
func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = 100
	}

	header := headerStyle.Render(fmt.Sprintf("VISIONEER · %s · tick %d", m.projectID, m.tick))
	goal := panelStyle.Width(width - 2).Render(m.renderGoal())
	tasks := panelStyle.Width(width - 2).Render(m.renderTasks())
	warnings := panelStyle.Width(width - 2).Render(m.renderWarnings())

	feedContent := m.renderActivity()
	if m.feedReady {
		feedContent = m.feed.View()
	}
	feed := panelStyle.Width(width - 2).Render(feedContent)
	footer := dimStyle.Render("q to quit · ↑/↓ to scroll activity")

	return strings.Join([]string{header, goal, tasks, warnings, feed, footer}, "\n")
}

func (m *Model) renderGoal() string {
	if m.goalText == "" {
		return dimStyle.Render("no active goal")
	}
	return fmt.Sprintf("GOAL (%s): %s", m.goalStatus, m.goalText)
}

func (m *Model) renderTasks() string {
	if len(m.tasks) == 0 {
		return dimStyle.Render("no task activity yet")
	}
	var lines []string
	lines = append(lines, headerStyle.Render("TASKS"))
	for id, t := range m.tasks {
		lines = append(lines, fmt.Sprintf("%s  %-12s  %s", shortID(id), t.Status, t.Title))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderWarnings() string {
	if len(m.warnings) == 0 {
		return dimStyle.Render("no coherence warnings")
	}
	var lines []string
	lines = append(lines, warnStyle.Render("COHERENCE WARNINGS"))
	for _, w := range m.warnings {
		lines = append(lines, fmt.Sprintf("%s  %s", shortID(w.TaskID), w.Concern))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderActivity() string {
	if len(m.activity) == 0 {
		return dimStyle.Render("no activity recorded yet")
	}
	var lines []string
	lines = append(lines, headerStyle.Render("ACTIVITY"))
	for _, a := range m.activity {
		lines = append(lines, fmt.Sprintf("%s  %-20s  %s", a.Timestamp.Format(time.Kitchen), a.Action, a.Details))
	}
	return strings.Join(lines, "\n")
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
