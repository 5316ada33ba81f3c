package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/qdisc/metrics"
)

// StatsModel is a Bubble Tea model rendering a metrics.Snapshot as a row of
// stat boxes, the way the teacher's StatsModel renders run/job counters.
type StatsModel struct {
	snap     metrics.Snapshot
	quitting bool
}

// NewStatsModel creates a StatsModel over snap.
func NewStatsModel(snap metrics.Snapshot) StatsModel {
	return StatsModel{snap: snap}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("scheduler %s", m.snap.SchedulerID)))
	b.WriteString("\n\n")

	boxes := []string{
		m.statBox("Scheduled", int(m.snap.WorkloadsScheduled), highlightColor),
		m.statBox("Completed", int(m.snap.WorkloadsCompleted), successColor),
		m.statBox("Faulted", int(m.snap.WorkloadsFaulted), errorColor),
		m.statBox("Canceled", int(m.snap.WorkloadsCanceled), warningColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n\n")

	boxes = []string{
		m.statBox("Dequeue attempts", int(m.snap.DequeueAttempts), highlightColor),
		m.statBox("Dequeue successes", int(m.snap.DequeueSuccesses), successColor),
		m.statBox("Guard CAS retries", int(m.snap.GuardCASRetries), warningColor),
		m.statBox("Backtrack hits", int(m.snap.BacktrackHits), successColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n\n")
	b.WriteString(HelpStyle.Render("Press q or Ctrl+C to quit"))
	return b.String()
}

func (m StatsModel) statBox(label string, value int, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)
	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)
	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)
	return boxStyle.Render(content)
}

// RunStats runs the interactive stats TUI over snap.
func RunStats(snap metrics.Snapshot) error {
	_, err := tea.NewProgram(NewStatsModel(snap), tea.WithAltScreen()).Run()
	return err
}
