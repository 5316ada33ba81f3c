package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/qdisc/telemetry"
)

// TreeModel is a Bubble Tea model rendering a qdisc tree snapshot, the way
// the teacher's InspectModel renders a single entity's detail view.
type TreeModel struct {
	snap     telemetry.Snapshot
	quitting bool
}

// NewTreeModel creates a TreeModel over snap.
func NewTreeModel(snap telemetry.Snapshot) TreeModel {
	return TreeModel{snap: snap}
}

// Init implements tea.Model.
func (m TreeModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m TreeModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("scheduler %s (pool size %d)", m.snap.SchedulerID, m.snap.PoolSize)))
	b.WriteString("\n")
	renderNode(&b, m.snap.Root, 0)
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("Press q or Ctrl+C to quit"))
	return b.String()
}

func renderNode(b *strings.Builder, n telemetry.NodeSnapshot, depth int) {
	indent := strings.Repeat("  ", depth)
	label := fmt.Sprintf("handle=%d", n.Handle)
	if n.IsLeaf {
		label += " (leaf)"
	} else {
		label += fmt.Sprintf(" (%s)", n.Kind)
	}

	state := StateStyle(stateLabel(n.IsEmpty))
	line := fmt.Sprintf("%s%s count=%d %s", indent, label, n.BestEffortCount, state.Render(stateLabel(n.IsEmpty)))
	b.WriteString(line)
	b.WriteString("\n")
	for _, child := range n.Children {
		renderNode(b, child, depth+1)
	}
}

func stateLabel(empty bool) string {
	if empty {
		return "idle"
	}
	return "running"
}

// RunTree runs the interactive tree TUI over snap.
func RunTree(snap telemetry.Snapshot) error {
	_, err := tea.NewProgram(NewTreeModel(snap), tea.WithAltScreen()).Run()
	return err
}

// RenderTreeStatic renders snap without entering full-screen TUI mode, for
// non-interactive fallback.
func RenderTreeStatic(snap telemetry.Snapshot) string {
	model := NewTreeModel(snap)
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
