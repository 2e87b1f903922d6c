package models

import (
	"context"
	"fmt"
	"strings"

	pbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/devclean/internal/progress"
	"github.com/fenilsonani/devclean/internal/scanner"
	"github.com/fenilsonani/devclean/internal/ui/styles"
	"github.com/fenilsonani/devclean/internal/ui/utils"
)

// CleanViewModel shows the executor working through the selection. Quitting
// is disabled here; the executor finishes or fails on its own terms.
type CleanViewModel struct {
	deps     Deps
	items    []*scanner.CleanableItem
	spinner  spinner.Model
	bar      pbar.Model
	snapshot *progress.CleanProgress
	width    int
}

// NewCleanViewModel creates the cleaning view
func NewCleanViewModel(deps Deps, items []*scanner.CleanableItem) *CleanViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	return &CleanViewModel{
		deps:    deps,
		items:   items,
		spinner: s,
		bar:     pbar.New(pbar.WithDefaultGradient()),
	}
}

// Init starts the spinner and launches the clean session
func (m *CleanViewModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.performClean,
	)
}

// Update handles messages
func (m *CleanViewModel) Update(msg tea.Msg) (*CleanViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		barWidth := msg.Width - 8
		if barWidth > 70 {
			barWidth = 70
		}
		if barWidth > 0 {
			m.bar.Width = barWidth
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.deps.Progress != nil {
			m.snapshot = m.deps.Progress.GetClean()
		}
		return m, cmd
	}

	return m, nil
}

// View renders the cleaning view
func (m *CleanViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("🗑️  Cleaning"))
	b.WriteString("\n\n")

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(progress.FormatClean(m.snapshot))
	b.WriteString("\n\n")

	percent := 0.0
	if m.snapshot != nil && m.snapshot.ItemsTotal > 0 {
		percent = float64(m.snapshot.ItemsDone) / float64(m.snapshot.ItemsTotal)
	}
	b.WriteString(m.bar.ViewAs(percent))
	b.WriteString("\n\n")

	if m.snapshot != nil {
		if m.snapshot.CurrentPath != "" {
			pathWidth := m.width - 12
			if pathWidth < 30 {
				pathWidth = 60
			}
			b.WriteString(styles.DimStyle.Render("current: "))
			b.WriteString(styles.PathStyle.Render(utils.TruncatePath(m.snapshot.CurrentPath, pathWidth)))
			b.WriteString("\n")
		}
		if m.snapshot.Skipped > 0 || m.snapshot.Failed > 0 {
			b.WriteString(styles.DimStyle.Render(fmt.Sprintf("skipped: %d  failed: %d",
				m.snapshot.Skipped, m.snapshot.Failed)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("items in flight always run to completion"))

	return b.String()
}

// performClean runs the injected clean session and reports completion
func (m *CleanViewModel) performClean() tea.Msg {
	summary := m.deps.Clean(context.Background(), m.items)
	return CleanCompleteMsg{Summary: summary}
}
