package models

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/fenilsonani/devclean/internal/progress"
	"github.com/fenilsonani/devclean/internal/ui/styles"
	"github.com/fenilsonani/devclean/internal/ui/utils"
)

// ScanViewModel shows live scan progress until the scan finishes
type ScanViewModel struct {
	deps     Deps
	spinner  spinner.Model
	snapshot *progress.ScanProgress
	width    int
}

// NewScanViewModel creates the scan view
func NewScanViewModel(deps Deps) *ScanViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	return &ScanViewModel{
		deps:    deps,
		spinner: s,
	}
}

// Init starts the spinner and kicks off the scan
func (m *ScanViewModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.performScan,
	)
}

// Update handles messages. Counters refresh on every spinner tick; the
// walker publishes far more often than the UI needs to redraw.
func (m *ScanViewModel) Update(msg tea.Msg) (*ScanViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.deps.Progress != nil {
			m.snapshot = m.deps.Progress.GetScan()
		}
		return m, cmd
	}

	return m, nil
}

// View renders the scan view
func (m *ScanViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("🔍 Scanning"))
	b.WriteString("\n\n")

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(progress.FormatScan(m.snapshot))
	b.WriteString("\n\n")

	if m.snapshot != nil && m.snapshot.CurrentPath != "" {
		pathWidth := m.width - 12
		if pathWidth < 30 {
			pathWidth = 60
		}
		b.WriteString(styles.DimStyle.Render("current: "))
		b.WriteString(styles.PathStyle.Render(utils.TruncatePath(m.snapshot.CurrentPath, pathWidth)))
		b.WriteString("\n\n")
	}

	if m.snapshot != nil && m.snapshot.ItemsFound > 0 {
		b.WriteString(styles.SubtitleStyle.Render("found so far:"))
		b.WriteString("\n")
		b.WriteString("  ")
		b.WriteString(styles.BoldStyle.Render(humanize.Comma(m.snapshot.ItemsFound)))
		b.WriteString(" items, ")
		b.WriteString(styles.SizeStyle.Render(humanize.IBytes(uint64(m.snapshot.BytesFound))))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.HelpStyle.Render("q or ctrl+c cancels"))

	return b.String()
}

// performScan runs the injected scan and reports completion
func (m *ScanViewModel) performScan() tea.Msg {
	result := m.deps.Scan(context.Background())
	return ScanCompleteMsg{Result: result}
}
