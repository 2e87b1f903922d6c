package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/fenilsonani/devclean/internal/executor"
	"github.com/fenilsonani/devclean/internal/platform"
	"github.com/fenilsonani/devclean/internal/ui/styles"
)

// SummaryViewModel is the final screen: what was freed, what was skipped or
// failed, and how the disk moved.
type SummaryViewModel struct {
	summary    *executor.Summary
	diskBefore *platform.DiskUsage
	diskAfter  *platform.DiskUsage
}

// NewSummaryViewModel creates the summary view
func NewSummaryViewModel(summary *executor.Summary, before, after *platform.DiskUsage) *SummaryViewModel {
	return &SummaryViewModel{
		summary:    summary,
		diskBefore: before,
		diskAfter:  after,
	}
}

// Init initializes the summary view
func (m *SummaryViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *SummaryViewModel) Update(msg tea.Msg) (*SummaryViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "enter", "esc":
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the summary view
func (m *SummaryViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("✨ Clean Summary"))
	b.WriteString("\n\n")

	if m.summary != nil {
		s := m.summary
		freed := humanize.IBytes(uint64(s.BytesFreed))

		if s.Mode == executor.ModeDryRun {
			b.WriteString(styles.InfoStyle.Render(
				fmt.Sprintf("dry run: would free %s across %d items", freed, s.Succeeded)))
		} else {
			b.WriteString(styles.SuccessStyle.Render(
				fmt.Sprintf("✓ freed %s across %d items", freed, s.Succeeded)))
		}
		b.WriteString("\n")

		if s.Skipped > 0 {
			b.WriteString(styles.WarningStyle.Render(fmt.Sprintf("skipped %d items", s.Skipped)))
			b.WriteString("\n")
			for _, line := range topSkipReasons(s, 3) {
				b.WriteString(styles.DimStyle.Render("  " + line))
				b.WriteString("\n")
			}
		}

		if s.Failed > 0 {
			b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("✗ %d items failed", s.Failed)))
			b.WriteString("\n")
			shown := 0
			for _, res := range s.Results {
				if res.Err == nil {
					continue
				}
				if shown == 5 {
					b.WriteString(styles.DimStyle.Render(
						fmt.Sprintf("  ... and %d more", s.Failed-shown)))
					b.WriteString("\n")
					break
				}
				b.WriteString(styles.DimStyle.Render(
					fmt.Sprintf("  %s: %s", res.Item.Path, res.Err.UserMessage())))
				b.WriteString("\n")
				shown++
			}
		}

		if s.Mode == executor.ModeTrash && s.Succeeded > 0 {
			b.WriteString("\n")
			b.WriteString(styles.HelpStyle.Render("restore anything with: devclean trash list"))
			b.WriteString("\n")
		}
	}

	if m.diskBefore != nil && m.diskAfter != nil {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("disk free: %s → %s",
			humanize.IBytes(m.diskBefore.Free),
			styles.BoldStyle.Render(humanize.IBytes(m.diskAfter.Free))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("Press q or enter to exit"))

	return b.String()
}

// topSkipReasons aggregates skip reasons and returns the most common ones
func topSkipReasons(s *executor.Summary, limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, res := range s.Results {
		if res.State != executor.StateSkipped || res.Reason == "" {
			continue
		}
		if counts[res.Reason] == 0 {
			order = append(order, res.Reason)
		}
		counts[res.Reason]++
	}

	var lines []string
	for _, reason := range order {
		if len(lines) == limit {
			break
		}
		lines = append(lines, fmt.Sprintf("%d × %s", counts[reason], reason))
	}
	return lines
}
