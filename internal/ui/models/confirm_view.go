package models

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/fenilsonani/devclean/internal/executor"
	"github.com/fenilsonani/devclean/internal/scanner"
	"github.com/fenilsonani/devclean/internal/ui/styles"
	"github.com/fenilsonani/devclean/internal/ui/utils"
)

// RiskLevel grades a pending selection
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

// ConfirmViewModel shows what is about to happen and asks for a decision
type ConfirmViewModel struct {
	items  []*scanner.CleanableItem
	mode   executor.Mode
	cursor int // 0 = Yes, 1 = Review, 2 = Cancel
	risk   RiskLevel
	width  int
	height int
}

// NewConfirmViewModel creates the confirm view
func NewConfirmViewModel(items []*scanner.CleanableItem, mode executor.Mode, width, height int) *ConfirmViewModel {
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	risk := calculateRiskLevel(items)
	cursor := 0
	if risk == RiskHigh {
		// High-risk selections default to Cancel so a reflexive enter is safe.
		cursor = 2
	}

	return &ConfirmViewModel{
		items:  items,
		mode:   mode,
		cursor: cursor,
		risk:   risk,
		width:  width,
		height: height,
	}
}

// calculateRiskLevel grades the selection by its most serious member
func calculateRiskLevel(items []*scanner.CleanableItem) RiskLevel {
	var caution, uncommitted bool
	for _, it := range items {
		if it.Safety == scanner.Dangerous || it.InUse {
			return RiskHigh
		}
		if it.Safety == scanner.Caution {
			caution = true
		}
		if it.Git == scanner.GitUncommitted {
			uncommitted = true
		}
	}
	if len(items) > 500 {
		return RiskHigh
	}
	if caution || uncommitted || len(items) >= 50 {
		return RiskMedium
	}
	return RiskLow
}

// Init initializes the confirm view
func (m *ConfirmViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *ConfirmViewModel) Update(msg tea.Msg) (*ConfirmViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "right", "l":
			if m.cursor < 2 {
				m.cursor++
			}
		case "tab":
			m.cursor = (m.cursor + 1) % 3
		case "enter":
			switch m.cursor {
			case 0:
				return m, func() tea.Msg { return ConfirmedMsg{} }
			case 1:
				return m, func() tea.Msg { return ReviewSelectionMsg{} }
			case 2:
				return m, tea.Quit
			}
		case "y":
			return m, func() tea.Msg { return ConfirmedMsg{} }
		case "e":
			return m, func() tea.Msg { return ReviewSelectionMsg{} }
		case "n":
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the confirmation view
func (m *ConfirmViewModel) View() string {
	var b strings.Builder

	if warning := utils.GetSizeWarningBanner(m.width, m.height); warning != "" {
		b.WriteString(warning)
	}

	b.WriteString(styles.TitleStyle.Render("⚠️  Confirm Clean"))
	b.WriteString("\n\n")

	var total int64
	for _, it := range m.items {
		total += it.SizeBytes
	}
	b.WriteString(styles.BoldStyle.Render(m.headline(total)))
	b.WriteString("\n\n")

	b.WriteString(styles.SubtitleStyle.Render("breakdown:"))
	b.WriteString("\n")
	for _, line := range m.categoryBreakdown() {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if warnings := m.protectionWarnings(); len(warnings) > 0 {
		b.WriteString(styles.WarningStyle.Render("protection warnings:"))
		b.WriteString("\n")
		for _, w := range warnings {
			b.WriteString("  " + w + "\n")
		}
		b.WriteString("\n")
	}

	riskText, riskRender := m.riskDisplay()
	b.WriteString("risk: ")
	b.WriteString(riskRender(riskText))
	b.WriteString("\n\n")

	if m.mode == executor.ModePermanent {
		b.WriteString(styles.ErrorStyle.Render("permanent mode: items do not go to the trash"))
		b.WriteString("\n\n")
	}

	yesBtn := "[ Yes, clean ]"
	reviewBtn := "[ Review ]"
	cancelBtn := "[ Cancel ]"
	switch m.cursor {
	case 0:
		yesBtn = styles.HighlightStyle.Render(yesBtn)
	case 1:
		reviewBtn = styles.HighlightStyle.Render(reviewBtn)
	case 2:
		cancelBtn = styles.HighlightStyle.Render(cancelBtn)
	}
	b.WriteString(fmt.Sprintf("%s  %s  %s", yesBtn, reviewBtn, cancelBtn))
	b.WriteString("\n\n")

	helpText := "y:confirm  e:edit selection  n:cancel  ←/→:switch  esc:back"
	if m.width < 70 {
		helpText = "y:yes  e:edit  n:no  ←/→"
	}
	b.WriteString(styles.HelpStyle.Render(helpText))

	return b.String()
}

// headline describes the action in the configured mode's terms
func (m *ConfirmViewModel) headline(total int64) string {
	count := len(m.items)
	size := humanize.IBytes(uint64(total))
	switch m.mode {
	case executor.ModePermanent:
		return fmt.Sprintf("Permanently delete %d items (%s)", count, size)
	case executor.ModeDryRun:
		return fmt.Sprintf("Dry run over %d items (%s), nothing will be removed", count, size)
	default:
		return fmt.Sprintf("Move %d items (%s) to the trash", count, size)
	}
}

// categoryBreakdown summarizes the selection per category, largest first
func (m *ConfirmViewModel) categoryBreakdown() []string {
	type entry struct {
		name  string
		count int
		size  int64
	}
	byCat := make(map[string]*entry)
	for _, it := range m.items {
		name := it.Category.String()
		e, ok := byCat[name]
		if !ok {
			e = &entry{name: name}
			byCat[name] = e
		}
		e.count++
		e.size += it.SizeBytes
	}

	entries := make([]*entry, 0, len(byCat))
	for _, e := range byCat {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].size > entries[j].size })

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("  %-18s %3d items (%s)",
			e.name, e.count,
			styles.SizeStyle.Render(humanize.IBytes(uint64(e.size)))))
	}
	return lines
}

// protectionWarnings lists the selected items the protection layer will
// flag, so the user sees them before the executor does
func (m *ConfirmViewModel) protectionWarnings() []string {
	const maxShown = 5

	var warnings []string
	var uncommitted, dangerous int
	for _, it := range m.items {
		if it.Git == scanner.GitUncommitted {
			uncommitted++
			if uncommitted <= maxShown {
				warnings = append(warnings, fmt.Sprintf("uncommitted changes: %s",
					utils.TruncatePath(it.Path, m.width-28)))
			}
		}
		if it.Safety == scanner.Dangerous {
			dangerous++
		}
	}
	if uncommitted > maxShown {
		warnings = append(warnings, fmt.Sprintf("... and %d more with uncommitted changes",
			uncommitted-maxShown))
	}
	if dangerous > 0 {
		warnings = append(warnings, fmt.Sprintf("%d dangerous items selected", dangerous))
	}
	return warnings
}

// riskDisplay returns the risk label and its render function
func (m *ConfirmViewModel) riskDisplay() (string, func(string) string) {
	switch m.risk {
	case RiskHigh:
		return "HIGH (dangerous or in-use items in the selection)",
			func(s string) string { return styles.ErrorStyle.Render(s) }
	case RiskMedium:
		return "MEDIUM (caution items or uncommitted repositories)",
			func(s string) string { return styles.WarningStyle.Render(s) }
	default:
		return "LOW (safe artifacts only)",
			func(s string) string { return styles.SuccessStyle.Render(s) }
	}
}
