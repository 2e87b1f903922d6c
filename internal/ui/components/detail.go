package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/fenilsonani/devclean/internal/scanner"
	"github.com/fenilsonani/devclean/internal/ui/styles"
	"github.com/fenilsonani/devclean/internal/ui/utils"
)

// DetailPanel renders the full metadata of one item inside a bordered box.
// The browse view toggles it for the highlighted row.
type DetailPanel struct {
	title string
	rows  []detailRow
}

type detailRow struct {
	label string
	value string
}

// NewDetailPanel creates an empty panel.
func NewDetailPanel(title string) *DetailPanel {
	return &DetailPanel{title: title}
}

// Add appends a label/value row. Empty values are dropped.
func (p *DetailPanel) Add(label, value string) {
	if value == "" {
		return
	}
	p.rows = append(p.rows, detailRow{label: label, value: value})
}

// Render draws the panel sized to fit width.
func (p *DetailPanel) Render(width int) string {
	if len(p.rows) == 0 {
		return ""
	}

	panelWidth := width - 4
	if panelWidth > 100 {
		panelWidth = 100
	}
	if panelWidth < 40 {
		panelWidth = 40
	}
	valueWidth := panelWidth - 18

	labelStyle := lipgloss.NewStyle().Foreground(styles.Secondary).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(styles.Text)

	var b strings.Builder
	b.WriteString(styles.SelectedStyle.Render(p.title))
	b.WriteString("\n")
	for _, row := range p.rows {
		b.WriteString(labelStyle.Render(padLabel(row.label)))
		b.WriteString(valueStyle.Render(utils.TruncateMiddle(row.value, valueWidth)))
		b.WriteString("\n")
	}
	b.WriteString(styles.HelpStyle.Render("i closes this panel"))

	return styles.PanelStyle.Width(panelWidth).Render(strings.TrimRight(b.String(), "\n"))
}

func padLabel(label string) string {
	const labelWidth = 14
	if len(label) >= labelWidth {
		return label + " "
	}
	return label + strings.Repeat(" ", labelWidth-len(label))
}

// ItemDetail builds the standard panel for a cleanable item.
func ItemDetail(item *scanner.CleanableItem) *DetailPanel {
	panel := NewDetailPanel(item.Label)
	panel.Add("path", item.Path)
	panel.Add("size", humanize.IBytes(uint64(item.SizeBytes)))
	if item.FileCount > 0 {
		panel.Add("files", humanize.Comma(item.FileCount))
	}
	panel.Add("category", item.Category.String())
	panel.Add("safety", item.Safety.String())
	if item.Git != scanner.GitUnknown {
		panel.Add("git", item.Git.String())
	}
	if !item.LastActivity.IsZero() {
		panel.Add("last activity", humanize.Time(item.LastActivity))
	}
	if item.ActionHint != "" {
		panel.Add("hint", item.ActionHint)
	}
	if item.InUse {
		panel.Add("in use", "yes, deletion is blocked")
	}
	return panel
}
