package models

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/fenilsonani/devclean/internal/scanner"
	"github.com/fenilsonani/devclean/internal/ui/components"
	"github.com/fenilsonani/devclean/internal/ui/styles"
	"github.com/fenilsonani/devclean/internal/ui/utils"
)

// BrowseViewModel lets the user pick items out of the scan result. Items
// that are safe by default start selected; dangerous or in-use items must be
// toggled one by one.
type BrowseViewModel struct {
	items   []scanner.CleanableItem // sorted by size, largest first
	visible []int                   // indices into items under the active filter
	selected map[int]bool           // keyed by items index

	filters   []scanner.Category // categories present in the result
	filterIdx int                // 0 shows everything

	table      table.Model
	showDetail bool
	width      int
	height     int
}

// NewBrowseViewModel creates the browse view from a finished scan
func NewBrowseViewModel(result *scanner.ScanResult, width, height int) *BrowseViewModel {
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	items := result.SortedBySize()
	selected := make(map[int]bool)
	for i := range items {
		if items[i].DefaultSelectable() {
			selected[i] = true
		}
	}

	seen := make(map[scanner.Category]bool)
	var filters []scanner.Category
	for i := range items {
		if !seen[items[i].Category] {
			seen[items[i].Category] = true
			filters = append(filters, items[i].Category)
		}
	}
	sort.Slice(filters, func(i, j int) bool { return filters[i] < filters[j] })

	t := table.New(
		table.WithColumns(browseColumns(width)),
		table.WithFocused(true),
		table.WithHeight(utils.CalculatePageSize(height)),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		Bold(true).
		Foreground(styles.Secondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Border).
		BorderBottom(true)
	ts.Selected = ts.Selected.
		Foreground(styles.Text).
		Background(styles.BgDark).
		Bold(true)
	t.SetStyles(ts)

	m := &BrowseViewModel{
		items:    items,
		selected: selected,
		filters:  filters,
		table:    t,
		width:    width,
		height:   height,
	}
	m.applyFilter()
	return m
}

func browseColumns(width int) []table.Column {
	// Fixed columns plus two cells of padding each leave the rest for PATH.
	pathWidth := width - 65
	if pathWidth < 20 {
		pathWidth = 20
	}
	return []table.Column{
		{Title: " ", Width: 2},
		{Title: "SIZE", Width: 9},
		{Title: "CATEGORY", Width: 16},
		{Title: "SAFETY", Width: 13},
		{Title: "GIT", Width: 11},
		{Title: "PATH", Width: pathWidth},
	}
}

// Init initializes the browse view
func (m *BrowseViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *BrowseViewModel) Update(msg tea.Msg) (*BrowseViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(browseColumns(msg.Width))
		m.table.SetHeight(utils.CalculatePageSize(msg.Height))
		m.refreshRows()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case " ", "space":
			m.toggleCurrent(false)
			return m, nil
		case "x":
			m.toggleCurrent(true)
			return m, nil
		case "a":
			// Bulk select never grabs dangerous or in-use items; those
			// require a deliberate per-item toggle.
			for _, idx := range m.visible {
				it := &m.items[idx]
				if it.Safety == scanner.Dangerous || it.InUse {
					continue
				}
				m.selected[idx] = true
			}
			m.refreshRows()
			return m, nil
		case "n":
			for _, idx := range m.visible {
				delete(m.selected, idx)
			}
			m.refreshRows()
			return m, nil
		case "c":
			m.filterIdx = (m.filterIdx + 1) % (len(m.filters) + 1)
			m.applyFilter()
			return m, nil
		case "i":
			m.showDetail = !m.showDetail
			return m, nil
		case "enter":
			return m, m.proceed()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the browse view
func (m *BrowseViewModel) View() string {
	var b strings.Builder

	if warning := utils.GetSizeWarningBanner(m.width, m.height); warning != "" {
		b.WriteString(warning)
	}

	b.WriteString(styles.TitleStyle.Render("📦 Select Items to Clean"))
	b.WriteString("\n")

	if len(m.items) == 0 {
		b.WriteString(styles.SubtitleStyle.Render("nothing cleanable found"))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("q quits"))
		return b.String()
	}

	if m.filterIdx > 0 {
		b.WriteString(styles.SubtitleStyle.Render("filter: " + m.filters[m.filterIdx-1].String()))
		b.WriteString("\n")
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")

	if m.showDetail {
		if item := m.currentItem(); item != nil {
			b.WriteString(components.ItemDetail(item).Render(m.width))
			b.WriteString("\n")
		}
	}

	count, size := m.selectionTally()
	bar := components.NewStatusBar()
	bar.SetView("Browse")
	bar.SetSelection(count, len(m.items), size)
	bar.SetShortcuts(map[string]string{
		"↑/↓":   "move",
		"space": "toggle",
		"a":     "all",
		"n":     "none",
		"c":     "category",
		"i":     "details",
		"enter": "continue",
		"?":     "help",
		"q":     "quit",
	})
	b.WriteString(bar.Render(m.width))

	return b.String()
}

// applyFilter rebuilds the visible index set and resets the cursor
func (m *BrowseViewModel) applyFilter() {
	m.visible = m.visible[:0]
	for i := range m.items {
		if m.filterIdx > 0 && m.items[i].Category != m.filters[m.filterIdx-1] {
			continue
		}
		m.visible = append(m.visible, i)
	}
	m.refreshRows()
	m.table.SetCursor(0)
}

// refreshRows re-renders table rows from the current selection state
func (m *BrowseViewModel) refreshRows() {
	cols := browseColumns(m.width)
	pathWidth := cols[len(cols)-1].Width

	rows := make([]table.Row, 0, len(m.visible))
	for _, idx := range m.visible {
		it := &m.items[idx]

		mark := " "
		switch {
		case it.InUse:
			mark = "-"
		case m.selected[idx]:
			mark = "✓"
		}

		git := ""
		if it.Git != scanner.GitUnknown {
			git = it.Git.String()
		}

		rows = append(rows, table.Row{
			mark,
			humanize.IBytes(uint64(it.SizeBytes)),
			it.Category.String(),
			it.Safety.String(),
			git,
			utils.TruncatePath(it.Path, pathWidth),
		})
	}
	m.table.SetRows(rows)
}

// toggleCurrent flips the highlighted item, optionally advancing the cursor
func (m *BrowseViewModel) toggleCurrent(advance bool) {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.visible) {
		return
	}
	idx := m.visible[cursor]
	if m.items[idx].InUse {
		return
	}
	if m.selected[idx] {
		delete(m.selected, idx)
	} else {
		m.selected[idx] = true
	}
	m.refreshRows()
	if advance {
		m.table.MoveDown(1)
	}
}

// currentItem returns the highlighted item, or nil when the list is empty
func (m *BrowseViewModel) currentItem() *scanner.CleanableItem {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.visible) {
		return nil
	}
	return &m.items[m.visible[cursor]]
}

// selectionTally counts the selected items and their bytes
func (m *BrowseViewModel) selectionTally() (int, int64) {
	var count int
	var size int64
	for idx := range m.selected {
		count++
		size += m.items[idx].SizeBytes
	}
	return count, size
}

// proceed hands the selection to the confirmation step
func (m *BrowseViewModel) proceed() tea.Cmd {
	var items []*scanner.CleanableItem
	for i := range m.items {
		if m.selected[i] {
			items = append(items, &m.items[i])
		}
	}
	if len(items) == 0 {
		return nil
	}
	return func() tea.Msg {
		return ItemsSelectedMsg{Items: items}
	}
}
