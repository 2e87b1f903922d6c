// Package models implements the interactive clean flow: scan, browse and
// select, confirm, clean, summary. Each step is its own model; AppModel owns
// the state machine and routes messages to the active view.
package models

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/devclean/internal/executor"
	"github.com/fenilsonani/devclean/internal/platform"
	"github.com/fenilsonani/devclean/internal/progress"
	"github.com/fenilsonani/devclean/internal/scanner"
	"github.com/fenilsonani/devclean/internal/ui/styles"
)

// ViewState identifies the active step of the flow
type ViewState int

const (
	ViewScanning ViewState = iota
	ViewBrowsing
	ViewConfirm
	ViewCleaning
	ViewSummary
	ViewHelp
)

// Deps supplies the operations the interactive flow drives. The command
// layer wires them to the scanner and executor, so the models never build
// their own pipeline and stay testable.
type Deps struct {
	// Scan runs a full project scan and blocks until it finishes.
	Scan func(ctx context.Context) *scanner.ScanResult
	// Clean executes the selected items and blocks until the session ends.
	Clean func(ctx context.Context, items []*scanner.CleanableItem) *executor.Summary
	// Progress carries live counters out of the scan and clean phases.
	Progress *progress.Reporter
	// Disk probes current disk usage; nil disables the before/after line.
	Disk func() *platform.DiskUsage
	// Mode is shown in the confirm and summary wording.
	Mode executor.Mode
}

// AppModel is the root model for the interactive flow
type AppModel struct {
	state         ViewState
	previousState ViewState // for help navigation

	deps       Deps
	scanResult *scanner.ScanResult
	diskBefore *platform.DiskUsage

	scanView    *ScanViewModel
	browseView  *BrowseViewModel
	confirmView *ConfirmViewModel
	cleanView   *CleanViewModel
	summaryView *SummaryViewModel

	width  int
	height int
}

// NewAppModel creates the root model
func NewAppModel(deps Deps) *AppModel {
	m := &AppModel{
		state: ViewScanning,
		deps:  deps,
	}
	if deps.Disk != nil {
		m.diskBefore = deps.Disk()
	}
	return m
}

// Init starts the scan immediately
func (m *AppModel) Init() tea.Cmd {
	m.scanView = NewScanViewModel(m.deps)
	return m.scanView.Init()
}

// Update handles messages
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == ViewHelp {
			// Any key closes help.
			m.state = m.previousState
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			// Never quit mid-deletion; the executor must finish its item.
			if m.state != ViewCleaning {
				return m, tea.Quit
			}
		case "?":
			if m.state != ViewCleaning {
				m.previousState = m.state
				m.state = ViewHelp
				return m, nil
			}
		case "esc":
			if m.state == ViewConfirm {
				m.state = ViewBrowsing
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ScanCompleteMsg:
		m.scanResult = msg.Result
		m.browseView = NewBrowseViewModel(m.scanResult, m.width, m.height)
		m.state = ViewBrowsing
		return m, nil

	case ItemsSelectedMsg:
		m.confirmView = NewConfirmViewModel(msg.Items, m.deps.Mode, m.width, m.height)
		m.state = ViewConfirm
		return m, nil

	case ConfirmedMsg:
		m.cleanView = NewCleanViewModel(m.deps, m.confirmView.items)
		m.state = ViewCleaning
		return m, m.cleanView.Init()

	case ReviewSelectionMsg:
		m.state = ViewBrowsing
		return m, nil

	case CleanCompleteMsg:
		var diskAfter *platform.DiskUsage
		if m.deps.Disk != nil {
			diskAfter = m.deps.Disk()
		}
		m.summaryView = NewSummaryViewModel(msg.Summary, m.diskBefore, diskAfter)
		m.state = ViewSummary
		return m, nil
	}

	return m.delegateUpdate(msg)
}

// delegateUpdate forwards a message to the active view
func (m *AppModel) delegateUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			m.scanView, cmd = m.scanView.Update(msg)
		}
	case ViewBrowsing:
		if m.browseView != nil {
			m.browseView, cmd = m.browseView.Update(msg)
		}
	case ViewConfirm:
		if m.confirmView != nil {
			m.confirmView, cmd = m.confirmView.Update(msg)
		}
	case ViewCleaning:
		if m.cleanView != nil {
			m.cleanView, cmd = m.cleanView.Update(msg)
		}
	case ViewSummary:
		if m.summaryView != nil {
			m.summaryView, cmd = m.summaryView.Update(msg)
		}
	}

	return m, cmd
}

// View renders the active view
func (m *AppModel) View() string {
	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			return m.scanView.View()
		}
	case ViewBrowsing:
		if m.browseView != nil {
			return m.browseView.View()
		}
	case ViewConfirm:
		if m.confirmView != nil {
			return m.confirmView.View()
		}
	case ViewCleaning:
		if m.cleanView != nil {
			return m.cleanView.View()
		}
	case ViewSummary:
		if m.summaryView != nil {
			return m.summaryView.View()
		}
	case ViewHelp:
		return m.renderHelp()
	}

	return "Loading..."
}

// renderHelp shows help for the view the user came from
func (m *AppModel) renderHelp() string {
	var b strings.Builder

	var viewName, content string
	switch m.previousState {
	case ViewBrowsing:
		viewName = "Browse"
		content = helpForBrowse
	case ViewConfirm:
		viewName = "Confirm"
		content = helpForConfirm
	default:
		viewName = "General"
		content = helpForGeneral
	}

	b.WriteString(styles.TitleStyle.Render("Help - " + viewName))
	b.WriteString("\n\n")
	b.WriteString(content)
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("Press any key to close"))

	return b.String()
}

const helpForBrowse = `Browse the scan results and pick what to clean.

Navigation               Selection
  ↑/k     Move up          space   Toggle item
  ↓/j     Move down        x       Toggle + down
  g       Top              a       Select all shown
  G       Bottom           n       Deselect all shown
  b/f     Page up/down

Other
  c       Cycle category filter
  i       Item details
  enter   Continue to confirmation
  q       Quit`

const helpForConfirm = `Review the selection before anything is removed.

  ←/→/h/l Switch buttons
  enter   Activate button
  y       Confirm
  e       Edit selection
  n       Cancel and quit
  esc     Back to browsing`

const helpForGeneral = `devclean interactive mode walks through:

  1. Scanning   - find cleanable artifacts under your roots
  2. Browse     - pick the items to clean
  3. Confirm    - review totals and protection warnings
  4. Cleaning   - watch items resolve one by one
  5. Summary    - freed space and any skips or failures

Global keys:
  ?       Toggle this help
  q       Quit (except while cleaning)
  ctrl+c  Quit (except while cleaning)`

// Messages passed between views
type ScanCompleteMsg struct {
	Result *scanner.ScanResult
}

type ItemsSelectedMsg struct {
	Items []*scanner.CleanableItem
}

type ConfirmedMsg struct{}

type ReviewSelectionMsg struct{}

type CleanCompleteMsg struct {
	Summary *executor.Summary
}
