// Package components holds small reusable pieces of the interactive views.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/fenilsonani/devclean/internal/ui/styles"
)

// StatusBar is the one-line bar rendered at the bottom of a view: current
// view name, selection tally, and the active shortcuts.
type StatusBar struct {
	viewName  string
	selected  int
	total     int
	size      int64
	shortcuts map[string]string
}

// NewStatusBar creates an empty status bar.
func NewStatusBar() *StatusBar {
	return &StatusBar{shortcuts: make(map[string]string)}
}

// SetView sets the view name shown on the left.
func (s *StatusBar) SetView(viewName string) {
	s.viewName = viewName
}

// SetSelection sets the selected count, total count, and selected byte size.
func (s *StatusBar) SetSelection(selected, total int, size int64) {
	s.selected = selected
	s.total = total
	s.size = size
}

// SetShortcuts sets the key-to-action hints shown on the right.
func (s *StatusBar) SetShortcuts(shortcuts map[string]string) {
	s.shortcuts = shortcuts
}

// shortcutOrder fixes the display order for common keys; anything else is
// appended after these.
var shortcutOrder = []string{"↑/↓", "space", "a", "n", "c", "i", "enter", "?", "q"}

// Render renders the bar padded to width.
func (s *StatusBar) Render(width int) string {
	if width <= 0 {
		width = 80
	}

	var parts []string
	if s.viewName != "" {
		parts = append(parts, styles.BoldStyle.Render(s.viewName))
	}
	if s.total > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d selected", s.selected, s.total))
	}
	if s.size > 0 {
		parts = append(parts, styles.SizeStyle.Render(humanize.IBytes(uint64(s.size))))
	}
	leftSide := strings.Join(parts, " | ")

	var shortcutParts []string
	for _, key := range shortcutOrder {
		if desc, ok := s.shortcuts[key]; ok {
			shortcutParts = append(shortcutParts,
				fmt.Sprintf("%s:%s", styles.DimStyle.Render(key), desc))
		}
	}
	for key, desc := range s.shortcuts {
		known := false
		for _, ordered := range shortcutOrder {
			if key == ordered {
				known = true
				break
			}
		}
		if !known {
			shortcutParts = append(shortcutParts,
				fmt.Sprintf("%s:%s", styles.DimStyle.Render(key), desc))
		}
	}
	rightSide := strings.Join(shortcutParts, " ")

	spacing := width - lipgloss.Width(leftSide) - lipgloss.Width(rightSide) - 2
	if spacing < 1 {
		maxRight := width - lipgloss.Width(leftSide) - 5
		if maxRight > 3 && lipgloss.Width(rightSide) > maxRight {
			rightSide = rightSide[:maxRight-3] + "..."
		}
		spacing = 1
	}

	line := leftSide + strings.Repeat(" ", spacing) + rightSide
	return styles.StatusBarStyle.Width(width).Render(line)
}

// RenderSimple renders a bar containing only a message.
func RenderSimple(message string, width int) string {
	if width <= 0 {
		width = 80
	}
	return styles.StatusBarStyle.Width(width).Render(message)
}
