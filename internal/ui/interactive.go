// Package ui hosts the interactive clean flow and the single-line progress
// printer used by plain terminal runs.
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/devclean/internal/ui/models"
)

// RunInteractive drives the full-screen clean flow and blocks until the user
// exits or the flow completes.
func RunInteractive(deps models.Deps) error {
	m := models.NewAppModel(deps)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interactive mode failed: %w", err)
	}
	return nil
}
