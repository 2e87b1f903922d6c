// Package utils holds layout helpers shared by the interactive views.
package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/devclean/internal/ui/styles"
)

const (
	// MinTerminalWidth is the smallest width the views lay out well at.
	MinTerminalWidth = 80
	// MinTerminalHeight is the smallest height the views lay out well at.
	MinTerminalHeight = 24
)

// TruncatePath shortens a path to maxWidth, keeping the base name intact and
// collapsing the middle of the directory part.
func TruncatePath(path string, maxWidth int) string {
	if len(path) <= maxWidth {
		return path
	}
	if maxWidth < 10 {
		return "..."
	}

	dir, file := filepath.Split(path)
	if len(file) > maxWidth-4 {
		return "..." + file[len(file)-(maxWidth-4):]
	}

	availableForDir := maxWidth - len(file) - 4
	if availableForDir < 4 {
		return ".../" + file
	}

	dir = filepath.Clean(dir)
	if len(dir) <= availableForDir {
		return filepath.Join(dir, file)
	}

	parts := strings.Split(dir, string(filepath.Separator))
	if len(parts) <= 2 {
		return "..." + dir[len(dir)-availableForDir:] + string(filepath.Separator) + file
	}

	first := parts[0]
	if first == "" && len(parts) > 1 {
		first = string(filepath.Separator) + parts[1]
	}
	last := parts[len(parts)-1]

	if len(first)+len(last)+5 <= availableForDir {
		return first + string(filepath.Separator) + "..." + string(filepath.Separator) +
			last + string(filepath.Separator) + file
	}
	return "..." + string(filepath.Separator) + last + string(filepath.Separator) + file
}

// TruncateMiddle shortens a string from the middle, preserving both ends.
func TruncateMiddle(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 10 {
		if maxLen < 3 {
			return "..."
		}
		return s[:maxLen-3] + "..."
	}
	sideLen := (maxLen - 3) / 2
	return s[:sideLen] + "..." + s[len(s)-sideLen:]
}

// CalculatePageSize returns how many list rows fit once titles, help lines
// and the status bar are accounted for.
func CalculatePageSize(terminalHeight int) int {
	const reservedLines = 10
	pageSize := terminalHeight - reservedLines
	if pageSize < 5 {
		pageSize = 5
	}
	return pageSize
}

// IsTerminalTooSmall reports whether the terminal is below the recommended
// minimum size.
func IsTerminalTooSmall(width, height int) bool {
	return width < MinTerminalWidth || height < MinTerminalHeight
}

// GetSizeWarningBanner returns a warning banner when the terminal is too
// small, or an empty string.
func GetSizeWarningBanner(width, height int) string {
	if !IsTerminalTooSmall(width, height) {
		return ""
	}
	warning := fmt.Sprintf("terminal too small, %dx%d or larger recommended",
		MinTerminalWidth, MinTerminalHeight)
	if width > 0 && height > 0 {
		warning += fmt.Sprintf(" (current: %dx%d)", width, height)
	}
	return styles.WarningStyle.Render(warning) + "\n\n"
}
