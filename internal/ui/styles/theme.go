package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme colors
var (
	Primary   = lipgloss.Color("#10B981")
	Secondary = lipgloss.Color("#6EE7B7")
	Success   = lipgloss.Color("#22C55E")
	Warning   = lipgloss.Color("#F59E0B")
	Danger    = lipgloss.Color("#EF4444")
	Info      = lipgloss.Color("#3B82F6")
	Muted     = lipgloss.Color("#6B7280")
	Text      = lipgloss.Color("#F3F4F6")
	TextDim   = lipgloss.Color("#9CA3AF")
	Border    = lipgloss.Color("#4B5563")
	BgDark    = lipgloss.Color("#1F2937")
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			MarginBottom(1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(1, 2)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	CheckboxStyle = lipgloss.NewStyle().
			Foreground(Success)

	CheckboxUncheckedStyle = lipgloss.NewStyle().
				Foreground(Muted)

	PathStyle = lipgloss.NewStyle().
			Foreground(Info)

	SizeStyle = lipgloss.NewStyle().
			Foreground(Warning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(Info).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextDim).
			Italic(true)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(Text).
			Background(Primary).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(TextDim)

	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(Text).
			Background(BgDark).
			Padding(0, 1)
)

// SafetyColor maps a safety display name to its theme color.
func SafetyColor(name string) lipgloss.Color {
	switch name {
	case "safe":
		return Success
	case "safe-with-cost":
		return Info
	case "caution":
		return Warning
	case "dangerous":
		return Danger
	default:
		return Muted
	}
}

// GitColor maps a git state display name to its theme color.
func GitColor(name string) lipgloss.Color {
	switch name {
	case "clean":
		return Success
	case "uncommitted":
		return Warning
	default:
		return Muted
	}
}

// Helper functions
func CheckedBox() string {
	return CheckboxStyle.Render("☑")
}

func UncheckedBox() string {
	return CheckboxUncheckedStyle.Render("☐")
}
