// Package theme holds the terminal palette and styles used by the CLI.
package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Width(12)

	Failure = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	Reward = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)
)

// TierColor returns the badge color for a routing tier name.
func TierColor(tier string) color.Color {
	switch tier {
	case "cache":
		return Success
	case "lightweight":
		return Secondary
	case "deep_reasoning":
		return Primary
	case "template":
		return Accent
	default:
		return TextDim
	}
}

// Badge renders a short label on a colored background.
func Badge(text string, c color.Color) string {
	return lipgloss.NewStyle().
		Background(c).
		Foreground(Text).
		Bold(true).
		Padding(0, 1).
		Render(text)
}
