package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorly/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// Filled returns how many of barWidth cells are filled, clamped to the bar.
func (p ProgressBar) Filled(barWidth int) int {
	filled := int(float64(barWidth) * p.Percent)
	return max(0, min(filled, barWidth))
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(theme.Body.Render(p.Label) + "  ")
	}

	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6 // "  100%"
	}
	barWidth := max(4, p.Width-lipgloss.Width(b.String())-percentWidth)

	filled := p.Filled(barWidth)
	b.WriteString(theme.ProgressFilled.Render(strings.Repeat(" ", filled)))
	b.WriteString(theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled)))

	if p.ShowPercent {
		b.WriteString(theme.Hint.Render(fmt.Sprintf("  %3d%%", int(p.Percent*100))))
	}

	return b.String()
}
