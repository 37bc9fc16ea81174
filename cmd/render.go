package cmd

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorly/internal/routing"
	"github.com/abhisek/tutorly/internal/tutor"
	"github.com/abhisek/tutorly/internal/ui/components"
	"github.com/abhisek/tutorly/internal/ui/theme"
	"github.com/abhisek/tutorly/internal/xp"
)

const cardWidth = 72

func tierBadge(t routing.Tier) string {
	return theme.Badge(t.DisplayName(), theme.TierColor(t.String()))
}

func field(label, value string) string {
	return theme.Label.Render(label) + theme.Body.Render(value)
}

func renderAnswer(ans *tutor.Answer) string {
	var b strings.Builder

	b.WriteString(theme.Body.Width(cardWidth - 4).Render(ans.LeadingPhrase + ans.Content))
	b.WriteString("\n")

	if len(ans.LearningObjectives) > 0 {
		b.WriteString("\n" + theme.Title.Render("Learning objectives") + "\n")
		for _, o := range ans.LearningObjectives {
			b.WriteString("  • " + o + "\n")
		}
	}

	if len(ans.Citations) > 0 {
		b.WriteString("\n" + theme.Title.Render("Sources") + "\n")
		for _, c := range ans.Citations {
			b.WriteString(fmt.Sprintf("  %s %s\n", c.Title, theme.Hint.Render(c.URL)))
		}
	}

	meta := []string{
		tierBadge(ans.Tier) + "  " + theme.Hint.Render(ans.Decision.Reasoning),
		field("Confidence", fmt.Sprintf("%.0f%%", ans.Confidence*100)),
		field("Latency", fmt.Sprintf("%s (est. %s)", ans.ActualLatency.Round(time.Millisecond), ans.EstimatedLatency)),
		field("Trace", ans.TraceID),
	}
	if ans.XPAwarded > 0 {
		reward := fmt.Sprintf("+%d XP", ans.XPAwarded)
		if ans.LeveledUp {
			reward += fmt.Sprintf("  Level up! You are now level %d", ans.Stats.Level)
		}
		meta = append(meta, theme.Reward.Render(reward))
		for _, a := range ans.Achievements {
			meta = append(meta, theme.Reward.Render(fmt.Sprintf("Achievement unlocked: %s (+%d XP)", a.Name, a.XPReward)))
		}
		meta = append(meta, renderLevel(ans.Stats))
	}
	b.WriteString("\n" + lipgloss.JoinVertical(lipgloss.Left, meta...))

	return theme.Card.Width(cardWidth).Render(b.String())
}

func renderLevel(s xp.Stats) string {
	label := fmt.Sprintf("Level %d", s.Level)
	bar := components.NewProgressBar(label, s.Progress(), true, cardWidth-4).View()
	return bar + "\n" + theme.Hint.Render(fmt.Sprintf("%d/%d XP to next level, %d total", s.CurrentLevelXP, s.XPToNextLevel, s.TotalXP))
}

func renderRoute(q string, r routing.Route) string {
	f, d := r.Features, r.Decision
	lines := []string{
		theme.Title.Render(q),
		"",
		field("Tier", tierBadge(d.Tier)),
		field("Rule", string(d.Rule)),
		field("Confidence", fmt.Sprintf("%.2f", d.Confidence)),
		field("Latency", d.EstimatedLatency.String()),
		field("Cacheable", fmt.Sprintf("%v", d.Cacheable)),
		field("Complexity", fmt.Sprintf("%.1f", f.Complexity)),
		field("Factual", fmt.Sprintf("%v", f.IsFactual)),
		field("Deep", fmt.Sprintf("%v", f.RequiresDeepReasoning)),
		"",
		theme.Hint.Render(d.Reasoning),
	}
	return theme.Card.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
