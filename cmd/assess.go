package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/assessment"
	"github.com/abhisek/tutorly/internal/store"
	"github.com/abhisek/tutorly/internal/ui/components"
	"github.com/abhisek/tutorly/internal/ui/theme"
)

var assessCmd = &cobra.Command{
	Use:   "assess <subject>",
	Short: "Assess competency in a subject from past questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		provider, _, err := newProvider(cmd, st)
		if err != nil {
			return err
		}

		u, err := st.UserRepo().CurrentUser(cmd.Context())
		if err != nil {
			return fmt.Errorf("load learner: %w", err)
		}

		res, err := assessment.NewAssessor(provider, st.EntityRepo(), assessment.DefaultConfig()).
			Run(cmd.Context(), args[0], u.Email)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), theme.Failure.Render("Assessment failed. Please try again later."))
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderAssessment(res))
		return nil
	},
}

var competencyCmd = &cobra.Command{
	Use:   "competency",
	Short: "Manage competencies on learning paths",
}

var competencyAddCmd = &cobra.Command{
	Use:   "add <learning-path> <name>",
	Short: "Add a locked competency to a learning path",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("level")
		desc, _ := cmd.Flags().GetString("description")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := store.CompetencyRepo(st.EntityRepo()).Create(cmd.Context(), "", store.Competency{
			Name:         args[1],
			LearningPath: args[0],
			Level:        level,
			Description:  desc,
		})
		if err != nil {
			return fmt.Errorf("save competency: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added competency %s to %s (%s)\n", rec.Value.Name, rec.Value.LearningPath, rec.ID)
		return nil
	},
}

var competencyListCmd = &cobra.Command{
	Use:   "list [learning-path]",
	Short: "List competencies",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		match := map[string]any{}
		if len(args) == 1 {
			match["learning_path"] = args[0]
		}
		recs, err := store.CompetencyRepo(st.EntityRepo()).Filter(cmd.Context(), match, store.ListOpts{Asc: true})
		if err != nil {
			return fmt.Errorf("list competencies: %w", err)
		}

		var levels []string
		for _, r := range recs {
			c := r.Value
			state := theme.Hint.Render("locked")
			if c.Unlocked {
				state = theme.Reward.Render("unlocked " + c.UnlockedDate.Local().Format("2006-01-02"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-28s %-12s %s\n", c.LearningPath, c.Name, c.Level, state)
			if c.Unlocked && c.Level != "" {
				levels = append(levels, c.Level)
			}
		}
		if len(recs) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), field("Overall", assessment.OverallLevel(levels)))
		}
		return nil
	},
}

func renderAssessment(res *assessment.Result) string {
	a, r := res.Assessment, res.Recommendations
	lines := []string{
		theme.Title.Render("Competency in " + res.Subject),
		field("Level", a.CurrentLevel),
		components.NewProgressBar("Mastery", a.MasteryScore/100, true, cardWidth-4).View(),
		field("Strengths", strings.Join(a.Strengths, ", ")),
		field("Improve", strings.Join(a.Weaknesses, ", ")),
		field("Next level", a.EstimatedTime),
	}
	if len(res.Unlocked) > 0 {
		lines = append(lines, theme.Reward.Render("Unlocked: "+strings.Join(res.Unlocked, ", ")))
	}
	if r != nil {
		lines = append(lines, "", theme.Title.Render("Do today"))
		for _, s := range r.Immediate {
			lines = append(lines, "  • "+s)
		}
		if r.StudyPlan != "" {
			lines = append(lines, "", theme.Hint.Render(r.StudyPlan))
		}
	}
	return theme.Card.Width(cardWidth).Render(strings.Join(lines, "\n"))
}

func init() {
	competencyAddCmd.Flags().String("level", assessment.LevelBeginner, "Competency level")
	competencyAddCmd.Flags().String("description", "", "Short description")

	competencyCmd.AddCommand(competencyAddCmd)
	competencyCmd.AddCommand(competencyListCmd)
}
