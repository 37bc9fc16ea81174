package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/ui/theme"
	"github.com/abhisek/tutorly/internal/xp"
)

var statsCmd = &cobra.Command{
	Use:     "xp",
	Aliases: []string{"stats"},
	Short:   "Show the learner's level and XP",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		u, err := st.UserRepo().CurrentUser(cmd.Context())
		if err != nil {
			return fmt.Errorf("load learner: %w", err)
		}

		lines := []string{
			theme.Title.Render(u.Email),
			field("Level", u.Level),
			field("Style", u.LearningStyle),
			field("Subjects", strings.Join(u.Subjects, ", ")),
		}
		if u.RPGEnabled {
			lines = append(lines, "", renderLevel(xp.Stats(u.Stats)))
		} else {
			lines = append(lines, "", theme.Hint.Render("RPG mode is off. Enable it with: tutorly user set --rpg"))
		}

		fmt.Fprintln(cmd.OutOrStdout(), theme.Card.Width(cardWidth).Render(strings.Join(lines, "\n")))
		return nil
	},
}
