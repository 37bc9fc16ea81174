package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/tutor"
	"github.com/abhisek/tutorly/internal/ui/theme"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversation messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("limit")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		// History needs no LLM; the pipeline is built without collaborators.
		svc := tutor.NewService(nil, nil, st.EntityRepo(), st.UserRepo(), tutor.DefaultConfig())
		recs, err := svc.History(cmd.Context(), n)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		if len(recs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No messages yet. Try: tutorly ask \"What is photosynthesis?\"")
			return nil
		}

		out := cmd.OutOrStdout()
		for _, r := range recs {
			m := r.Value
			ts := theme.Hint.Render(r.CreatedAt.Local().Format("2006-01-02 15:04"))
			if m.Role == "user" {
				fmt.Fprintf(out, "%s %s %s\n", ts, theme.Title.Render("you"), m.Content)
				continue
			}
			meta := m.ModelTier
			if m.XPAwarded > 0 {
				meta += fmt.Sprintf(", +%d XP", m.XPAwarded)
			}
			fmt.Fprintf(out, "%s %s %s%s %s\n", ts, theme.Reward.Render("tutor"), m.LeadingPhrase, m.Content, theme.Hint.Render("("+meta+")"))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of messages to show (0 = all)")
}
