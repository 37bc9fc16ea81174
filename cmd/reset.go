package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the learner's XP and level",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("this clears all XP; re-run with --yes to confirm")
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		stats := store.DefaultStats
		u, err := st.UserRepo().UpdateCurrentUser(cmd.Context(), store.UserPatch{Stats: &stats})
		if err != nil {
			return fmt.Errorf("reset learner: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %s to level %d.\n", u.Email, u.Stats.Level)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm the reset")
}
