package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/store"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage the learner profile",
}

var userSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the learner profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch store.UserPatch
		flags := cmd.Flags()

		if flags.Changed("name") {
			v, _ := flags.GetString("name")
			patch.FullName = &v
		}
		if flags.Changed("level") {
			v, _ := flags.GetString("level")
			v = strings.ToLower(v)
			patch.Level = &v
		}
		if flags.Changed("style") {
			v, _ := flags.GetString("style")
			patch.LearningStyle = &v
		}
		if flags.Changed("subjects") {
			v, _ := flags.GetStringSlice("subjects")
			patch.Subjects = v
			if patch.Subjects == nil {
				patch.Subjects = []string{}
			}
		}
		if flags.Changed("rpg") {
			v, _ := flags.GetBool("rpg")
			patch.RPGEnabled = &v
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		u, err := st.UserRepo().UpdateCurrentUser(cmd.Context(), patch)
		if err != nil {
			return fmt.Errorf("update learner: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: level=%s style=%s subjects=[%s] rpg=%v\n",
			u.Email, u.Level, u.LearningStyle, strings.Join(u.Subjects, ", "), u.RPGEnabled)
		return nil
	},
}

func init() {
	userSetCmd.Flags().String("name", "", "Full name")
	userSetCmd.Flags().String("level", "", "Skill level: beginner, intermediate, advanced or expert")
	userSetCmd.Flags().String("style", "", "Learning style, e.g. visual, balanced")
	userSetCmd.Flags().StringSlice("subjects", nil, "Subjects of interest (comma separated)")
	userSetCmd.Flags().Bool("rpg", true, "Enable XP and levels")

	userCmd.AddCommand(userSetCmd)
}
