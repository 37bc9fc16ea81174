package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/routing"
	"github.com/abhisek/tutorly/internal/ui/theme"
)

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask the tutor a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := routeOptions(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		svc, err := newTutor(cmd, st)
		if err != nil {
			return err
		}

		ans, err := svc.Ask(cmd.Context(), strings.Join(args, " "), opts)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), theme.Failure.Render("I'm having trouble answering right now. Please try again in a moment."))
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderAnswer(ans))
		return nil
	},
}

// routeOptions reads the routing flags shared by ask and route.
func routeOptions(cmd *cobra.Command) (routing.Options, error) {
	var opts routing.Options
	if forced, _ := cmd.Flags().GetString("force-route"); forced != "" {
		t, err := routing.ParseTier(forced)
		if err != nil {
			return opts, err
		}
		if t == routing.TierTemplate {
			return opts, fmt.Errorf("the template tier cannot be forced")
		}
		opts.ForceTier = t
	}
	opts.PrioritizeSpeed, _ = cmd.Flags().GetBool("speed")
	opts.PrioritizeQuality, _ = cmd.Flags().GetBool("quality")
	return opts, nil
}

func addRouteFlags(cmd *cobra.Command) {
	cmd.Flags().String("force-route", "", "Force a tier: cache, lightweight or deep_reasoning")
	cmd.Flags().Bool("speed", false, "Prioritize speed (skip simulated latency)")
	cmd.Flags().Bool("quality", false, "Prioritize quality (larger token budget)")
}

func init() {
	addRouteFlags(askCmd)
}
