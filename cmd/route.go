package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/routing"
	"github.com/abhisek/tutorly/internal/tutor"
)

var routeCmd = &cobra.Command{
	Use:   "route <question...>",
	Short: "Show how a question would be routed without answering it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := routeOptions(cmd)
		if err != nil {
			return err
		}

		var analyzer routing.Analyzer
		if tutor.ConfigFromEnv().Analyzer == tutor.AnalyzerLLM {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			provider, _, err := newProvider(cmd, st)
			if err != nil {
				return err
			}
			analyzer = routing.NewLLMAnalyzer(provider, routing.DefaultAnalyzerConfig())
		}

		query := strings.Join(args, " ")
		r := routing.NewRouter(analyzer).Route(cmd.Context(), query, routing.UserContext{}, opts)
		fmt.Fprintln(cmd.OutOrStdout(), renderRoute(query, r))
		return nil
	},
}

func init() {
	addRouteFlags(routeCmd)
}
