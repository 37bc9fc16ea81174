package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/logger"
	"github.com/abhisek/tutorly/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tutorly",
	Short: "AI tutor with adaptive model routing",
	Long: "Tutorly answers learner questions through a cache, lightweight or deep-reasoning path,\n" +
		"picked per query, and rewards progress with XP and levels.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}

		level, _ := cmd.Flags().GetString("log-level")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		cfg := logger.DefaultConfig()
		cfg.Level = logger.Level(level)
		cfg.JSON = jsonLogs
		logger.Init(cfg)

		cmd.SetContext(logger.ContextWithLogger(cmd.Context(), logger.Default()))
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides TUTORLY_DB env var)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file to load before reading TUTORLY_* variables")
	rootCmd.PersistentFlags().String("log-level", string(logger.WarnLevel), "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log as JSON")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(competencyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then TUTORLY_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
