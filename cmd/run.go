package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/logger"
	"github.com/abhisek/tutorly/internal/routing"
	"github.com/abhisek/tutorly/internal/store"
	"github.com/abhisek/tutorly/internal/synth"
	"github.com/abhisek/tutorly/internal/tutor"
)

// openStore opens the database for the configured learner.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.OpenWithOptions(dbPath, store.Options{
		UserEmail: tutor.ConfigFromEnv().UserEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// newProvider builds the default LLM provider from the environment. Every
// request it makes is recorded in the store's event log.
func newProvider(cmd *cobra.Command, st *store.Store) (llm.Provider, llm.Config, error) {
	cfg := llm.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, cfg, fmt.Errorf("LLM provider not configured: %w", err)
	}
	p, err := llm.NewProvider(cmd.Context(), cfg, st.EventRepo())
	if err != nil {
		return nil, cfg, err
	}
	return p, cfg, nil
}

// newTutor builds the full tutoring pipeline.
func newTutor(cmd *cobra.Command, st *store.Store) (*tutor.Service, error) {
	cfg := tutor.ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tutor config: %w", err)
	}

	provider, llmCfg, err := newProvider(cmd, st)
	if err != nil {
		return nil, err
	}

	var analyzer routing.Analyzer
	if cfg.Analyzer == tutor.AnalyzerLLM {
		analyzer = routing.NewLLMAnalyzer(provider, routing.DefaultAnalyzerConfig())
	}

	synthesizer := synth.New(provider, cfg.Pacer(), cfg.Synth)
	deep, err := llm.NewDeepProvider(cmd.Context(), llmCfg, st.EventRepo())
	if err != nil {
		return nil, fmt.Errorf("deep reasoning provider: %w", err)
	}
	if deep != nil {
		synthesizer = synthesizer.WithDeepProvider(deep)
	}

	logger.FromContext(cmd.Context()).Debug("tutor ready",
		"provider", llmCfg.Provider,
		"model", provider.ModelID(),
		"analyzer", cfg.Analyzer,
		"deep_model", llmCfg.DeepModel,
	)

	return tutor.NewService(routing.NewRouter(analyzer), synthesizer, st.EntityRepo(), st.UserRepo(), cfg), nil
}
