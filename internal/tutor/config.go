package tutor

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/abhisek/tutorly/internal/synth"
	"github.com/abhisek/tutorly/internal/xp"
)

// Analyzer names.
const (
	AnalyzerHeuristic = "heuristic"
	AnalyzerLLM       = "llm"
)

// Config holds pipeline configuration.
type Config struct {
	// Analyzer selects how queries are classified: "heuristic" or "llm".
	Analyzer string

	// SimulateLatency turns on per-tier pacing delays.
	SimulateLatency bool

	// UserEmail identifies the local learner.
	UserEmail string

	// RecentTopics is how many recent messages feed the user context.
	RecentTopics int

	// Achievements is the milestone catalog checked after each award.
	// Empty disables achievements.
	Achievements []xp.Achievement

	Synth synth.Config
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Analyzer:        AnalyzerHeuristic,
		SimulateLatency: true,
		RecentTopics:    10,
		Achievements:    xp.DefaultAchievements(),
		Synth:           synth.DefaultConfig(),
	}
}

// ConfigFromEnv reads TUTORLY_* variables over DefaultConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("TUTORLY_ANALYZER"); v != "" {
		cfg.Analyzer = strings.ToLower(v)
	}
	if v := os.Getenv("TUTORLY_SIMULATE_LATENCY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.SimulateLatency = b
		}
	}
	if v := os.Getenv("TUTORLY_USER_EMAIL"); v != "" {
		cfg.UserEmail = v
	}
	if v := os.Getenv("TUTORLY_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Synth.MaxTokens = n
		}
	}

	return cfg
}

// Validate checks the config for errors.
func (c Config) Validate() error {
	switch c.Analyzer {
	case AnalyzerHeuristic, AnalyzerLLM:
	default:
		return fmt.Errorf("unknown analyzer %q (want %s or %s)", c.Analyzer, AnalyzerHeuristic, AnalyzerLLM)
	}
	if c.RecentTopics < 0 {
		return fmt.Errorf("recent topics must be non-negative, got %d", c.RecentTopics)
	}
	if c.Synth.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.Synth.MaxTokens)
	}
	return nil
}

// Pacer returns the pacer implied by SimulateLatency.
func (c Config) Pacer() synth.Pacer {
	if c.SimulateLatency {
		return synth.SleepPacer{}
	}
	return synth.NoPacer{}
}
