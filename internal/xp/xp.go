// Package xp computes experience points for tutoring interactions and the
// level progression they feed.
package xp

import (
	"math"

	"github.com/abhisek/tutorly/internal/routing"
)

const (
	baseXP            = 5
	confidenceBonus   = 5
	confidenceCutoff  = 0.9
	objectiveBonus    = 2
	defaultMultiplier = 1.0
)

// Multiplier returns the tier's XP multiplier. Costlier tiers earn more.
func Multiplier(t routing.Tier) float64 {
	switch t {
	case routing.TierTemplate:
		return 0.5
	case routing.TierCache:
		return 1
	case routing.TierLightweight:
		return 1.5
	case routing.TierDeepReasoning:
		return 2.5
	default:
		return defaultMultiplier
	}
}

// Award returns the XP earned by one answered query.
func Award(t routing.Tier, confidence float64, objectives int) int {
	xp := baseXP * Multiplier(t)
	if confidence > confidenceCutoff {
		xp += confidenceBonus
	}
	xp += float64(objectives * objectiveBonus)
	return int(math.Round(xp))
}

// Stats is a learner's level progression.
type Stats struct {
	Level          int
	TotalXP        int
	CurrentLevelXP int
	XPToNextLevel  int
}

// NewStats returns the starting progression.
func NewStats() Stats {
	return Stats{Level: 1, XPToNextLevel: requiredFor(1)}
}

func requiredFor(level int) int {
	return level * 100
}

// Apply adds amount XP and returns the new stats, reporting whether at
// least one level was gained. Several levels can be gained at once.
func (s Stats) Apply(amount int) (Stats, bool) {
	// A malformed level is repaired without discarding earned XP.
	if s.Level < 1 {
		s.Level = 1
		s.XPToNextLevel = requiredFor(1)
	}
	if s.XPToNextLevel <= 0 {
		s.XPToNextLevel = requiredFor(s.Level)
	}

	s.TotalXP += amount
	s.CurrentLevelXP += amount

	leveledUp := false
	for s.CurrentLevelXP >= s.XPToNextLevel {
		s.CurrentLevelXP -= s.XPToNextLevel
		s.Level++
		s.XPToNextLevel = requiredFor(s.Level)
		leveledUp = true
	}
	return s, leveledUp
}

// Progress returns the fraction (0.0-1.0) of the current level completed.
func (s Stats) Progress() float64 {
	if s.XPToNextLevel <= 0 {
		return 0
	}
	return min(float64(s.CurrentLevelXP)/float64(s.XPToNextLevel), 1)
}
