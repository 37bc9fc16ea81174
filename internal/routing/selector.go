package routing

import (
	"slices"
	"time"
)

// Options adjusts a single routing call.
type Options struct {
	// ForceTier bypasses selection when non-zero. Tiers that cannot
	// answer a query directly are served on the lightweight tier.
	ForceTier Tier

	// PrioritizeSpeed skips simulated latency during synthesis. It does
	// not change the selected tier.
	PrioritizeSpeed bool

	// PrioritizeQuality doubles the generation token budget. It does not
	// change the selected tier.
	PrioritizeQuality bool
}

// Rule names which selection rule produced a Decision.
type Rule string

const (
	RuleForced        Rule = "forced"
	RuleFactualSimple Rule = "factual-simple"
	RuleModerate      Rule = "moderate"
	RuleDeep          Rule = "deep"
	RuleFallback      Rule = "fallback"
	RuleTemplate      Rule = "template"
)

const (
	cacheMaxComplexity = 3
	lightMaxComplexity = 6
)

// Decision is the outcome of tier selection.
type Decision struct {
	Tier             Tier
	Confidence       float64
	Reasoning        string
	EstimatedLatency time.Duration
	Cacheable        bool
	Rule             Rule
}

// NewDecision fills a Decision from the tier's profile.
func NewDecision(t Tier, rule Rule) Decision {
	p := t.Profile()
	return Decision{
		Tier:             t,
		Confidence:       p.Confidence,
		Reasoning:        p.Reasoning,
		EstimatedLatency: p.EstimatedLatency,
		Cacheable:        p.Cacheable,
		Rule:             rule,
	}
}

// Select picks a tier. Rules are checked in order and the first match wins.
// Queries with 6 < complexity <= 7 that don't need deep reasoning fall
// through to the lightweight fallback.
func Select(f Features, opts Options) Decision {
	switch {
	case opts.ForceTier != 0:
		if !slices.Contains(AllTiers(), opts.ForceTier) {
			return NewDecision(TierLightweight, RuleForced)
		}
		return NewDecision(opts.ForceTier, RuleForced)
	case f.Complexity <= cacheMaxComplexity && f.IsFactual:
		return NewDecision(TierCache, RuleFactualSimple)
	case f.Complexity <= lightMaxComplexity && !f.RequiresDeepReasoning:
		return NewDecision(TierLightweight, RuleModerate)
	case f.RequiresDeepReasoning || f.Complexity > deepComplexity:
		return NewDecision(TierDeepReasoning, RuleDeep)
	default:
		return NewDecision(TierLightweight, RuleFallback)
	}
}
