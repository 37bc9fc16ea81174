package routing

import (
	"fmt"
	"time"
)

// Tier is a processing path for a query.
type Tier int

// The zero Tier means "none"; Options.ForceTier relies on that.
const (
	TierCache Tier = iota + 1
	TierLightweight
	TierDeepReasoning

	// TierTemplate marks answers served from a stored response template.
	// The selector never picks it; the tutor pipeline does.
	TierTemplate
)

// AllTiers returns the tiers the selector can choose, cheapest first.
func AllTiers() []Tier {
	return []Tier{TierCache, TierLightweight, TierDeepReasoning}
}

func (t Tier) String() string {
	switch t {
	case TierCache:
		return "cache"
	case TierLightweight:
		return "lightweight"
	case TierDeepReasoning:
		return "deep_reasoning"
	case TierTemplate:
		return "template"
	default:
		return "unknown"
	}
}

// DisplayName returns a human-readable label for the tier.
func (t Tier) DisplayName() string {
	switch t {
	case TierCache:
		return "Cache"
	case TierLightweight:
		return "Lightweight"
	case TierDeepReasoning:
		return "Deep Reasoning"
	case TierTemplate:
		return "Template"
	default:
		return "Unknown"
	}
}

// ParseTier converts a tier name to a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "cache":
		return TierCache, nil
	case "lightweight":
		return TierLightweight, nil
	case "deep_reasoning":
		return TierDeepReasoning, nil
	case "template":
		return TierTemplate, nil
	default:
		return 0, fmt.Errorf("unknown tier %q (want cache, lightweight, deep_reasoning or template)", s)
	}
}

// Profile is the static routing metadata of a tier.
type Profile struct {
	Confidence       float64
	Reasoning        string
	EstimatedLatency time.Duration
	Cacheable        bool
}

var profiles = map[Tier]Profile{
	TierCache: {
		Confidence:       0.95,
		Reasoning:        "Query matches cached educational content",
		EstimatedLatency: 50 * time.Millisecond,
		Cacheable:        true,
	},
	TierLightweight: {
		Confidence:       0.85,
		Reasoning:        "Standard LLM processing for balanced speed and quality",
		EstimatedLatency: 800 * time.Millisecond,
		Cacheable:        true,
	},
	TierDeepReasoning: {
		Confidence:       0.96,
		Reasoning:        "Complex query requires multi-agent reasoning and validation",
		EstimatedLatency: 2500 * time.Millisecond,
		Cacheable:        false,
	},
	TierTemplate: {
		Confidence:       0.95,
		Reasoning:        "Query matches an active response template",
		EstimatedLatency: 100 * time.Millisecond,
		Cacheable:        true,
	},
}

// Profile returns the tier's profile. Unknown tiers get the lightweight one.
func (t Tier) Profile() Profile {
	if p, ok := profiles[t]; ok {
		return p
	}
	return profiles[TierLightweight]
}
