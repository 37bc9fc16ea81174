package routing

import (
	"testing"
	"time"
)

func TestSelect_Rules(t *testing.T) {
	tests := []struct {
		name string
		f    Features
		want Tier
		rule Rule
	}{
		{"factual at 3 → cache", Features{Complexity: 3, IsFactual: true}, TierCache, RuleFactualSimple},
		{"factual at 1 → cache", Features{Complexity: 1, IsFactual: true}, TierCache, RuleFactualSimple},
		{"factual above 3 → lightweight", Features{Complexity: 3.02, IsFactual: true}, TierLightweight, RuleModerate},
		{"factual at 4 → lightweight", Features{Complexity: 4, IsFactual: true}, TierLightweight, RuleModerate},
		{"non-factual at 2 → lightweight", Features{Complexity: 2}, TierLightweight, RuleModerate},
		{"at 6 → lightweight", Features{Complexity: 6}, TierLightweight, RuleModerate},
		{"gap 6-7 → fallback", Features{Complexity: 6.5}, TierLightweight, RuleFallback},
		{"at 7 → fallback", Features{Complexity: 7}, TierLightweight, RuleFallback},
		{"above 7 → deep", Features{Complexity: 7.02}, TierDeepReasoning, RuleDeep},
		{"deep flag at 2 → deep", Features{Complexity: 2, RequiresDeepReasoning: true}, TierDeepReasoning, RuleDeep},
		{"factual deep at 2 → cache", Features{Complexity: 2, IsFactual: true, RequiresDeepReasoning: true}, TierCache, RuleFactualSimple},
	}

	for _, tt := range tests {
		d := Select(tt.f, Options{})
		if d.Tier != tt.want {
			t.Errorf("%s: tier = %s, want %s", tt.name, d.Tier, tt.want)
		}
		if d.Rule != tt.rule {
			t.Errorf("%s: rule = %s, want %s", tt.name, d.Rule, tt.rule)
		}
	}
}

func TestSelect_ForceTier(t *testing.T) {
	deep := Features{Complexity: 9, RequiresDeepReasoning: true}
	for _, tier := range AllTiers() {
		d := Select(deep, Options{ForceTier: tier})
		if d.Tier != tier {
			t.Errorf("forced %s, got %s", tier, d.Tier)
		}
		if d.Rule != RuleForced {
			t.Errorf("rule = %s, want forced", d.Rule)
		}
		if d.Confidence != tier.Profile().Confidence {
			t.Errorf("forced %s: confidence = %v, want profile %v", tier, d.Confidence, tier.Profile().Confidence)
		}
	}
}

func TestSelect_ForceTierOutsideAnswerTiers(t *testing.T) {
	deep := Features{Complexity: 9, RequiresDeepReasoning: true}
	for _, tier := range []Tier{TierTemplate, Tier(99)} {
		d := Select(deep, Options{ForceTier: tier})
		if d.Tier != TierLightweight {
			t.Errorf("forced %s: tier = %s, want lightweight", tier, d.Tier)
		}
		if d.Rule != RuleForced {
			t.Errorf("forced %s: rule = %s, want forced", tier, d.Rule)
		}
	}
}

func TestSelect_SpeedAndQualityDoNotChangeTier(t *testing.T) {
	features := []Features{
		{Complexity: 1, IsFactual: true},
		{Complexity: 5},
		{Complexity: 9, RequiresDeepReasoning: true},
	}
	for _, f := range features {
		base := Select(f, Options{})
		for _, opts := range []Options{{PrioritizeSpeed: true}, {PrioritizeQuality: true}, {PrioritizeSpeed: true, PrioritizeQuality: true}} {
			if got := Select(f, opts); got != base {
				t.Errorf("Select(%+v, %+v) = %+v, want %+v", f, opts, got, base)
			}
		}
	}
}

func TestSelect_ProfileFields(t *testing.T) {
	tests := []struct {
		f          Features
		confidence float64
		latency    time.Duration
		cacheable  bool
	}{
		{Features{Complexity: 1, IsFactual: true}, 0.95, 50 * time.Millisecond, true},
		{Features{Complexity: 5}, 0.85, 800 * time.Millisecond, true},
		{Features{Complexity: 8}, 0.96, 2500 * time.Millisecond, false},
	}
	for _, tt := range tests {
		d := Select(tt.f, Options{})
		if d.Confidence != tt.confidence || d.EstimatedLatency != tt.latency || d.Cacheable != tt.cacheable {
			t.Errorf("Select(%+v) = %+v, want confidence=%v latency=%v cacheable=%v",
				tt.f, d, tt.confidence, tt.latency, tt.cacheable)
		}
		if d.Reasoning == "" {
			t.Errorf("Select(%+v): empty reasoning", tt.f)
		}
	}
}

func TestTier_UnknownProfile(t *testing.T) {
	if got, want := Tier(99).Profile(), TierLightweight.Profile(); got != want {
		t.Errorf("unknown tier profile = %+v, want lightweight %+v", got, want)
	}
	if Tier(0).String() != "unknown" {
		t.Errorf("zero tier String() = %q", Tier(0).String())
	}
}

func TestParseTier(t *testing.T) {
	for _, tier := range append(AllTiers(), TierTemplate) {
		got, err := ParseTier(tier.String())
		if err != nil {
			t.Fatalf("ParseTier(%q): %v", tier, err)
		}
		if got != tier {
			t.Errorf("ParseTier(%q) = %s", tier, got)
		}
	}

	for _, bad := range []string{"", "Cache", "deep", "premium"} {
		if _, err := ParseTier(bad); err == nil {
			t.Errorf("ParseTier(%q) should fail", bad)
		}
	}
}
