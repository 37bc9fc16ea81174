package xp

// Condition is the activity measure an achievement is earned on.
type Condition string

const (
	ConditionTotalXP  Condition = "total_xp"
	ConditionMessages Condition = "chat_messages"
)

// Achievement is a one-time milestone that grants bonus XP.
type Achievement struct {
	Code        string
	Name        string
	Description string
	Tier        string // bronze, silver, gold, platinum, legendary
	Condition   Condition
	Threshold   int
	XPReward    int
}

// Activity is what achievements are evaluated against.
type Activity struct {
	TotalXP  int
	Messages int // questions asked, including the current one
}

// Met reports whether act satisfies the achievement's condition.
// Unknown conditions are never met.
func (a Achievement) Met(act Activity) bool {
	switch a.Condition {
	case ConditionTotalXP:
		return act.TotalXP >= a.Threshold
	case ConditionMessages:
		return act.Messages >= a.Threshold
	default:
		return false
	}
}

// DefaultAchievements returns the built-in catalog.
func DefaultAchievements() []Achievement {
	return []Achievement{
		{Code: "first_question", Name: "First Question", Description: "Ask your first question", Tier: "bronze", Condition: ConditionMessages, Threshold: 1, XPReward: 10},
		{Code: "curious_mind", Name: "Curious Mind", Description: "Ask 10 questions", Tier: "silver", Condition: ConditionMessages, Threshold: 10, XPReward: 25},
		{Code: "scholar", Name: "Scholar", Description: "Ask 50 questions", Tier: "gold", Condition: ConditionMessages, Threshold: 50, XPReward: 100},
		{Code: "xp_100", Name: "Centurion", Description: "Earn 100 XP", Tier: "bronze", Condition: ConditionTotalXP, Threshold: 100, XPReward: 15},
		{Code: "xp_1000", Name: "Sage", Description: "Earn 1000 XP", Tier: "gold", Condition: ConditionTotalXP, Threshold: 1000, XPReward: 100},
	}
}

// Earned returns the achievements in catalog that act satisfies and whose
// codes are not yet unlocked, in catalog order. Rewards do not count
// towards conditions evaluated in the same call.
func Earned(catalog []Achievement, act Activity, unlocked map[string]bool) []Achievement {
	var out []Achievement
	for _, a := range catalog {
		if !unlocked[a.Code] && a.Met(act) {
			out = append(out, a)
		}
	}
	return out
}
