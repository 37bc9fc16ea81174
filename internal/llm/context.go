package llm

import "context"

// Purpose labels recorded with every LLM request event.
const (
	PurposeQueryAnalysis   = "query-analysis"
	PurposeLightweight     = "synthesize-lightweight"
	PurposeDeep            = "synthesize-deep"
	PurposeAssessment      = "competency-assessment"
	PurposeRecommendations = "learning-recommendations"

	purposeUnknown = "unknown"
)

// Purposes lists the labels tutorly itself sends, for filtering usage.
func Purposes() []string {
	return []string{
		PurposeQueryAnalysis,
		PurposeLightweight,
		PurposeDeep,
		PurposeAssessment,
		PurposeRecommendations,
	}
}

type purposeKey struct{}

// WithPurpose tags ctx so that logging providers can attribute the call.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the tag set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return purposeUnknown
}
