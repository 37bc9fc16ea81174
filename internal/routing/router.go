// Package routing decides how much machinery a learner's query deserves.
//
// A query is reduced to Features (by keyword heuristics or an LLM
// analyzer) and a fixed rule chain maps the features to a Tier. Nothing
// here holds state between calls.
package routing

import (
	"context"

	"github.com/abhisek/tutorly/internal/logger"
)

// Route is the result of routing one query.
type Route struct {
	Features Features
	Decision Decision
}

// Router combines an Analyzer with the tier selector.
type Router struct {
	analyzer Analyzer
}

// NewRouter creates a Router. A nil analyzer means HeuristicAnalyzer.
func NewRouter(a Analyzer) *Router {
	if a == nil {
		a = HeuristicAnalyzer{}
	}
	return &Router{analyzer: a}
}

// Route analyzes the query and selects a tier.
func (r *Router) Route(ctx context.Context, query string, uctx UserContext, opts Options) Route {
	f := r.analyzer.Analyze(ctx, query, uctx)
	d := Select(f, opts)

	logger.FromContext(ctx).Debug("routed query",
		"tier", d.Tier,
		"rule", d.Rule,
		"complexity", f.Complexity,
		"factual", f.IsFactual,
		"deep", f.RequiresDeepReasoning,
	)

	return Route{Features: f, Decision: d}
}
