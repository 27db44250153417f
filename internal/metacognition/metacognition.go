// Package metacognition implements the meta-cognitive router: it analyzes
// queries into a MetaState (ignorance, self-doubt, narrative, strategy),
// routes them to a backend, and scores candidate answers for quality.
package metacognition

import (
	"strings"
	"time"

	"unified-thinking/internal/errs"
	"unified-thinking/internal/types"
)

// AnalysisContext carries what Analyze and Route need beyond the query
// itself: recent episodes (bounded, most-recent-first), the backends
// available with their capability tags, and conflicting-evidence/session
// temporal signals.
type AnalysisContext struct {
	RecentEpisodes         []*types.Episode
	Backends               []Backend
	SessionStartedAt       time.Time
	HasConflictingEvidence bool
}

// MetaCognition is the stateless meta-cognitive router. It holds no
// mutable state of its own — every operation is a pure function of its
// explicit inputs, per the Testable Properties (§8), except that Analyze's
// temporal signal measures the session age against the wall clock.
type MetaCognition struct{}

// NewMetaCognition constructs a MetaCognition.
func NewMetaCognition() *MetaCognition {
	return &MetaCognition{}
}

// Analyze computes a MetaState from a query and its context. Fails only
// when query.Text is empty; on any other internal error it degrades to a
// conservative diagnostic state rather than panicking (§4.1 failure
// semantics).
func (m *MetaCognition) Analyze(q *types.Query, context *AnalysisContext) (state *types.MetaState, err error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, errs.New("metacognition.analyze", errs.InvalidInput, "query.text is empty")
	}

	defer func() {
		// Analyze must never panic; a bug in a heuristic degrades to the
		// conservative diagnostic state instead of crashing the request.
		if r := recover(); r != nil {
			state = degradedMetaState(r)
			err = nil
		}
	}()

	ignorance := assessIgnorance(q, context, backendsOf(context))
	selfDoubt := assessSelfDoubt(q, context)
	narrative := buildNarrative(context)
	temporal := assessTemporal(context)
	strategy := resolveStrategy(q.Options.StrategyHint)

	return &types.MetaState{
		Ignorance: ignorance,
		SelfDoubt: selfDoubt,
		Narrative: narrative,
		Temporal:  temporal,
		Strategy:  strategy,
	}, nil
}

// degradedMetaState is returned when a heuristic panics mid-analysis: a
// conservative, zero-confidence state with the panic recorded for
// explainability, never surfaced as an error.
func degradedMetaState(recovered interface{}) *types.MetaState {
	return &types.MetaState{
		Ignorance: types.Ignorance{Type: types.IgnoranceUnknownUnknowns, Score: 1},
		SelfDoubt: types.SelfDoubt{Composite: 0},
		Narrative: "internal error during analysis; degraded to conservative defaults",
		Strategy:  types.StrategyConservative,
	}
}

// Evaluate scores a candidate answer in [0,1]. It is a pure, rule-based
// judge: evidence/structure markers raise the score, length relative to
// the query and hedging lower it. No side effects, no hidden state (§4.1).
func (m *MetaCognition) Evaluate(q *types.Query, answer string) float64 {
	if strings.TrimSpace(answer) == "" {
		return 0
	}

	score := 0.5
	lower := strings.ToLower(answer)

	if len(strings.Fields(answer)) >= 15 {
		score += 0.15
	} else if len(strings.Fields(answer)) < 4 {
		score -= 0.2
	}

	for _, marker := range []string{"because", "therefore", "specifically", "for example"} {
		if strings.Contains(lower, marker) {
			score += 0.1
			break
		}
	}

	hedges := 0
	for _, h := range []string{"maybe", "perhaps", "i'm not sure", "possibly"} {
		if strings.Contains(lower, h) {
			hedges++
		}
	}
	score -= float64(hedges) * 0.1

	if q != nil && strings.Contains(lower, strings.ToLower(firstKeyword(q.Text))) {
		score += 0.05
	}

	return clamp(score, 0, 1)
}

// resolveStrategy maps a query's strategy hint onto one of the four
// strategies, defaulting to ADAPTIVE (§9, strategy_default config key).
func resolveStrategy(hint string) types.Strategy {
	switch types.Strategy(strings.ToUpper(hint)) {
	case types.StrategyConservative:
		return types.StrategyConservative
	case types.StrategyExploratory:
		return types.StrategyExploratory
	case types.StrategyBalanced:
		return types.StrategyBalanced
	default:
		return types.StrategyAdaptive
	}
}

func assessTemporal(context *AnalysisContext) types.Temporal {
	if context == nil {
		return types.Temporal{ContextFreshness: 0}
	}
	ageS := 0.0
	if !context.SessionStartedAt.IsZero() {
		ageS = time.Since(context.SessionStartedAt).Seconds()
	}
	freshness := 1.0
	if ageS > 3600 {
		freshness = 0.2
	} else if ageS > 600 {
		freshness = 0.6
	}
	return types.Temporal{
		SessionAgeS:      ageS,
		ContextFreshness: freshness,
		Interactions:     len(context.RecentEpisodes),
	}
}

func backendsOf(context *AnalysisContext) []Backend {
	if context == nil {
		return nil
	}
	return context.Backends
}

func firstKeyword(text string) string {
	fields := strings.Fields(text)
	for _, f := range fields {
		if len(f) > 3 {
			return f
		}
	}
	if len(fields) > 0 {
		return fields[0]
	}
	return ""
}
