package metacognition

import (
	"strings"

	"unified-thinking/internal/types"
)

// assessSelfDoubt computes the five-dimension confidence breakdown for a
// query given its recent session context. The heuristics mirror the
// teacher's keyword/length scoring (confidence alignment, evidence
// markers, hedging) but are retargeted from thought content to query text
// and prior-episode quality instead of a single thought's own content.
func assessSelfDoubt(q *types.Query, context *AnalysisContext) types.SelfDoubt {
	confidence := assessConfidence(context)
	clarity := assessReasoningClarity(q.Text)
	evidence := assessEvidenceStrength(context)
	alternatives := assessAlternatives(q.Text)
	uncertainty := assessUncertainty(q.Text)

	sd := types.SelfDoubt{
		Confidence:        confidence,
		ReasoningClarity:  clarity,
		EvidenceStrength:  evidence,
		AlternativesCount: alternatives,
		Uncertainty:       uncertainty,
	}
	sd.Composite = compositeSelfDoubt(sd)
	return sd
}

// compositeSelfDoubt applies the fixed weighting from §3's invariant:
// clip(0.35*conf + 0.25*clarity + 0.25*evidence + 0.15*(1-uncertainty) -
// 0.05*alternatives_count, 0, 1).
func compositeSelfDoubt(sd types.SelfDoubt) float64 {
	v := 0.35*sd.Confidence +
		0.25*sd.ReasoningClarity +
		0.25*sd.EvidenceStrength +
		0.15*(1-sd.Uncertainty) -
		0.05*sd.AlternativesCount
	return clamp(v, 0, 1)
}

// assessConfidence bases confidence on the mean quality of recent episodes
// in the session; with no history, start from a neutral midpoint.
func assessConfidence(context *AnalysisContext) float64 {
	if context == nil || len(context.RecentEpisodes) == 0 {
		return 0.5
	}
	var sum float64
	for _, ep := range context.RecentEpisodes {
		sum += ep.Quality
	}
	return clamp(sum/float64(len(context.RecentEpisodes)), 0, 1)
}

// assessReasoningClarity scores how well-specified a query's text is.
func assessReasoningClarity(text string) float64 {
	score := 0.5
	lower := strings.ToLower(text)

	if strings.Contains(lower, "because") || strings.Contains(lower, "therefore") ||
		strings.Contains(lower, "specifically") {
		score += 0.15
	}
	if len(strings.Fields(text)) >= 8 {
		score += 0.15
	} else if len(strings.Fields(text)) <= 2 {
		score -= 0.15
	}
	if strings.Contains(text, "?") {
		score += 0.05
	}

	return clamp(score, 0, 1)
}

// assessEvidenceStrength bases evidence strength on whether recent history
// gives the system grounded prior experience with similar queries.
func assessEvidenceStrength(context *AnalysisContext) float64 {
	if context == nil || len(context.RecentEpisodes) == 0 {
		return 0.3
	}
	score := 0.4 + 0.1*float64(len(context.RecentEpisodes))
	return clamp(score, 0, 1)
}

// assessAlternatives estimates how many plausible alternative framings a
// query text admits — hedge/disjunction markers raise the count, which
// the composite formula then penalizes (more alternatives => less
// confidence that the obvious framing is correct).
func assessAlternatives(text string) float64 {
	lower := strings.ToLower(text)
	count := 0.0
	markers := []string{" or ", "either", "alternatively", "depending on"}
	for _, m := range markers {
		if strings.Contains(lower, m) {
			count++
		}
	}
	return count
}

// assessUncertainty counts hedge words in the query text.
func assessUncertainty(text string) float64 {
	lower := strings.ToLower(text)
	hedges := []string{"maybe", "perhaps", "possibly", "might", "could", "not sure", "i think"}
	hedgeCount := 0
	for _, h := range hedges {
		if strings.Contains(lower, h) {
			hedgeCount++
		}
	}
	return clamp(float64(hedgeCount)*0.2, 0, 1)
}

// clamp restricts value to range [min, max].
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
