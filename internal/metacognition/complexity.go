package metacognition

import "strings"

// codeKeywords trigger an automatic complexity bump for engineering tasks.
var codeKeywords = []string{
	"algorithm", "implement", "function", "derivative", "automatic differentiation",
	"compile", "refactor", "proof", "optimi", "architecture", "protocol",
}

// ClassifyComplexity exposes classifyComplexity for callers outside the
// package (the orchestrator's workflow-selection step needs the same
// complexity score Analyze derives internally).
func ClassifyComplexity(text string, context *AnalysisContext) float64 {
	return classifyComplexity(text, context)
}

// classifyComplexity scores text complexity in [0,1] using (i) a
// token-length bucket, (ii) a code/engineering keyword set, and (iii) the
// mean quality of the session's recent episodes (§4.1 step 2). Step (iii)
// averages every recent episode; it does not select episodes similar to
// the query.
func classifyComplexity(text string, context *AnalysisContext) float64 {
	tokens := len(strings.Fields(text))

	var bucket float64
	switch {
	case tokens <= 3:
		bucket = 0.1
	case tokens <= 10:
		bucket = 0.35
	case tokens <= 25:
		bucket = 0.6
	default:
		bucket = 0.85
	}

	lower := strings.ToLower(text)
	for _, kw := range codeKeywords {
		if strings.Contains(lower, kw) {
			bucket += 0.2
			break
		}
	}

	bucket += priorHitRateAdjustment(context)

	return clamp(bucket, 0, 1)
}

// priorHitRateAdjustment nudges complexity down by 0.15 when the recent
// episodes in the same session averaged quality >= 0.8, whatever their
// queries were.
func priorHitRateAdjustment(context *AnalysisContext) float64 {
	if context == nil || len(context.RecentEpisodes) == 0 {
		return 0
	}
	var sum float64
	for _, ep := range context.RecentEpisodes {
		sum += ep.Quality
	}
	meanQuality := sum / float64(len(context.RecentEpisodes))
	if meanQuality >= 0.8 {
		return -0.15
	}
	return 0
}
