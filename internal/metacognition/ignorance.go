package metacognition

import (
	"strings"

	"unified-thinking/internal/types"
)

// Backend describes one routing candidate and what it can do, mirroring
// the capability-tag map the orchestrator resolves from configuration.
type Backend struct {
	Name         string
	Capabilities []string
}

// hasCapability reports whether any backend advertises tag.
func hasCapability(backends []Backend, tag string) bool {
	for _, b := range backends {
		for _, c := range b.Capabilities {
			if c == tag {
				return true
			}
		}
	}
	return false
}

// requiredCapabilities derives the capability tags a query needs: always
// a conversational responder, plus a modality-specific analyzer tool and,
// for conflicting evidence, a retriever.
func requiredCapabilities(q *types.Query, context *AnalysisContext) []string {
	required := []string{"conversational_responder"}
	switch q.Modality {
	case types.ModalityImage:
		required = append(required, "image_analyzer")
	case types.ModalityAudio:
		required = append(required, "audio_transcriber")
	case types.ModalityMixed:
		required = append(required, "image_analyzer", "audio_transcriber")
	}
	if context != nil && context.HasConflictingEvidence {
		required = append(required, "retriever")
	}
	return required
}

// assessIgnorance computes the ignorance taxonomy entry for a query (§4.1).
//
//   - missing capability            -> KNOWN_UNKNOWNS
//   - empty session history         -> UNKNOWN_UNKNOWNS
//   - conflicting prior evidence    -> EPISTEMIC
//   - stochastic backend involved   -> ALEATORY
//
// score = 1 - fraction_of_required_capabilities_present, clipped to [0,1].
func assessIgnorance(q *types.Query, context *AnalysisContext, backends []Backend) types.Ignorance {
	required := requiredCapabilities(q, context)

	present := 0
	var gaps []string
	for _, tag := range required {
		if hasCapability(backends, tag) {
			present++
		} else {
			gaps = append(gaps, tag)
		}
	}

	score := 0.0
	if len(required) > 0 {
		score = 1 - float64(present)/float64(len(required))
	}
	score = clamp(score, 0, 1)

	ignoranceType := classifyIgnorance(context, len(gaps) > 0, backends)

	return types.Ignorance{
		Type:  ignoranceType,
		Score: score,
		Gaps:  gaps,
	}
}

func classifyIgnorance(context *AnalysisContext, hasGaps bool, backends []Backend) types.IgnoranceType {
	switch {
	case hasGaps:
		return types.IgnoranceKnownUnknowns
	case context == nil || len(context.RecentEpisodes) == 0:
		return types.IgnoranceUnknownUnknowns
	case context.HasConflictingEvidence:
		return types.IgnoranceEpistemic
	case isStochastic(backends):
		return types.IgnoranceAleatory
	default:
		return types.IgnoranceUnknownUnknowns
	}
}

func isStochastic(backends []Backend) bool {
	for _, b := range backends {
		for _, c := range b.Capabilities {
			if strings.Contains(strings.ToLower(c), "generative") || strings.Contains(strings.ToLower(b.Name), "local") {
				return true
			}
		}
	}
	return false
}
