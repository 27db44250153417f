package metacognition

import (
	"strings"

	"unified-thinking/internal/types"
)

// multimodalCapability maps a non-text modality to the backend capability
// that can serve it.
var multimodalCapability = map[types.Modality]string{
	types.ModalityImage: "image_analyzer",
	types.ModalityAudio:  "audio_transcriber",
	types.ModalityMixed:  "image_analyzer",
}

// CapabilityForModality exposes multimodalCapability's lookup for callers
// outside the package (the orchestrator's multimodal dispatch needs the
// same modality->capability mapping Route uses for modality routing).
func CapabilityForModality(modality types.Modality) (string, bool) {
	cap, ok := multimodalCapability[modality]
	return cap, ok
}

// RouteInput carries the parameters Route needs beyond the MetaState
// itself: the query's text/modality (complexity classification depends on
// the raw text, which MetaState does not retain), the decision criticality
// driving ensemble eligibility, and whether the caller allows ensembles.
type RouteInput struct {
	QueryText     string
	Modality      types.Modality
	Criticality   float64
	AllowEnsemble bool
}

// RouteResult is MetaCognition.Route's output.
type RouteResult struct {
	PrimaryBackend string
	UseEnsemble    bool
	Rationale      []string
}

// Route is a pure function of (state, backends, in, context): given the
// same four inputs it always returns the same result (§8).
func (m *MetaCognition) Route(state *types.MetaState, backends []Backend, in RouteInput, context *AnalysisContext) RouteResult {
	var rationale []string

	// Step 1: modality routing takes priority over everything else.
	if cap, ok := multimodalCapability[in.Modality]; ok {
		if hasCapability(backends, cap) {
			rationale = append(rationale, "modality "+string(in.Modality)+" routed to capability "+cap)
			return RouteResult{PrimaryBackend: backendFor(backends, cap), UseEnsemble: false, Rationale: rationale}
		}
		rationale = append(rationale, "modality "+string(in.Modality)+" requested but no backend advertises "+cap)
	}

	complexity := classifyComplexity(in.QueryText, context)
	rationale = append(rationale, complexityRationale(complexity))

	effective := state.Strategy
	if effective == types.StrategyAdaptive {
		effective = bestPriorStrategy(context)
		rationale = append(rationale, "ADAPTIVE resolved to "+string(effective)+" from session history")
	}

	primary := selectByStrategy(effective, complexity, backends)
	rationale = append(rationale, "strategy "+string(effective)+" selected backend "+primary)

	useEnsemble := state.SelfDoubt.Composite < 0.5 && in.Criticality >= 0.7 && in.AllowEnsemble
	if useEnsemble {
		rationale = append(rationale, "ensemble triggered: composite<0.5, criticality>=0.7, allow_ensemble")
	}

	return RouteResult{PrimaryBackend: primary, UseEnsemble: useEnsemble, Rationale: rationale}
}

func complexityRationale(c float64) string {
	switch {
	case c < 0.4:
		return "complexity classified low"
	case c < 0.7:
		return "complexity classified medium"
	default:
		return "complexity classified high"
	}
}

func selectByStrategy(strategy types.Strategy, complexity float64, backends []Backend) string {
	toolBackend := backendFor(backends, "conversational_responder")
	retrievalBackend := backendFor(backends, "retriever")
	localBackend := backendFor(backends, "local_reasoner")

	switch strategy {
	case types.StrategyConservative:
		if complexity < 0.5 && toolBackend != "" {
			return toolBackend
		}
		if localBackend != "" {
			return localBackend
		}
		return toolBackend
	case types.StrategyExploratory:
		// caller checks composite>=0.5 externally via state; here we only
		// pick a default candidate, the orchestrator falls back on failure.
		if localBackend != "" {
			return localBackend
		}
		return toolBackend
	case types.StrategyBalanced:
		switch {
		case complexity < 0.5:
			return toolBackend
		case complexity < 0.7:
			if retrievalBackend != "" {
				return retrievalBackend
			}
			return toolBackend
		default:
			if localBackend != "" {
				return localBackend
			}
			return toolBackend
		}
	default:
		return toolBackend
	}
}

func backendFor(backends []Backend, capability string) string {
	for _, b := range backends {
		for _, c := range b.Capabilities {
			if c == capability {
				return b.Name
			}
		}
	}
	return ""
}

// bestPriorStrategy picks the CONSERVATIVE/EXPLORATORY/BALANCED strategy
// whose tagged prior episodes in this session have the highest mean
// quality; ties (including no history at all) break toward BALANCED.
func bestPriorStrategy(context *AnalysisContext) types.Strategy {
	if context == nil || len(context.RecentEpisodes) == 0 {
		return types.StrategyBalanced
	}

	sums := map[types.Strategy]float64{}
	counts := map[types.Strategy]int{}
	for _, ep := range context.RecentEpisodes {
		tag, ok := ep.Metadata["meta_strategy"].(string)
		if !ok {
			continue
		}
		s := types.Strategy(strings.ToUpper(tag))
		if s != types.StrategyConservative && s != types.StrategyExploratory && s != types.StrategyBalanced {
			continue
		}
		sums[s] += ep.Quality
		counts[s]++
	}

	best := types.StrategyBalanced
	bestMean := -1.0
	for _, s := range []types.Strategy{types.StrategyBalanced, types.StrategyConservative, types.StrategyExploratory} {
		if counts[s] == 0 {
			continue
		}
		mean := sums[s] / float64(counts[s])
		if mean > bestMean {
			bestMean = mean
			best = s
		}
	}
	return best
}
