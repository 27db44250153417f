package metacognition

import (
	"fmt"
	"strings"

	"unified-thinking/internal/types"
)

// narrativeMaxEpisodes bounds how many recent episodes feed the narrative,
// keeping it a fixed-size explainability string rather than unbounded log.
const narrativeMaxEpisodes = 5

// buildNarrative produces a deterministic, bounded-length summary of up to
// the last narrativeMaxEpisodes episodes, tagged by success/failure. It is
// explanatory only — never consulted as a control input.
func buildNarrative(context *AnalysisContext) string {
	if context == nil || len(context.RecentEpisodes) == 0 {
		return "no prior session history"
	}

	episodes := context.RecentEpisodes
	if len(episodes) > narrativeMaxEpisodes {
		episodes = episodes[:narrativeMaxEpisodes]
	}

	var parts []string
	for _, ep := range episodes {
		tag := "failure"
		if ep.Quality >= 0.7 {
			tag = "success"
		}
		parts = append(parts, fmt.Sprintf("%s(q=%.2f via %s)", tag, ep.Quality, ep.StrategyUsed))
	}

	return fmt.Sprintf("last %d turn(s): %s", len(episodes), strings.Join(parts, ", "))
}
