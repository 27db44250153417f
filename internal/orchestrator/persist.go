package orchestrator

import (
	"context"

	"unified-thinking/internal/types"
)

// persist appends an Episode recording this request's outcome. Persistence
// errors are swallowed: memory is an optimization for future routing and
// consolidation, never a reason to fail an otherwise-successful response.
func (o *Orchestrator) persist(ctx context.Context, query *types.Query, result *ProcessResult, state *types.MetaState) {
	status := "completed"
	if ctx.Err() != nil {
		status = "cancelled"
	} else if result.Quality == 0 {
		status = "failed"
	}

	metadata := map[string]interface{}{
		"meta_strategy": string(state.Strategy),
	}
	for k, v := range result.Diagnostics {
		metadata[k] = v
	}

	episode := &types.Episode{
		SessionID:    query.SessionID,
		UserID:       query.UserID,
		QueryText:    query.Text,
		AnswerText:   result.Answer,
		StrategyUsed: result.StrategyUsed,
		Quality:      result.Quality,
		LatencyMS:    result.LatencyMS,
		Status:       status,
		Metadata:     metadata,
	}

	_ = o.memory.Append(ctx, episode)
}
