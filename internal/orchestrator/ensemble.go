package orchestrator

import (
	"context"

	"unified-thinking/internal/types"
)

// dispatchEnsemble runs the local and complex workflows independently and
// combines them (§4.4 ensemble combination rule): if the two answers'
// qualities differ by at least 0.1, the higher-quality one wins outright;
// otherwise the tool server synthesizes a merged answer from both
// candidates and that merged answer is re-evaluated. If the synthesized
// answer scores below the higher-scoring candidate, that candidate is
// returned instead.
func (o *Orchestrator) dispatchEnsemble(ctx context.Context, query *types.Query, critique string) (string, error) {
	localAnswer, localErr := o.dispatchLocal(ctx, query, critique)
	complexAnswer, complexErr := o.dispatchComplex(ctx, query, critique)

	if localErr != nil && complexErr != nil {
		return cannedApology(), nil
	}
	if localErr != nil {
		return complexAnswer, nil
	}
	if complexErr != nil {
		return localAnswer, nil
	}

	qLocal := o.meta.Evaluate(query, localAnswer)
	qComplex := o.meta.Evaluate(query, complexAnswer)

	higher, lower := complexAnswer, localAnswer
	qHigher, qLower := qComplex, qLocal
	if qLocal > qComplex {
		higher, lower = localAnswer, complexAnswer
		qHigher, qLower = qLocal, qComplex
	}

	if qHigher-qLower >= 0.1 {
		return higher, nil
	}

	synthesized, err := o.callTool(ctx, "synthesize", map[string]interface{}{
		"candidates": []string{higher, lower},
		"query":      query.Text,
	})
	if err != nil {
		return higher, nil
	}

	qSynthesized := o.meta.Evaluate(query, synthesized)
	if qSynthesized < qHigher {
		return higher, nil
	}
	return synthesized, nil
}
