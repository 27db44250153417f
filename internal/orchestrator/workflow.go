package orchestrator

import (
	"context"
	"fmt"

	"unified-thinking/internal/errs"
	"unified-thinking/internal/localreasoner"
	"unified-thinking/internal/metacognition"
	"unified-thinking/internal/streaming"
	"unified-thinking/internal/types"
)

// selectWorkflow picks one of the five named workflows (§4.4 step 4).
// Multimodal routing takes priority (it is the only workflow that can
// serve a non-text modality); ensemble then preempts the complexity
// tiers, since MetaCognition.Route already decided the composite/
// criticality/allow_ensemble trigger is satisfied.
func selectWorkflow(modality types.Modality, complexity float64, useEnsemble bool) string {
	if modality != types.ModalityText {
		return "multimodal"
	}
	if useEnsemble {
		return "ensemble"
	}
	if complexity < 0.5 {
		return "simple"
	}
	if complexity < 0.7 {
		return "complex"
	}
	return "local"
}

// runWorkflow dispatches the selected workflow, then runs the evaluate/
// refine loop (§4.4 step 5) until quality clears the threshold, iterations
// are exhausted, or refinement diverges three times in a row.
func (o *Orchestrator) runWorkflow(ctx context.Context, query *types.Query, state *types.MetaState, route metacognition.RouteResult, complexity, threshold float64, maxIterations int) (workflow, answer string, quality float64, iterations int, iterDiag []map[string]interface{}) {
	workflow = selectWorkflow(query.Modality, complexity, route.UseEnsemble)

	critique := ""
	declines := 0
	prevQuality := 0.0
	bestAnswer := ""
	bestQuality := -1.0

	reporter := streaming.GetReporter(ctx)

	for iterations = 1; iterations <= maxIterations; iterations++ {
		_ = streaming.CheckReport("dispatch "+workflow, reporter.ReportStep(iterations, maxIterations, workflow, "dispatching"))

		a, err := o.dispatch(ctx, query, workflow, critique)
		if err != nil {
			a = cannedApology()
		}

		q := o.meta.Evaluate(query, a)
		if a == cannedApology() {
			q = 0
		}
		iterDiag = append(iterDiag, map[string]interface{}{"iteration": iterations, "quality": q})

		if q > bestQuality {
			bestQuality = q
			bestAnswer = a
		}
		if iterations > 1 && q < prevQuality {
			declines++
		} else {
			declines = 0
		}
		prevQuality = q

		if q >= threshold || iterations >= maxIterations {
			return workflow, a, q, iterations, iterDiag
		}
		if declines >= 3 {
			// Refinement divergence: quality dropped three iterations in
			// a row, abort and return the best answer seen so far.
			return workflow, bestAnswer, bestQuality, iterations, iterDiag
		}

		critique = fmt.Sprintf("the previous answer scored %.2f against a threshold of %.2f; be more specific and evidence-backed", q, threshold)
	}

	return workflow, bestAnswer, bestQuality, iterations, iterDiag
}

// dispatch routes to the handler for the named workflow. critique is the
// evaluator's feedback from the previous iteration (empty on the first
// attempt), appended to the prompt for refinement passes.
func (o *Orchestrator) dispatch(ctx context.Context, query *types.Query, workflow, critique string) (string, error) {
	switch workflow {
	case "simple":
		return o.dispatchSimple(ctx, query, critique)
	case "complex":
		return o.dispatchComplex(ctx, query, critique)
	case "multimodal":
		return o.dispatchMultimodal(ctx, query, critique)
	case "local":
		return o.dispatchLocal(ctx, query, critique)
	case "ensemble":
		return o.dispatchEnsemble(ctx, query, critique)
	default:
		return "", errs.New("orchestrator.dispatch", errs.Internal, "unknown workflow: "+workflow)
	}
}

func augmented(text, critique string) string {
	if critique == "" {
		return text
	}
	return text + "\n\nrefinement note: " + critique
}

// dispatchSimple answers directly via the tool server's conversational
// responder.
func (o *Orchestrator) dispatchSimple(ctx context.Context, query *types.Query, critique string) (string, error) {
	return o.withFallback(ctx, query, critique, func(text string) (string, error) {
		return o.callTool(ctx, "conversational_responder", map[string]interface{}{"query": text})
	})
}

// dispatchComplex retrieves supporting material then synthesizes an
// answer from it.
func (o *Orchestrator) dispatchComplex(ctx context.Context, query *types.Query, critique string) (string, error) {
	return o.withFallback(ctx, query, critique, func(text string) (string, error) {
		retrieved, err := o.callTool(ctx, "retriever", map[string]interface{}{"query": text})
		if err != nil {
			return "", err
		}
		return o.callTool(ctx, "synthesize", map[string]interface{}{"candidates": []string{retrieved}, "query": text})
	})
}

// dispatchMultimodal calls the capability tool matching the query's
// modality, then synthesizes a final answer from its output.
func (o *Orchestrator) dispatchMultimodal(ctx context.Context, query *types.Query, critique string) (string, error) {
	capTag, ok := metacognition.CapabilityForModality(query.Modality)
	if !ok {
		return "", errs.New("orchestrator.dispatch_multimodal", errs.Precondition, "no capability for modality "+string(query.Modality))
	}
	return o.withFallback(ctx, query, critique, func(text string) (string, error) {
		analysis, err := o.callTool(ctx, capTag, map[string]interface{}{"query": text, "attachments": query.Attachments})
		if err != nil {
			return "", err
		}
		return o.callTool(ctx, "synthesize", map[string]interface{}{"candidates": []string{analysis}, "query": text})
	})
}

// dispatchLocal hands the query to the local reasoner directly.
func (o *Orchestrator) dispatchLocal(ctx context.Context, query *types.Query, critique string) (string, error) {
	if !o.localEnabled || o.local == nil {
		return cannedApology(), nil
	}
	resp, err := o.local.Process(ctx, localreasoner.ProcessRequest{
		Query:     augmented(query.Text, critique),
		UserID:    query.UserID,
		SessionID: query.SessionID,
	})
	if err != nil {
		return o.fallbackAfterLocalFailure(ctx, query, critique)
	}
	return resp.Answer, nil
}

// callTool invokes a capability-resolved tool and unwraps its result into
// a single string answer.
func (o *Orchestrator) callTool(ctx context.Context, capabilityTag string, params map[string]interface{}) (string, error) {
	res, err := o.tools.CallTool(ctx, o.capability(capabilityTag), params)
	if err != nil {
		return "", err
	}
	if !res.Success {
		return "", errs.New("orchestrator.call_tool", errs.BackendUnavailable, res.Error)
	}
	if text, ok := res.Result["text"].(string); ok {
		return text, nil
	}
	if text, ok := res.Result["answer"].(string); ok {
		return text, nil
	}
	return fmt.Sprintf("%v", res.Result), nil
}

// withFallback executes call against the tool server; on failure it falls
// back to the local reasoner, then to a canned apology (§4.4 Failure
// semantics: fixed fallback order, never an error).
func (o *Orchestrator) withFallback(ctx context.Context, query *types.Query, critique string, call func(text string) (string, error)) (string, error) {
	answer, err := call(augmented(query.Text, critique))
	if err == nil {
		return answer, nil
	}
	return o.fallbackAfterLocalFailure(ctx, query, critique)
}

func (o *Orchestrator) fallbackAfterLocalFailure(ctx context.Context, query *types.Query, critique string) (string, error) {
	if o.localEnabled && o.local != nil {
		resp, err := o.local.Process(ctx, localreasoner.ProcessRequest{
			Query:     augmented(query.Text, critique),
			UserID:    query.UserID,
			SessionID: query.SessionID,
		})
		if err == nil {
			return resp.Answer, nil
		}
	}
	return cannedApology(), nil
}

// cannedApology is the final fallback (§4.4): runWorkflow scores it
// quality=0 rather than passing it through MetaCognition.Evaluate.
func cannedApology() string {
	return "I'm unable to answer that right now; please try again shortly."
}
