package planner

import (
	"github.com/google/uuid"

	"unified-thinking/internal/errs"
	"unified-thinking/internal/types"
)

// SimulateSpec is the caller-supplied shape for Simulate.
type SimulateSpec struct {
	Title       string
	Assumptions map[string]interface{}
	Reasoning   string
	// BaseSuccessProbability is the estimator's starting point before
	// assumption adjustments (e.g. from a goal's historical completion
	// rate); callers that have no better estimate pass 0.5.
	BaseSuccessProbability float64
}

// riskyAssumptionKeys nudge the simulated probability down when present
// and truthy/"high" — a small, explainable heuristic rather than a learned
// model, matching the scoring style used elsewhere in this package.
var riskyAssumptionKeys = []string{"tight_deadline", "unverified_dependency", "untested_integration"}

// Simulate records a what-if scenario and estimates its success
// probability from its assumptions (§4.3). The estimate is a pure
// function of the spec — no randomness, so replaying a scenario with the
// same assumptions always yields the same probability.
func (p *StrategicPlanner) Simulate(spec SimulateSpec) (*types.Scenario, error) {
	if spec.Title == "" {
		return nil, errs.New("planner.simulate", errs.InvalidInput, "title is required")
	}

	base := spec.BaseSuccessProbability
	if base <= 0 {
		base = 0.5
	}

	prob := base
	var reasons []string
	for _, key := range riskyAssumptionKeys {
		if truthy(spec.Assumptions[key]) {
			prob -= 0.15
			reasons = append(reasons, "assumption "+key+" reduces confidence")
		}
	}
	if v, ok := spec.Assumptions["extra_resources"]; ok && truthy(v) {
		prob += 0.1
		reasons = append(reasons, "assumption extra_resources increases confidence")
	}
	prob = clamp01(prob)

	reasoning := spec.Reasoning
	if reasoning == "" {
		reasoning = "estimated from base rate adjusted by assumption heuristics"
	}
	for _, r := range reasons {
		reasoning += "; " + r
	}

	scenario := &types.Scenario{
		ID:                          uuid.NewString(),
		Title:                       spec.Title,
		Assumptions:                 spec.Assumptions,
		SimulatedSuccessProbability: prob,
		Reasoning:                   reasoning,
	}

	p.mu.Lock()
	p.scenarios[scenario.ID] = scenario
	p.mu.Unlock()

	return scenario, nil
}

// Scenario returns a recorded scenario by id.
func (p *StrategicPlanner) Scenario(id string) (*types.Scenario, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.scenarios[id]
	if !ok {
		return nil, errs.New("planner.scenario", errs.NotFound, "unknown scenario").WithID(id)
	}
	return s, nil
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "high" || t == "yes"
	default:
		return v != nil
	}
}
