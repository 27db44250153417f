package planner

import (
	"github.com/google/uuid"

	"unified-thinking/internal/errs"
	"unified-thinking/internal/types"
)

// HypothesisSpec is the caller-supplied shape for RegisterHypothesis.
type HypothesisSpec struct {
	Statement       string
	Rationale       string
	Procedure       []string
	Criteria        []string
	PriorConfidence float64
}

// RegisterHypothesis records a testable claim with its prior confidence.
func (p *StrategicPlanner) RegisterHypothesis(spec HypothesisSpec) (string, error) {
	if spec.Statement == "" {
		return "", errs.New("planner.register_hypothesis", errs.InvalidInput, "statement is required")
	}
	if spec.PriorConfidence < 0 || spec.PriorConfidence > 1 {
		return "", errs.New("planner.register_hypothesis", errs.InvalidInput, "prior_confidence must be in [0,1]")
	}

	h := &types.Hypothesis{
		ID:                  uuid.NewString(),
		Statement:           spec.Statement,
		Rationale:           spec.Rationale,
		Procedure:           spec.Procedure,
		Criteria:            spec.Criteria,
		PriorConfidence:     spec.PriorConfidence,
		PosteriorConfidence: spec.PriorConfidence,
		Outcome:             types.HypothesisUntested,
	}

	p.mu.Lock()
	p.hypotheses[h.ID] = h
	p.mu.Unlock()
	return h.ID, nil
}

// Hypothesis returns a hypothesis snapshot by id.
func (p *StrategicPlanner) Hypothesis(id string) (*types.Hypothesis, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	h, ok := p.hypotheses[id]
	if !ok {
		return nil, errs.New("planner.hypothesis", errs.NotFound, "unknown hypothesis").WithID(id)
	}
	cp := *h
	return &cp, nil
}

// EvidenceSupport classifies one piece of evidence gathered while running
// a hypothesis's test procedure.
type EvidenceSupport string

const (
	EvidenceSupports  EvidenceSupport = "SUPPORTS"
	EvidenceRefutes   EvidenceSupport = "REFUTES"
	EvidenceNeutral   EvidenceSupport = "NEUTRAL"
)

// likelihoodTable is the fixed P(evidence | hypothesis true) /
// P(evidence | hypothesis false) pair used for each evidence classification
// (§4.3's Bayesian update, Open Question: fixed rather than learned
// likelihoods). SUPPORTS is far more likely under a true hypothesis,
// REFUTES the reverse; NEUTRAL carries no information (ratio 1).
var likelihoodTable = map[EvidenceSupport]struct{ pGivenTrue, pGivenFalse float64 }{
	EvidenceSupports: {pGivenTrue: 0.85, pGivenFalse: 0.25},
	EvidenceRefutes:  {pGivenTrue: 0.15, pGivenFalse: 0.75},
	EvidenceNeutral:  {pGivenTrue: 0.5, pGivenFalse: 0.5},
}

// TestHypothesis folds one piece of evidence into the hypothesis's
// posterior via Bayes' rule using the fixed likelihood table, appends the
// evidence description to its record, and classifies the outcome once the
// posterior crosses a confidence band (>=0.85 CONFIRMED, <=0.15 REFUTED,
// otherwise INCONCLUSIVE while evidence keeps accumulating).
func (p *StrategicPlanner) TestHypothesis(id string, evidence string, support EvidenceSupport) (*types.Hypothesis, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.hypotheses[id]
	if !ok {
		return nil, errs.New("planner.test_hypothesis", errs.NotFound, "unknown hypothesis").WithID(id)
	}

	lik, ok := likelihoodTable[support]
	if !ok {
		return nil, errs.New("planner.test_hypothesis", errs.InvalidInput, "unknown evidence support classification")
	}

	prior := h.PosteriorConfidence
	numerator := lik.pGivenTrue * prior
	denominator := numerator + lik.pGivenFalse*(1-prior)
	posterior := prior
	if denominator > 0 {
		posterior = numerator / denominator
	}

	h.PosteriorConfidence = clamp01(posterior)
	h.Evidence = append(h.Evidence, evidence)

	switch {
	case h.PosteriorConfidence >= 0.85:
		h.Outcome = types.HypothesisConfirmed
	case h.PosteriorConfidence <= 0.15:
		h.Outcome = types.HypothesisRefuted
	default:
		h.Outcome = types.HypothesisInconclusive
	}

	cp := *h
	return &cp, nil
}
