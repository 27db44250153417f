package orchestrator

import (
	"time"

	"unified-thinking/internal/consensus"
	"unified-thinking/internal/types"
)

// runConsensusGate opens a decision for this query, waits (synchronously,
// up to the configured deadline) for a tally, and reports whether the
// query may proceed to dispatch. A consensus timeout is treated as
// REJECTED with rationale "timeout" (§4.4 Failure semantics), unless the
// deadline tally's conflict resolution approves the decision.
func (o *Orchestrator) runConsensusGate(query *types.Query, criticality float64) (approved bool, rationale string) {
	if o.gate == nil {
		return true, "no consensus engine configured; gate skipped"
	}

	deadline := o.clock().Add(o.opts.ConsensusDeadline)
	decisionID, err := o.gate.OpenDecision(consensus.OpenDecisionSpec{
		Title:         "process query",
		Description:   query.Text,
		Type:          "query_approval",
		Criticality:   criticality,
		ConsensusType: o.opts.ConsensusType,
		Deadline:      deadline,
	})
	if err != nil {
		return false, "failed to open decision: " + err.Error()
	}

	result, err := o.gate.Tally(decisionID)
	if err != nil {
		return false, "failed to tally decision: " + err.Error()
	}
	if result.Decided {
		return result.Status == types.DecisionApproved, result.Rationale
	}

	// No immediate auto-votes decided it; poll until the deadline, the
	// same pattern plan.ExecutePlan uses for step retries — a bounded
	// wait loop rather than an indefinite blocking call.
	for time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
		result, err = o.gate.Tally(decisionID)
		if err != nil {
			return false, "failed to tally decision: " + err.Error()
		}
		if result.Decided {
			return result.Status == types.DecisionApproved, result.Rationale
		}
	}

	expired, err := o.gate.ExpireIfOverdue(decisionID)
	if err == nil && expired.Decided && expired.Status == types.DecisionApproved {
		return true, expired.Rationale
	}
	return false, "timeout"
}
