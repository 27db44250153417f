package consensus

import (
	"time"

	"unified-thinking/internal/types"
)

// tally is the pure core of the consensus engine: given a decision's votes
// and deadline, its resolved rule, and a snapshot of the participants who
// may have voted (for weight and role lookups) at instant `now`, it returns
// the outcome. It never mutates its inputs and always terminates with a
// status — decided or not (§4.2, §8 tally purity).
func tally(d *types.Decision, participants map[string]*types.Participant, now time.Time) TallyResult {
	rule := resolveRule(d)
	votes := latestVotePerParticipant(d.Votes)

	if passed, rationale := ruleResult(rule, d, votes, participants); passed {
		return TallyResult{Decided: true, Status: types.DecisionApproved, Rationale: rationale}
	}
	if rejected, rationale := ruleRejected(rule, d, votes, participants); rejected {
		return TallyResult{Decided: true, Status: types.DecisionRejected, Rationale: rationale}
	}

	if now.After(d.Deadline) {
		if result, ok := resolveConflict(votes, participants); ok {
			return result
		}
		return TallyResult{Decided: true, Status: types.DecisionExpired, Rationale: "deadline passed with no resolving rule or conflict tiebreak"}
	}

	return TallyResult{Decided: false, Status: d.Status}
}

// resolveRule maps ADAPTIVE onto a concrete rule by criticality band
// (§4.2): <0.4 SIMPLE_MAJORITY, [0.4,0.75] WEIGHTED, (0.75,0.9) SUPERMAJORITY,
// >=0.9 UNANIMOUS. Criticality exactly 0.75 maps to WEIGHTED — the
// SUPERMAJORITY band's lower bound is exclusive of 0.75 (§8 boundary case).
func resolveRule(d *types.Decision) types.ConsensusType {
	if d.ConsensusType != types.ConsensusAdaptive {
		return d.ConsensusType
	}
	switch {
	case d.Criticality < 0.4:
		return types.ConsensusSimpleMajority
	case d.Criticality <= 0.75:
		return types.ConsensusWeighted
	case d.Criticality < 0.9:
		return types.ConsensusSupermajority
	default:
		return types.ConsensusUnanimous
	}
}

func latestVotePerParticipant(votes []types.Vote) map[string]types.Vote {
	byParticipant := make(map[string]types.Vote, len(votes))
	for _, v := range votes {
		existing, ok := byParticipant[v.ParticipantID]
		if !ok || v.CastAt.After(existing.CastAt) {
			byParticipant[v.ParticipantID] = v
		}
	}
	return byParticipant
}

func weightOf(id string, participants map[string]*types.Participant) float64 {
	if p, ok := participants[id]; ok {
		return p.Weight
	}
	return 0
}

func roleOf(id string, participants map[string]*types.Participant) types.ParticipantRole {
	if p, ok := participants[id]; ok {
		return p.Role
	}
	return ""
}

// ruleResult reports whether the rule currently passes (APPROVE outcome).
func ruleResult(rule types.ConsensusType, d *types.Decision, votes map[string]types.Vote, participants map[string]*types.Participant) (bool, string) {
	switch rule {
	case types.ConsensusWeighted:
		approve, total := weightedSums(votes, participants)
		if total > 0 && approve/total >= 0.60 {
			return true, "weighted approval share reached 0.60"
		}
		return false, ""

	case types.ConsensusSimpleMajority:
		approve, reject := countChoices(votes)
		if approve > reject {
			return true, "simple majority: approvals exceed rejections"
		}
		return false, ""

	case types.ConsensusSupermajority:
		approve, total := countedTotal(votes)
		if total > 0 && float64(approve)/float64(total) >= 2.0/3.0 {
			return true, "supermajority threshold (2/3) reached"
		}
		return false, ""

	case types.ConsensusUnanimous:
		return unanimousPasses(d, votes, participants)

	default:
		return false, ""
	}
}

// ruleRejected reports whether the rule is conclusively failed (REJECT
// outcome) once every required voter has cast a vote — even before the
// deadline, so a decision doesn't linger OPEN when its outcome is already
// mathematically settled.
func ruleRejected(rule types.ConsensusType, d *types.Decision, votes map[string]types.Vote, participants map[string]*types.Participant) (bool, string) {
	if !allRequiredVoted(d, votes, participants) {
		return false, ""
	}
	switch rule {
	case types.ConsensusUnanimous:
		for _, v := range votes {
			if v.Choice == types.VoteReject {
				return true, "unanimous rule broken by a rejection"
			}
		}
		return true, "unanimous rule unmet: not every required vote approved"
	case types.ConsensusWeighted:
		approve, total := weightedSums(votes, participants)
		if total == 0 || approve/total < 0.60 {
			return true, "weighted approval share cannot reach 0.60 with all required votes cast"
		}
		return false, ""
	case types.ConsensusSupermajority:
		approve, total := countedTotal(votes)
		if total == 0 || float64(approve)/float64(total) < 2.0/3.0 {
			return true, "supermajority threshold unreachable with all required votes cast"
		}
		return false, ""
	case types.ConsensusSimpleMajority:
		approve, reject := countChoices(votes)
		if reject >= approve {
			return true, "simple majority rule failed with all required votes cast"
		}
		return false, ""
	default:
		return false, ""
	}
}

func weightedSums(votes map[string]types.Vote, participants map[string]*types.Participant) (approve, total float64) {
	for pid, v := range votes {
		w := weightOf(pid, participants)
		total += w
		if v.Choice == types.VoteApprove {
			approve += w
		}
	}
	return approve, total
}

func countChoices(votes map[string]types.Vote) (approve, reject int) {
	for _, v := range votes {
		switch v.Choice {
		case types.VoteApprove:
			approve++
		case types.VoteReject:
			reject++
		}
	}
	return approve, reject
}

func countedTotal(votes map[string]types.Vote) (approve, total int) {
	for _, v := range votes {
		if v.Choice != types.VoteAbstain {
			total++
			if v.Choice == types.VoteApprove {
				approve++
			}
		}
	}
	return approve, total
}

// unanimousPasses requires every cast vote to be APPROVE and at least one
// vote from every required role; zero voters never counts as approved
// (§8 boundary case).
func unanimousPasses(d *types.Decision, votes map[string]types.Vote, participants map[string]*types.Participant) (bool, string) {
	if len(votes) == 0 {
		return false, ""
	}
	for _, v := range votes {
		if v.Choice != types.VoteApprove {
			return false, ""
		}
	}
	if !allRequiredVoted(d, votes, participants) {
		return false, ""
	}
	return true, "unanimous approval with all required roles represented"
}

// allRequiredVoted reports whether every role named in RequiredRoles has
// cast at least one vote. With no required roles, any single vote suffices.
func allRequiredVoted(d *types.Decision, votes map[string]types.Vote, participants map[string]*types.Participant) bool {
	if len(d.RequiredRoles) == 0 {
		return len(votes) > 0
	}
	present := make(map[types.ParticipantRole]bool, len(votes))
	for pid := range votes {
		present[roleOf(pid, participants)] = true
	}
	for _, role := range d.RequiredRoles {
		if !present[role] {
			return false
		}
	}
	return true
}

// resolveConflict applies the deadline-reached conflict resolution order
// (§4.2): a PRIMARY_USER vote decides the outcome directly, else an
// ADMINISTRATOR vote decides, else the decision is REJECTED.
func resolveConflict(votes map[string]types.Vote, participants map[string]*types.Participant) (TallyResult, bool) {
	if v, ok := voteByRole(votes, participants, types.RolePrimaryUser); ok {
		return conflictOutcome(v, "PRIMARY_USER vote resolved the conflict"), true
	}
	if v, ok := voteByRole(votes, participants, types.RoleAdministrator); ok {
		return conflictOutcome(v, "ADMINISTRATOR vote resolved the conflict"), true
	}
	return TallyResult{Decided: true, Status: types.DecisionRejected, Rationale: "no PRIMARY_USER or ADMINISTRATOR vote to resolve the conflict"}, true
}

func voteByRole(votes map[string]types.Vote, participants map[string]*types.Participant, role types.ParticipantRole) (types.Vote, bool) {
	var latest types.Vote
	found := false
	for pid, v := range votes {
		if roleOf(pid, participants) == role {
			if !found || v.CastAt.After(latest.CastAt) {
				latest = v
				found = true
			}
		}
	}
	return latest, found
}

func conflictOutcome(v types.Vote, rationale string) TallyResult {
	status := types.DecisionRejected
	if v.Choice == types.VoteApprove {
		status = types.DecisionApproved
	}
	return TallyResult{Decided: true, Status: status, Rationale: rationale}
}
