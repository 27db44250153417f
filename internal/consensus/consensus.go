// Package consensus implements the multi-stakeholder consensus engine:
// participant registration, decision lifecycle, vote casting, and pluggable
// tally rules (§4.2). Registries are process-wide, protected by a single
// reader-writer lock (reads dominate), mirroring the teacher orchestrator's
// registry-struct-with-RWMutex idiom.
package consensus

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"unified-thinking/internal/config"
	"unified-thinking/internal/errs"
	"unified-thinking/internal/types"
)

// ConsensusEngine registers participants, holds decisions, tallies votes.
type ConsensusEngine struct {
	mu           sync.RWMutex
	participants map[string]*types.Participant
	decisions    map[string]*types.Decision

	roleWeights           config.RoleWeights
	autoVoteRiskThreshold float64

	// clock is overridable for deterministic tests; defaults to time.Now.
	clock func() time.Time
}

// NewConsensusEngine constructs a ConsensusEngine from the process
// configuration's consensus defaults.
func NewConsensusEngine(defaults config.ConsensusDefaults) *ConsensusEngine {
	return &ConsensusEngine{
		participants:          make(map[string]*types.Participant),
		decisions:              make(map[string]*types.Decision),
		roleWeights:            defaults.RoleWeights,
		autoVoteRiskThreshold:  defaults.AutonomousAgentRiskThreshold,
		clock:                  time.Now,
	}
}

// weightFor resolves a role's default weight from configuration, falling
// back to the spec's hard-coded defaults (§3) if unset.
func (c *ConsensusEngine) weightFor(role types.ParticipantRole) float64 {
	switch role {
	case types.RolePrimaryUser:
		if c.roleWeights.PrimaryUser > 0 {
			return c.roleWeights.PrimaryUser
		}
	case types.RoleAdministrator:
		if c.roleWeights.Administrator > 0 {
			return c.roleWeights.Administrator
		}
	case types.RoleAutonomousAgent:
		if c.roleWeights.AutonomousAgent > 0 {
			return c.roleWeights.AutonomousAgent
		}
	case types.RoleObserver:
		return c.roleWeights.Observer
	}
	return types.DefaultRoleWeight(role)
}

// RegisterParticipant registers a new voter. Duplicate names are allowed;
// every id is unique.
func (c *ConsensusEngine) RegisterParticipant(name string, role types.ParticipantRole, verified bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := &types.Participant{
		ID:       uuid.NewString(),
		Name:     name,
		Role:     role,
		Verified: verified,
		Weight:   c.weightFor(role),
	}
	c.participants[p.ID] = p
	return p.ID, nil
}

// Participant returns a registered participant by id.
func (c *ConsensusEngine) Participant(id string) (*types.Participant, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.participants[id]
	if !ok {
		return nil, errs.New("consensus.participant", errs.NotFound, "unknown participant").WithID(id)
	}
	return p, nil
}

// HasRole reports whether any registered participant holds the given
// role, used by the orchestrator's consensus gate to check whether a
// PRIMARY_USER participant exists before opening a decision on their
// behalf.
func (c *ConsensusEngine) HasRole(role types.ParticipantRole) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.participants {
		if p.Role == role {
			return true
		}
	}
	return false
}

// OpenDecisionSpec is the caller-supplied shape for opening a decision.
type OpenDecisionSpec struct {
	Title             string
	Description       string
	Type              string
	Criticality       float64
	RecommendedOption string
	RequiredRoles     []types.ParticipantRole
	ConsensusType     types.ConsensusType
	Deadline          time.Time
}

// OpenDecision opens a new decision for voting.
func (c *ConsensusEngine) OpenDecision(spec OpenDecisionSpec) (string, error) {
	if spec.Criticality < 0 || spec.Criticality > 1 {
		return "", errs.New("consensus.open_decision", errs.InvalidInput, "criticality must be in [0,1]")
	}
	if !spec.Deadline.After(c.clock()) {
		return "", errs.New("consensus.open_decision", errs.InvalidInput, "deadline must be in the future")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	d := &types.Decision{
		ID:                uuid.NewString(),
		Title:             spec.Title,
		Description:       spec.Description,
		Type:              spec.Type,
		Criticality:       spec.Criticality,
		RecommendedOption: spec.RecommendedOption,
		RequiredRoles:     spec.RequiredRoles,
		ConsensusType:     spec.ConsensusType,
		Deadline:          spec.Deadline,
		Status:            types.DecisionOpen,
	}
	c.decisions[d.ID] = d
	return d.ID, nil
}

// Decision returns a decision snapshot by id.
func (c *ConsensusEngine) Decision(id string) (*types.Decision, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.decisions[id]
	if !ok {
		return nil, errs.New("consensus.decision", errs.NotFound, "unknown decision").WithID(id)
	}
	cp := *d
	cp.Votes = append([]types.Vote(nil), d.Votes...)
	return &cp, nil
}

// CastVote records (or overwrites) a participant's vote for a decision.
// Duplicate casts from the same participant overwrite the previous vote
// and trigger a re-tally (§4.2).
func (c *ConsensusEngine) CastVote(decisionID, participantID string, choice types.VoteChoice, rationale string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.decisions[decisionID]
	if !ok {
		return errs.New("consensus.cast_vote", errs.NotFound, "unknown decision").WithID(decisionID)
	}
	p, ok := c.participants[participantID]
	if !ok {
		return errs.New("consensus.cast_vote", errs.NotFound, "unknown participant").WithID(participantID)
	}

	now := c.clock()
	if d.Status != types.DecisionOpen || now.After(d.Deadline) {
		return errs.New("consensus.cast_vote", errs.Precondition, "decision is closed").WithID(decisionID)
	}
	if requiresVerification(d) && !p.Verified {
		return errs.New("consensus.cast_vote", errs.Unauthorized, "participant is not verified").WithID(participantID)
	}

	vote := types.Vote{ParticipantID: participantID, Choice: choice, Rationale: rationale, CastAt: now}
	overwritten := false
	for i, v := range d.Votes {
		if v.ParticipantID == participantID {
			d.Votes[i] = vote
			overwritten = true
			break
		}
	}
	if !overwritten {
		d.Votes = append(d.Votes, vote)
	}

	result := tally(d, c.participantsSnapshot(), now)
	if result.Decided {
		d.Status = result.Status
		d.Rationale = result.Rationale
	}
	return nil
}

// requiresVerification reports whether this decision's required roles
// demand verified participants (any role other than OBSERVER does).
func requiresVerification(d *types.Decision) bool {
	for _, r := range d.RequiredRoles {
		if r != types.RoleObserver {
			return true
		}
	}
	return len(d.RequiredRoles) == 0
}

func (c *ConsensusEngine) participantsSnapshot() map[string]*types.Participant {
	snap := make(map[string]*types.Participant, len(c.participants))
	for id, p := range c.participants {
		snap[id] = p
	}
	return snap
}

// TallyResult is the total (always-returns-a-status) outcome of Tally.
type TallyResult struct {
	Decided   bool
	Status    types.DecisionStatus
	Rationale string
}

// Tally is total: it always returns a status, over the current votes and
// deadline, applying the decision's consensus rule and then conflict
// resolution if no rule passed (§4.2).
func (c *ConsensusEngine) Tally(decisionID string) (TallyResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.decisions[decisionID]
	if !ok {
		return TallyResult{}, errs.New("consensus.tally", errs.NotFound, "unknown decision").WithID(decisionID)
	}

	result := tally(d, c.participantsSnapshot(), c.clock())
	if result.Decided {
		d.Status = result.Status
		d.Rationale = result.Rationale
	}
	return result, nil
}

// AutoVote casts an APPROVE/ABSTAIN vote on behalf of a registered
// AUTONOMOUS_AGENT participant: APPROVE iff a recommended_option exists
// and optionRisk is below the agent's configured risk threshold (§4.2).
func (c *ConsensusEngine) AutoVote(decisionID, participantID string, optionRisk float64) error {
	c.mu.RLock()
	p, ok := c.participants[participantID]
	d, dok := c.decisions[decisionID]
	c.mu.RUnlock()

	if !ok {
		return errs.New("consensus.auto_vote", errs.NotFound, "unknown participant").WithID(participantID)
	}
	if !dok {
		return errs.New("consensus.auto_vote", errs.NotFound, "unknown decision").WithID(decisionID)
	}
	if p.Role != types.RoleAutonomousAgent {
		return errs.New("consensus.auto_vote", errs.Precondition, "participant is not an autonomous agent").WithID(participantID)
	}

	choice := types.VoteAbstain
	rationale := "no recommended option to evaluate"
	if d.RecommendedOption != "" && optionRisk < c.autoVoteRiskThreshold {
		choice = types.VoteApprove
		rationale = "recommended option risk below agent threshold"
	} else if d.RecommendedOption != "" {
		rationale = "recommended option risk at or above agent threshold"
	}

	return c.CastVote(decisionID, participantID, choice, rationale)
}

// ExpireIfOverdue re-tallies a decision whose deadline has passed and
// records a decided outcome; an OPEN decision before its deadline is
// returned undecided. Past the deadline tally applies conflict resolution,
// which always decides, so the EXPIRED "timeout" result below only guards
// against an undecided tally. Called by the orchestrator's consensus gate
// when waiting on a decision times out.
func (c *ConsensusEngine) ExpireIfOverdue(decisionID string) (TallyResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.decisions[decisionID]
	if !ok {
		return TallyResult{}, errs.New("consensus.expire", errs.NotFound, "unknown decision").WithID(decisionID)
	}

	now := c.clock()
	if d.Status == types.DecisionOpen && !now.After(d.Deadline) {
		return TallyResult{Decided: false, Status: d.Status}, nil
	}

	result := tally(d, c.participantsSnapshot(), now)
	if !result.Decided && now.After(d.Deadline) {
		result = TallyResult{Decided: true, Status: types.DecisionExpired, Rationale: "timeout"}
	}
	if result.Decided {
		d.Status = result.Status
		d.Rationale = result.Rationale
	}
	return result, nil
}

// NormalizeConsensusType is a small helper used by callers mapping config
// strategy strings (lower/upper-case) onto types.ConsensusType.
func NormalizeConsensusType(s string) types.ConsensusType {
	return types.ConsensusType(strings.ToUpper(s))
}
