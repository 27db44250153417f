package consensus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unified-thinking/internal/config"
	"unified-thinking/internal/errs"
	"unified-thinking/internal/types"
)

func newEngine(t *testing.T, now time.Time) *ConsensusEngine {
	t.Helper()
	e := NewConsensusEngine(config.Default().ConsensusDefaults)
	e.clock = func() time.Time { return now }
	return e
}

func TestRegisterParticipant_UniqueIDs(t *testing.T) {
	e := newEngine(t, time.Now())
	a, err := e.RegisterParticipant("alice", types.RolePrimaryUser, true)
	require.NoError(t, err)
	b, err := e.RegisterParticipant("alice", types.RolePrimaryUser, true)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenDecision_RejectsPastDeadlineAndBadCriticality(t *testing.T) {
	now := time.Now()
	e := newEngine(t, now)

	_, err := e.OpenDecision(OpenDecisionSpec{Title: "x", Criticality: 0.5, Deadline: now.Add(-time.Minute)})
	require.Error(t, err)
	assert.Equal(t, errs.InvalidInput, errs.KindOf(err))

	_, err = e.OpenDecision(OpenDecisionSpec{Title: "x", Criticality: 1.5, Deadline: now.Add(time.Hour)})
	require.Error(t, err)
	assert.Equal(t, errs.InvalidInput, errs.KindOf(err))
}

func TestCastVote_NotFoundAndClosed(t *testing.T) {
	now := time.Now()
	e := newEngine(t, now)
	alice, _ := e.RegisterParticipant("alice", types.RolePrimaryUser, true)

	err := e.CastVote("missing", alice, types.VoteApprove, "")
	assert.Equal(t, errs.NotFound, errs.KindOf(err))

	decisionID, _ := e.OpenDecision(OpenDecisionSpec{
		Title: "ship it", Criticality: 0.2, ConsensusType: types.ConsensusSimpleMajority,
		Deadline: now.Add(time.Hour),
	})
	err = e.CastVote(decisionID, "missing-participant", types.VoteApprove, "")
	assert.Equal(t, errs.NotFound, errs.KindOf(err))

	require.NoError(t, e.CastVote(decisionID, alice, types.VoteApprove, "looks fine"))

	d, _ := e.Decision(decisionID)
	require.Len(t, d.Votes, 1)

	// One approval against no rejection passes simple majority and closes
	// the decision, so a further vote is refused.
	err = e.CastVote(decisionID, alice, types.VoteReject, "too late")
	assert.Equal(t, errs.Precondition, errs.KindOf(err))
}

func TestCastVote_Unauthorized_WhenUnverifiedAndVerificationRequired(t *testing.T) {
	now := time.Now()
	e := newEngine(t, now)
	bob, _ := e.RegisterParticipant("bob", types.RolePrimaryUser, false)
	decisionID, _ := e.OpenDecision(OpenDecisionSpec{
		Title: "deploy", Criticality: 0.5, ConsensusType: types.ConsensusWeighted,
		RequiredRoles: []types.ParticipantRole{types.RolePrimaryUser},
		Deadline:      now.Add(time.Hour),
	})

	err := e.CastVote(decisionID, bob, types.VoteApprove, "")
	assert.Equal(t, errs.Unauthorized, errs.KindOf(err))
}

func TestCastVote_Overwrite_LastWriteWins(t *testing.T) {
	now := time.Now()
	e := newEngine(t, now)
	alice, _ := e.RegisterParticipant("alice", types.RolePrimaryUser, true)
	decisionID, _ := e.OpenDecision(OpenDecisionSpec{
		Title: "x", Criticality: 0.1, ConsensusType: types.ConsensusSimpleMajority,
		Deadline: now.Add(time.Hour),
	})

	require.NoError(t, e.CastVote(decisionID, alice, types.VoteReject, "first thought"))
	require.NoError(t, e.CastVote(decisionID, alice, types.VoteApprove, "changed my mind"))

	d, _ := e.Decision(decisionID)
	require.Len(t, d.Votes, 1)
	assert.Equal(t, types.VoteApprove, d.Votes[0].Choice)
}

func TestTally_SimpleMajority(t *testing.T) {
	now := time.Now()
	e := newEngine(t, now)
	a, _ := e.RegisterParticipant("a", types.RolePrimaryUser, true)
	b, _ := e.RegisterParticipant("b", types.RoleAdministrator, true)
	decisionID, _ := e.OpenDecision(OpenDecisionSpec{
		Title: "x", Criticality: 0.1, ConsensusType: types.ConsensusSimpleMajority,
		RequiredRoles: []types.ParticipantRole{types.RolePrimaryUser, types.RoleAdministrator},
		Deadline:      now.Add(time.Hour),
	})

	require.NoError(t, e.CastVote(decisionID, a, types.VoteApprove, ""))
	require.NoError(t, e.CastVote(decisionID, b, types.VoteReject, ""))

	d, _ := e.Decision(decisionID)
	assert.Equal(t, types.DecisionOpen, d.Status)

	require.NoError(t, e.CastVote(decisionID, a, types.VoteApprove, ""))
	result, err := e.Tally(decisionID)
	require.NoError(t, err)
	assert.True(t, result.Decided)
	assert.Equal(t, types.DecisionRejected, result.Status)
}

func TestTally_WeightedThreshold(t *testing.T) {
	now := time.Now()
	e := newEngine(t, now)
	primary, _ := e.RegisterParticipant("p", types.RolePrimaryUser, true)
	observer, _ := e.RegisterParticipant("o", types.RoleObserver, true)
	decisionID, _ := e.OpenDecision(OpenDecisionSpec{
		Title: "merge", Criticality: 0.5, ConsensusType: types.ConsensusWeighted,
		Deadline: now.Add(time.Hour),
	})

	require.NoError(t, e.CastVote(decisionID, observer, types.VoteReject, ""))
	require.NoError(t, e.CastVote(decisionID, primary, types.VoteApprove, ""))

	result, err := e.Tally(decisionID)
	require.NoError(t, err)
	assert.True(t, result.Decided)
	assert.Equal(t, types.DecisionApproved, result.Status)
}

func TestTally_Unanimous_ZeroVotersNeverApproves(t *testing.T) {
	now := time.Now()
	e := newEngine(t, now)
	decisionID, _ := e.OpenDecision(OpenDecisionSpec{
		Title: "x", Criticality: 0.95, ConsensusType: types.ConsensusAdaptive,
		Deadline: now.Add(time.Hour),
	})

	result, err := e.Tally(decisionID)
	require.NoError(t, err)
	assert.False(t, result.Decided)
}

func TestTally_AdaptiveBoundary_0_75_IsWeighted(t *testing.T) {
	d :=&types.Decision{Criticality: 0.75, ConsensusType: types.ConsensusAdaptive}
	assert.Equal(t, types.ConsensusWeighted, resolveRule(d))

	d2 := &types.Decision{Criticality: 0.751, ConsensusType: types.ConsensusAdaptive}
	assert.Equal(t, types.ConsensusSupermajority, resolveRule(d2))
}

func TestTally_ConflictResolution_PrimaryUserWinsOverAdministrator(t *testing.T) {
	now := time.Now()
	e := newEngine(t, now.Add(-time.Second))
	primary, _ := e.RegisterParticipant("p", types.RolePrimaryUser, true)
	admin, _ := e.RegisterParticipant("a", types.RoleAdministrator, true)
	decisionID, _ := e.OpenDecision(OpenDecisionSpec{
		Title: "x", Criticality: 0.5, ConsensusType: types.ConsensusUnanimous,
		RequiredRoles: []types.ParticipantRole{types.RolePrimaryUser, types.RoleAdministrator},
		Deadline:      now.Add(time.Hour),
	})
	e.clock = func() time.Time { return now }
	require.NoError(t, e.CastVote(decisionID, primary, types.VoteApprove, ""))
	require.NoError(t, e.CastVote(decisionID, admin, types.VoteReject, ""))

	e.clock = func() time.Time { return now.Add(2 * time.Hour) }
	result, err := e.ExpireIfOverdue(decisionID)
	require.NoError(t, err)
	assert.True(t, result.Decided)
	assert.Equal(t, types.DecisionApproved, result.Status)
}

func TestTally_ConflictResolution_RejectsWithoutPrimaryOrAdmin(t *testing.T) {
	now := time.Now()
	e := newEngine(t, now)
	observer, _ := e.RegisterParticipant("o", types.RoleObserver, true)
	decisionID, _ := e.OpenDecision(OpenDecisionSpec{
		Title: "x", Criticality: 0.2, ConsensusType: types.ConsensusSimpleMajority,
		Deadline: now.Add(time.Hour),
	})
	require.NoError(t, e.CastVote(decisionID, observer, types.VoteAbstain, ""))

	e.clock = func() time.Time { return now.Add(2 * time.Hour) }
	result, err := e.ExpireIfOverdue(decisionID)
	require.NoError(t, err)
	assert.True(t, result.Decided)
	assert.Equal(t, types.DecisionRejected, result.Status)
}

func TestAutoVote_AutonomousAgent(t *testing.T) {
	now := time.Now()
	e := newEngine(t, now)
	agent, _ := e.RegisterParticipant("agent", types.RoleAutonomousAgent, true)
	decisionID, _ := e.OpenDecision(OpenDecisionSpec{
		Title: "x", Criticality: 0.3, ConsensusType: types.ConsensusSimpleMajority,
		RecommendedOption: "proceed", Deadline: now.Add(time.Hour),
	})

	require.NoError(t, e.AutoVote(decisionID, agent, 0.1))
	d, _ := e.Decision(decisionID)
	require.Len(t, d.Votes, 1)
	assert.Equal(t, types.VoteApprove, d.Votes[0].Choice)
}

func TestAutoVote_RejectsNonAutonomousParticipant(t *testing.T) {
	now := time.Now()
	e := newEngine(t, now)
	human, _ := e.RegisterParticipant("human", types.RolePrimaryUser, true)
	decisionID, _ := e.OpenDecision(OpenDecisionSpec{
		Title: "x", Criticality: 0.3, ConsensusType: types.ConsensusSimpleMajority,
		Deadline: now.Add(time.Hour),
	})

	err := e.AutoVote(decisionID, human, 0.1)
	assert.Equal(t, errs.Precondition, errs.KindOf(err))
}

func TestTallyIsPure(t *testing.T) {
	now := time.Now()
	d := &types.Decision{
		Criticality:   0.5,
		ConsensusType: types.ConsensusWeighted,
		Deadline:      now.Add(time.Hour),
		Votes: []types.Vote{
			{ParticipantID: "p1", Choice: types.VoteApprove, CastAt: now.Add(-time.Minute)},
		},
	}
	participants := map[string]*types.Participant{
		"p1": {ID: "p1", Role: types.RolePrimaryUser, Weight: 0.6},
	}

	r1 := tally(d, participants, now)
	r2 := tally(d, participants, now)
	assert.Equal(t, r1, r2)
}
