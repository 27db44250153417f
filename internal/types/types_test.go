package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGoalStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status GoalStatus
		want   bool
	}{
		{GoalPending, false},
		{GoalInProgress, false},
		{GoalPaused, false},
		{GoalCompleted, true},
		{GoalFailed, true},
		{GoalCancelled, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsTerminal())
		})
	}
}

func TestDefaultRoleWeight(t *testing.T) {
	assert.Equal(t, 0.60, DefaultRoleWeight(RolePrimaryUser))
	assert.Equal(t, 0.30, DefaultRoleWeight(RoleAdministrator))
	assert.Equal(t, 0.10, DefaultRoleWeight(RoleAutonomousAgent))
	assert.Equal(t, 0.00, DefaultRoleWeight(RoleObserver))
	assert.Equal(t, 0.00, DefaultRoleWeight(ParticipantRole("UNKNOWN")))
}

func TestDefaultQueryOptions(t *testing.T) {
	opts := DefaultQueryOptions()
	assert.Equal(t, 0.7, opts.QualityThreshold)
	assert.Equal(t, 3, opts.MaxIterations)
	assert.True(t, opts.AllowEnsemble)
	assert.False(t, opts.ConsensusRequired)
}
