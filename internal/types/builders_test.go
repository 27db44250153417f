package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoalBuilder(t *testing.T) {
	g := NewGoal().
		Title("ship v1").
		Description("get the release out").
		Priority(PriorityHigh).
		DependsOn("goal-a", "goal-b").
		SuccessCriteria([]string{"tests pass"}).
		Build()

	require.NoError(t, (&GoalBuilder{goal: g}).Validate())
	assert.Equal(t, "ship v1", g.Title)
	assert.Equal(t, PriorityHigh, g.Priority)
	assert.Equal(t, GoalPending, g.Status)
	assert.Equal(t, []string{"goal-a", "goal-b"}, g.DependencyIDs)
	assert.False(t, g.CreatedAt.IsZero())
}

func TestGoalBuilder_ValidateEmptyTitle(t *testing.T) {
	b := NewGoal()
	err := b.Validate()
	assert.Error(t, err)
}

func TestEpisodeBuilder(t *testing.T) {
	e := NewEpisode().
		Query("hello").
		Answer("hi there").
		Strategy("simple").
		Quality(0.9).
		Session("sess-1", "user-1").
		Latency(42).
		WithMetadata("iterations", 1).
		Build()

	require.NoError(t, (&EpisodeBuilder{episode: e}).Validate())
	assert.Equal(t, "hello", e.QueryText)
	assert.Equal(t, "sess-1", e.SessionID)
	assert.Equal(t, int64(42), e.LatencyMS)
	assert.Equal(t, 1, e.Metadata["iterations"])
}

func TestEpisodeBuilder_ValidateQualityRange(t *testing.T) {
	b := NewEpisode().Query("x").Quality(1.5)
	assert.Error(t, b.Validate())
}
