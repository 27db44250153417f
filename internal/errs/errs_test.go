package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	base := errors.New("boom")

	withOpAndID := (&Error{Op: "consensus.cast_vote", Kind: NotFound, Err: base}).WithID("dec-1")
	assert.Contains(t, withOpAndID.Error(), "consensus.cast_vote")
	assert.Contains(t, withOpAndID.Error(), "dec-1")
	assert.Contains(t, withOpAndID.Error(), "boom")

	messageOnly := New("planner.create_plan", Precondition, "goal is not executable")
	assert.Equal(t, "goal is not executable", messageOnly.Error())

	kindOnly := &Error{Kind: Internal}
	assert.Equal(t, "INTERNAL error", kindOnly.Error())
}

func TestError_Unwrap(t *testing.T) {
	base := errors.New("boom")
	err := Wrap("op", BackendUnavailable, base)
	assert.True(t, errors.Is(err, base))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, NotFound, KindOf(New("op", NotFound, "missing")))
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
	assert.Equal(t, Internal, KindOf(nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New("op", BackendUnavailable, "down")))
	assert.True(t, IsRetryable(New("op", Timeout, "slow")))
	assert.False(t, IsRetryable(New("op", InvalidInput, "bad")))
}

func TestIs(t *testing.T) {
	err := New("op", Unauthorized, "nope")
	assert.True(t, Is(err, Unauthorized))
	assert.False(t, Is(err, NotFound))
}
