package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsMatchSentinels(t *testing.T) {
	assert.ErrorIs(t, NotFound("getItem", "work item %q", "w1"), ErrNotFound)
	assert.ErrorIs(t, Forbidden("handoff", "not the primary owner"), ErrForbidden)
	assert.ErrorIs(t, InvalidState("assign", "item is %s", "blazing"), ErrInvalidState)
	assert.ErrorIs(t, InvalidArgument("handoff", "cannot hand off to yourself"), ErrInvalidArgument)
}

func TestError_Message(t *testing.T) {
	err := InvalidState("assign", "item is %s", "blazing")
	assert.Equal(t, "assign: item is blazing", err.Error())

	var e *Error
	assert.True(t, errors.As(err, &e))
	assert.Equal(t, "assign", e.Op)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Unavailable("store", errors.New("database is locked"))))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", ErrUnavailable)))
	assert.False(t, IsRetryable(NotFound("x", "y")))
	assert.False(t, IsRetryable(InvalidState("x", "y")))
	assert.False(t, IsRetryable(errors.New("boom")))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "ok", Code(nil))
	assert.Equal(t, "not_found", Code(NotFound("op", "m")))
	assert.Equal(t, "forbidden", Code(Forbidden("op", "m")))
	assert.Equal(t, "invalid_state", Code(InvalidState("op", "m")))
	assert.Equal(t, "invalid_argument", Code(InvalidArgument("op", "m")))
	assert.Equal(t, "unavailable", Code(Unavailable("op", errors.New("busy"))))
	assert.Equal(t, "internal", Code(errors.New("boom")))
}
