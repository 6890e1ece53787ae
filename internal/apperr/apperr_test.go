package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKind(t *testing.T) {
	err := Forbidden("insufficient balance")
	assert.True(t, IsKind(err, KindForbidden))
	assert.False(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(errors.New("plain"), KindForbidden))
}

func TestIsKind_Wrapped(t *testing.T) {
	err := fmt.Errorf("request withdrawal: %w", Conflict("duplicate refund"))
	assert.True(t, IsKind(err, KindConflict))
}

func TestIsRetryable(t *testing.T) {
	retryable := Gateway(true, "timeout", errors.New("context deadline exceeded"))
	permanent := Gateway(false, "payment already exists", nil)

	assert.True(t, IsRetryable(retryable))
	assert.False(t, IsRetryable(permanent))
	assert.False(t, IsRetryable(Validation("amount must be positive")))
}

func TestError_Message(t *testing.T) {
	err := Gateway(true, "create payment", errors.New("502"))
	assert.Contains(t, err.Error(), "gateway")
	assert.Contains(t, err.Error(), "502")
}
