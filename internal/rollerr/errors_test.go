package rollerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_StampsDistinctRequestIDs(t *testing.T) {
	a := New(CodeConfig, "bad batch size")
	b := New(CodeConfig, "bad batch size")

	assert.NotEmpty(t, a.RequestID)
	assert.NotEmpty(t, b.RequestID)
	assert.NotEqual(t, a.RequestID, b.RequestID)
}

func TestIs_ComparesByCodeOnly(t *testing.T) {
	a := New(CodeTimeout, "instance-a timed out")
	b := New(CodeTimeout, "instance-b timed out")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, New(CodeConfig, "unrelated")))
}

func TestWrap_PreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := Wrap(CodeUpdateFailure, "update call failed", cause)

	assert.ErrorIs(t, wrapped, cause)
}

func TestIsRetryable_ReflectsCode(t *testing.T) {
	assert.True(t, IsRetryable(New(CodeTimeout, "timed out")))
	assert.False(t, IsRetryable(New(CodeConfig, "bad config")))
	assert.False(t, IsRetryable(errors.New("plain error")))
}

func TestCodeOf_ExtractsCodeFromWrappedError(t *testing.T) {
	err := Wrap(CodeThresholdBreach, "breach", errors.New("inner"))
	assert.Equal(t, CodeThresholdBreach, CodeOf(err))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}
