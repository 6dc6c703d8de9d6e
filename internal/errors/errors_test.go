package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesFromCode(t *testing.T) {
	err := New(ErrCodeStoreTransient, "synonym lookup failed", nil)
	assert.Equal(t, CategoryStore, err.Category)
	assert.Equal(t, SeverityDegraded, err.Severity)
	assert.True(t, err.Retryable)
}

func TestWrap_PreservesChain(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCodeStoreUnreachable, cause)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ERR_STORE_UNREACHABLE")
}

func TestWrap_NilIsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(ErrCodeIndexEmpty, "no chunks", nil)
	b := New(ErrCodeIndexEmpty, "different message", nil)
	assert.True(t, stderrors.Is(a, b))
}

func TestIsDegraded(t *testing.T) {
	assert.True(t, IsDegraded(New(ErrCodeOracleUnavailable, "down", nil)))
	assert.False(t, IsDegraded(New(ErrCodeInvalidInput, "bad k", nil)))
	assert.False(t, IsDegraded(fmt.Errorf("plain")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeInvalidInput, GetCode(New(ErrCodeInvalidInput, "x", nil)))
	assert.Equal(t, "", GetCode(fmt.Errorf("plain")))
}
