package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndNewf(t *testing.T) {
	err := New(CodeNotFound, "account missing")
	assert.Equal(t, "not_found: account missing", err.Error())
	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeConflict))

	err = Newf(CodeConflict, "email %q taken", "a@b.c")
	assert.Contains(t, err.Error(), `email "a@b.c" taken`)
	assert.True(t, HasCode(err, CodeConflict))
}

func TestWrap(t *testing.T) {
	t.Run("keeps the cause in the chain", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeInternal, "failed to load account")
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.True(t, HasCode(err, CodeInternal))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("nil cause yields nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "never happens"))
	})
}

func TestHasCodeSeesThroughWrapping(t *testing.T) {
	inner := New(CodeInvariantViolation, "illegal transition")
	outer := fmt.Errorf("applying workflow: %w", inner)
	assert.True(t, HasCode(outer, CodeInvariantViolation))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "x")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")), "uncoded errors default to internal")
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	a := New(CodeConflict, "one")
	b := New(CodeConflict, "two")
	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, New(CodeNotFound, "three"))
}
