package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches wrapped code", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeNotFound, "subject not found"))
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("walks nested coded errors", func(t *testing.T) {
		inner := New(CodeConflict, "token in use")
		err := Wrap(inner, CodeInternal, "begin failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeConflict))
		assert.Equal(t, CodeInternal, CodeOf(err))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(CodeValidation))
	assert.Equal(t, http.StatusNotFound, ToHTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusConflict, ToHTTPStatus(CodeConflict))
	assert.Equal(t, http.StatusUnprocessableEntity, ToHTTPStatus(CodeInvariantViolation))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(Code("unknown")))
}
