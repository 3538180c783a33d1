package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"gametracker/internal/apperror"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := apperror.NotFound("game", "42")
	wrapped := fmt.Errorf("loading record: %w", err)

	assert.True(t, errors.Is(wrapped, apperror.ErrNotFound))
	assert.False(t, errors.Is(wrapped, apperror.ErrUnauthorized))
}

func TestValidationFailedCarriesField(t *testing.T) {
	err := apperror.ValidationFailed("rating", "rating must be a number between 0 and 10")

	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Equal(t, "rating", err.Field)
	assert.Equal(t, "rating must be a number between 0 and 10", err.Error())
}

func TestUnauthorizedAndConflict(t *testing.T) {
	assert.True(t, errors.Is(apperror.Unauthorized("nope"), apperror.ErrUnauthorized))
	assert.True(t, errors.Is(apperror.Conflict("user", "a@x.com"), apperror.ErrConflict))
	assert.Contains(t, apperror.Conflict("user", "a@x.com").Error(), "a@x.com")
}
