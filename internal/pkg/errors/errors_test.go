package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsSentinel(t *testing.T) {
	err := Wrap(ErrNotFound, "failed to get credential")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "failed to get credential: resource not found", err.Error())
	assert.Equal(t, "INTERNAL_ERROR", err.Code)
}

func TestInfraIsInfrastructureAndKeepsCause(t *testing.T) {
	err := Infra(context.DeadlineExceeded, "quota check failed")

	assert.True(t, errors.Is(err, ErrInfrastructure))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, ErrInvalidCredentials))

	wrapped := fmt.Errorf("gate: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInfrastructure))
}

func TestInvalid(t *testing.T) {
	err := Invalid("daily ceiling must be positive")

	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, "VALIDATION_ERROR", err.Code)
}
