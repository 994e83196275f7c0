package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

func Test_BusinessError_UnwrapsToKind(t *testing.T) {
	err := fmt.Errorf("handling: %w", core.NewFieldValidationError("offeredItemId", "is required"))

	assert.ErrorIs(t, err, core.ErrValidation)
	assert.NotErrorIs(t, err, core.ErrConflict)
	assert.Equal(t, core.ErrValidation, core.KindOf(err))
	assert.Equal(t, []core.FieldError{{Field: "offeredItemId", Message: "is required"}}, core.FieldErrorsOf(err))
	assert.Equal(t, "is required", core.MessageOf(err))
}

func Test_KindOf_Infrastructure(t *testing.T) {
	wrapped := core.NewInfrastructureError(errors.New("connection refused"))

	assert.Equal(t, core.ErrInfrastructure, core.KindOf(wrapped))
	assert.Equal(t, core.ErrInfrastructure, core.KindOf(errors.New("unclassified")))
	assert.Nil(t, core.FieldErrorsOf(wrapped))
}

func Test_BusinessError_Error(t *testing.T) {
	err := core.NewValidationError("mode mismatch", core.FieldError{Field: "mode", Message: "must be Free"})

	assert.Equal(t, "validation failed: mode mismatch; mode: must be Free", err.Error())
}
