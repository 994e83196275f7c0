package core

import (
	"errors"
	"strings"
)

// The error kinds of the lending workflow. Every error leaving a command handler wraps exactly one of them.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInfrastructure = errors.New("infrastructure failure")
)

// FieldError identifies an offending input field.
type FieldError struct {
	Field   string
	Message string
}

// BusinessError is a rejection of a command by a business rule.
// It unwraps to its Kind, so callers test it with errors.Is(err, ErrConflict) etc.
type BusinessError struct {
	Kind    error
	Message string
	Fields  []FieldError
}

func (e *BusinessError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	sb.WriteString(": ")
	sb.WriteString(e.Message)

	for _, f := range e.Fields {
		sb.WriteString("; ")
		sb.WriteString(f.Field)
		sb.WriteString(": ")
		sb.WriteString(f.Message)
	}

	return sb.String()
}

func (e *BusinessError) Unwrap() error {
	return e.Kind
}

// NewValidationError builds a validation error. Fields may be empty when no single field is to blame.
func NewValidationError(message string, fields ...FieldError) *BusinessError {
	return &BusinessError{Kind: ErrValidation, Message: message, Fields: fields}
}

// NewFieldValidationError is a validation error for one field, using message for both levels.
func NewFieldValidationError(field string, message string) *BusinessError {
	return NewValidationError(message, FieldError{Field: field, Message: message})
}

func NewNotFoundError(message string) *BusinessError {
	return &BusinessError{Kind: ErrNotFound, Message: message}
}

func NewForbiddenError(message string) *BusinessError {
	return &BusinessError{Kind: ErrForbidden, Message: message}
}

func NewConflictError(message string) *BusinessError {
	return &BusinessError{Kind: ErrConflict, Message: message}
}

// NewInfrastructureError marks cause as a retryable infrastructure failure.
func NewInfrastructureError(cause error) error {
	return errors.Join(ErrInfrastructure, cause)
}

// KindOf returns the error kind err wraps, or ErrInfrastructure for anything unclassified.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrForbidden, ErrConflict, ErrInfrastructure} {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return ErrInfrastructure
}

// FieldErrorsOf returns the field errors carried by err, if any.
func FieldErrorsOf(err error) []FieldError {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Fields
	}

	return nil
}

// MessageOf returns the human readable message of a BusinessError, or the kind's text otherwise.
func MessageOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Message
	}

	return KindOf(err).Error()
}
