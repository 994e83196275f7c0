package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

// requestValidator checks request bodies against their validate tags and reports
// offending fields by their JSON names.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator(v *validator.Validate) *requestValidator {
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return &requestValidator{validate: v}
}

func (rv *requestValidator) Validate(i any) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return core.NewValidationError("invalid request body")
	}

	fields := make([]core.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, core.FieldError{Field: fe.Field(), Message: messageFor(fe)})
	}

	return core.NewValidationError("invalid request body", fields...)
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "printascii":
		return "must contain printable ASCII characters only"
	default:
		return "is invalid"
	}
}
