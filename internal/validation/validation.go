// Package validation turns struct tag checks into the field-level errors the
// API reports to clients.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RequiredFieldError reports a missing or empty required field.
type RequiredFieldError struct {
	Field string
}

func (e RequiredFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// FieldError reports a present field with an unacceptable value.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Message
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// Struct validates v and returns the first failing field in declaration
// order, so callers control which missing field is reported first.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return RequiredFieldError{Field: fe.Field()}
	case "oneof":
		return FieldError{Field: fe.Field(), Message: fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())}
	case "gte", "min":
		return FieldError{Field: fe.Field(), Message: fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())}
	default:
		return FieldError{Field: fe.Field(), Message: fmt.Sprintf("%s is invalid", fe.Field())}
	}
}

// IsValidationError reports whether err is a client input error.
func IsValidationError(err error) bool {
	var required RequiredFieldError
	var field FieldError
	return errors.As(err, &required) || errors.As(err, &field)
}
