package model

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports a rejected field assignment.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v *ValidationError) Error() string {
	return v.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InputError reports a value that could not be read at all: an unknown field, a null, or a
// value of the wrong JSON type.
type InputError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *InputError) Error() string {
	return e.Message
}

func NewInputError(field, message string) *InputError {
	return &InputError{Field: field, Message: message}
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(dateValue, Date{})
	return v
}

// dateValue exposes a Date to the validator as its string form; a zero Date is nil so that
// "required" rejects it.
func dateValue(field reflect.Value) any {
	if d, ok := field.Interface().(Date); ok && !d.IsZero() {
		return d.String()
	}
	return nil
}

func checkField(field string, value any, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return NewValidationError(field, fmt.Sprintf("%s is invalid", field))
	}
	return NewValidationError(field, translate(field, errs[0]))
}

func translate(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "contains":
		return fmt.Sprintf("%s must contain an '%s' character", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

// wants reports whether key survives pick(_, only).
func wants(only []string, key string) bool {
	if len(only) == 0 {
		return true
	}
	for _, k := range only {
		if k == key {
			return true
		}
	}
	return false
}

func pick(all map[string]any, only []string) map[string]any {
	if len(only) == 0 {
		return all
	}
	out := make(map[string]any, len(only))
	for _, key := range only {
		if v, ok := all[key]; ok {
			out[key] = v
		}
	}
	return out
}
