package validation

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	apperrors "github.com/kbukum/wirekit/errors"
)

// Validator collects field errors for input checked by hand, typically a
// request body inside an endpoint method.
type Validator struct {
	errors []FieldError
}

// FieldError is one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns the recorded field errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Error returns an INVALID_INPUT AppError carrying every field error, or nil.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return apperrors.New(apperrors.ErrCodeInvalidInput, strings.Join(messages, "; "), http.StatusBadRequest).
		WithDetail("fields", v.errors)
}

// Required checks that a coerced argument is present. Coercion yields nil for
// blank and unparseable input, so nil is the only missing value.
func (v *Validator) Required(field string, value any) *Validator {
	if value == nil {
		v.AddError(field, "is required")
		return v
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// MaxLength checks a string length.
func (v *Validator) MaxLength(field, value string, maxLen int) *Validator {
	if len(value) > maxLen {
		v.AddError(field, fmt.Sprintf("must be %d characters or less", maxLen))
	}
	return v
}

// Range checks that a number lies within [minVal, maxVal].
func (v *Validator) Range(field string, value, minVal, maxVal float64) *Validator {
	if value < minVal || value > maxVal {
		v.AddError(field, fmt.Sprintf("must be between %g and %g", minVal, maxVal))
	}
	return v
}

// OneOf checks a non-empty value against the allowed set.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" || slices.Contains(allowed, value) {
		return v
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Custom records message when condition is false.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}
