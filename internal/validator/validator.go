// Package validator accumulates field-level validation errors.
package validator

import (
	"maps"
	"slices"
	"strings"
)

// Validator maps field names to their first validation error.
// A Validator with no errors is valid.
type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records message for key unless key already failed.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check adds an error for key only when ok is false.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// NotBlank reports whether value has any non-whitespace content.
func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

// MaxChars reports whether value is at most n characters long.
func MaxChars(value string, n int) bool {
	return len([]rune(value)) <= n
}

// Summary joins the errors into one "field: message" line per field,
// ordered by field name.
func (v *Validator) Summary() string {
	keys := slices.Sorted(maps.Keys(v.Errors))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Errors[k])
	}
	return strings.Join(parts, "; ")
}
