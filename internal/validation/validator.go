// Package validation wraps the struct validator shared by configuration and domain input checks.
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the validator instance
type Validator struct {
	validate *validator.Validate
}

var (
	instance *Validator
	once     sync.Once
)

// Get returns the shared validator, creating it on first use
func Get() *Validator {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation(TagIdentifier, validateIdentifier)
		instance = &Validator{validate: v}
	})
	return instance
}

// Struct validates a struct using its tags
func (v *Validator) Struct(s any) error {
	return v.validate.Struct(s)
}

// Var validates a single value against tag
func (v *Validator) Var(field any, tag string) error {
	return v.validate.Var(field, tag)
}

// FormatValidationError turns validation errors into a field -> message map without leaking
// struct names. Field names are lower-cased.
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}

	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["error"] = MsgInvalidFormat
		return errs
	}

	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		if field == "" {
			field = "value"
		}
		switch e.Tag() {
		case "required":
			errs[field] = MsgRequired
		case "max":
			errs[field] = fmt.Sprintf(MsgMaxFmt, e.Param())
		case "min":
			errs[field] = fmt.Sprintf(MsgMinFmt, e.Param())
		case "oneof":
			errs[field] = fmt.Sprintf(MsgOneOfFmt, e.Param())
		case "gt":
			errs[field] = fmt.Sprintf(MsgGreaterThanFmt, e.Param())
		case "gte":
			errs[field] = fmt.Sprintf(MsgAtLeastFmt, e.Param())
		case TagIdentifier:
			errs[field] = MsgIdentifier
		default:
			errs[field] = MsgInvalidValue
		}
	}

	return errs
}

// Describe renders FormatValidationError as one line, fields in order
func Describe(err error) string {
	formatted := FormatValidationError(err)
	fields := make([]string, 0, len(formatted))
	for f := range formatted {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+formatted[f])
	}
	return strings.Join(parts, "; ")
}

func validateIdentifier(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
