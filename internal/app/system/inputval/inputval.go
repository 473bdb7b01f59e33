// Package inputval validates request parameters using waffle/pantry/validate.
//
// Define an input struct with validate tags, fill it from query parameters,
// and call Validate to get readable messages. Handlers turn a failed Result
// into a validation error before touching the store.
//
// Example:
//
//	type PageInput struct {
//	    Limit string `json:"limit" validate:"digits,max=9" label:"limit"`
//	}
//
//	in := PageInput{Limit: r.URL.Query().Get("limit")}
//	if res := inputval.Validate(in); res.HasErrors() {
//	    jsonutil.WriteError(w, r, logger, apperr.Validation(res.First()))
//	    return
//	}
package inputval

import (
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/waffle/pantry/validate"
)

// Result holds validation results with user-friendly messages.
type Result struct {
	Errors []FieldError
}

// FieldError represents a validation error for a single field.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or empty string if no errors.
func (r *Result) First() string {
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	return ""
}

// customValidator is a singleton validator with custom rules registered.
var (
	customValidator *validate.Validator
	validatorOnce   sync.Once
)

// getValidator returns the singleton validator with custom rules.
func getValidator() *validate.Validator {
	validatorOnce.Do(func() {
		customValidator = validate.New(validate.WithStopOnFirstError())

		// digits: optional unsigned decimal integer
		customValidator.RegisterRuleFunc("digits", func(value any) bool {
			if s, ok := value.(string); ok {
				return s == "" || IsDigits(s)
			}
			return false
		}, "digits")

		// bookmark: optional base64url continuation token
		customValidator.RegisterRuleFunc("bookmark", func(value any) bool {
			if s, ok := value.(string); ok {
				return s == "" || IsBookmark(s)
			}
			return false
		}, "bookmark")
	})
	return customValidator
}

// Validate validates a struct and returns a Result with user-friendly errors.
// The struct should have `validate` tags for rules and optional `label` tags
// for user-friendly field names.
//
// Rules used by the API (from pantry/validate):
//   - required: field must not be empty
//   - max=N: string length must be <= N
//
// Custom validation rules (registered by this package):
//   - digits: empty, or an unsigned decimal integer
//   - bookmark: empty, or a base64url continuation token
func Validate(s any) *Result {
	result := &Result{}

	v := getValidator()
	err := v.Struct(s)
	if err == nil {
		return result
	}

	// Get field labels from struct tags
	labels := getFieldLabels(s)

	if errs, ok := err.(validate.Errors); ok {
		for _, e := range errs {
			label := labels[e.Field]
			if label == "" {
				label = e.Field
			}

			msg := formatMessage(label, e.Rule, e.Param)
			result.Errors = append(result.Errors, FieldError{
				Field:   e.Field,
				Label:   label,
				Message: msg,
			})
		}
	}

	return result
}

// getFieldLabels extracts the "label" tag from struct fields.
func getFieldLabels(s any) map[string]string {
	labels := make(map[string]string)

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return labels
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		// Get the field name (use json tag if available)
		fieldName := field.Name
		if jsonTag := field.Tag.Get("json"); jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" && parts[0] != "-" {
				fieldName = parts[0]
			}
		}

		// Get the label
		if label := field.Tag.Get("label"); label != "" {
			labels[fieldName] = label
		}
	}

	return labels
}

// formatMessage creates a user-friendly message for a validation rule.
func formatMessage(label, rule, param string) string {
	switch rule {
	case "required":
		return label + " is required."
	case "max":
		return label + " must be at most " + param + " characters."
	case "digits":
		return label + " must be a whole number."
	case "bookmark":
		return label + " is not a valid bookmark."
	default:
		return label + " is invalid."
	}
}

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsBookmark reports whether s uses only the unpadded base64url alphabet.
func IsBookmark(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
