package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// Report fields by their yaml name, falling back to json, then the Go name
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"yaml", "json", "mapstructure"} {
			name := strings.Split(f.Tag.Get(key), ",")[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
}

// errorMessages maps validation tags to friendly messages
var errorMessages = map[string]string{
	"required": "The field '%s' is required.",
	"min":      "The field '%s' must be at least %s.",
	"max":      "The field '%s' must be at most %s.",
	"lte":      "The field '%s' must be less than or equal to %s.",
	"gte":      "The field '%s' must be greater than or equal to %s.",
	"gt":       "The field '%s' must be greater than %s.",
	"lt":       "The field '%s' must be less than %s.",
	"oneof":    "The field '%s' must be one of [%s].",
	"url":      "The field '%s' must be a valid URL.",
	"uri":      "The field '%s' must be a valid URI.",
}

// parseMessage constructs a friendly error message for a failed tag
func parseMessage(field string, e validator.FieldError) string {
	if msg, exists := errorMessages[e.Tag()]; exists {
		switch strings.Count(msg, "%s") {
		case 1:
			return fmt.Sprintf(msg, field)
		case 2:
			return fmt.Sprintf(msg, field, e.Param())
		}
	}
	return fmt.Sprintf("Field '%s' is invalid: %s", field, e.Tag())
}

// ValidateStruct validates a struct and returns a map of field paths to
// friendly error messages. Nested fields use dotted paths such as
// "derived[2].formula".
func ValidateStruct(s any) map[string]string {
	validationErrors := make(map[string]string)

	err := validate.Struct(s)
	if err == nil {
		return validationErrors
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			field := fieldPath(e.Namespace())
			validationErrors[field] = parseMessage(field, e)
		}
		return validationErrors
	}

	validationErrors[""] = err.Error()
	return validationErrors
}

// Struct validates a struct and returns one error listing every failed
// field in sorted order, or nil.
func Struct(s any) error {
	msgs := ValidateStruct(s)
	if len(msgs) == 0 {
		return nil
	}
	fields := make([]string, 0, len(msgs))
	for field := range msgs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		lines = append(lines, msgs[field])
	}
	return fmt.Errorf("validation failed: %s", strings.Join(lines, " "))
}

// fieldPath drops the root struct name from a validator namespace
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
