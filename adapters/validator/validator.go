package validator

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/abhissng/synapse/blame"
)

// Validator wraps go-playground/validator and reports fields by their
// mapstructure (flag) name.
type Validator struct {
	validator *validator.Validate
}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return &Validator{validator: v}
}

// ValidateStruct validates a struct and returns a map of field names to error messages.
func (v *Validator) ValidateStruct(s any) map[string]string {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]string{"error": err.Error()}
	}

	errorMap := make(map[string]string)
	for _, fieldError := range validationErrors {
		errorMap[fieldError.Field()] = v.getErrorMessage(fieldError)
	}
	return errorMap
}

// Validate validates s and folds every failure into one blame error.
func (v *Validator) Validate(s any) error {
	errorMap := v.ValidateStruct(s)
	if len(errorMap) == 0 {
		return nil
	}
	fields := make([]string, 0, len(errorMap))
	causes := make([]error, 0, len(errorMap))
	for _, field := range slices.Sorted(maps.Keys(errorMap)) {
		fields = append(fields, field)
		causes = append(causes, errors.New(errorMap[field]))
	}
	return blame.ArgsValidationError(strings.Join(fields, ", "), errors.Join(causes...))
}

// ValidateField validates a single value against tag.
func (v *Validator) ValidateField(field any, tag string) string {
	err := v.validator.Var(field, tag)
	if err == nil {
		return ""
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "unexpected validation error"
	}
	if len(validationErrors) > 0 {
		return v.getErrorMessage(validationErrors[0])
	}
	return "validation error"
}

// getErrorMessage generates a user-friendly error message from a FieldError.
func (v *Validator) getErrorMessage(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldError.Field())
	case "file":
		return fmt.Sprintf("%s must be an existing file, got %q", fieldError.Field(), fieldError.Value())
	case "dir":
		return fmt.Sprintf("%s must be an existing directory, got %q", fieldError.Field(), fieldError.Value())
	case "min", "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fieldError.Field(), fieldError.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", fieldError.Field(), fieldError.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fieldError.Field(), fieldError.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fieldError.Field(), fieldError.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fieldError.Field())
	default:
		return fmt.Sprintf("invalid %s", fieldError.Field())
	}
}
