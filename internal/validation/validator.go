// package validation provides helper functions for request data validation.
// It uses the go-playground/validator library and registers the domain enum tags.
package validation

import (
	"fmt"
	"strings"

	"github.com/YusovID/citizen-connect/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// init registers the custom validation rules with the validator instance.
// This function runs automatically when the package is imported.
func init() {
	rules := map[string]validator.Func{
		// "category" accepts the fixed problem categories.
		"category": func(fl validator.FieldLevel) bool {
			return fl.Field().String() == "" || domain.Category(fl.Field().String()).Valid()
		},
		// "status" accepts the snake_case status names.
		"status": func(fl validator.FieldLevel) bool {
			if fl.Field().String() == "" {
				return true
			}

			_, err := domain.ParseStatus(fl.Field().String())

			return err == nil
		},
		"publication_status": func(fl validator.FieldLevel) bool {
			_, err := domain.ParsePublicationStatus(fl.Field().String())
			return err == nil
		},
		"contact_method": func(fl validator.FieldLevel) bool {
			m := domain.ContactMethod(fl.Field().String())
			return m == domain.ContactEmail || m == domain.ContactPhone
		},
	}

	for tag, fn := range rules {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			// A rule that fails to register is a startup bug.
			panic(fmt.Sprintf("failed to register custom validation %q: %v", tag, err))
		}
	}
}

// ValidationError is a custom error type that holds a slice of validation error messages.
type ValidationError struct {
	Errors []string
}

// Error returns a single string concatenating all validation error messages.
func (v *ValidationError) Error() string {
	return strings.Join(v.Errors, ", ")
}

// ValidateStruct performs validation on a given struct based on its validation tags.
// If validation fails, it returns a *ValidationError with user-friendly messages.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		var validationErrors []string

		for _, err := range err.(validator.ValidationErrors) {
			var message string

			switch err.Tag() {
			case "category", "status", "publication_status", "contact_method":
				message = fmt.Sprintf("field '%s' is not a known %s: '%v'", err.Field(), strings.ReplaceAll(err.Tag(), "_", " "), err.Value())
			default:
				// Default message for standard tags like 'required', 'min', 'max', etc.
				message = fmt.Sprintf(
					"field '%s' failed on the '%s' tag",
					err.Field(),
					err.Tag(),
				)
			}
			validationErrors = append(validationErrors, message)
		}

		return &ValidationError{Errors: validationErrors}
	}

	return nil
}
