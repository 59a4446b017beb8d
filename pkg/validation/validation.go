package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators installs our extra rules on gin's binding
// engine. Call once at startup.
func RegisterCustomValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	return v.RegisterValidation("strongpassword", strongPassword)
}

// strongPassword requires at least 8 characters mixing upper, lower and
// digit.
func strongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}

// FormatValidationErrors turns validator errors into a field->message
// map for the error envelope. Non-validator errors map to a single
// generic entry.
func FormatValidationErrors(err error) map[string]string {
	details := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		details["body"] = "invalid request body"
		return details
	}

	for _, fieldErr := range validationErrors {
		field := strings.ToLower(fieldErr.Field())
		details[field] = DefaultMessage(field, fieldErr.Tag())
	}
	return details
}

func DefaultMessage(field, tag string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "numeric":
		return fmt.Sprintf("%s must contain only digits", field)
	case "min":
		return fmt.Sprintf("%s is below the minimum length", field)
	case "max":
		return fmt.Sprintf("%s exceeds the maximum length", field)
	case "strongpassword":
		return fmt.Sprintf("%s must be at least 8 characters with upper case, lower case and a digit", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
