// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/compliance/internal/errors"
)

var (
	// identifierRegex matches catalog-style identifiers: lowercase snake_case,
	// starting with a letter (e.g., "view_audit_trail", "manage_permissions").
	identifierRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// Identifier validates catalog identifiers (lowercase snake_case).
var Identifier = validation.NewStringRuleWithError(
	func(s string) bool {
		return identifierRegex.MatchString(s)
	},
	validation.NewError("validation_identifier", "must be lowercase letters, digits and underscores"),
)
