// Package validation enforces the per-field rules for contact form
// submissions and reports human-readable violations.
package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Field length limits
const (
	MinNameLength    = 2
	MaxNameLength    = 100
	MaxEmailLength   = 100
	MinSubjectLength = 3
	MaxSubjectLength = 200
	MinMessageLength = 10
	MaxMessageLength = 5000
)

// nameRegex restricts names to Latin letters (including the German
// umlaut/sharp-s set), whitespace, apostrophes and hyphens
var nameRegex = regexp.MustCompile(`^[a-zA-ZäöüßÄÖÜ\s'-]+$`)

// Validator instance for email syntax checks
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate checks the sanitized form fields against the submission rules
// and returns one violation message per failing field, in field order.
// A field reports only its first failing rule; later rules for that field
// are not evaluated.
func Validate(name, email, subject, message string) []string {
	var violations []string

	// Name
	switch {
	case name == "":
		violations = append(violations, "Name is required.")
	case len(name) < MinNameLength || len(name) > MaxNameLength:
		violations = append(violations, "Name must be between 2 and 100 characters.")
	case !nameRegex.MatchString(name):
		violations = append(violations, "Name contains invalid characters.")
	}

	// Email
	switch {
	case email == "":
		violations = append(violations, "Email is required.")
	case !IsValidEmail(email):
		violations = append(violations, "Invalid email format.")
	case len(email) > MaxEmailLength:
		violations = append(violations, "Email must not exceed 100 characters.")
	}

	// Subject
	switch {
	case subject == "":
		violations = append(violations, "Subject is required.")
	case len(subject) < MinSubjectLength || len(subject) > MaxSubjectLength:
		violations = append(violations, "Subject must be between 3 and 200 characters.")
	}

	// Message
	switch {
	case message == "":
		violations = append(violations, "Message is required.")
	case len(message) < MinMessageLength:
		violations = append(violations, "Message must be at least 10 characters.")
	case len(message) > MaxMessageLength:
		violations = append(violations, "Message must not exceed 5000 characters.")
	}

	return violations
}

// IsValidEmail reports whether the address is syntactically valid
func IsValidEmail(email string) bool {
	return validate.Var(email, "email") == nil
}
