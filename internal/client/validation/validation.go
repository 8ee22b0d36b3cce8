// Package validation is the input sanitization collaborator: credentials and
// profile fields pass through here before the client ever touches the wire.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/blumenhaus/flora-shop/internal/core/domain"
	"github.com/blumenhaus/flora-shop/internal/core/ports"
)

const maxInputLength = 10000

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,50}$`)
	namePattern     = regexp.MustCompile(`^[a-zA-ZäöüÄÖÜß\s\-']+$`)

	xssPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<script`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)vbscript:`),
		regexp.MustCompile(`(?i)onload=`),
		regexp.MustCompile(`(?i)onerror=`),
		regexp.MustCompile(`(?i)onclick=`),
		regexp.MustCompile(`(?i)<iframe`),
		regexp.MustCompile(`(?i)<object`),
		regexp.MustCompile(`(?i)<embed`),
	}

	sqlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`('|--|;|\||\*|%)`),
		regexp.MustCompile(`(?i)union.*select`),
		regexp.MustCompile(`(?i)insert.*into`),
		regexp.MustCompile(`(?i)delete.*from`),
		regexp.MustCompile(`(?i)update.*set`),
		regexp.MustCompile(`(?i)drop.*table`),
		regexp.MustCompile(`(?i)exec.*sp_`),
	}

	htmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#x27;",
		"/", "&#x2F;",
	)
)

// Collaborator bundles the struct validator with the free-text heuristics.
type Collaborator struct {
	v *validator.Validate
}

// New builds a Collaborator with the flora-shop custom tags registered.
func New() *Collaborator {
	v := validator.New()
	RegisterCustomTags(v)
	return &Collaborator{v: v}
}

// RegisterCustomTags installs the flora-shop validation tags (username,
// personname, strongpassword) on a validator instance. The backend's
// request validator registers the same tags so both sides of the wire
// enforce identical rules.
func RegisterCustomTags(v *validator.Validate) {
	// Registration of static-pattern tags cannot fail.
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return len(PasswordWeaknesses(fl.Field().String())) == 0
	})
}

// SafeAgainstXSS reports whether the input matches none of the known
// cross-site-scripting patterns.
func SafeAgainstXSS(input string) bool {
	for _, p := range xssPatterns {
		if p.MatchString(input) {
			return false
		}
	}
	return true
}

// SafeAgainstSQLInjection reports whether the input matches none of the
// known injection patterns.
func SafeAgainstSQLInjection(input string) bool {
	for _, p := range sqlPatterns {
		if p.MatchString(input) {
			return false
		}
	}
	return true
}

// SanitizeHTML escapes HTML metacharacters.
func SanitizeHTML(input string) string {
	return htmlEscaper.Replace(input)
}

// ValidateAndSanitize rejects dangerous or oversized input and returns an
// HTML-escaped copy otherwise. Empty input is valid as-is.
func ValidateAndSanitize(input string) (string, error) {
	if input == "" {
		return input, nil
	}
	if !SafeAgainstXSS(input) {
		return "", fmt.Errorf("%w: input contains potentially dangerous content", domain.ErrValidationFailed)
	}
	if !SafeAgainstSQLInjection(input) {
		return "", fmt.Errorf("%w: input contains potentially dangerous content", domain.ErrValidationFailed)
	}
	if len(input) > maxInputLength {
		return "", fmt.Errorf("%w: input exceeds maximum allowed length", domain.ErrValidationFailed)
	}
	return SanitizeHTML(input), nil
}

// PasswordWeaknesses lists every rule the password fails to meet. An empty
// result means the password is acceptable.
func PasswordWeaknesses(password string) []string {
	var issues []string
	if len(password) < 8 {
		issues = append(issues, "must be at least 8 characters long")
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		issues = append(issues, "must contain an uppercase letter")
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		issues = append(issues, "must contain a lowercase letter")
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= '0' && r <= '9' }) {
		issues = append(issues, "must contain a number")
	}
	if !strings.ContainsAny(password, "@$!%*?&") {
		issues = append(issues, "must contain a special character (@$!%*?&)")
	}
	return issues
}

// ValidateRegistration checks a registration payload field by field and
// screens every free-text field against the injection heuristics. A nil
// return means the payload may be sent to the server.
func (c *Collaborator) ValidateRegistration(in ports.RegistrationInput) domain.FieldErrors {
	fe := make(domain.FieldErrors)

	for field, value := range map[string]string{
		"username":  in.Username,
		"firstname": in.Firstname,
		"lastname":  in.Lastname,
		"email":     in.Email,
	} {
		if _, err := ValidateAndSanitize(value); err != nil {
			fe[field] = "contains potentially dangerous content"
		}
	}

	if err := c.v.Struct(in); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			for _, f := range ve {
				field := strings.ToLower(f.Field())
				if _, taken := fe[field]; !taken {
					fe[field] = FieldMessage(f)
				}
			}
		} else {
			fe["_"] = err.Error()
		}
	}

	if len(fe) == 0 {
		return nil
	}
	return fe
}

// FieldMessage converts a single validation error into the human-readable
// message shown next to the offending field.
func FieldMessage(f validator.FieldError) string {
	field := strings.ToLower(f.Field())
	switch f.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, f.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, f.Param())
	case "username":
		return "username can only contain letters, numbers, underscores, and hyphens"
	case "personname":
		return field + " can only contain letters, spaces, hyphens, and apostrophes"
	case "strongpassword":
		value, _ := f.Value().(string)
		return "password " + strings.Join(PasswordWeaknesses(value), ", ")
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, f.Tag())
	}
}
