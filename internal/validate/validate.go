// Package validate provides the default field validator for
// participant-supplied input. The account flow only depends on the
// Validator interface, so deployments can swap these rules out.
package validate

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pmorrell/surveyid/internal/model"
)

var (
	useridPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{3,31}$`)
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// reservedPrefixes are public-id namespaces participants cannot claim
var reservedPrefixes = []string{"anon-"}

// Fields is the stateless default validator
type Fields struct{}

// New creates the default field validator
func New() *Fields {
	return &Fields{}
}

// Validate checks one named field, returning a *model.FieldError on
// failure
func (f *Fields) Validate(field, value string) error {
	switch field {
	case "userid":
		return f.userid(value)
	case "password":
		return f.password(value)
	case "firstname":
		return f.name(field, value, true)
	case "lastname":
		return f.name(field, value, false)
	case "email":
		return f.email(value)
	default:
		return model.NewFieldError(field, "unknown field")
	}
}

func (f *Fields) userid(value string) error {
	if !useridPattern.MatchString(value) {
		return model.NewFieldError("userid",
			"must be 4-32 characters, letters, digits, dash or underscore, starting with a letter")
	}
	lower := strings.ToLower(value)
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return model.NewFieldError("userid", "this prefix is reserved")
		}
	}
	return nil
}

func (f *Fields) password(value string) error {
	if len(value) < 8 {
		return model.NewFieldError("password", "must be at least 8 characters")
	}
	if len(value) > 128 {
		return model.NewFieldError("password", "must be at most 128 characters")
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return model.NewFieldError("password", "control characters are not allowed")
		}
	}
	return nil
}

func (f *Fields) name(field, value string, required bool) error {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			return model.NewFieldError(field, "must not be empty")
		}
		return nil
	}
	if len(value) > 64 {
		return model.NewFieldError(field, "must be at most 64 characters")
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return model.NewFieldError(field, "control characters are not allowed")
		}
	}
	return nil
}

func (f *Fields) email(value string) error {
	if len(value) > 254 || !emailPattern.MatchString(value) {
		return model.NewFieldError("email", "not a valid email address")
	}
	return nil
}
