package auth

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"unicode"
)

const (
	maxNameLength  = 100
	minPhoneDigits = 6
	maxPhoneDigits = 15
)

// FieldErrors maps a form field to a human-readable message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", f, e[f])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// orNil returns nil for an empty set so callers can compare against nil.
func (e FieldErrors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// ValidateSignUp checks the registration form.
func ValidateSignUp(email, password, displayName string) error {
	errs := FieldErrors{}
	checkEmail(errs, email)
	if len(password) < MinPasswordLength {
		errs["password"] = fmt.Sprintf("must be at least %d characters", MinPasswordLength)
	}
	name := strings.TrimSpace(displayName)
	switch {
	case name == "":
		errs["display_name"] = "is required"
	case len([]rune(name)) > maxNameLength:
		errs["display_name"] = fmt.Sprintf("must be at most %d characters", maxNameLength)
	}
	return errs.orNil()
}

// ValidateSignIn checks the login form.
func ValidateSignIn(email, password string) error {
	errs := FieldErrors{}
	checkEmail(errs, email)
	if password == "" {
		errs["password"] = "is required"
	}
	return errs.orNil()
}

// ValidateProfile checks the profile form. Both fields are optional.
func ValidateProfile(fullName, phone string) error {
	errs := FieldErrors{}
	if len([]rune(strings.TrimSpace(fullName))) > maxNameLength {
		errs["full_name"] = fmt.Sprintf("must be at most %d characters", maxNameLength)
	}
	if phone = strings.TrimSpace(phone); phone != "" && !validPhone(phone) {
		errs["phone"] = "must be a phone number"
	}
	return errs.orNil()
}

func checkEmail(errs FieldErrors, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs["email"] = "is required"
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		errs["email"] = "must be a valid email address"
	}
}

// validPhone accepts digits with an optional leading + and spaces, dashes or
// dots as separators.
func validPhone(phone string) bool {
	digits := 0
	for i, r := range phone {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '.':
		default:
			return false
		}
	}
	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}
