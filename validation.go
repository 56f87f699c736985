package accounts

import (
	"errors"
	"fmt"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nyaruka/phonenumbers"
)

// Password policy bounds for new passwords.
var (
	MinPasswordLength = 8
	MaxPasswordLength = 100
)

// ValidatePasswordStrength is an ozzo rule for new passwords: length
// bounds plus a guard against entirely numeric values.
func ValidatePasswordStrength(value any) error {
	s, _ := value.(string)
	if len(s) < MinPasswordLength {
		return fmt.Errorf("password must contain at least %d characters", MinPasswordLength)
	}
	if len(s) > MaxPasswordLength {
		return fmt.Errorf("password must contain at most %d characters", MaxPasswordLength)
	}

	numeric := true
	for _, r := range s {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		return errors.New("password cannot be entirely numeric")
	}

	return nil
}

// ValidatePhoneNumber is an ozzo rule for the optional phone field.
// Parsing with the unknown region forces an international prefix.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "ZZ")
	if err != nil {
		return errors.New("phone number must be entered in international format, e.g. +999999999")
	}
	if !phonenumbers.IsValidNumber(num) {
		return errors.New("invalid phone number")
	}

	return nil
}

// ValidateStringEquals checks that both values match.
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo's per-field errors into a
// field to message map for transport. Non-validation errors land under
// a generic detail key.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["detail"] = err.Error()
	return out
}
